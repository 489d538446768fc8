package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bizdash/internal/rbac"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("users: not found")
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	ErrUnknownRole        = errors.New("users: unknown role")
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

// Finder loads a user by login email.
type Finder interface {
	ByEmail(ctx context.Context, email string) (User, error)
}

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) ByEmail(ctx context.Context, email string) (User, error) {
	const q = `SELECT id, name, email, password, role FROM users WHERE email = $1`

	var u User
	err := r.db.QueryRowContext(ctx, q, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("user by email: %w", err)
	}
	return u, nil
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords both return ErrInvalidCredentials. A matching user whose stored
// role is not a known one gets ErrUnknownRole and no session.
func Authenticate(ctx context.Context, f Finder, email, password string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	u, err := f.ByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !rbac.Valid(u.Role) {
		return User{}, fmt.Errorf("%w: %q", ErrUnknownRole, u.Role)
	}
	return u, nil
}

// HashPassword is used when seeding users.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
