// Package mutation is the shared contract of every state-changing dashboard
// operation: decode and validate untrusted form input, persist it, invalidate
// the cached listing it affects, then navigate to that listing.
package mutation

import (
	"context"

	"bizdash/internal/auth"
	"bizdash/internal/metrics"
	"bizdash/pkg/logger"
)

// Invalidator drops cached views rendered for a listing path.
type Invalidator interface {
	InvalidatePath(ctx context.Context, path string) error
}

// Action describes one mutation over a validated value of type T.
type Action[T any] struct {
	// Name identifies the action in logs and metrics, e.g. "create_invoice".
	Name string

	// InvalidMessage accompanies field errors, PersistMessage a failed write.
	InvalidMessage string
	PersistMessage string

	// Decode coerces the form, computes derived values and validates.
	// A non-empty FieldErrors stops the pipeline before any write.
	Decode func(f Form) (T, FieldErrors)

	// Persist performs the write. It returns the affected entity id.
	// A *Error returned here (e.g. an upstream failure) is passed through as is.
	Persist func(ctx context.Context, in T) (string, error)

	// Revalidate lists the listing paths whose cached views are now stale.
	Revalidate func(in T) []string

	// RedirectTo is the canonical listing location after success. Empty means
	// the caller stays where it is.
	RedirectTo func(in T) string
}

// Outcome is the success result of Run.
type Outcome struct {
	ID         string
	RedirectTo string
}

// Run executes a. Failures are returned as *Error and never partially commit:
// Persist owns the transaction boundary, and invalidation plus navigation only
// happen after it returned without error.
func Run[T any](ctx context.Context, cache Invalidator, a Action[T], f Form) (Outcome, error) {
	log := logger.From(ctx).With("action", a.Name)
	if uid, err := auth.UserID(ctx); err == nil {
		log = log.With("user_id", uid)
	}

	in, fields := a.Decode(f)
	if !fields.Empty() {
		log.Debug("mutation rejected by schema", "fields", fields)
		metrics.ObserveMutation(a.Name, string(KindSchemaInvalid))
		return Outcome{}, Invalid(a.InvalidMessage, fields)
	}

	id, err := a.Persist(ctx, in)
	if err != nil {
		if me, ok := AsError(err); ok {
			log.Error("mutation failed", "kind", me.Kind, "err", err)
			metrics.ObserveMutation(a.Name, string(me.Kind))
			return Outcome{}, me
		}
		log.Error("mutation persist failed", "err", err)
		metrics.ObserveMutation(a.Name, string(KindPersistence))
		return Outcome{}, Persistence(a.PersistMessage, err)
	}

	if a.Revalidate != nil && cache != nil {
		for _, p := range a.Revalidate(in) {
			// The write is durable; a stale view only lives until the cache TTL.
			if err := cache.InvalidatePath(ctx, p); err != nil {
				log.Warn("view invalidation failed", "path", p, "err", err)
			}
		}
	}

	metrics.ObserveMutation(a.Name, "ok")
	out := Outcome{ID: id}
	if a.RedirectTo != nil {
		out.RedirectTo = a.RedirectTo(in)
	}
	return out, nil
}
