package calls

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bizdash/pkg/utils"
)

// MemoryRepo is an in-memory append-only repository useful for tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	events []Event

	// FailWith, when set, is returned by Insert instead of storing.
	FailWith error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(ctx context.Context, e Event) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return 0, r.FailWith
	}
	r.nextID++
	e.ID = r.nextID
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now().UTC()
	}
	r.events = append(r.events, e)
	return e.ID, nil
}

func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *MemoryRepo) matching(query string) []Event {
	q := strings.ToLower(query)
	var out []Event
	for _, e := range r.events {
		for _, f := range []*string{e.FromNumber, e.ToNumber, e.CallSid, e.Direction, e.CallStatus, e.CallerCountry, e.CallerCity, e.CallerState, e.CallerZip} {
			if f != nil && strings.Contains(strings.ToLower(*f), q) {
				out = append(out, e)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	return out
}

func (r *MemoryRepo) ListFiltered(ctx context.Context, query string, page int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if page < 1 {
		page = 1
	}
	all := r.matching(query)
	start := (page - 1) * RowsPerPage
	if start >= len(all) {
		return nil, nil
	}
	end := start + RowsPerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *MemoryRepo) CountPages(ctx context.Context, query string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return utils.PageCount(len(r.matching(query)), RowsPerPage), nil
}
