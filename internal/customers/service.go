package customers

import (
	"context"
	"strings"

	"bizdash/internal/mutation"
)

// NoteWriter stores customer notes.
type NoteWriter interface {
	InsertNote(ctx context.Context, customerID, note string) (Note, error)
}

type Service struct {
	notes NoteWriter
	cache mutation.Invalidator
}

func NewService(notes NoteWriter, cache mutation.Invalidator) *Service {
	return &Service{notes: notes, cache: cache}
}

type NoteInput struct {
	CustomerID string
	Note       string
}

const missingNoteFields = "Missing Fields. Failed to create note."

func decodeNote(f mutation.Form) (NoteInput, mutation.FieldErrors) {
	fe := mutation.FieldErrors{}
	id, ok := f.Lookup("customerId")
	if !ok || id == "" {
		fe.Add("customerId", "Please select a customer.")
	}
	note, ok := f.Lookup("note")
	if !ok || strings.TrimSpace(note) == "" {
		fe.Add("note", "Please enter a note.")
	}
	return NoteInput{CustomerID: id, Note: note}, fe
}

// AddNote stores a note and returns to that customer's notes page.
func (s *Service) AddNote(ctx context.Context, f mutation.Form) (mutation.Outcome, error) {
	return mutation.Run(ctx, s.cache, mutation.Action[NoteInput]{
		Name:           "create_note",
		InvalidMessage: missingNoteFields,
		PersistMessage: "Database Error: Failed to create note.",
		Decode:         decodeNote,
		Persist: func(ctx context.Context, in NoteInput) (string, error) {
			n, err := s.notes.InsertNote(ctx, in.CustomerID, in.Note)
			return n.ID, err
		},
		Revalidate: func(in NoteInput) []string { return []string{NotesPath(in.CustomerID)} },
		RedirectTo: func(in NoteInput) string { return NotesPath(in.CustomerID) },
	}, f)
}
