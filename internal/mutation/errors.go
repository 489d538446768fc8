package mutation

import (
	"errors"
	"fmt"
)

// Kind classifies a failed mutation. Every kind is recoverable by the caller.
type Kind string

const (
	// KindSchemaInvalid: input rejected by its schema; Fields carries the messages.
	KindSchemaInvalid Kind = "schema_invalid"
	// KindPersistence: the database write failed; nothing was committed.
	KindPersistence Kind = "persistence_error"
	// KindUpstream: a provider call failed or the provider is not configured.
	KindUpstream Kind = "upstream_service_error"
)

// FieldErrors maps a form field name to its human-readable messages.
type FieldErrors map[string][]string

// Add appends msg to field.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Merge copies every message of other into fe.
func (fe FieldErrors) Merge(other FieldErrors) {
	for f, msgs := range other {
		fe[f] = append(fe[f], msgs...)
	}
}

func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

// Error is the failure result of a mutation.
type Error struct {
	Kind    Kind
	Message string
	Fields  FieldErrors
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// State is the same-page payload returned to the form on failure.
type State struct {
	Errors  FieldErrors `json:"errors,omitempty"`
	Message *string     `json:"message"`
}

// State renders the error for re-display. Persistence and upstream failures
// carry no field attribution.
func (e *Error) State() State {
	msg := e.Message
	s := State{Message: &msg}
	if e.Kind == KindSchemaInvalid && !e.Fields.Empty() {
		s.Errors = e.Fields
	}
	return s
}

func Invalid(message string, fields FieldErrors) *Error {
	return &Error{Kind: KindSchemaInvalid, Message: message, Fields: fields}
}

func Persistence(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var me *Error
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}
