// Package apperr defines the error taxonomy shared by the client core and
// the server: bad input, missing entities, remote failures, conflicts and
// data-integrity problems.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinels matched with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrRemote        = errors.New("remote request failed")
	ErrConflict      = errors.New("conflict")
	ErrDataIntegrity = errors.New("data integrity violation")
)

// ValidationError reports bad caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validation builds a ValidationError for field.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an operation on an id that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// RemoteError wraps a transport or server failure. Status is 0 when no
// response was received.
type RemoteError struct {
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("remote: %d %s", e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("remote: %d %s", e.Status, http.StatusText(e.Status))
	case e.Err != nil:
		return "remote: " + e.Err.Error()
	}
	return "remote: " + e.Message
}

func (e *RemoteError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRemote}
	}
	return []error{ErrRemote, e.Err}
}

// IsUnauthorized reports whether err is a remote 401.
func IsUnauthorized(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Status == http.StatusUnauthorized
}

// ConflictError reports a write that collides with existing state,
// e.g. registering an email twice.
type ConflictError struct {
	Kind    string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Kind, e.Message)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// DataIntegrityError lists completions whose habit no longer exists.
type DataIntegrityError struct {
	OrphanIDs []string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("%d completion(s) reference missing habits: %s",
		len(e.OrphanIDs), strings.Join(e.OrphanIDs, ", "))
}

func (e *DataIntegrityError) Unwrap() error { return ErrDataIntegrity }

// Message returns a short user-presentable description of err.
func Message(err error) string {
	var (
		ve *ValidationError
		nf *NotFoundError
		re *RemoteError
		ce *ConflictError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &nf):
		return nf.Error()
	case errors.As(err, &ce):
		return ce.Message
	case errors.As(err, &re):
		if re.Status == http.StatusUnauthorized {
			return "session expired, please sign in again"
		}
		if re.Message != "" {
			return re.Message
		}
		return "server unavailable"
	}
	return err.Error()
}
