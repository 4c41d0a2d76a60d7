package inventory

import (
	"errors"
	"fmt"

	"github.com/erazemk/paintstock/internal/store"
)

// Kind classifies a domain failure.
type Kind int

// Failure kinds.
const (
	KindNotFound Kind = iota + 1
	KindDuplicateID
	KindInvalidInput
	KindNotAuthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindDuplicateID:
		return "duplicate id"
	case KindInvalidInput:
		return "invalid input"
	case KindNotAuthorized:
		return "not authorized"
	}
	return "unknown"
}

// Error is a recoverable domain failure. Its message is safe to show to
// users. Storage faults are never wrapped in an Error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works for every not-found failure.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "not found"}
	ErrDuplicateID   = &Error{Kind: KindDuplicateID, Message: "duplicate id"}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrNotAuthorized = &Error{Kind: KindNotAuthorized, Message: "not authorized"}
)

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(id string) *Error {
	return errorf(KindNotFound, "item %q not found", id)
}

func duplicateID(id string) *Error {
	return errorf(KindDuplicateID, "id %q is already in use", id)
}

// AsError returns the domain failure in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// translate maps store sentinels onto domain failures and leaves faults as is.
func translate(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFound(id)
	case errors.Is(err, store.ErrDuplicateID):
		return duplicateID(id)
	}
	return err
}
