package api

import (
	"errors"
	"fmt"
)

// Kind categorizes a gateway failure so callers can react without
// inspecting HTTP status codes or transport details.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNetwork
	KindNotFound
	KindUnauthorized
)

// String returns the display name for the error kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Error is the single error type surfaced by the gateway and by
// client-side validation. Status is zero when no response was received.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Errorf builds a categorized error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a categorized error around an underlying cause.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

// KindOf extracts the category from any error chain. Errors that did
// not originate in the gateway report KindUnknown.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsUnauthorized reports whether err is a credential failure.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// IsNotFound reports whether err is a missing-resource failure.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation reports whether err was rejected before transmission
// or by server-side validation.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
