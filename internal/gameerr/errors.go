// Package gameerr defines the error taxonomy shared by all game services.
// Handlers map these onto user-visible texts; anything else is treated as
// an internal failure and only logged.
package gameerr

import (
	"errors"
	"fmt"
)

// Kind sentinels. Service errors wrap exactly one of these so call sites
// can branch with errors.Is without knowing the concrete message.
var (
	ErrPermissionDenied   = errors.New("permission denied")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrNotFound           = errors.New("not found")
	ErrExternalFailure    = errors.New("external failure")
	ErrVictimsExhausted   = errors.New("no unused victims remain")
)

// Error carries a kind plus a localization key for the user-facing reply.
type Error struct {
	Kind    error
	TextKey string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.TextKey, e.cause)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.TextKey)
}

func (e *Error) Unwrap() error { return e.Kind }

// Cause returns the wrapped low-level error, if any.
func (e *Error) Cause() error { return e.cause }

// New builds a taxonomy error with a localization key.
func New(kind error, textKey string) *Error {
	return &Error{Kind: kind, TextKey: textKey}
}

// Wrap attaches an underlying cause to a taxonomy error.
func Wrap(kind error, textKey string, cause error) *Error {
	return &Error{Kind: kind, TextKey: textKey, cause: cause}
}

// TextKeyOf extracts the localization key from a taxonomy error,
// or returns the fallback key for unclassified errors.
func TextKeyOf(err error, fallback string) string {
	var ge *Error
	if errors.As(err, &ge) && ge.TextKey != "" {
		return ge.TextKey
	}
	return fallback
}
