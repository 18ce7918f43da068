package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrExtraction        = errors.New("text extraction failed")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// PublicError carries a message that is safe to show to API clients.
type PublicError struct {
	Kind    error
	Message string
}

func (e *PublicError) Error() string {
	return e.Message
}

func (e *PublicError) Unwrap() error {
	return e.Kind
}

// NewPublicError builds an error of the given kind whose text is returned verbatim to clients.
func NewPublicError(kind error, message string) error {
	return &PublicError{Kind: kind, Message: message}
}

// PublicMessage returns the client-facing message of err, if it carries one.
func PublicMessage(err error) (string, bool) {
	var pub *PublicError
	if errors.As(err, &pub) {
		return pub.Message, true
	}
	return "", false
}
