package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("document not found")
	ErrNotRecipient      = errors.New("you are not a valid recipient for this document")
	ErrAlreadySigned     = errors.New("recipient has already signed this document")
	ErrNotOpenForSigning = errors.New("document is not open for signing")
	ErrInvalidTransition = errors.New("invalid status transition")
	// Destructive actions must be confirmed by the caller.
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrMissingUploads       = errors.New("required file uploads are missing")
	ErrNoActivity           = errors.New("no activity to export")
	ErrNotEditable          = errors.New("document can no longer be edited")
	ErrExportDisabled       = errors.New("object storage export is not configured")
)

// ValidationError names the input that failed a setup precondition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func validationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func transitionError(from, action string) error {
	return fmt.Errorf("%w: cannot %s a document in %s status", ErrInvalidTransition, action, from)
}
