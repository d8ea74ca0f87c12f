package drafts

import (
	"errors"
	"fmt"

	"github.com/codr1/themestudio/internal/models"
)

var (
	// ErrNotFound reports a theme id that is not in the catalog.
	ErrNotFound = errors.New("theme not found")
	// ErrInvalidOperation reports a well-formed request that an invariant forbids.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrValidation reports a malformed update or import payload.
	ErrValidation = errors.New("validation failed")
)

// ValidationError names the offending field of a rejected update or import.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func notFound(id string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, id)
}

func invalidOperation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}

// asValidation converts model validation failures into ValidationError and passes
// everything else through.
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	var fieldErr models.FieldError
	if errors.As(err, &fieldErr) {
		return &ValidationError{Field: fieldErr.Field, Reason: fieldErr.Reason}
	}
	return err
}
