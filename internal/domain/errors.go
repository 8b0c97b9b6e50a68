package domain

import "errors"

// ErrNotFound signals an unknown identifier on retrieval. Handlers map it
// to a 404; everything else at the store boundary is a 500.
var ErrNotFound = errors.New("not found")

// ValidationError reports missing or malformed caller input. It is raised
// before any store access and maps to a 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
