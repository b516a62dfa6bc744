package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested game id does not exist.
var ErrNotFound = errors.New("game not found")

// ValidationError reports a bad field value. Nothing is persisted when one
// is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
