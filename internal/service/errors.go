package service

import (
	"errors"
	"fmt"

	"github.com/tradehq/backflow/internal/repository"
)

// ErrConflict signals a lost compare-and-set or uniqueness race. The caller
// should reload and re-decide.
var ErrConflict = repository.ErrStatusConflict

var ErrNotFound = errors.New("not found")

// ValidationError marks user input that violates an invariant or a
// transition guard. No state was changed.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation failure, for handlers
// deciding between 400 and 500.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
