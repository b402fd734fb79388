package attack

import (
	"errors"
	"fmt"
)

// ImpossibleActionError is a game-rule rejection meant to be shown to the player.
type ImpossibleActionError struct {
	Message string
}

func (e *ImpossibleActionError) Error() string { return e.Message }

func impossible(format string, args ...any) error {
	return &ImpossibleActionError{Message: fmt.Sprintf(format, args...)}
}

// IsImpossible reports whether err wraps an ImpossibleActionError.
func IsImpossible(err error) bool {
	var target *ImpossibleActionError
	return errors.As(err, &target)
}
