package host

import (
	"errors"
	"fmt"
)

// ErrNoMessages is returned when a unit of work carries no commands.
var ErrNoMessages = errors.New("unit of work has no messages")

// UnitError reports an aborted unit of work.
//
// It wraps the error that caused the abort, so errors.Is and errors.As
// see through it to the factory error:
//
//	if errors.Is(err, factory.ErrFactoryPaused) { ... }
type UnitError struct {
	// UnitID identifies the aborted unit.
	UnitID string

	// Index is the position of the failing message within the unit.
	Index int

	// Kind is the failing message's command name.
	Kind string

	// Err is the cause.
	Err error
}

// Error implements the error interface.
func (e *UnitError) Error() string {
	return fmt.Sprintf("unit %s aborted at message %d (%s): %v", e.UnitID, e.Index, e.Kind, e.Err)
}

// Unwrap returns the cause.
func (e *UnitError) Unwrap() error {
	return e.Err
}
