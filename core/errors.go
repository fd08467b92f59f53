package core

import (
	"errors"
	"fmt"
)

var (
	// ErrRunTimeout is returned when a run does not reach a terminal status in time.
	ErrRunTimeout = errors.New("run did not finish before the timeout")
	// ErrTurnInProgress is returned when a session already has a turn in flight.
	ErrTurnInProgress = errors.New("a turn is already in progress for this session")
)

// RunError reports a run that stopped in a terminal status other than completed.
type RunError struct {
	Run Run
}

// Error implements the error interface for RunError.
func (e *RunError) Error() string {
	if e.Run.LastError != "" {
		return fmt.Sprintf("run %s ended with status %s: %s", e.Run.ID, e.Run.Status, e.Run.LastError)
	}
	return fmt.Sprintf("run %s ended with status %s", e.Run.ID, e.Run.Status)
}

// ErrEmptyMessage is returned when a turn is started without any text.
var ErrEmptyMessage = errors.New("message text is empty")
