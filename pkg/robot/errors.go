package robot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MMintLab/libfranka/pkg/ringlog"
)

var (
	// ErrControlActive is returned when a second activation is attempted
	// while one is running on the same Robot.
	ErrControlActive = errors.New("robot: a control activation is already running")

	// ErrNoMotionCallback is returned when Control is called without a
	// motion callback.
	ErrNoMotionCallback = errors.New("robot: motion callback must not be nil")
)

// ControlError reports an aborted control activation: a limit violation, a
// session failure mid-motion, or an error returned by a callback. It always
// carries the diagnostic log of the most recent cycles; the session is
// already disconnected by the time the error surfaces.
type ControlError struct {
	Activation uuid.UUID
	Reason     string
	Err        error
	Log        []ringlog.Record
}

func (e *ControlError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("robot: control aborted: %s: %v (activation %s, %d cycles logged)",
			e.Reason, e.Err, e.Activation, len(e.Log))
	}
	return fmt.Sprintf("robot: control aborted: %s (activation %s, %d cycles logged)",
		e.Reason, e.Activation, len(e.Log))
}

func (e *ControlError) Unwrap() error { return e.Err }
