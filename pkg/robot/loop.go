package robot

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MMintLab/libfranka/pkg/limits"
	"github.com/MMintLab/libfranka/pkg/protocol"
	"github.com/MMintLab/libfranka/pkg/ringlog"
	"github.com/MMintLab/libfranka/pkg/session"
)

// loopState tracks the control activation through its lifecycle.
type loopState int

const (
	stateIdle loopState = iota
	stateHandshaking
	stateRunning
	stateFinished
	stateAborted
)

// String returns a human-readable state name.
func (s loopState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateHandshaking:
		return "handshaking"
	case stateRunning:
		return "running"
	case stateFinished:
		return "finished"
	case stateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// controlLoop runs one activation: receive state, invoke callbacks, validate,
// record, send. It owns the session exclusively for its lifetime; the facade
// releases the session after run returns, on every path.
type controlLoop struct {
	sess      *session.Session
	validator *limits.Validator
	buf       *ringlog.Buffer
	motion    MotionFunc
	torque    TorqueFunc

	activation uuid.UUID
	logger     *slog.Logger

	state    loopState
	prevCmd  *protocol.Command
	prevTime uint64
	havePrev bool
	cycles   uint64
}

// run drives the loop to Finished or Aborted. The sole suspension point is
// ReceiveState; everything else happens synchronously inside the cycle.
func (l *controlLoop) run() error {
	l.state = stateHandshaking

	for {
		state, err := l.sess.ReceiveState()
		if err != nil {
			return l.abort("receiving state failed", err)
		}
		if l.state == stateHandshaking {
			l.state = stateRunning
		}

		dt := l.elapsed(state.Time)

		motion, err := l.motion(state, dt)
		if err != nil {
			return l.abort("motion callback failed", err)
		}

		var torque TorqueCommand
		if l.torque != nil {
			torque, err = l.torque(state, dt)
			if err != nil {
				return l.abort("torque callback failed", err)
			}
		}

		cmd := l.compose(state.Seq, motion, torque)

		// Rejected commands never reach the wire.
		if err := l.validator.Check(l.prevCmd, &cmd); err != nil {
			return l.abort("command rejected", err)
		}

		l.buf.Record(state, cmd, time.Now())

		if err := l.sess.SendCommand(&cmd); err != nil {
			return l.abort("sending command failed", err)
		}

		prev := cmd
		l.prevCmd = &prev
		l.prevTime = state.Time
		l.havePrev = true
		l.cycles++

		if cmd.Signal != protocol.SignalContinue {
			l.state = stateFinished
			l.logger.Info("motion finished",
				"activation", l.activation, "cycles", l.cycles, "signal", cmd.Signal.String())
			return nil
		}
	}
}

// elapsed computes the callback duration for this cycle. The first cycle
// establishes the baseline and always reports zero.
func (l *controlLoop) elapsed(now uint64) time.Duration {
	if !l.havePrev || now < l.prevTime {
		return 0
	}
	return time.Duration(now-l.prevTime) * time.Microsecond
}

// compose folds the callback results into one wire command. Stop takes
// precedence over MotionFinished when both arrive in the same cycle.
func (l *controlLoop) compose(seq uint32, motion MotionCommand, torque TorqueCommand) protocol.Command {
	cmd := protocol.Command{
		Seq:    seq,
		Kind:   motion.kind,
		Motion: motion.motion,
	}
	if l.torque != nil {
		cmd.HasTorque = true
		cmd.Tau = torque.tau
	}

	switch {
	case motion.signal == protocol.SignalStop || torque.signal == protocol.SignalStop:
		cmd.Signal = protocol.SignalStop
	case motion.signal == protocol.SignalFinished || torque.signal == protocol.SignalFinished:
		cmd.Signal = protocol.SignalFinished
	}

	// A bare Stop carries no motion variant; reuse the activation's kind so
	// the frame still has a well-formed tag.
	if cmd.Kind == 0 {
		if l.prevCmd != nil {
			cmd.Kind = l.prevCmd.Kind
		} else {
			cmd.Kind = protocol.KindJointVelocities
		}
	}
	return cmd
}

// abort wraps a mid-cycle failure into a ControlError with the diagnostic
// snapshot attached. Session teardown happens in the facade on every path.
func (l *controlLoop) abort(reason string, err error) error {
	l.state = stateAborted
	l.logger.Warn("control aborted",
		"activation", l.activation, "cycles", l.cycles, "reason", reason, "err", err)
	return &ControlError{
		Activation: l.activation,
		Reason:     reason,
		Err:        err,
		Log:        l.buf.Snapshot(),
	}
}
