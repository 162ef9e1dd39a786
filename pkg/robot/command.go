package robot

import (
	"time"

	"github.com/MMintLab/libfranka/pkg/protocol"
)

// State is one robot-state snapshot as delivered to callbacks. It is handed
// to callbacks by value; nothing the callback does to it reaches the loop.
type State = protocol.State

// MotionCommand is the tagged union a motion callback returns each cycle:
// exactly one motion variant, plus a completion tag. Build values with the
// constructors below; the zero value is not a valid command.
type MotionCommand struct {
	kind   protocol.MotionKind
	motion [16]float64
	signal protocol.Signal
}

// JointPositions commands the given joint configuration in radians.
func JointPositions(q [7]float64) MotionCommand {
	m := MotionCommand{kind: protocol.KindJointPositions}
	copy(m.motion[:], q[:])
	return m
}

// JointVelocities commands the given joint velocities in rad/s.
func JointVelocities(dq [7]float64) MotionCommand {
	m := MotionCommand{kind: protocol.KindJointVelocities}
	copy(m.motion[:], dq[:])
	return m
}

// CartesianPose commands the given end-effector pose as a 4x4 column-major
// homogeneous transform.
func CartesianPose(pose [16]float64) MotionCommand {
	return MotionCommand{kind: protocol.KindCartesianPose, motion: pose}
}

// CartesianVelocities commands the given end-effector twist
// (vx vy vz wx wy wz).
func CartesianVelocities(v [6]float64) MotionCommand {
	m := MotionCommand{kind: protocol.KindCartesianVelocities}
	copy(m.motion[:], v[:])
	return m
}

// MotionFinished marks m as the final command: it is still validated and
// sent, then the motion ends.
func MotionFinished(m MotionCommand) MotionCommand {
	m.signal = protocol.SignalFinished
	return m
}

// Stop requests an immediate halt. No further motion command is sent beyond
// the graceful stop frame.
func Stop() MotionCommand {
	return MotionCommand{signal: protocol.SignalStop}
}

// TorqueCommand is the result of a torque callback: seven joint torques in
// Nm plus a completion tag.
type TorqueCommand struct {
	tau    [7]float64
	signal protocol.Signal
}

// Torques commands the given joint torques.
func Torques(tau [7]float64) TorqueCommand {
	return TorqueCommand{tau: tau}
}

// TorquesFinished marks t as the final torque command.
func TorquesFinished(t TorqueCommand) TorqueCommand {
	t.signal = protocol.SignalFinished
	return t
}

// TorquesStop requests an immediate halt from the torque side.
func TorquesStop() TorqueCommand {
	return TorqueCommand{signal: protocol.SignalStop}
}

// MotionFunc computes the next motion command from the freshly received
// state and the elapsed time since the previous cycle (zero on the first
// cycle). It runs on the control goroutine and must return well within the
// controller's cycle budget; an error aborts the activation.
type MotionFunc func(state State, dt time.Duration) (MotionCommand, error)

// TorqueFunc computes the next joint torques alongside a motion command.
// Same timing contract as MotionFunc.
type TorqueFunc func(state State, dt time.Duration) (TorqueCommand, error)
