// Package protocol defines the fixed-layout wire messages exchanged with the
// robot controller: the TCP handshake frames and the periodic UDP state and
// command messages. All multi-byte fields are little-endian and every layout
// has a compile-time constant size, so encode and decode never grow the heap.
package protocol

// Magic identifies handshake frames of this protocol family ("FRKA").
const Magic uint32 = 0x46524B41

// Version is the protocol version this library speaks.
const Version uint16 = 5

// Server versions this library can talk to. Anything outside the range is
// rejected at handshake time.
const (
	MinServerVersion uint16 = 4
	MaxServerVersion uint16 = 5
)

// Handshake status codes returned in the server hello.
const (
	StatusAccepted     uint8 = 0
	StatusIncompatible uint8 = 1
)

// Wire sizes in bytes.
const (
	ClientHelloSize = 8
	ServerHelloSize = 10
	StateSize       = 472
	CommandSize     = 196
)

// MotionKind tags the active motion variant of a command.
type MotionKind uint8

const (
	KindJointPositions MotionKind = iota + 1
	KindJointVelocities
	KindCartesianPose
	KindCartesianVelocities
)

// String returns a human-readable kind name.
func (k MotionKind) String() string {
	switch k {
	case KindJointPositions:
		return "joint_positions"
	case KindJointVelocities:
		return "joint_velocities"
	case KindCartesianPose:
		return "cartesian_pose"
	case KindCartesianVelocities:
		return "cartesian_velocities"
	default:
		return "unknown"
	}
}

// Signal is the completion tag carried by every command.
type Signal uint8

const (
	// SignalContinue means the motion keeps running.
	SignalContinue Signal = iota

	// SignalFinished marks the last command; the controller executes it,
	// then ends the motion.
	SignalFinished

	// SignalStop requests an immediate halt. The command payload is ignored
	// by the controller apart from the tag itself.
	SignalStop
)

// String returns a human-readable signal name.
func (s Signal) String() string {
	switch s {
	case SignalContinue:
		return "continue"
	case SignalFinished:
		return "finished"
	case SignalStop:
		return "stop"
	default:
		return "unknown"
	}
}

// ClientHello is the first frame sent over the TCP channel. UDPPort tells the
// controller where to stream the periodic state messages.
type ClientHello struct {
	Version uint16
	UDPPort uint16
}

// ServerHello is the controller's handshake reply.
type ServerHello struct {
	Status  uint8
	Version uint16
	RateHz  uint16 // control rate, commonly 1000
}

// State is one periodic robot-state snapshot. Seq increases by exactly one
// per controller tick within a session.
type State struct {
	Seq  uint32
	Time uint64 // microseconds since controller start

	Q    [7]float64 // measured joint positions [rad]
	Dq   [7]float64 // measured joint velocities [rad/s]
	QD   [7]float64 // desired joint positions [rad]
	DqD  [7]float64 // desired joint velocities [rad/s]
	TauJ [7]float64 // measured joint torques [Nm]

	OTEE   [16]float64 // end-effector pose, 4x4 column-major
	Wrench [6]float64  // estimated external wrench (Fx Fy Fz Tx Ty Tz)
}

// Command is one periodic command message. Seq echoes the state message the
// command answers. Exactly one motion variant is active, identified by Kind;
// the Motion payload uses the first 7 (joint), 16 (pose) or 6 (cartesian
// velocity) slots depending on the kind. Torques are valid when HasTorque is
// set.
type Command struct {
	Seq       uint32
	Kind      MotionKind
	Signal    Signal
	HasTorque bool

	Motion [16]float64
	Tau    [7]float64
}

// MotionLen returns how many Motion slots the command's kind uses.
func (c *Command) MotionLen() int {
	switch c.Kind {
	case KindJointPositions, KindJointVelocities:
		return 7
	case KindCartesianPose:
		return 16
	case KindCartesianVelocities:
		return 6
	default:
		return 0
	}
}
