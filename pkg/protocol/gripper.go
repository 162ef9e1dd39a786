package protocol

import (
	"encoding/binary"
	"fmt"
)

// Gripper traffic is request/reply over the handshake TCP channel; there is
// no realtime UDP stream. Frames follow the same fixed little-endian layout
// as the robot messages.

// Message sizes in bytes.
const (
	GripperRequestSize = 28
	GripperReplySize   = 36
)

// GripperOp selects the gripper operation a request performs.
type GripperOp uint8

const (
	GripperHoming GripperOp = iota + 1
	GripperGrasp
	GripperMove
	GripperStop
	GripperRead
)

// String returns the operation name for logs.
func (o GripperOp) String() string {
	switch o {
	case GripperHoming:
		return "homing"
	case GripperGrasp:
		return "grasp"
	case GripperMove:
		return "move"
	case GripperStop:
		return "stop"
	case GripperRead:
		return "read"
	default:
		return "unknown"
	}
}

// Gripper reply statuses.
const (
	GripperStatusSuccess uint8 = 0
	GripperStatusFailure uint8 = 1
)

// GripperRequest is one gripper command. Args carries up to three operation
// parameters (width, speed, force); unused slots are zero.
type GripperRequest struct {
	Op   GripperOp
	Args [3]float64
}

// GripperReply answers one request with the outcome and a fresh gripper
// state snapshot.
type GripperReply struct {
	Status      uint8
	Grasped     bool
	Width       float64 // current opening width in m
	MaxWidth    float64 // maximum opening width in m, set after homing
	Temperature float64 // in degrees Celsius
	Time        uint64  // gripper clock in microseconds
}

// EncodeGripperRequest encodes a request frame.
func EncodeGripperRequest(r GripperRequest) []byte {
	buf := make([]byte, GripperRequestSize)
	buf[0] = byte(r.Op)
	putF64s(buf[4:], r.Args[:])
	return buf
}

// DecodeGripperRequest decodes a request frame, verifying length and
// operation validity.
func DecodeGripperRequest(buf []byte) (GripperRequest, error) {
	var r GripperRequest
	if len(buf) != GripperRequestSize {
		return r, fmt.Errorf("%w: gripper request is %d bytes, want %d", ErrBadLength, len(buf), GripperRequestSize)
	}
	r.Op = GripperOp(buf[0])
	if r.Op < GripperHoming || r.Op > GripperRead {
		return r, fmt.Errorf("%w: gripper op %d", ErrBadKind, buf[0])
	}
	getF64s(buf[4:], r.Args[:])
	return r, nil
}

// EncodeGripperReply encodes a reply frame.
func EncodeGripperReply(r GripperReply) []byte {
	buf := make([]byte, GripperReplySize)
	buf[0] = r.Status
	if r.Grasped {
		buf[1] = 1
	}
	putF64(buf[4:], r.Width)
	putF64(buf[12:], r.MaxWidth)
	putF64(buf[20:], r.Temperature)
	binary.LittleEndian.PutUint64(buf[28:], r.Time)
	return buf
}

// DecodeGripperReply decodes a reply frame.
func DecodeGripperReply(buf []byte) (GripperReply, error) {
	var r GripperReply
	if len(buf) != GripperReplySize {
		return r, fmt.Errorf("%w: gripper reply is %d bytes, want %d", ErrBadLength, len(buf), GripperReplySize)
	}
	r.Status = buf[0]
	r.Grasped = buf[1] == 1
	r.Width = getF64(buf[4:])
	r.MaxWidth = getF64(buf[12:])
	r.Temperature = getF64(buf[20:])
	r.Time = binary.LittleEndian.Uint64(buf[28:])
	return r, nil
}
