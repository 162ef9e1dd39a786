package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrBadLength is returned when a buffer does not match the fixed
	// layout size of the message being decoded.
	ErrBadLength = errors.New("protocol: bad message length")

	// ErrBadChecksum is returned when the CRC trailer does not match.
	ErrBadChecksum = errors.New("protocol: checksum mismatch")

	// ErrBadMagic is returned when a handshake frame does not start with
	// the protocol magic.
	ErrBadMagic = errors.New("protocol: bad magic")

	// ErrBadKind is returned when a command carries an unknown motion kind
	// or signal.
	ErrBadKind = errors.New("protocol: bad motion kind")
)

func putF64(buf []byte, v float64) {
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
}

func getF64(buf []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf))
}

func putF64s(buf []byte, vs []float64) int {
	for i, v := range vs {
		putF64(buf[i*8:], v)
	}
	return len(vs) * 8
}

func getF64s(buf []byte, vs []float64) int {
	for i := range vs {
		vs[i] = getF64(buf[i*8:])
	}
	return len(vs) * 8
}

// EncodeClientHello encodes the client handshake frame.
func EncodeClientHello(h ClientHello) []byte {
	buf := make([]byte, ClientHelloSize)
	binary.LittleEndian.PutUint32(buf[0:], Magic)
	binary.LittleEndian.PutUint16(buf[4:], h.Version)
	binary.LittleEndian.PutUint16(buf[6:], h.UDPPort)
	return buf
}

// DecodeClientHello decodes the client handshake frame.
func DecodeClientHello(buf []byte) (ClientHello, error) {
	var h ClientHello
	if len(buf) != ClientHelloSize {
		return h, fmt.Errorf("%w: client hello is %d bytes, want %d", ErrBadLength, len(buf), ClientHelloSize)
	}
	if binary.LittleEndian.Uint32(buf[0:]) != Magic {
		return h, ErrBadMagic
	}
	h.Version = binary.LittleEndian.Uint16(buf[4:])
	h.UDPPort = binary.LittleEndian.Uint16(buf[6:])
	return h, nil
}

// EncodeServerHello encodes the controller handshake reply.
func EncodeServerHello(h ServerHello) []byte {
	buf := make([]byte, ServerHelloSize)
	binary.LittleEndian.PutUint32(buf[0:], Magic)
	binary.LittleEndian.PutUint16(buf[4:], h.Version)
	binary.LittleEndian.PutUint16(buf[6:], h.RateHz)
	buf[8] = h.Status
	return buf
}

// DecodeServerHello decodes the controller handshake reply.
func DecodeServerHello(buf []byte) (ServerHello, error) {
	var h ServerHello
	if len(buf) != ServerHelloSize {
		return h, fmt.Errorf("%w: server hello is %d bytes, want %d", ErrBadLength, len(buf), ServerHelloSize)
	}
	if binary.LittleEndian.Uint32(buf[0:]) != Magic {
		return h, ErrBadMagic
	}
	h.Version = binary.LittleEndian.Uint16(buf[4:])
	h.RateHz = binary.LittleEndian.Uint16(buf[6:])
	h.Status = buf[8]
	return h, nil
}

// EncodeState encodes a state message into a fresh StateSize buffer.
func EncodeState(s *State) []byte {
	buf := make([]byte, StateSize)
	binary.LittleEndian.PutUint32(buf[0:], s.Seq)
	binary.LittleEndian.PutUint64(buf[4:], s.Time)
	off := 12
	off += putF64s(buf[off:], s.Q[:])
	off += putF64s(buf[off:], s.Dq[:])
	off += putF64s(buf[off:], s.QD[:])
	off += putF64s(buf[off:], s.DqD[:])
	off += putF64s(buf[off:], s.TauJ[:])
	off += putF64s(buf[off:], s.OTEE[:])
	off += putF64s(buf[off:], s.Wrench[:])
	binary.LittleEndian.PutUint16(buf[off:], CRC16CCITT(buf[:off]))
	return buf
}

// DecodeState decodes a state message, verifying length and checksum.
func DecodeState(buf []byte) (State, error) {
	var s State
	if len(buf) != StateSize {
		return s, fmt.Errorf("%w: state is %d bytes, want %d", ErrBadLength, len(buf), StateSize)
	}
	body := StateSize - 4
	if CRC16CCITT(buf[:body]) != binary.LittleEndian.Uint16(buf[body:]) {
		return s, ErrBadChecksum
	}
	s.Seq = binary.LittleEndian.Uint32(buf[0:])
	s.Time = binary.LittleEndian.Uint64(buf[4:])
	off := 12
	off += getF64s(buf[off:], s.Q[:])
	off += getF64s(buf[off:], s.Dq[:])
	off += getF64s(buf[off:], s.QD[:])
	off += getF64s(buf[off:], s.DqD[:])
	off += getF64s(buf[off:], s.TauJ[:])
	off += getF64s(buf[off:], s.OTEE[:])
	getF64s(buf[off:], s.Wrench[:])
	return s, nil
}

// EncodeCommand encodes a command message into a fresh CommandSize buffer.
func EncodeCommand(c *Command) []byte {
	buf := make([]byte, CommandSize)
	binary.LittleEndian.PutUint32(buf[0:], c.Seq)
	buf[4] = byte(c.Kind)
	buf[5] = byte(c.Signal)
	if c.HasTorque {
		buf[6] = 1
	}
	off := 8
	off += putF64s(buf[off:], c.Motion[:])
	off += putF64s(buf[off:], c.Tau[:])
	binary.LittleEndian.PutUint16(buf[off:], CRC16CCITT(buf[:off]))
	return buf
}

// DecodeCommand decodes a command message, verifying length, checksum and
// tag validity.
func DecodeCommand(buf []byte) (Command, error) {
	var c Command
	if len(buf) != CommandSize {
		return c, fmt.Errorf("%w: command is %d bytes, want %d", ErrBadLength, len(buf), CommandSize)
	}
	body := CommandSize - 4
	if CRC16CCITT(buf[:body]) != binary.LittleEndian.Uint16(buf[body:]) {
		return c, ErrBadChecksum
	}
	c.Seq = binary.LittleEndian.Uint32(buf[0:])
	c.Kind = MotionKind(buf[4])
	c.Signal = Signal(buf[5])
	c.HasTorque = buf[6] == 1
	if c.Kind < KindJointPositions || c.Kind > KindCartesianVelocities {
		return c, fmt.Errorf("%w: kind %d", ErrBadKind, buf[4])
	}
	if c.Signal > SignalStop {
		return c, fmt.Errorf("%w: signal %d", ErrBadKind, buf[5])
	}
	off := 8
	off += getF64s(buf[off:], c.Motion[:])
	getF64s(buf[off:], c.Tau[:])
	return c, nil
}
