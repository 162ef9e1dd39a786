// Package gripper is a client for the parallel gripper attached to the robot.
// Unlike the arm's realtime stream, the gripper speaks plain request/reply
// over TCP: every operation sends one command frame and blocks for the
// controller's answer.
package gripper

import (
	"context"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/MMintLab/libfranka/internal/config"
	"github.com/MMintLab/libfranka/internal/log"
	"github.com/MMintLab/libfranka/pkg/protocol"
	"github.com/MMintLab/libfranka/pkg/session"
)

// ErrCommandFailed is returned when the controller rejects or cannot
// complete a gripper operation.
var ErrCommandFailed = errors.New("gripper: command failed")

// State is one gripper state snapshot.
type State struct {
	Width       float64 // current opening width in m
	MaxWidth    float64 // maximum opening width in m, known after homing
	IsGrasped   bool
	Temperature float64 // in degrees Celsius
	Time        uint64  // gripper clock in microseconds
}

// Config holds connection parameters for a gripper client.
type Config struct {
	// Port is the gripper TCP port (default 1338).
	Port int

	// ConnectTimeout bounds dialing (default 5s).
	ConnectTimeout time.Duration

	// RequestTimeout bounds each request/reply exchange (default 5s). The
	// homing run takes the controller several seconds; it answers when done.
	RequestTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = config.DefaultGripperPort
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 5 * time.Second
	}
}

// Client is a connection to one gripper. Methods serialize: one request is
// in flight at a time.
type Client struct {
	cfg  Config
	conn net.Conn

	mu            sync.Mutex
	serverVersion uint16
}

// Connect dials the gripper at host and performs the version handshake.
func Connect(ctx context.Context, host string, cfg Config) (*Client, error) {
	cfg.applyDefaults()

	d := net.Dialer{Timeout: cfg.ConnectTimeout}
	addr := net.JoinHostPort(host, strconv.Itoa(cfg.Port))
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &session.NetworkError{Op: "connect", Err: err}
	}

	c := &Client{cfg: cfg, conn: conn}
	if err := c.handshake(); err != nil {
		conn.Close()
		return nil, err
	}

	log.Component("gripper").Info("connected",
		"host", host, "port", cfg.Port, "server_version", c.serverVersion)
	return c, nil
}

// handshake runs the same version exchange as the arm session. The gripper
// has no realtime stream, so the hello advertises no UDP port and the reply
// carries no rate.
func (c *Client) handshake() error {
	hello := protocol.ClientHello{Version: protocol.Version}
	if _, err := c.conn.Write(protocol.EncodeClientHello(hello)); err != nil {
		return &session.NetworkError{Op: "handshake", Err: err}
	}

	buf := make([]byte, protocol.ServerHelloSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.ConnectTimeout))
	if _, err := io.ReadFull(c.conn, buf); err != nil {
		return &session.NetworkError{Op: "handshake", Err: err}
	}
	reply, err := protocol.DecodeServerHello(buf)
	if err != nil {
		return &session.ProtocolError{Reason: "malformed server hello", Err: err}
	}

	if reply.Status != protocol.StatusAccepted ||
		reply.Version < protocol.MinServerVersion || reply.Version > protocol.MaxServerVersion {
		return &session.IncompatibleVersionError{
			ServerVersion: reply.Version,
			MinSupported:  protocol.MinServerVersion,
			MaxSupported:  protocol.MaxServerVersion,
		}
	}
	c.serverVersion = reply.Version
	return nil
}

// roundTrip sends one request and blocks for the reply.
func (c *Client) roundTrip(op protocol.GripperOp, args [3]float64) (protocol.GripperReply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := protocol.GripperRequest{Op: op, Args: args}
	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.RequestTimeout))
	if _, err := c.conn.Write(protocol.EncodeGripperRequest(req)); err != nil {
		return protocol.GripperReply{}, &session.NetworkError{Op: op.String(), Err: err}
	}

	buf := make([]byte, protocol.GripperReplySize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.RequestTimeout))
	if _, err := io.ReadFull(c.conn, buf); err != nil {
		return protocol.GripperReply{}, &session.NetworkError{Op: op.String(), Err: err}
	}
	reply, err := protocol.DecodeGripperReply(buf)
	if err != nil {
		return protocol.GripperReply{}, &session.ProtocolError{Reason: "malformed gripper reply", Err: err}
	}
	return reply, nil
}

// Homing calibrates the gripper by finding its maximum width. Blocks until
// the homing run completes.
func (c *Client) Homing() error {
	reply, err := c.roundTrip(protocol.GripperHoming, [3]float64{})
	if err != nil {
		return errors.Wrap(err, "homing")
	}
	if reply.Status != protocol.GripperStatusSuccess {
		return errors.Wrap(ErrCommandFailed, "homing")
	}
	return nil
}

// Grasp closes the fingers to width at the given speed, applying force once
// the object is held. It reports whether an object was grasped.
func (c *Client) Grasp(width, speed, force float64) (bool, error) {
	reply, err := c.roundTrip(protocol.GripperGrasp, [3]float64{width, speed, force})
	if err != nil {
		return false, errors.Wrap(err, "grasp")
	}
	if reply.Status != protocol.GripperStatusSuccess {
		return false, errors.Wrap(ErrCommandFailed, "grasp")
	}
	return reply.Grasped, nil
}

// Move opens or closes the fingers to width at the given speed.
func (c *Client) Move(width, speed float64) error {
	reply, err := c.roundTrip(protocol.GripperMove, [3]float64{width, speed})
	if err != nil {
		return errors.Wrap(err, "move")
	}
	if reply.Status != protocol.GripperStatusSuccess {
		return errors.Wrap(ErrCommandFailed, "move")
	}
	return nil
}

// Stop aborts a running grasp or move.
func (c *Client) Stop() error {
	reply, err := c.roundTrip(protocol.GripperStop, [3]float64{})
	if err != nil {
		return errors.Wrap(err, "stop")
	}
	if reply.Status != protocol.GripperStatusSuccess {
		return errors.Wrap(ErrCommandFailed, "stop")
	}
	return nil
}

// ReadOnce returns the current gripper state.
func (c *Client) ReadOnce() (State, error) {
	reply, err := c.roundTrip(protocol.GripperRead, [3]float64{})
	if err != nil {
		return State{}, errors.Wrap(err, "read")
	}
	return State{
		Width:       reply.Width,
		MaxWidth:    reply.MaxWidth,
		IsGrasped:   reply.Grasped,
		Temperature: reply.Temperature,
		Time:        reply.Time,
	}, nil
}

// ServerVersion returns the gripper controller version negotiated at
// handshake time.
func (c *Client) ServerVersion() uint16 {
	return c.serverVersion
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
