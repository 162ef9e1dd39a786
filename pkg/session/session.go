// Package session owns the network channel to the robot controller: the TCP
// handshake that negotiates protocol version and control rate, and the UDP
// channel that carries the periodic state and command messages.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/MMintLab/libfranka/internal/log"
	"github.com/MMintLab/libfranka/pkg/protocol"
)

// Defaults applied by Connect when the corresponding Config field is zero.
const (
	DefaultPort           = 1337
	DefaultConnectTimeout = 5 * time.Second

	// DefaultTimeoutFactor scales the control period into the receive
	// timeout: a state message more than this many periods late means the
	// controller-side watchdog has given up on us.
	DefaultTimeoutFactor = 5
)

// Config holds connection parameters.
type Config struct {
	// Port is the controller's TCP handshake port (default 1337).
	Port int

	// ConnectTimeout bounds the TCP dial and the handshake reply (default 5s).
	ConnectTimeout time.Duration

	// TimeoutFactor is the receive timeout expressed in control periods
	// (default 5).
	TimeoutFactor int
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.TimeoutFactor == 0 {
		c.TimeoutFactor = DefaultTimeoutFactor
	}
}

// Session is an exclusive channel to one controller. It is owned by a single
// control activation at a time and is not safe for concurrent use.
type Session struct {
	host string
	tcp  net.Conn
	udp  *net.UDPConn

	serverVersion uint16
	rateHz        uint16
	period        time.Duration
	recvTimeout   time.Duration

	// remote is the controller's UDP address, learned from the source of
	// the first state message. Commands cannot be sent before it is known.
	remote *net.UDPAddr

	lastSeq uint32
	haveSeq bool

	recvBuf [protocol.StateSize + 64]byte

	closeOnce sync.Once
	closeErr  error
}

// Connect dials the controller, performs the version handshake, and opens the
// UDP channel the periodic messages travel on.
func Connect(ctx context.Context, host string, cfg Config) (*Session, error) {
	cfg.applyDefaults()

	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	tcp, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", host, cfg.Port))
	if err != nil {
		return nil, &NetworkError{Op: "connect", Err: err}
	}

	udp, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		tcp.Close()
		return nil, &NetworkError{Op: "connect", Err: err}
	}

	s := &Session{host: host, tcp: tcp, udp: udp}
	if err := s.handshake(cfg); err != nil {
		s.Close()
		return nil, err
	}

	s.period = time.Second / time.Duration(s.rateHz)
	s.recvTimeout = time.Duration(cfg.TimeoutFactor) * s.period

	log.Component("session").Info("connected to controller",
		"host", host, "server_version", s.serverVersion, "rate_hz", s.rateHz)
	return s, nil
}

func (s *Session) handshake(cfg Config) error {
	localPort := s.udp.LocalAddr().(*net.UDPAddr).Port
	hello := protocol.ClientHello{
		Version: protocol.Version,
		UDPPort: uint16(localPort),
	}

	deadline := time.Now().Add(cfg.ConnectTimeout)
	s.tcp.SetDeadline(deadline)
	defer s.tcp.SetDeadline(time.Time{})

	if _, err := s.tcp.Write(protocol.EncodeClientHello(hello)); err != nil {
		return &NetworkError{Op: "connect", Err: err}
	}

	buf := make([]byte, protocol.ServerHelloSize)
	if _, err := io.ReadFull(s.tcp, buf); err != nil {
		return &NetworkError{Op: "connect", Err: err}
	}
	reply, err := protocol.DecodeServerHello(buf)
	if err != nil {
		return &ProtocolError{Reason: "malformed server hello", Err: err}
	}

	if reply.Status != protocol.StatusAccepted ||
		reply.Version < protocol.MinServerVersion || reply.Version > protocol.MaxServerVersion {
		return &IncompatibleVersionError{
			ServerVersion: reply.Version,
			MinSupported:  protocol.MinServerVersion,
			MaxSupported:  protocol.MaxServerVersion,
		}
	}
	if reply.RateHz == 0 {
		return &ProtocolError{Reason: "server hello reports zero control rate"}
	}

	s.serverVersion = reply.Version
	s.rateHz = reply.RateHz
	return nil
}

// ReceiveState blocks until the next periodic state message arrives or the
// receive timeout fires. It enforces the strict sequence-number advance: any
// step other than +1 is a protocol violation.
func (s *Session) ReceiveState() (protocol.State, error) {
	var zero protocol.State

	s.udp.SetReadDeadline(time.Now().Add(s.recvTimeout))
	n, addr, err := s.udp.ReadFromUDP(s.recvBuf[:])
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return zero, &NetworkError{Op: "receive", Err: fmt.Errorf("no state within %v", s.recvTimeout)}
		}
		return zero, &NetworkError{Op: "receive", Err: err}
	}

	state, err := protocol.DecodeState(s.recvBuf[:n])
	if err != nil {
		return zero, &ProtocolError{Reason: "malformed state message", Err: err}
	}

	if s.haveSeq && state.Seq != s.lastSeq+1 {
		return zero, &ProtocolError{
			Reason: fmt.Sprintf("state sequence %d, expected %d", state.Seq, s.lastSeq+1),
		}
	}
	s.lastSeq = state.Seq
	s.haveSeq = true
	s.remote = addr

	return state, nil
}

// SendCommand writes one encoded command. The write is best-effort: transport
// buffering absorbs transient backpressure and the call never blocks on the
// controller.
func (s *Session) SendCommand(cmd *protocol.Command) error {
	if s.remote == nil {
		return &NetworkError{Op: "send", Err: errors.New("no state received yet, controller address unknown")}
	}
	if _, err := s.udp.WriteToUDP(protocol.EncodeCommand(cmd), s.remote); err != nil {
		return &NetworkError{Op: "send", Err: err}
	}
	return nil
}

// ServerVersion returns the version negotiated at handshake time.
func (s *Session) ServerVersion() uint16 { return s.serverVersion }

// ControlRateHz returns the control rate reported by the controller.
func (s *Session) ControlRateHz() uint16 { return s.rateHz }

// Period returns the duration of one control cycle.
func (s *Session) Period() time.Duration { return s.period }

// Close releases the channel. Idempotent; safe on every exit path.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.udp != nil {
			if err := s.udp.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.tcp != nil {
			if err := s.tcp.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
		log.Component("session").Debug("session closed", "host", s.host)
	})
	return s.closeErr
}
