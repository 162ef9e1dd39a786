// Package simctl implements a simulated robot controller: it answers the TCP
// version handshake and streams periodic UDP state messages, echoing received
// commands into the desired-value fields of subsequent states. It backs the
// session and robot tests and the mock-controller command.
package simctl

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/MMintLab/libfranka/internal/log"
	"github.com/MMintLab/libfranka/pkg/protocol"
)

// Config controls the simulated controller's behavior.
type Config struct {
	// Port is the TCP handshake port (default 0, an ephemeral port). The
	// command socket is always ephemeral; clients learn it from the source
	// address of the state stream.
	Port int

	// Version reported in the server hello (default protocol.Version).
	Version uint16

	// RateHz is the state-streaming rate (default 1000). Tests use lower
	// rates to stay fast and deterministic.
	RateHz uint16

	// RejectHandshake makes every handshake reply incompatible, regardless
	// of the client's version.
	RejectHandshake bool

	// SkipSeqAt, when non-zero, drops the state with this sequence number,
	// producing a gap the client must flag as a protocol violation.
	SkipSeqAt uint32

	// InitialQ is the joint configuration reported before any command
	// arrives.
	InitialQ [7]float64
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = protocol.Version
	}
	if c.RateHz == 0 {
		c.RateHz = 1000
	}
}

// Controller is a running simulated controller.
type Controller struct {
	cfg Config

	ln  net.Listener
	udp *net.UDPConn

	mu       sync.Mutex
	client   *net.UDPAddr
	conn     net.Conn
	desired  [7]float64
	commands []protocol.Command

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Start launches a controller on loopback with ephemeral ports.
func Start(cfg Config) (*Controller, error) {
	cfg.applyDefaults()

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("simctl: listen tcp: %w", err)
	}
	udp, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("simctl: listen udp: %w", err)
	}

	c := &Controller{
		cfg:     cfg,
		ln:      ln,
		udp:     udp,
		desired: cfg.InitialQ,
		stop:    make(chan struct{}),
	}

	c.wg.Add(3)
	go c.acceptLoop()
	go c.commandLoop()
	go c.streamLoop()
	return c, nil
}

// Host returns the controller's TCP host (always loopback).
func (c *Controller) Host() string { return "127.0.0.1" }

// Port returns the controller's TCP handshake port.
func (c *Controller) Port() int {
	return c.ln.Addr().(*net.TCPAddr).Port
}

// Commands returns a copy of all commands received so far, in arrival order.
// Datagrams already queued on the command socket when the call is made are
// drained first, so a caller that has just finished a control activation
// observes its final command.
func (c *Controller) Commands() []protocol.Command {
	stable := 0
	last := -1
	for i := 0; i < 200 && stable < 3; i++ {
		c.mu.Lock()
		n := len(c.commands)
		c.mu.Unlock()
		if n == last {
			stable++
		} else {
			stable = 0
			last = n
		}
		time.Sleep(time.Millisecond)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Command, len(c.commands))
	copy(out, c.commands)
	return out
}

// Close shuts the controller down and waits for its goroutines. Idempotent.
func (c *Controller) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
		c.ln.Close()
		c.udp.Close()
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
		c.wg.Wait()
	})
}

func (c *Controller) acceptLoop() {
	defer c.wg.Done()
	for {
		conn, err := c.ln.Accept()
		if err != nil {
			return
		}
		c.handshake(conn)
	}
}

func (c *Controller) handshake(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, protocol.ClientHelloSize)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.ReadFull(conn, buf); err != nil {
		return
	}
	hello, err := protocol.DecodeClientHello(buf)
	if err != nil {
		log.Component("simctl").Warn("bad client hello", "err", err)
		return
	}

	reply := protocol.ServerHello{
		Status:  protocol.StatusAccepted,
		Version: c.cfg.Version,
		RateHz:  c.cfg.RateHz,
	}
	compatible := !c.cfg.RejectHandshake &&
		hello.Version >= protocol.MinServerVersion && hello.Version <= protocol.MaxServerVersion
	if !compatible {
		reply.Status = protocol.StatusIncompatible
	}
	conn.Write(protocol.EncodeServerHello(reply))
	if !compatible {
		return
	}

	clientIP := conn.RemoteAddr().(*net.TCPAddr).IP
	c.mu.Lock()
	c.client = &net.UDPAddr{IP: clientIP, Port: int(hello.UDPPort)}
	c.conn = conn
	c.mu.Unlock()

	// Keep the TCP channel open until the client or the controller closes;
	// the realtime traffic runs over UDP.
	discard := make([]byte, 64)
	conn.SetReadDeadline(time.Time{})
	for {
		if _, err := conn.Read(discard); err != nil {
			return
		}
	}
}

func (c *Controller) commandLoop() {
	defer c.wg.Done()
	buf := make([]byte, protocol.CommandSize+64)
	for {
		n, _, err := c.udp.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		cmd, err := protocol.DecodeCommand(buf[:n])
		if err != nil {
			log.Component("simctl").Warn("dropping malformed command", "err", err)
			continue
		}

		c.mu.Lock()
		c.commands = append(c.commands, cmd)
		if cmd.Kind == protocol.KindJointPositions && cmd.Signal != protocol.SignalStop {
			copy(c.desired[:], cmd.Motion[:7])
		}
		c.mu.Unlock()
	}
}

func (c *Controller) streamLoop() {
	defer c.wg.Done()

	period := time.Second / time.Duration(c.cfg.RateHz)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var seq uint32
	var now uint64
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			seq++
			now += uint64(period / time.Microsecond)
			if seq == c.cfg.SkipSeqAt {
				// Simulated packet loss; the next state carries a gap.
				continue
			}

			c.mu.Lock()
			client := c.client
			state := protocol.State{
				Seq:  seq,
				Time: now,
				Q:    c.desired,
				QD:   c.desired,
			}
			c.mu.Unlock()
			if client == nil {
				continue
			}

			c.udp.WriteToUDP(protocol.EncodeState(&state), client)
		}
	}
}
