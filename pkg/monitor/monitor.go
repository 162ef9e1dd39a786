// Package monitor serves a read-only dashboard feed of robot state. It polls
// the robot at a modest rate, far below the control rate, and fans the
// snapshots out to websocket subscribers and a REST endpoint. It never sends
// commands; a running control activation simply pauses the feed.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/MMintLab/libfranka/internal/log"
	"github.com/MMintLab/libfranka/pkg/robot"
)

// DefaultPollInterval is the state polling rate of the feed.
const DefaultPollInterval = 100 * time.Millisecond

// StateReader is the part of the robot client the monitor needs.
type StateReader interface {
	ReadOnce(ctx context.Context) (robot.State, error)
}

// Snapshot is one state sample as published to subscribers.
type Snapshot struct {
	Seq        uint32      `json:"seq"`
	TimeMicros uint64      `json:"time_us"`
	Q          [7]float64  `json:"q"`
	Dq         [7]float64  `json:"dq"`
	TauJ       [7]float64  `json:"tau_j"`
	OTEE       [16]float64 `json:"o_t_ee"`
	Wrench     [6]float64  `json:"wrench"`
	ReceivedAt time.Time   `json:"received_at"`
}

func snapshotOf(state robot.State) Snapshot {
	return Snapshot{
		Seq:        state.Seq,
		TimeMicros: state.Time,
		Q:          state.Q,
		Dq:         state.Dq,
		TauJ:       state.TauJ,
		OTEE:       state.OTEE,
		Wrench:     state.Wrench,
		ReceivedAt: time.Now(),
	}
}

// Server polls a robot and publishes its state.
type Server struct {
	app    *fiber.App
	reader StateReader
	hub    *stateHub
	logger *slog.Logger

	interval time.Duration

	latestMu sync.RWMutex
	latest   *Snapshot

	stop     chan struct{}
	stopOnce sync.Once
}

// ServerOption configures a monitor server.
type ServerOption func(*Server)

// WithPollInterval overrides the default state polling interval.
func WithPollInterval(d time.Duration) ServerOption {
	return func(s *Server) { s.interval = d }
}

// NewServer builds a monitor server reading from r.
func NewServer(r StateReader, opts ...ServerOption) *Server {
	s := &Server{
		reader:   r,
		hub:      newStateHub(),
		logger:   log.Component("monitor"),
		interval: DefaultPollInterval,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	app := fiber.New(fiber.Config{
		AppName:               "robot state monitor",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/health", s.handleHealth)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/state", websocket.New(s.handleStateWS))

	s.app = app
	return s
}

// Listen serves on addr, blocking until Shutdown.
func (s *Server) Listen(addr string) error {
	s.startFeed()
	return s.app.Listen(addr)
}

// Serve serves on an existing listener, blocking until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.startFeed()
	return s.app.Listener(ln)
}

func (s *Server) startFeed() {
	go s.hub.run()
	go s.pollLoop()
}

// Shutdown stops the feed and the HTTP server.
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() {
		close(s.stop)
		close(s.hub.stop)
	})
	return s.app.Shutdown()
}

// pollLoop samples the robot at the configured interval and publishes each
// snapshot.
func (s *Server) pollLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		state, err := s.reader.ReadOnce(context.Background())
		if err != nil {
			if errors.Is(err, robot.ErrControlActive) {
				// A control activation owns the robot; resume afterwards.
				continue
			}
			s.logger.Warn("state poll failed", "err", err)
			continue
		}

		snap := snapshotOf(state)
		s.latestMu.Lock()
		s.latest = &snap
		s.latestMu.Unlock()

		payload, err := json.Marshal(snap)
		if err != nil {
			s.logger.Error("encoding snapshot failed", "err", err)
			continue
		}
		s.hub.publish(payload)
	}
}

func (s *Server) handleState(c *fiber.Ctx) error {
	s.latestMu.RLock()
	snap := s.latest
	s.latestMu.RUnlock()

	if snap == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no state received yet",
		})
	}
	return c.JSON(snap)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	s.latestMu.RLock()
	hasState := s.latest != nil
	s.latestMu.RUnlock()

	return c.JSON(fiber.Map{
		"subscribers": s.hub.count(),
		"has_state":   hasState,
	})
}

func (s *Server) handleStateWS(conn *websocket.Conn) {
	newSubscriber(s.hub, conn).serve()
}
