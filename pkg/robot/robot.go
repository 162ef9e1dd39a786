// Package robot is the top-level client for a Franka-style robot controller.
// A Robot maintains the network session, runs real-time control activations
// that drive user-supplied motion and torque callbacks at the controller's
// rate, and keeps a rolling diagnostic log of recent cycles for post-failure
// analysis.
package robot

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/MMintLab/libfranka/internal/log"
	"github.com/MMintLab/libfranka/pkg/limits"
	"github.com/MMintLab/libfranka/pkg/ringlog"
	"github.com/MMintLab/libfranka/pkg/session"
)

// Robot is a connection to one robot controller. At most one control
// activation runs at a time; the facade becomes reusable once an activation
// reaches Finished or Aborted.
type Robot struct {
	host        string
	sessCfg     session.Config
	logCapacity int
	logger      *slog.Logger

	// active gates activations: a second Control or a concurrent ReadOnce
	// is rejected, never queued.
	active atomic.Bool

	mu            sync.Mutex // guards sess, lim, serverVersion
	sess          *session.Session
	lim           limits.Limits
	serverVersion uint16
}

// Option configures a Robot at construction time.
type Option func(*Robot)

// WithSessionConfig overrides the default connection parameters.
func WithSessionConfig(cfg session.Config) Option {
	return func(r *Robot) { r.sessCfg = cfg }
}

// WithLogCapacity sets how many recent cycles the diagnostic buffer keeps.
func WithLogCapacity(n int) Option {
	return func(r *Robot) { r.logCapacity = n }
}

// ControlOption configures a single control activation.
type ControlOption func(*controlLoop)

// WithTorqueControl runs fn alongside the motion callback; its torques are
// sent with every command of the activation.
func WithTorqueControl(fn TorqueFunc) ControlOption {
	return func(l *controlLoop) { l.torque = fn }
}

// Connect establishes a connection with the controller at host and performs
// the version handshake.
func Connect(ctx context.Context, host string, opts ...Option) (*Robot, error) {
	r := &Robot{
		host:   host,
		lim:    limits.Default(),
		logger: log.Component("robot"),
	}
	for _, opt := range opts {
		opt(r)
	}

	sess, err := session.Connect(ctx, host, r.sessCfg)
	if err != nil {
		return nil, err
	}

	r.sess = sess
	r.serverVersion = sess.ServerVersion()
	return r, nil
}

// ensureSession reconnects if the previous activation released the channel.
// Callers hold r.mu.
func (r *Robot) ensureSession(ctx context.Context) error {
	if r.sess != nil {
		return nil
	}
	sess, err := session.Connect(ctx, r.host, r.sessCfg)
	if err != nil {
		return err
	}
	r.sess = sess
	r.serverVersion = sess.ServerVersion()
	return nil
}

// releaseSession closes and forgets the session. Callers hold r.mu.
func (r *Robot) releaseSession() {
	if r.sess != nil {
		r.sess.Close()
		r.sess = nil
	}
}

// Control runs one control activation to completion, blocking the calling
// goroutine. motion is invoked once per received state; the resulting
// command is validated, logged, and sent within the same cycle. Control
// returns nil only when the activation reaches Finished; every failure
// aborts the activation, releases the session, and surfaces as a
// ControlError (or a session error from connecting).
//
// ctx bounds connection establishment only: a running loop stops when a
// callback signals Stop or MotionFinished, not on context cancellation.
func (r *Robot) Control(ctx context.Context, motion MotionFunc, opts ...ControlOption) error {
	if motion == nil {
		return ErrNoMotionCallback
	}
	if !r.active.CompareAndSwap(false, true) {
		return ErrControlActive
	}
	defer r.active.Store(false)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureSession(ctx); err != nil {
		return err
	}
	// The activation owns the session exclusively; it is released on every
	// exit path, normal or not.
	defer r.releaseSession()

	l := &controlLoop{
		sess:       r.sess,
		validator:  limits.NewValidator(r.lim),
		buf:        ringlog.NewBuffer(r.logCapacity),
		motion:     motion,
		activation: uuid.New(),
		logger:     r.logger,
		state:      stateIdle,
	}
	for _, opt := range opts {
		opt(l)
	}

	r.logger.Info("control activation starting",
		"activation", l.activation, "host", r.host, "rate_hz", r.sess.ControlRateHz())
	return l.run()
}

// ReadOnce waits for the next state message and returns it. No command is
// sent. Connects first if needed; the session stays open for subsequent
// reads or a control activation.
func (r *Robot) ReadOnce(ctx context.Context) (State, error) {
	if !r.active.CompareAndSwap(false, true) {
		return State{}, ErrControlActive
	}
	defer r.active.Store(false)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureSession(ctx); err != nil {
		return State{}, err
	}

	state, err := r.sess.ReceiveState()
	if err != nil {
		// The session is not usable after a receive failure.
		r.releaseSession()
		return State{}, err
	}
	return state, nil
}

// SetCollisionBehavior replaces the limits used by the next activation. It
// must be called between activations, never during one.
func (r *Robot) SetCollisionBehavior(lim limits.Limits) error {
	if r.active.Load() {
		return ErrControlActive
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lim = lim
	return nil
}

// ServerVersion returns the controller version negotiated at handshake time.
func (r *Robot) ServerVersion() uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.serverVersion
}

// Close releases the session if one is open. Idempotent.
func (r *Robot) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseSession()
	return nil
}
