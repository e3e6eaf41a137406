package logstream

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the controller lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateConfiguring
	StateActive
)

func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateActive:
		return "active"
	default:
		return "idle"
	}
}

// Handler receives events from an open stream. Its methods may be called
// from any goroutine.
type Handler interface {
	Connected()
	Message(payload any)
	// Disconnected reports a dropped stream and returns whether the
	// transport should reconnect. It gives up and returns false when ctx
	// is done.
	Disconnected(ctx context.Context, err error) bool
}

// Dialer opens the push transport for a session. Open must not block on
// network I/O; the returned Closer stops the stream.
type Dialer interface {
	Open(ctx context.Context, s Session, h Handler) (io.Closer, error)
}

// Options configure a Controller.
type Options struct {
	Context context.Context
	Dialer  Dialer
	// Post hands work to the owner goroutine and reports whether it was
	// accepted. Nil runs transport and timer callbacks inline on whatever
	// goroutine raised them, so it is only safe with a mock clock and a
	// transport that calls back synchronously.
	Post          func(func()) bool
	Clock         clock.Clock
	FlushDelay    time.Duration
	MaxMessageLen int
	Logger        *zap.Logger
	OnCommit      func(Commit)
}

// Controller owns one log session at a time: it validates the form, opens
// the transport, feeds messages through the scheduler into the ring and
// tears everything down on stop. Every method must be called from the
// owner goroutine (see Options.Post).
type Controller struct {
	ctx      context.Context
	dialer   Dialer
	post     func(func()) bool
	clock    clock.Clock
	delay    time.Duration
	maxLen   int
	logger   *zap.Logger
	onCommit func(Commit)

	state     State
	form      FormState
	err       error
	visible   bool
	session   *Session
	ring      *Ring
	sched     *Scheduler
	conn      io.Closer
	epoch     uint64
	streaming bool
	connects  int
	ended     bool
	lines     []string
	version   uint64
}

// NewController returns an idle controller whose output counts as visible.
func NewController(opts Options) *Controller {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	post := opts.Post
	if post == nil {
		post = func(fn func()) bool { fn(); return true }
	}
	return &Controller{
		ctx:      ctx,
		dialer:   opts.Dialer,
		post:     post,
		clock:    clk,
		delay:    opts.FlushDelay,
		maxLen:   opts.MaxMessageLen,
		logger:   logger.With(zap.String("component", "logstream")),
		onCommit: opts.OnCommit,
		form:     DefaultForm(),
		visible:  true,
	}
}

// Configure shows the form without opening a stream.
func (c *Controller) Configure() {
	if c.state == StateIdle {
		c.state = StateConfiguring
	}
}

// Start validates form and opens a new session, replacing any active one.
// A *ValidationError leaves the current state untouched apart from Err.
func (c *Controller) Start(form FormState) error {
	c.form = form
	if c.state == StateIdle {
		c.state = StateConfiguring
	}

	if strings.TrimSpace(form.Source.ID) == "" {
		c.err = &ValidationError{Field: "source"}
		return c.err
	}
	if err := form.Since.Validate(); err != nil {
		c.err = err
		return err
	}

	if c.state == StateActive {
		c.Stop()
		c.state = StateConfiguring
	}

	c.err = nil
	tail := ResolveTail(form.Tail)
	c.epoch++
	epoch := c.epoch
	c.session = &Session{
		ID:         uuid.NewString(),
		Source:     form.Source,
		Tail:       tail,
		Since:      form.Since.Value(),
		Follow:     form.Follow,
		Timestamps: form.Timestamps,
		Stdout:     form.Stdout,
		Stderr:     form.Stderr,
		Details:    form.Details,
		Active:     true,
	}
	c.ring = NewRing(tail)
	c.lines = nil
	c.version++
	c.sched = NewScheduler(c.ring, SchedulerOptions{
		Clock: c.clock,
		Delay: c.delay,
		Post:  c.post,
		Publish: func(commit Commit) {
			if epoch == c.epoch {
				c.commit(commit)
			}
		},
	})

	if c.dialer == nil {
		c.teardown()
		c.err = fmt.Errorf("open stream: no transport configured")
		return c.err
	}
	conn, err := c.dialer.Open(c.ctx, *c.session, &sessionHandler{c: c, epoch: epoch})
	if err != nil {
		c.teardown()
		c.err = fmt.Errorf("open stream: %w", err)
		return c.err
	}
	c.conn = conn
	c.state = StateActive
	c.logger.Info("session started",
		zap.String("session", c.session.ID),
		zap.String("source", form.Source.Name),
		zap.Int("tail", tail),
		zap.String("since", c.session.Since),
		zap.Bool("follow", form.Follow),
	)
	return nil
}

// Stop closes the transport, discards queued and committed lines and
// returns to idle. The form is kept.
func (c *Controller) Stop() {
	if c.session != nil {
		c.logger.Info("session stopped", zap.String("session", c.session.ID))
	}
	c.teardown()
	c.state = StateIdle
}

func (c *Controller) teardown() {
	c.epoch++
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("close stream", zap.Error(err))
		}
		c.conn = nil
	}
	if c.sched != nil {
		c.sched.Close()
		c.sched = nil
	}
	c.session = nil
	c.ring = nil
	c.lines = nil
	c.streaming = false
	c.connects = 0
	c.ended = false
	c.version++
}

// Reconfigure applies a new tail size. An active session keeps its newest
// lines up to the new size.
func (c *Controller) Reconfigure(tail string) int {
	n := ResolveTail(tail)
	c.form.Tail = tail
	if c.state != StateActive || c.session == nil {
		return n
	}
	c.session.Tail = n
	c.ring.SetCapacity(n)
	c.sched.SetCapacity(n)
	c.commit(Commit{Lines: c.ring.Lines(), Total: c.sched.Committed()})
	return n
}

// OnMessage normalizes payload and queues it for the next flush.
func (c *Controller) OnMessage(payload any) {
	if c.state != StateActive || c.sched == nil {
		return
	}
	c.sched.Enqueue(Normalize(payload, c.maxLen))
}

// SetVisible records whether the output is on screen.
func (c *Controller) SetVisible(visible bool) {
	c.visible = visible
}

func (c *Controller) connected(epoch uint64) {
	if epoch != c.epoch || c.session == nil {
		return
	}
	c.streaming = true
	c.connects++
	c.logger.Debug("stream connected", zap.String("session", c.session.ID))
}

func (c *Controller) disconnected(epoch uint64, err error) bool {
	if epoch != c.epoch || c.session == nil {
		return false
	}
	c.streaming = false
	reconnect := ShouldReconnect(c.session.Follow, c.visible)
	fields := []zap.Field{
		zap.String("session", c.session.ID),
		zap.Bool("reconnect", reconnect),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	c.logger.Info("stream disconnected", fields...)
	if !reconnect {
		c.ended = true
		if c.sched != nil {
			c.sched.Flush()
		}
	}
	return reconnect
}

func (c *Controller) commit(commit Commit) {
	c.lines = commit.Lines
	c.version++
	if c.onCommit != nil {
		c.onCommit(commit)
	}
}

// State returns the lifecycle phase.
func (c *Controller) State() State { return c.state }

// Form returns the last submitted form.
func (c *Controller) Form() FormState { return c.form }

// Err returns the error from the last Start, if any.
func (c *Controller) Err() error { return c.err }

// Session returns the active session.
func (c *Controller) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Lines returns the last committed window, oldest first.
func (c *Controller) Lines() []string {
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Version changes whenever the committed window does.
func (c *Controller) Version() uint64 { return c.version }

// Streaming reports whether the transport is currently connected.
func (c *Controller) Streaming() bool { return c.streaming }

// Connects counts successful connects of the active session.
func (c *Controller) Connects() int { return c.connects }

// Ended reports that the active session's transport has stopped for good.
// Its lines stay available until Stop or the next Start.
func (c *Controller) Ended() bool { return c.ended }

// Visible reports the last SetVisible value.
func (c *Controller) Visible() bool { return c.visible }

// sessionHandler forwards transport events for one session onto the owner
// goroutine. Events from a replaced session are dropped there.
type sessionHandler struct {
	c     *Controller
	epoch uint64
}

func (h *sessionHandler) Connected() {
	h.c.post(func() { h.c.connected(h.epoch) })
}

func (h *sessionHandler) Message(payload any) {
	h.c.post(func() {
		if h.epoch == h.c.epoch {
			h.c.OnMessage(payload)
		}
	})
}

func (h *sessionHandler) Disconnected(ctx context.Context, err error) bool {
	answer := make(chan bool, 1)
	if !h.c.post(func() { answer <- h.c.disconnected(h.epoch, err) }) {
		return false
	}
	select {
	case reconnect := <-answer:
		return reconnect
	case <-ctx.Done():
		return false
	}
}
