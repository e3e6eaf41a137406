package logstream

import (
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultFlushDelay is how long the scheduler coalesces lines before a commit.
const DefaultFlushDelay = 50 * time.Millisecond

// Commit is one published view of the ring.
type Commit struct {
	Lines []string
	// Total counts every line flushed for this session, including lines
	// dropped because they arrived faster than the window could hold.
	Total uint64
}

// SchedulerOptions configure a Scheduler.
type SchedulerOptions struct {
	Clock clock.Clock   // nil uses the wall clock
	Delay time.Duration // zero uses DefaultFlushDelay
	// Post hands timer callbacks to the owner goroutine. Nil runs them on
	// the clock's goroutine, which is only safe when nothing else touches
	// the scheduler concurrently, as with a mock clock in tests.
	Post    func(func()) bool
	Publish func(Commit)
}

// Scheduler batches enqueued lines and moves them into a Ring on a short
// timer so bursts produce one commit. All methods must run on the goroutine
// that owns the ring; timer callbacks reach it through Post.
type Scheduler struct {
	ring    *Ring
	pending *Ring
	clock   clock.Clock
	delay   time.Duration
	post    func(func()) bool
	publish func(Commit)

	timer     *clock.Timer
	gen       uint64
	closed    bool
	enqueued  uint64
	committed uint64
}

// NewScheduler returns a scheduler feeding ring. The pending queue is
// bounded by the ring capacity.
func NewScheduler(ring *Ring, opts SchedulerOptions) *Scheduler {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultFlushDelay
	}
	post := opts.Post
	if post == nil {
		post = func(fn func()) bool { fn(); return true }
	}
	return &Scheduler{
		ring:    ring,
		pending: NewRing(ring.Cap()),
		clock:   clk,
		delay:   delay,
		post:    post,
		publish: opts.Publish,
	}
}

// Enqueue queues line for the next flush and arms the timer if idle.
func (s *Scheduler) Enqueue(line string) {
	if s.closed {
		return
	}
	s.pending.Push(line)
	s.enqueued++
	if s.timer != nil {
		return
	}
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.delay, func() {
		s.post(func() { s.fire(gen) })
	})
}

func (s *Scheduler) fire(gen uint64) {
	if s.closed || gen != s.gen {
		return
	}
	s.timer = nil
	s.Flush()
}

// Flush drains the pending queue into the ring in arrival order and
// publishes the result. It does nothing when the queue is empty.
func (s *Scheduler) Flush() {
	s.stopTimer()
	if s.closed || s.pending.Len() == 0 {
		return
	}
	for _, line := range s.pending.Lines() {
		s.ring.Push(line)
	}
	s.pending.Reset(s.ring.Cap())
	s.committed = s.enqueued
	if s.publish != nil {
		s.publish(Commit{Lines: s.ring.Lines(), Total: s.committed})
	}
}

// Committed returns the number of lines flushed so far, counting those the
// pending queue dropped on overflow.
func (s *Scheduler) Committed() uint64 { return s.committed }

// Pending returns the number of queued lines.
func (s *Scheduler) Pending() int { return s.pending.Len() }

// SetCapacity rebounds the pending queue after the ring is resized.
func (s *Scheduler) SetCapacity(n int) {
	s.pending.SetCapacity(n)
}

// Close cancels any scheduled flush and drops queued lines. A closed
// scheduler never publishes again.
func (s *Scheduler) Close() {
	s.stopTimer()
	s.closed = true
	s.pending.Reset(s.pending.Cap())
}

func (s *Scheduler) stopTimer() {
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	s.timer = nil
	s.gen++
}
