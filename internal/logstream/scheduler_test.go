package logstream

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

// taskQueue stands in for the event loop: posted tasks run only when the
// test pulls them.
type taskQueue struct {
	ch chan func()
}

func newTaskQueue() *taskQueue {
	return &taskQueue{ch: make(chan func(), 1024)}
}

func (q *taskQueue) post(fn func()) bool {
	q.ch <- fn
	return true
}

func (q *taskQueue) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-q.ch:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a posted task")
	}
}

func (q *taskQueue) expectIdle(t *testing.T) {
	t.Helper()
	select {
	case <-q.ch:
		t.Fatalf("unexpected task posted")
	case <-time.After(20 * time.Millisecond):
	}
}

type commitRecorder struct {
	commits []Commit
}

func (c *commitRecorder) publish(commit Commit) {
	c.commits = append(c.commits, commit)
}

func newTestScheduler(capacity int) (*Scheduler, *Ring, *clock.Mock, *taskQueue, *commitRecorder) {
	ring := NewRing(capacity)
	mock := clock.NewMock()
	tasks := newTaskQueue()
	rec := &commitRecorder{}
	s := NewScheduler(ring, SchedulerOptions{
		Clock:   mock,
		Delay:   50 * time.Millisecond,
		Post:    tasks.post,
		Publish: rec.publish,
	})
	return s, ring, mock, tasks, rec
}

func TestScheduler_BurstCoalescesIntoOneCommit(t *testing.T) {
	s, _, mock, tasks, rec := newTestScheduler(20)

	for i := 1; i <= 10000; i++ {
		s.Enqueue(fmt.Sprintf("line %d", i))
	}
	if len(rec.commits) != 0 {
		t.Fatalf("commits before timer = %d, want 0", len(rec.commits))
	}
	if s.Pending() != 20 {
		t.Fatalf("Pending() = %d, want 20", s.Pending())
	}

	mock.Add(50 * time.Millisecond)
	tasks.runNext(t)

	if len(rec.commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(rec.commits))
	}
	if got, want := rec.commits[0].Lines, lineRange(9981, 10000); !reflect.DeepEqual(got, want) {
		t.Fatalf("committed lines = %v, want %v", got, want)
	}
	if s.Pending() != 0 {
		t.Fatalf("Pending() after flush = %d, want 0", s.Pending())
	}
}

func TestScheduler_WaitsForDelay(t *testing.T) {
	s, _, mock, tasks, rec := newTestScheduler(5)

	s.Enqueue("a")
	mock.Add(49 * time.Millisecond)
	tasks.expectIdle(t)

	mock.Add(time.Millisecond)
	tasks.runNext(t)
	if len(rec.commits) != 1 || !reflect.DeepEqual(rec.commits[0].Lines, []string{"a"}) {
		t.Fatalf("commits = %#v, want one commit of [a]", rec.commits)
	}
}

func TestScheduler_FlushEmptyIsNoop(t *testing.T) {
	s, _, _, _, rec := newTestScheduler(5)
	s.Flush()
	if len(rec.commits) != 0 {
		t.Fatalf("commits = %d, want 0", len(rec.commits))
	}
}

func TestScheduler_ManualFlushCancelsTimer(t *testing.T) {
	s, _, mock, tasks, rec := newTestScheduler(5)

	s.Enqueue("a")
	s.Flush()
	if len(rec.commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(rec.commits))
	}

	mock.Add(time.Second)
	tasks.expectIdle(t)
}

func TestScheduler_PreservesOrderAcrossBatches(t *testing.T) {
	s, ring, mock, tasks, rec := newTestScheduler(5)

	s.Enqueue("a")
	s.Enqueue("b")
	mock.Add(50 * time.Millisecond)
	tasks.runNext(t)

	s.Enqueue("c")
	mock.Add(50 * time.Millisecond)
	tasks.runNext(t)

	if len(rec.commits) != 2 {
		t.Fatalf("commits = %d, want 2", len(rec.commits))
	}
	if got := ring.Lines(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("ring = %v, want [a b c]", got)
	}
	if rec.commits[1].Total != 3 {
		t.Fatalf("Total = %d, want 3", rec.commits[1].Total)
	}
}

func TestScheduler_TotalCountsDroppedLines(t *testing.T) {
	s, ring, _, _, rec := newTestScheduler(2)

	for i := 1; i <= 5; i++ {
		s.Enqueue(fmt.Sprintf("l%d", i))
	}
	s.Flush()
	if got := ring.Lines(); !reflect.DeepEqual(got, []string{"l4", "l5"}) {
		t.Fatalf("ring = %v, want [l4 l5]", got)
	}
	if rec.commits[0].Total != 5 {
		t.Fatalf("Total = %d, want 5", rec.commits[0].Total)
	}

	s.Enqueue("l6")
	if s.Committed() != 5 {
		t.Fatalf("Committed() before flush = %d, want 5", s.Committed())
	}
	s.Flush()
	if rec.commits[1].Total != 6 || s.Committed() != 6 {
		t.Fatalf("Total = %d, Committed() = %d, want 6", rec.commits[1].Total, s.Committed())
	}
}

func TestScheduler_CloseDropsQueuedAndInFlightFlush(t *testing.T) {
	s, ring, mock, tasks, rec := newTestScheduler(5)

	s.Enqueue("a")
	mock.Add(50 * time.Millisecond)
	s.Close()

	// The timer already fired and posted its task before Close.
	tasks.runNext(t)

	if len(rec.commits) != 0 {
		t.Fatalf("commits after Close = %d, want 0", len(rec.commits))
	}
	if ring.Len() != 0 {
		t.Fatalf("ring len = %d, want 0", ring.Len())
	}

	s.Enqueue("b")
	mock.Add(time.Second)
	tasks.expectIdle(t)
	if s.Pending() != 0 {
		t.Fatalf("Pending() after Close = %d, want 0", s.Pending())
	}
}

func TestScheduler_SetCapacityBoundsPending(t *testing.T) {
	s, ring, _, _, rec := newTestScheduler(5)
	for i := 1; i <= 5; i++ {
		s.Enqueue(fmt.Sprintf("line %d", i))
	}
	ring.SetCapacity(2)
	s.SetCapacity(2)
	s.Flush()
	if got, want := rec.commits[0].Lines, lineRange(4, 5); !reflect.DeepEqual(got, want) {
		t.Fatalf("committed = %v, want %v", got, want)
	}
}
