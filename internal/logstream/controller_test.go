package logstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

type fakeConn struct {
	closed int
}

func (f *fakeConn) Close() error {
	f.closed++
	return nil
}

type fakeDialer struct {
	sessions []Session
	handlers []Handler
	conns    []*fakeConn
	err      error
}

func (d *fakeDialer) Open(_ context.Context, s Session, h Handler) (io.Closer, error) {
	if d.err != nil {
		return nil, d.err
	}
	conn := &fakeConn{}
	d.sessions = append(d.sessions, s)
	d.handlers = append(d.handlers, h)
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) lastHandler(t *testing.T) Handler {
	t.Helper()
	if len(d.handlers) == 0 {
		t.Fatalf("dialer was never opened")
	}
	return d.handlers[len(d.handlers)-1]
}

type controllerHarness struct {
	c       *Controller
	dialer  *fakeDialer
	mock    *clock.Mock
	tasks   *taskQueue
	commits []Commit
}

func newHarness() *controllerHarness {
	h := &controllerHarness{
		dialer: &fakeDialer{},
		mock:   clock.NewMock(),
		tasks:  newTaskQueue(),
	}
	h.c = NewController(Options{
		Dialer:     h.dialer,
		Post:       h.tasks.post,
		Clock:      h.mock,
		FlushDelay: 50 * time.Millisecond,
		OnCommit:   func(c Commit) { h.commits = append(h.commits, c) },
	})
	return h
}

func (h *controllerHarness) flush(t *testing.T) {
	t.Helper()
	h.mock.Add(50 * time.Millisecond)
	h.tasks.runNext(t)
}

func validForm() FormState {
	form := DefaultForm()
	form.Source = Source{ID: "svc1", Name: "api"}
	return form
}

func TestController_StartRejectsInvalidSince(t *testing.T) {
	h := newHarness()
	h.c.Configure()

	form := validForm()
	form.Since = SinceInput{Mode: SinceAbsolute, ISO: "not-a-date"}
	err := h.c.Start(form)

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "since" {
		t.Fatalf("Start error = %v, want since ValidationError", err)
	}
	if h.c.State() != StateConfiguring {
		t.Fatalf("State() = %v, want configuring", h.c.State())
	}
	if len(h.dialer.sessions) != 0 {
		t.Fatalf("dialer opened %d times, want 0", len(h.dialer.sessions))
	}
	if !errors.Is(h.c.Err(), err) {
		t.Fatalf("Err() = %v, want %v", h.c.Err(), err)
	}
}

func TestController_StartRequiresSource(t *testing.T) {
	h := newHarness()
	err := h.c.Start(DefaultForm())
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "source" {
		t.Fatalf("Start error = %v, want source ValidationError", err)
	}
}

func TestController_StartOpensSessionWithResolvedTail(t *testing.T) {
	h := newHarness()
	form := validForm()
	form.Tail = "abc"
	form.Follow = true
	form.Details = true

	if err := h.c.Start(form); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if h.c.State() != StateActive {
		t.Fatalf("State() = %v, want active", h.c.State())
	}
	if len(h.dialer.sessions) != 1 {
		t.Fatalf("dialer opened %d times, want 1", len(h.dialer.sessions))
	}
	s := h.dialer.sessions[0]
	if s.Tail != DefaultTail || s.Since != "1h" || !s.Follow || !s.Details || !s.Stdout || !s.Stderr {
		t.Fatalf("session = %#v, want tail=20 since=1h follow details stdout stderr", s)
	}
	if s.ID == "" || !s.Active {
		t.Fatalf("session = %#v, want id and Active", s)
	}
	if got, ok := h.c.Session(); !ok || got.ID != s.ID {
		t.Fatalf("Session() = %#v, %v; want %q", got, ok, s.ID)
	}
}

func TestController_MessagesCommitInOrder(t *testing.T) {
	h := newHarness()
	if err := h.c.Start(validForm()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	handler := h.dialer.lastHandler(t)
	handler.Message("first")
	handler.Message(map[string]string{"msg": "second"})
	h.tasks.runNext(t)
	h.tasks.runNext(t)
	if len(h.c.Lines()) != 0 {
		t.Fatalf("Lines() before flush = %v, want empty", h.c.Lines())
	}

	h.flush(t)
	want := []string{"first", `{"msg":"second"}`}
	if got := h.c.Lines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines() = %v, want %v", got, want)
	}
	if len(h.commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(h.commits))
	}
}

func TestController_BurstKeepsLastTail(t *testing.T) {
	h := newHarness()
	if err := h.c.Start(validForm()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	for i := 1; i <= 10000; i++ {
		h.c.OnMessage(fmt.Sprintf("line %d", i))
	}
	h.flush(t)

	if got, want := h.c.Lines(), lineRange(9981, 10000); !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines() = %v, want %v", got, want)
	}
	if len(h.commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(h.commits))
	}
}

func TestController_StopDiscardsPendingAndKeepsForm(t *testing.T) {
	h := newHarness()
	form := validForm()
	form.Tail = "7"
	form.Follow = true
	if err := h.c.Start(form); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	h.c.OnMessage("a")
	h.flush(t)
	h.c.OnMessage("b")

	h.c.Stop()
	if h.c.State() != StateIdle {
		t.Fatalf("State() = %v, want idle", h.c.State())
	}
	if h.dialer.conns[0].closed != 1 {
		t.Fatalf("conn closed %d times, want 1", h.dialer.conns[0].closed)
	}
	if len(h.c.Lines()) != 0 {
		t.Fatalf("Lines() after Stop = %v, want empty", h.c.Lines())
	}
	if _, ok := h.c.Session(); ok {
		t.Fatalf("Session() still present after Stop")
	}

	h.mock.Add(time.Second)
	h.tasks.expectIdle(t)
	if len(h.commits) != 1 {
		t.Fatalf("commits = %d, want 1 (no commit after Stop)", len(h.commits))
	}

	if got := h.c.Form(); !reflect.DeepEqual(got, form) {
		t.Fatalf("Form() = %#v, want %#v", got, form)
	}
	if err := h.c.Start(h.c.Form()); err != nil {
		t.Fatalf("restart returned error: %v", err)
	}
	if h.dialer.sessions[1].Tail != 7 || !h.dialer.sessions[1].Follow {
		t.Fatalf("restarted session = %#v, want tail 7 follow", h.dialer.sessions[1])
	}
}

func TestController_WindowKeepsNewestAcrossFlushes(t *testing.T) {
	tests := []struct {
		tail  string
		lines []string
		want  []string
	}{
		{"2", []string{"a", "b", "c"}, []string{"b", "c"}},
		{"1", []string{"first", "second"}, []string{"second"}},
	}

	for _, tt := range tests {
		t.Run("tail "+tt.tail, func(t *testing.T) {
			h := newHarness()
			form := validForm()
			form.Tail = tt.tail
			if err := h.c.Start(form); err != nil {
				t.Fatalf("Start returned error: %v", err)
			}
			for _, line := range tt.lines {
				h.c.OnMessage(line)
				h.flush(t)
			}
			if got := h.c.Lines(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Lines() = %v, want %v", got, tt.want)
			}
			if len(h.commits) != len(tt.lines) {
				t.Fatalf("commits = %d, want %d", len(h.commits), len(tt.lines))
			}
		})
	}
}

func TestController_StopKeepsCustomForm(t *testing.T) {
	h := newHarness()
	form := validForm()
	form.Tail = "50"
	form.Since = NewSinceInput("2h")
	form.Stdout = false
	if err := h.c.Start(form); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	h.c.OnMessage("hello")
	h.flush(t)

	h.c.Stop()
	if h.c.State() != StateIdle {
		t.Fatalf("State() = %v, want idle", h.c.State())
	}
	if len(h.c.Lines()) != 0 {
		t.Fatalf("Lines() after Stop = %v, want empty", h.c.Lines())
	}
	got := h.c.Form()
	if got.Tail != "50" || got.Since.Value() != "2h" || got.Stdout {
		t.Fatalf("Form() = tail %q since %q stdout %v, want tail 50 since 2h stdout false",
			got.Tail, got.Since.Value(), got.Stdout)
	}
}

func TestController_StaleHandlerIgnoredAfterRestart(t *testing.T) {
	h := newHarness()
	if err := h.c.Start(validForm()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	old := h.dialer.lastHandler(t)

	if err := h.c.Start(validForm()); err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}
	if h.dialer.conns[0].closed != 1 {
		t.Fatalf("first conn closed %d times, want 1", h.dialer.conns[0].closed)
	}

	old.Message("stale")
	h.tasks.runNext(t)
	h.mock.Add(time.Second)
	h.tasks.expectIdle(t)
	if len(h.c.Lines()) != 0 {
		t.Fatalf("Lines() = %v, want stale message dropped", h.c.Lines())
	}

	result := make(chan bool, 1)
	go func() { result <- old.Disconnected(context.Background(), nil) }()
	h.tasks.runNext(t)
	if <-result {
		t.Fatalf("stale Disconnected = true, want false")
	}
}

func TestController_ReconfigureShrinksWindow(t *testing.T) {
	h := newHarness()
	form := validForm()
	form.Tail = "5"
	if err := h.c.Start(form); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	for i := 1; i <= 5; i++ {
		h.c.OnMessage(fmt.Sprintf("line %d", i))
	}
	h.flush(t)

	if n := h.c.Reconfigure("2"); n != 2 {
		t.Fatalf("Reconfigure = %d, want 2", n)
	}
	if got, want := h.c.Lines(), lineRange(4, 5); !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines() = %v, want %v", got, want)
	}
	if s, _ := h.c.Session(); s.Tail != 2 {
		t.Fatalf("session tail = %d, want 2", s.Tail)
	}
	if last := h.commits[len(h.commits)-1]; last.Total != 5 {
		t.Fatalf("reconfigure commit Total = %d, want 5", last.Total)
	}

	if n := h.c.Reconfigure("nope"); n != DefaultTail {
		t.Fatalf("Reconfigure(nope) = %d, want %d", n, DefaultTail)
	}
}

func TestController_DisconnectFollowsPolicy(t *testing.T) {
	tests := []struct {
		name    string
		follow  bool
		visible bool
		want    bool
	}{
		{"follow and visible", true, true, true},
		{"follow hidden", true, false, false},
		{"snapshot", false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			form := validForm()
			form.Follow = tt.follow
			if err := h.c.Start(form); err != nil {
				t.Fatalf("Start returned error: %v", err)
			}
			h.c.SetVisible(tt.visible)

			handler := h.dialer.lastHandler(t)
			handler.Connected()
			h.tasks.runNext(t)
			if !h.c.Streaming() {
				t.Fatalf("Streaming() = false after Connected")
			}

			h.c.OnMessage("kept")

			result := make(chan bool, 1)
			go func() { result <- handler.Disconnected(context.Background(), errors.New("eof")) }()
			h.tasks.runNext(t)
			if got := <-result; got != tt.want {
				t.Fatalf("Disconnected = %v, want %v", got, tt.want)
			}
			if h.c.Streaming() {
				t.Fatalf("Streaming() = true after disconnect")
			}
			if h.c.State() != StateActive {
				t.Fatalf("State() = %v, want active", h.c.State())
			}
			if h.c.Connects() != 1 {
				t.Fatalf("Connects() = %d, want 1", h.c.Connects())
			}
			if h.c.Ended() == tt.want {
				t.Fatalf("Ended() = %v, want %v", h.c.Ended(), !tt.want)
			}
			if !tt.want {
				if got := h.c.Lines(); !reflect.DeepEqual(got, []string{"kept"}) {
					t.Fatalf("Lines() = %v, want [kept] retained", got)
				}
			}
		})
	}
}

func TestController_DisconnectGivesUpWhenContextDone(t *testing.T) {
	h := newHarness()
	form := validForm()
	form.Follow = true
	if err := h.c.Start(form); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if h.dialer.lastHandler(t).Disconnected(ctx, nil) {
		t.Fatalf("Disconnected with cancelled ctx = true, want false")
	}
}

func TestController_OpenFailureStaysConfiguring(t *testing.T) {
	h := newHarness()
	h.dialer.err = errors.New("refused")
	err := h.c.Start(validForm())
	if err == nil {
		t.Fatalf("Start returned nil error, want open failure")
	}
	if h.c.State() != StateConfiguring {
		t.Fatalf("State() = %v, want configuring", h.c.State())
	}
	if _, ok := h.c.Session(); ok {
		t.Fatalf("Session() present after failed open")
	}
}

func TestController_OnMessageSurvivesHostilePayloads(t *testing.T) {
	h := newHarness()
	if err := h.c.Start(validForm()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	cyclic := &node{Name: "loop"}
	cyclic.Next = cyclic

	h.c.OnMessage(cyclic)
	h.c.OnMessage(explodingJSON{})
	h.c.OnMessage("after")
	h.flush(t)

	lines := h.c.Lines()
	if len(lines) != 3 || lines[2] != "after" {
		t.Fatalf("Lines() = %v, want two placeholders then after", lines)
	}
}

func TestController_IgnoresMessagesWhenIdle(t *testing.T) {
	h := newHarness()
	h.c.OnMessage("nobody listening")
	if len(h.c.Lines()) != 0 {
		t.Fatalf("Lines() = %v, want empty", h.c.Lines())
	}
}
