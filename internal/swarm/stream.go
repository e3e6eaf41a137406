package swarm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/five82/swarmtail/internal/logstream"
)

const (
	// Servers ping every 54s; a silent connection is dropped after pongWait.
	pongWait    = 60 * time.Second
	writeWait   = 10 * time.Second
	dialTimeout = 10 * time.Second

	defaultRetryBase = time.Second
)

// StreamDialer opens websocket log streams. It implements logstream.Dialer.
type StreamDialer struct {
	client    *Client
	ws        *websocket.Dialer
	logger    *zap.Logger
	clock     clock.Clock
	retryBase time.Duration
}

var _ logstream.Dialer = (*StreamDialer)(nil)

// StreamOption customizes a StreamDialer.
type StreamOption func(*StreamDialer)

// WithClock replaces the clock used for reconnect waits.
func WithClock(c clock.Clock) StreamOption {
	return func(d *StreamDialer) { d.clock = c }
}

// WithRetryBase sets the first reconnect wait; later waits double.
func WithRetryBase(base time.Duration) StreamOption {
	return func(d *StreamDialer) {
		if base > 0 {
			d.retryBase = base
		}
	}
}

// NewStreamDialer returns a dialer for streams served under client's root.
func NewStreamDialer(client *Client, logger *zap.Logger, opts ...StreamOption) *StreamDialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &StreamDialer{
		client: client,
		ws: &websocket.Dialer{
			Proxy:             http.ProxyFromEnvironment,
			HandshakeTimeout:  dialTimeout,
			EnableCompression: true,
		},
		logger:    logger.With(zap.String("component", "stream")),
		clock:     clock.New(),
		retryBase: defaultRetryBase,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open starts streaming s in the background and returns immediately.
// Messages, connects and disconnects are reported to h; after a disconnect
// the stream reconnects only while h asks it to.
func (d *StreamDialer) Open(ctx context.Context, s logstream.Session, h logstream.Handler) (io.Closer, error) {
	ctx, cancel := context.WithCancel(ctx)
	st := &stream{
		dialer:  d,
		url:     d.client.StreamURL(s),
		handler: h,
		cancel:  cancel,
		logger:  d.logger.With(zap.String("session", s.ID), zap.String("source", s.Source.ID)),
		done:    make(chan struct{}),
	}
	go st.run(ctx)
	return st, nil
}

type stream struct {
	dialer  *StreamDialer
	url     string
	handler logstream.Handler
	cancel  context.CancelFunc
	logger  *zap.Logger
	done    chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
	once sync.Once
}

// Close stops the stream and sends a normal close frame if connected. It
// does not wait for the reader to exit.
func (st *stream) Close() error {
	st.once.Do(func() {
		st.cancel()
		st.mu.Lock()
		conn := st.conn
		st.mu.Unlock()
		if conn != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			_ = conn.Close()
		}
	})
	return nil
}

func (st *stream) setConn(conn *websocket.Conn) {
	st.mu.Lock()
	st.conn = conn
	st.mu.Unlock()
}

func (st *stream) run(ctx context.Context) {
	defer close(st.done)
	failures := 0
	for {
		err := st.connectAndRead(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			failures++
			st.logger.Warn("stream dropped", zap.Error(err), zap.Int("failures", failures))
		} else {
			failures = 0
			st.logger.Debug("stream closed by server")
		}
		if !st.handler.Disconnected(ctx, err) {
			return
		}
		wait := logstream.Backoff(max(failures-1, 0), st.dialer.retryBase)
		select {
		case <-ctx.Done():
			return
		case <-st.dialer.clock.After(wait):
		}
	}
}

// connectAndRead returns nil when the server closed the stream normally.
func (st *stream) connectAndRead(ctx context.Context) error {
	conn, resp, err := st.dialer.ws.DialContext(ctx, st.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return err
	}
	st.setConn(conn)
	defer func() {
		st.setConn(nil)
		_ = conn.Close()
	}()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	st.handler.Connected()
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		switch kind {
		case websocket.TextMessage:
			st.handler.Message(string(data))
		case websocket.BinaryMessage:
			st.handler.Message(data)
		}
	}
}
