package relay

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/five82/swarmtail/internal/config"
	"github.com/five82/swarmtail/internal/logtail"
)

// stream is one websocket client reading one source.
type stream struct {
	server *Server
	ws     *websocket.Conn
	src    config.RelaySource
	query  streamQuery
	logger *zap.Logger
}

func (st *stream) serve(ctx context.Context, cancel context.CancelFunc) {
	lines, offset, err := st.server.backlog(st.src, st.query)
	if err != nil {
		st.logger.Error("read backlog failed", zap.Error(err))
		st.close(websocket.CloseInternalServerErr, "read failed")
		return
	}

	if !st.query.Follow {
		now := st.server.clock.Now()
		for _, line := range lines {
			if err := st.send(st.query.format(st.src, line, now)); err != nil {
				st.logger.Warn("websocket write failed", zap.Error(err))
				return
			}
		}
		st.close(websocket.CloseNormalClosure, "")
		return
	}

	st.ws.SetReadLimit(maxClientMessage)
	_ = st.ws.SetReadDeadline(time.Now().Add(pongWait))
	st.ws.SetPongHandler(func(string) error {
		return st.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	// Clients send nothing; reading detects disconnects and handles pongs.
	go func() {
		for {
			if _, _, err := st.ws.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	out := make(chan string, channelSize)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		st.writeLoop(ctx, cancel, out)
	}()

	slow := false
	enqueue := func(line string) bool {
		select {
		case out <- line:
			return true
		default:
		}
		select {
		case out <- line:
			return true
		case <-ctx.Done():
			return false
		case <-st.server.clock.After(slowClientWait):
			slow = true
			return false
		}
	}

	now := st.server.clock.Now()
	caughtUp := true
	for _, line := range lines {
		if !enqueue(st.query.format(st.src, line, now)) {
			caughtUp = false
			break
		}
	}

	var followErr error
	if caughtUp {
		opts := logtail.FollowOptions{Offset: offset, Poll: st.server.poll}
		followErr = logtail.Follow(ctx, st.src.Path, opts, func(line string) bool {
			if !st.query.wants(st.src) || !st.query.accept(line) {
				return true
			}
			return enqueue(st.query.format(st.src, line, st.server.clock.Now()))
		})
	}

	if slow {
		cancel()
	}
	close(out)
	select {
	case <-writerDone:
	case <-st.server.clock.After(writerDrainWait):
		st.logger.Warn("writer did not finish in time")
	}

	switch {
	case slow:
		st.logger.Warn("client too slow, closing stream")
		st.server.metrics.slowClients.WithLabelValues(st.src.ID).Inc()
		st.close(websocket.CloseTryAgainLater, "client too slow")
	case followErr != nil:
		st.logger.Error("follow failed", zap.Error(followErr))
		st.close(websocket.CloseInternalServerErr, "read failed")
	default:
		st.close(websocket.CloseGoingAway, "")
	}
}

// writeLoop is the only writer while following. It drains out and pings
// the client so dead peers are noticed.
func (st *stream) writeLoop(ctx context.Context, cancel context.CancelFunc, out <-chan string) {
	ticker := st.server.clock.Ticker(st.server.ping)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = st.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := st.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				st.logger.Debug("ping failed", zap.Error(err))
				cancel()
				return
			}
		case line, ok := <-out:
			if !ok {
				return
			}
			if err := st.send(line); err != nil {
				st.logger.Debug("websocket write failed", zap.Error(err))
				cancel()
				// Keep draining so enqueue never blocks on a dead client.
				for range out {
				}
				return
			}
		case <-ctx.Done():
			for range out {
			}
			return
		}
	}
}

func (st *stream) send(line string) error {
	_ = st.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := st.ws.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return err
	}
	st.server.metrics.linesSent.WithLabelValues(st.src.ID).Inc()
	return nil
}

func (st *stream) close(code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = st.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
