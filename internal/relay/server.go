package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/five82/swarmtail/internal/config"
	"github.com/five82/swarmtail/internal/logtail"
)

const (
	defaultPingInterval = 54 * time.Second
	writeWait           = 10 * time.Second
	pongWait            = 60 * time.Second
	maxClientMessage    = 1024 * 1024

	// Lines buffered between the file follower and the websocket writer.
	channelSize = 64
	// How long a full buffer may stay full before the client is dropped.
	slowClientWait  = 50 * time.Millisecond
	writerDrainWait = 2 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Options configure a Server.
type Options struct {
	Sources      []config.RelaySource
	Logger       *zap.Logger
	Registry     *prometheus.Registry // nil creates a private registry
	Clock        clock.Clock
	PingInterval time.Duration
	Poll         time.Duration // file poll interval while following
}

// Server serves log files over the same HTTP and websocket API the client
// consumes: a service catalog and one websocket stream per source.
type Server struct {
	router   chi.Router
	sources  map[string]config.RelaySource
	services []serviceEntry
	logger   *zap.Logger
	metrics  *metrics
	registry *prometheus.Registry
	clock    clock.Clock
	ping     time.Duration
	poll     time.Duration
	upgrader websocket.Upgrader
}

type serviceEntry struct {
	ID   string `json:"ID"`
	Name string `json:"Name"`
}

// New builds the relay and its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	ping := opts.PingInterval
	if ping <= 0 {
		ping = defaultPingInterval
	}

	s := &Server{
		router:   chi.NewRouter(),
		sources:  make(map[string]config.RelaySource, len(opts.Sources)),
		logger:   logger.With(zap.String("component", "relay")),
		metrics:  newMetrics(reg),
		registry: reg,
		clock:    clk,
		ping:     ping,
		poll:     opts.Poll,
		upgrader: websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin:       func(*http.Request) bool { return true },
		},
	}
	for _, src := range opts.Sources {
		s.sources[src.ID] = src
		s.services = append(s.services, serviceEntry{ID: src.ID, Name: src.Name})
	}
	sort.SliceStable(s.services, func(i, j int) bool {
		return s.services[i].Name < s.services[j].Name
	})

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.metrics.instrument(s.logger))

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.router.Get("/ui/logs/services", s.handleServices)
	s.router.Get("/docker/logs/{id}", s.handleLogs)
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down.
// Open streams see their request context cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("relay listening", zap.String("addr", ln.Addr().String()), zap.Int("sources", len(s.sources)))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown relay: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"sources":   len(s.sources),
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleServices(w http.ResponseWriter, _ *http.Request) {
	services := s.services
	if services == nil {
		services = []serviceEntry{}
	}
	s.writeJSON(w, http.StatusOK, services)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	src, ok := s.sources[id]
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown service %q", id))
		return
	}
	q, err := parseQuery(r.URL.Query(), s.clock.Now())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.String("source", id), zap.Error(err))
		return
	}
	defer func() { _ = ws.Close() }()

	s.metrics.activeStreams.Inc()
	defer s.metrics.activeStreams.Dec()

	logger := s.logger.With(
		zap.String("source", id),
		zap.String("remote", r.RemoteAddr),
		zap.Bool("follow", q.Follow),
	)
	logger.Info("stream opened")
	defer logger.Info("stream closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	st := &stream{
		server: s,
		ws:     ws,
		src:    src,
		query:  q,
		logger: logger,
	}
	st.serve(ctx, cancel)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// backlog returns the lines a new stream starts with and the file offset
// following should resume from.
func (s *Server) backlog(src config.RelaySource, q streamQuery) ([]string, int64, error) {
	if !q.wants(src) {
		_, offset, err := logtail.Snapshot(src.Path, 1)
		return nil, offset, err
	}
	limit := q.Tail
	if !q.Since.IsZero() {
		// The tail applies after the since filter.
		limit = 0
	}
	lines, offset, err := logtail.Snapshot(src.Path, limit)
	if err != nil {
		return nil, 0, err
	}
	kept := lines[:0]
	for _, line := range lines {
		if q.accept(line) {
			kept = append(kept, line)
		}
	}
	if len(kept) > q.Tail {
		kept = kept[len(kept)-q.Tail:]
	}
	return kept, offset, nil
}
