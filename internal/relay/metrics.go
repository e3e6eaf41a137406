package relay

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

type metrics struct {
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeStreams   prometheus.Gauge
	linesSent       *prometheus.CounterVec
	slowClients     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swarmtail",
			Subsystem: "relay",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "swarmtail",
			Subsystem: "relay",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers; streams count until they close",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "swarmtail",
			Subsystem: "relay",
			Name:      "active_streams",
			Help:      "Websocket log streams currently open",
		}),
		linesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swarmtail",
			Subsystem: "relay",
			Name:      "lines_sent_total",
			Help:      "Log lines written to websocket clients",
		}, []string{"source"}),
		slowClients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swarmtail",
			Subsystem: "relay",
			Name:      "slow_clients_total",
			Help:      "Streams closed because the client fell behind",
		}, []string{"source"}),
	}

	collectors := []prometheus.Collector{m.requestTotal, m.requestDuration, m.activeStreams, m.linesSent, m.slowClients}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			already, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				continue
			}
			switch existing := already.ExistingCollector.(type) {
			case *prometheus.CounterVec:
				switch collector {
				case m.requestTotal:
					m.requestTotal = existing
				case m.linesSent:
					m.linesSent = existing
				case m.slowClients:
					m.slowClients = existing
				}
			case *prometheus.HistogramVec:
				m.requestDuration = existing
			case prometheus.Gauge:
				m.activeStreams = existing
			}
		}
	}
	return m
}

// instrument records request counts and latency per chi route pattern.
func (m *metrics) instrument(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
				// The upgrader writes 101 straight to the hijacked conn.
				if websocket.IsWebSocketUpgrade(r) {
					status = http.StatusSwitchingProtocols
				}
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)

			labels := prometheus.Labels{
				"method": r.Method,
				"route":  route,
				"status": strconv.Itoa(status),
			}
			m.requestTotal.With(labels).Inc()
			m.requestDuration.With(labels).Observe(elapsed.Seconds())

			logger.Debug("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("elapsed", elapsed),
			)
		})
	}
}
