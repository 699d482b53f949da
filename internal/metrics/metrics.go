package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intervieweasy",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "intervieweasy",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	activeRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "intervieweasy",
		Name:      "active_rooms",
		Help:      "Rooms with live runtime state on this instance",
	})

	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "intervieweasy",
		Name:      "connected_clients",
		Help:      "Open WebSocket connections on this instance",
	})

	framesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intervieweasy",
		Name:      "frames_relayed_total",
		Help:      "Room-scoped frames forwarded to peers, by frame type",
	}, []string{"type"})

	staleSnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "intervieweasy",
		Name:      "stale_snapshots_total",
		Help:      "Full snapshots rejected by version gating",
	})
)

func RoomOpened() { activeRooms.Inc() }
func RoomClosed() { activeRooms.Dec() }
func ClientUp()   { connectedClients.Inc() }
func ClientDown() { connectedClients.Dec() }

func FrameRelayed(frameType string) { framesRelayed.WithLabelValues(frameType).Inc() }
func SnapshotRejected()             { staleSnapshots.Inc() }

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack is required so the WebSocket upgrade still works behind the recorder.
func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("metrics: underlying ResponseWriter does not support hijacking")
}

// Middleware records request metrics with Prometheus labels.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		labels := prometheus.Labels{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": strconv.Itoa(rec.status),
		}
		httpRequests.With(labels).Inc()
		httpLatency.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
