package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/janhq/agent-middleware/internal/domain/conversation"
	"github.com/janhq/agent-middleware/internal/domain/identity"
)

// Agent middleware metrics
var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "agent_middleware",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "agent_middleware",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	AuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "agent_middleware",
			Name:      "auth_requests_total",
			Help:      "Total authentication attempts",
		},
		[]string{"auth_type", "status"},
	)

	IdentityResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "agent_middleware",
			Name:      "identity_resolutions_total",
			Help:      "Identity resolutions by outcome",
		},
		[]string{"outcome"},
	)

	ConversationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "agent_middleware",
			Name:      "conversations_created_total",
			Help:      "Total conversations created",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSeconds float64) {
	endpoint = normalizeEndpoint(endpoint)
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordAuth records an authentication attempt
func RecordAuth(authType, status string) {
	AuthRequestsTotal.WithLabelValues(authType, status).Inc()
}

func normalizeEndpoint(endpoint string) string {
	if endpoint == "" {
		return "unmatched"
	}
	return strings.TrimSuffix(endpoint, "/")
}

// Recorder adapts the package collectors to the domain observer interfaces.
type Recorder struct{}

var (
	_ identity.Recorder     = Recorder{}
	_ conversation.Recorder = Recorder{}
)

// NewRecorder returns the process-wide recorder.
func NewRecorder() Recorder {
	return Recorder{}
}

func (Recorder) IdentityResolved(outcome string) {
	IdentityResolutionsTotal.WithLabelValues(outcome).Inc()
}

func (Recorder) ConversationCreated() {
	ConversationsCreatedTotal.Inc()
}
