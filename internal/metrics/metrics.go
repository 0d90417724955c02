package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors exported by the backend. Collectors are
// registered against the Registerer passed to New so tests can use a
// private registry.
type Metrics struct {
	AccessDecisions      *prometheus.CounterVec
	AccessCheckDuration  *prometheus.HistogramVec
	AccessTokensIssued   prometheus.Counter
	AccessTokensRejected *prometheus.CounterVec
	TokensRevoked        prometheus.Counter
	HTTPRequests         *prometheus.CounterVec
}

// New creates and registers all collectors.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AccessDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "access_decisions_total",
				Help: "Content access decisions by reason",
			},
			[]string{"reason"},
		),
		AccessCheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "access_check_duration_seconds",
				Help:    "Duration of access evaluator operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		AccessTokensIssued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "access_tokens_issued_total",
				Help: "Total number of content access tokens issued",
			},
		),
		AccessTokensRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "access_tokens_rejected_total",
				Help: "Content access tokens rejected during verification or redemption",
			},
			[]string{"cause"},
		),
		TokensRevoked: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "access_tokens_revoked_total",
				Help: "Total number of token revocations",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.AccessDecisions,
			m.AccessCheckDuration,
			m.AccessTokensIssued,
			m.AccessTokensRejected,
			m.TokensRevoked,
			m.HTTPRequests,
		)
	}
	return m
}

// ObserveHTTP records a finished HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// ObserveDecision records an access decision.
func (m *Metrics) ObserveDecision(reason string) {
	if m == nil {
		return
	}
	m.AccessDecisions.WithLabelValues(reason).Inc()
}

// ObserveDuration records the duration of an evaluator operation.
func (m *Metrics) ObserveDuration(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.AccessCheckDuration.WithLabelValues(operation).Observe(seconds)
}

// TokenIssued counts an issued token.
func (m *Metrics) TokenIssued() {
	if m == nil {
		return
	}
	m.AccessTokensIssued.Inc()
}

// TokenRejected counts a rejected token by cause.
func (m *Metrics) TokenRejected(cause string) {
	if m == nil {
		return
	}
	m.AccessTokensRejected.WithLabelValues(cause).Inc()
}

// TokenRevoked counts a revocation.
func (m *Metrics) TokenRevoked() {
	if m == nil {
		return
	}
	m.TokensRevoked.Inc()
}
