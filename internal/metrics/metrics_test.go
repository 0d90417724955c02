package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveDecision("public")
	m.ObserveDecision("public")
	m.ObserveDecision("not_found")
	m.TokenIssued()
	m.TokenRejected("expired")
	m.TokenRevoked()
	m.ObserveHTTP("GET", "/health", 200)
	m.ObserveDuration("check_content_access", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AccessDecisions.WithLabelValues("public")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccessDecisions.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccessTokensIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccessTokensRejected.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokensRevoked))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/health", "200")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveDecision("owner")
	m.TokenIssued()
	m.TokenRejected("malformed")
	m.TokenRevoked()
	m.ObserveHTTP("GET", "/", 200)
	m.ObserveDuration("x", 1)
}
