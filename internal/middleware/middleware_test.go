package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fanvault/backend/internal/contextkeys"
	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/fanvault/backend/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]*domain.JWTClaims

func (s stubVerifier) VerifyToken(tok string) (*domain.JWTClaims, error) {
	if c, ok := s[tok]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

var verifier = stubVerifier{
	"fan-token":    {Sub: "fan-1", Email: "fan@example.com", Role: domain.RoleFan},
	"artist-token": {Sub: "artist-1", Email: "artist@example.com", Role: domain.RoleArtist},
	"admin-token":  {Sub: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin},
}

// whoami echoes the authenticated user id, or "anonymous".
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id := contextkeys.UserIDFrom(r.Context())
	if id == "" {
		id = "anonymous"
	}
	_, _ = w.Write([]byte(id))
})

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	h := Auth(verifier)(whoami)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid token", "Bearer fan-token", http.StatusOK, "fan-1"},
		{"lowercase scheme", "bearer fan-token", http.StatusOK, "fan-1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic fan-token", http.StatusUnauthorized, ""},
		{"unknown token", "Bearer forged", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.header)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	h := OptionalAuth(verifier)(whoami)

	rec := serve(h, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	rec = serve(h, "Bearer fan-token")
	assert.Equal(t, "fan-1", rec.Body.String())

	rec = serve(h, "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		mw     func(http.Handler) http.Handler
		header string
		status int
	}{
		{"admin allows admin", AdminOnly, "Bearer admin-token", http.StatusOK},
		{"admin rejects artist", AdminOnly, "Bearer artist-token", http.StatusForbidden},
		{"artist allows artist", ArtistOnly, "Bearer artist-token", http.StatusOK},
		{"artist allows admin", ArtistOnly, "Bearer admin-token", http.StatusOK},
		{"artist rejects fan", ArtistOnly, "Bearer fan-token", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Auth(verifier)(tt.mw(whoami))
			assert.Equal(t, tt.status, serve(h, tt.header).Code)
		})
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.NewTestLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := serve(h, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestLogger_CountsByRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(Logger(logger.NewTestLogger(t), m))
	r.Get("/api/content/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/content/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/content/{id}", "418")))
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 0.001, 2)
	h := rl.Middleware()(whoami)

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"))

	rl.evict(time.Now().Add(visitorIdleTTL + time.Second))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
}

func TestExtractClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4711"
	assert.Equal(t, "192.0.2.7", extractClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	assert.Equal(t, "198.51.100.1", extractClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", extractClientIP(req))
}
