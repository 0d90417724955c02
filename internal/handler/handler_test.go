package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/fanvault/backend/internal/service"
	"github.com/fanvault/backend/pkg/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"not found", domain.ErrNotFound("content not found"), http.StatusNotFound, `{"error":"content not found"}`},
		{"validation", domain.ErrValidation("title: failed required"), http.StatusUnprocessableEntity, `{"error":"title: failed required"}`},
		{"internal hides cause", domain.ErrInternal("failed to list", errors.New("pq: boom")), http.StatusInternalServerError, `{"error":"failed to list"}`},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newResponder(logger.NewTestLogger(t)).writeError(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestResponder_LogsServerErrorsToOwnLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := NewHealthHandler(nil, nil, logger.NewZapAdapter(zap.New(core)))

	rec := httptest.NewRecorder()
	h.writeError(rec, domain.ErrInternal("failed to list", errors.New("pq: boom")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq: boom")

	rec = httptest.NewRecorder()
	h.writeError(rec, domain.ErrNotFound("content not found"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "request failed", entries[0].Message)
	assert.Contains(t, entries[0].ContextMap()["error"], "pq: boom")
}

func TestNewResponder_NilLogger(t *testing.T) {
	rec := httptest.NewRecorder()
	newResponder(nil).writeError(rec, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ Name string }
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"Name":"x"}`))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, "x", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{`))
	err := DecodeJSON(req, &v)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}

func TestHealthHandler(t *testing.T) {
	ok := PingFunc(func(ctx context.Context) error { return nil })
	down := PingFunc(func(ctx context.Context) error { return errors.New("down") })

	tests := []struct {
		name   string
		db     Pinger
		redis  Pinger
		status int
		body   string
	}{
		{"all up", ok, ok, http.StatusOK, `{"status":"ok","database":"ok","redis":"ok"}`},
		{"no redis configured", ok, nil, http.StatusOK, `{"status":"ok","database":"ok"}`},
		{"db down", down, ok, http.StatusServiceUnavailable, `{"status":"degraded","database":"error","redis":"ok"}`},
		{"redis down", ok, down, http.StatusServiceUnavailable, `{"status":"degraded","database":"ok","redis":"error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.db, tt.redis, logger.NewTestLogger(t)).Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

type memSubscriptions struct {
	subs map[string]*domain.Subscription
}

func (m *memSubscriptions) Create(ctx context.Context, sub *domain.Subscription) error {
	m.subs[sub.ID] = sub
	return nil
}

func (m *memSubscriptions) UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus, periodEnd time.Time) error {
	if s, ok := m.subs[id]; ok {
		s.Status = status
		if !periodEnd.IsZero() {
			s.CurrentPeriodEnd = periodEnd
		}
	}
	return nil
}

func (m *memSubscriptions) FindByID(ctx context.Context, id string) (*domain.Subscription, error) {
	if s, ok := m.subs[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *memSubscriptions) ListByFan(ctx context.Context, fanID string) ([]*domain.Subscription, error) {
	return nil, nil
}

func (m *memSubscriptions) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type noTiers struct{}

func (noTiers) Create(ctx context.Context, t *domain.Tier) error { return nil }
func (noTiers) Update(ctx context.Context, t *domain.Tier) error { return nil }
func (noTiers) SetActive(ctx context.Context, id string, active bool) error { return nil }
func (noTiers) FindByID(ctx context.Context, id string) (*domain.Tier, error) { return nil, nil }
func (noTiers) ListByArtist(ctx context.Context, artistID string, includeInactive bool) ([]*domain.Tier, error) {
	return nil, nil
}

func TestPaymentHandler_Webhook(t *testing.T) {
	const secret = "whsec-test"
	subs := &memSubscriptions{subs: map[string]*domain.Subscription{
		"sub-1": {ID: "sub-1", FanID: "fan-1", Status: domain.SubscriptionIncomplete, PaymentProviderID: "order-1"},
	}}
	gateway, err := payment.NewHostedGateway("https://pay.example.com/checkout", secret)
	require.NoError(t, err)
	h := NewPaymentHandler(service.NewSubscriptionService(subs, noTiers{}, gateway, logger.NewTestLogger(t)), logger.NewTestLogger(t))

	body, err := json.Marshal(domain.PaymentEvent{Type: service.EventActivated, SubscriptionID: "sub-1", PaymentProviderID: "order-1"})
	require.NoError(t, err)

	post := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", bytes.NewReader(body))
		if sig != "" {
			req.Header.Set(payment.SignatureHeader, sig)
		}
		rec := httptest.NewRecorder()
		h.Webhook(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, post("").Code)
	assert.Equal(t, http.StatusUnauthorized, post(payment.Sign([]byte("forged"), body)).Code)
	assert.Equal(t, domain.SubscriptionIncomplete, subs.subs["sub-1"].Status)

	rec := post(payment.Sign([]byte(secret), body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	assert.Equal(t, domain.SubscriptionActive, subs.subs["sub-1"].Status)

	// Redelivery is acknowledged.
	assert.Equal(t, http.StatusOK, post(payment.Sign([]byte(secret), body)).Code)
}
