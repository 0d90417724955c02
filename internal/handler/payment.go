package handler

import (
	"io"
	"net/http"

	"github.com/fanvault/backend/internal/contextkeys"
	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/fanvault/backend/internal/service"
	"github.com/fanvault/backend/pkg/payment"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	responder
	svc *service.SubscriptionService
}

func NewPaymentHandler(svc *service.SubscriptionService, log logger.Logger) *PaymentHandler {
	return &PaymentHandler{responder: newResponder(log), svc: svc}
}

// CreateCheckout handles POST /api/payment/checkout.
func (h *PaymentHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := h.svc.CreateCheckout(r.Context(), contextkeys.UserIDFrom(r.Context()), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// Webhook handles POST /api/payment/webhook. The signature covers the raw
// body, so it is read before decoding.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.writeError(w, domain.ErrBadRequest("failed to read body"))
		return
	}

	if err := h.svc.HandlePaymentWebhook(r.Context(), body, r.Header.Get(payment.SignatureHeader)); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// Simulate handles POST /api/payment/simulate (admin only, gated in router).
func (h *PaymentHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req domain.SimulateRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	sub, err := h.svc.Simulate(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, sub)
}

// ListSubscriptions handles GET /api/subscriptions.
func (h *PaymentHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.ListForFan(r.Context(), contextkeys.UserIDFrom(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, subs)
}
