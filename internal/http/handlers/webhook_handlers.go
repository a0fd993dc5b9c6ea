package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/paywallsvc/domain"
)

// WebhookHandlers handles the payment gateway's asynchronous outcome
// notifications. Delivery is at-least-once: duplicates are absorbed and
// acknowledged, never surfaced as errors.
type WebhookHandlers struct {
	purchaseSvc domain.PurchaseService
	gateway     domain.PaymentGateway
}

// NewWebhookHandlers creates new webhook handlers
func NewWebhookHandlers(purchaseSvc domain.PurchaseService, gateway domain.PaymentGateway) *WebhookHandlers {
	return &WebhookHandlers{
		purchaseSvc: purchaseSvc,
		gateway:     gateway,
	}
}

type gatewayEvent struct {
	Reference string `json:"reference"`
	Outcome   string `json:"outcome"`
}

// Payment handles POST /webhooks/payment
func (h *WebhookHandlers) Payment(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, KindInvalidRequest, "Failed to read payload")
		return
	}

	signature := c.GetHeader("X-Gateway-Signature")
	if !h.gateway.VerifyWebhookSignature(payload, signature) {
		respondError(c, http.StatusUnauthorized, KindUnauthorized, "Invalid webhook signature")
		return
	}

	var event gatewayEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		respondError(c, http.StatusBadRequest, KindInvalidRequest, "Malformed payload")
		return
	}

	var outcome domain.GatewayOutcome
	switch event.Outcome {
	case string(domain.GatewaySuccess):
		outcome = domain.GatewaySuccess
	case string(domain.GatewayFailure):
		outcome = domain.GatewayFailure
	default:
		respondError(c, http.StatusBadRequest, KindInvalidRequest, "Unknown outcome")
		return
	}

	purchase, err := h.purchaseSvc.ApplyGatewayOutcome(c.Request.Context(), event.Reference, outcome)
	if err != nil {
		switch err {
		case domain.ErrPurchaseNotFound:
			respondError(c, http.StatusNotFound, KindNotFound, "Not found")
		case domain.ErrInvalidStateTransition:
			respondError(c, http.StatusConflict, KindInvalidStateTransition, "Purchase is already in a conflicting terminal state")
		default:
			respondError(c, http.StatusInternalServerError, KindInternal, "Failed to apply outcome")
		}
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"purchase_id": purchase.ID,
		"status":      purchase.Status,
	})
}
