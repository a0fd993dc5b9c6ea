package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/paywallsvc/domain"
)

// OpsHandlers handles the narrow administrative interface: refunding a
// purchase and revoking an access token. This is not a dashboard; it is
// the interface external admin tooling calls.
type OpsHandlers struct {
	purchaseSvc domain.PurchaseService
	accessSvc   domain.AccessService
}

// NewOpsHandlers creates new ops handlers
func NewOpsHandlers(purchaseSvc domain.PurchaseService, accessSvc domain.AccessService) *OpsHandlers {
	return &OpsHandlers{
		purchaseSvc: purchaseSvc,
		accessSvc:   accessSvc,
	}
}

// RevokeTokenRequest represents a token revocation request
type RevokeTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// Refund handles POST /ops/purchases/:id/refund
func (h *OpsHandlers) Refund(c *gin.Context) {
	purchase, err := h.purchaseSvc.Refund(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch err {
		case domain.ErrPurchaseNotFound:
			respondError(c, http.StatusNotFound, KindNotFound, "Not found")
		case domain.ErrInvalidStateTransition:
			respondError(c, http.StatusConflict, KindInvalidStateTransition, "Only completed purchases can be refunded")
		default:
			respondError(c, http.StatusInternalServerError, KindInternal, "Refund failed")
		}
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"purchase_id": purchase.ID,
		"status":      purchase.Status,
	})
}

// RevokeToken handles POST /ops/tokens/revoke
func (h *OpsHandlers) RevokeToken(c *gin.Context) {
	var req RevokeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, KindInvalidRequest, err.Error())
		return
	}

	if err := h.accessSvc.Revoke(c.Request.Context(), req.Token); err != nil {
		if err == domain.ErrTokenNotFound {
			respondError(c, http.StatusNotFound, KindNotFound, "Not found")
			return
		}
		respondError(c, http.StatusInternalServerError, KindInternal, "Revoke failed")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Token revoked"})
}
