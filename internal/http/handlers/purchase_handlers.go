package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/paywallsvc/domain"
)

// PurchaseHandlers handles purchase lifecycle HTTP requests
type PurchaseHandlers struct {
	purchaseSvc domain.PurchaseService
	tokenRepo   domain.AccessTokenRepository
}

// NewPurchaseHandlers creates new purchase handlers
func NewPurchaseHandlers(purchaseSvc domain.PurchaseService, tokenRepo domain.AccessTokenRepository) *PurchaseHandlers {
	return &PurchaseHandlers{
		purchaseSvc: purchaseSvc,
		tokenRepo:   tokenRepo,
	}
}

// CreatePurchaseRequest represents a checkout-start request
type CreatePurchaseRequest struct {
	SessionToken string `json:"session_token" binding:"required"`
	ContentID    string `json:"content_id" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone,omitempty"`
	AmountCents  int64  `json:"amount_cents" binding:"required"`
	Currency     string `json:"currency" binding:"required"`
}

// ConfirmRequest represents a client-side confirmation hint sent after the
// gateway redirect
type ConfirmRequest struct {
	PurchaseID         string `json:"purchase_id" binding:"required"`
	ExternalPaymentRef string `json:"external_payment_ref,omitempty"`
}

// Create handles POST /purchase
func (h *PurchaseHandlers) Create(c *gin.Context) {
	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, KindInvalidRequest, err.Error())
		return
	}

	purchase, intent, err := h.purchaseSvc.CreatePurchase(c.Request.Context(),
		req.SessionToken, req.ContentID, req.Email, req.Phone, req.AmountCents, req.Currency)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest), err == domain.ErrPriceMismatch, err == domain.ErrContentUnavailable:
			respondError(c, http.StatusBadRequest, KindInvalidRequest, err.Error())
		case err == domain.ErrAlreadyUnlocked:
			respondError(c, http.StatusConflict, KindInvalidRequest, "Content already unlocked for this session")
		case err == domain.ErrSessionNotFound, err == domain.ErrContentNotFound:
			respondError(c, http.StatusNotFound, KindNotFound, "Not found")
		default:
			respondError(c, http.StatusInternalServerError, KindInternal, "Failed to create purchase")
		}
		return
	}

	data := gin.H{
		"purchase_id": purchase.ID,
		"status":      purchase.Status,
		"created_at":  purchase.CreatedAt.Format(time.RFC3339),
	}
	if intent != nil {
		data["external_payment_ref"] = intent.ExternalRef
		if intent.RedirectURL != "" {
			data["redirect_url"] = intent.RedirectURL
		}
	}
	respondData(c, http.StatusCreated, data)
}

// Confirm handles POST /purchase/confirm. The confirmation is advisory:
// it never completes the purchase by itself.
func (h *PurchaseHandlers) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, KindInvalidRequest, err.Error())
		return
	}

	purchase, err := h.purchaseSvc.ConfirmClientSide(c.Request.Context(), req.PurchaseID, req.ExternalPaymentRef)
	if err != nil {
		if err == domain.ErrPurchaseNotFound {
			respondError(c, http.StatusNotFound, KindNotFound, "Not found")
			return
		}
		respondError(c, http.StatusInternalServerError, KindInternal, "Failed to confirm purchase")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"purchase_id": purchase.ID,
		"status":      purchase.Status,
	})
}

// Get handles GET /purchase/:id. Once the purchase completes, the poll
// response carries the access token so the client can store it.
func (h *PurchaseHandlers) Get(c *gin.Context) {
	purchase, err := h.purchaseSvc.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == domain.ErrPurchaseNotFound {
			respondError(c, http.StatusNotFound, KindNotFound, "Not found")
			return
		}
		respondError(c, http.StatusInternalServerError, KindInternal, "Failed to load purchase")
		return
	}

	data := gin.H{
		"purchase_id": purchase.ID,
		"content_id":  purchase.ContentID,
		"status":      purchase.Status,
		"created_at":  purchase.CreatedAt.Format(time.RFC3339),
	}
	if purchase.CompletedAt != nil {
		data["completed_at"] = purchase.CompletedAt.Format(time.RFC3339)
	}
	if purchase.Status == domain.PurchaseCompleted {
		if token, err := h.tokenRepo.FindByPurchaseID(c.Request.Context(), purchase.ID); err == nil && !token.Revoked {
			data["access_token"] = token.Token
		}
	}

	respondData(c, http.StatusOK, data)
}
