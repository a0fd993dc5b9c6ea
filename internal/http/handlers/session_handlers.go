package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/paywallsvc/domain"
)

// SessionHandlers handles anonymous buyer session HTTP requests
type SessionHandlers struct {
	sessionSvc     domain.SessionService
	fingerprintSvc domain.FingerprintService
}

// NewSessionHandlers creates new session handlers
func NewSessionHandlers(sessionSvc domain.SessionService, fingerprintSvc domain.FingerprintService) *SessionHandlers {
	return &SessionHandlers{
		sessionSvc:     sessionSvc,
		fingerprintSvc: fingerprintSvc,
	}
}

// SessionRequest represents a create-or-refresh session request. The client
// either sends a precomputed fingerprint or raw device signals for the
// server to derive one from.
type SessionRequest struct {
	SessionToken string            `json:"session_token,omitempty"`
	Fingerprint  string            `json:"fingerprint,omitempty"`
	Signals      map[string]string `json:"signals,omitempty"`
	Email        string            `json:"email,omitempty" binding:"omitempty,email"`
	Phone        string            `json:"phone,omitempty"`
}

// CreateOrRefresh handles POST /session
func (h *SessionHandlers) CreateOrRefresh(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, KindInvalidRequest, err.Error())
		return
	}

	fingerprint := req.Fingerprint
	if fingerprint == "" && len(req.Signals) > 0 {
		fingerprint = h.fingerprintSvc.Derive(req.Signals)
	}

	session, err := h.sessionSvc.CreateOrGet(c.Request.Context(), req.SessionToken, fingerprint, req.Email, req.Phone)
	if err != nil {
		respondError(c, http.StatusInternalServerError, KindInternal, "Failed to create session")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"session_token": session.ID,
		"fingerprint":   session.Fingerprint,
		"created_at":    session.CreatedAt.Format(time.RFC3339),
		"last_seen_at":  session.LastSeenAt.Format(time.RFC3339),
	})
}
