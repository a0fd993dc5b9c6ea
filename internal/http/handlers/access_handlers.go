package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/paywallsvc/domain"
)

// AccessHandlers handles the eligibility gate and the device-verification
// challenge flow
type AccessHandlers struct {
	accessSvc      domain.AccessService
	challengeSvc   domain.ChallengeService
	fingerprintSvc domain.FingerprintService
}

// NewAccessHandlers creates new access handlers
func NewAccessHandlers(accessSvc domain.AccessService, challengeSvc domain.ChallengeService, fingerprintSvc domain.FingerprintService) *AccessHandlers {
	return &AccessHandlers{
		accessSvc:      accessSvc,
		challengeSvc:   challengeSvc,
		fingerprintSvc: fingerprintSvc,
	}
}

// EligibilityRequest represents an eligibility check
type EligibilityRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
	Fingerprint string `json:"fingerprint" binding:"required"`
}

// ChallengeRequest represents a device-verification request
type ChallengeRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
	Fingerprint string `json:"fingerprint" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
}

// VerifyDeviceRequest represents a challenge-code submission
type VerifyDeviceRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
	Fingerprint string `json:"fingerprint" binding:"required"`
	Code        string `json:"code" binding:"required"`
}

// RedeemRequest represents an access-token redemption for a content locator
type RedeemRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
	Fingerprint string `json:"fingerprint" binding:"required"`
}

// CheckEligibility handles POST /access/check-eligibility. The three-way
// decision is part of the response contract: device_mismatch tells the
// client to start device verification, it is not a failure.
func (h *AccessHandlers) CheckEligibility(c *gin.Context) {
	var req EligibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, KindInvalidRequest, err.Error())
		return
	}

	eligibility, err := h.accessSvc.CheckEligibility(c.Request.Context(),
		req.AccessToken, h.fingerprintSvc.Normalize(req.Fingerprint))
	if err != nil {
		respondError(c, http.StatusInternalServerError, KindInternal, "Eligibility check failed")
		return
	}

	data := gin.H{"decision": eligibility.Decision}
	if eligibility.Reason != "" {
		data["reason"] = eligibility.Reason
	}
	respondData(c, http.StatusOK, data)
}

// RequestDeviceVerification handles POST /access/request-device-verification
func (h *AccessHandlers) RequestDeviceVerification(c *gin.Context) {
	var req ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, KindInvalidRequest, err.Error())
		return
	}

	challenge, err := h.challengeSvc.Request(c.Request.Context(),
		req.AccessToken, h.fingerprintSvc.Normalize(req.Fingerprint), req.Email)
	if err != nil {
		switch {
		case err == domain.ErrEmailMismatch:
			respondError(c, http.StatusForbidden, KindEmailMismatch, "Email does not match the purchase")
		case err == domain.ErrTokenNotFound, err == domain.ErrTokenRevoked, err == domain.ErrPurchaseNotFound:
			respondError(c, http.StatusNotFound, KindNotFound, "Not found")
		case err == domain.ErrPurchaseIncomplete:
			respondError(c, http.StatusConflict, KindInvalidRequest, "Purchase is not completed")
		case errors.Is(err, domain.ErrChallengeResendLimit):
			respondError(c, http.StatusTooManyRequests, KindResendLimit, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, KindInternal, "Failed to request verification")
		}
		return
	}

	respondData(c, http.StatusAccepted, gin.H{
		"message":      "Verification code sent",
		"expires_at":   challenge.ExpiresAt.Format(time.RFC3339),
		"max_attempts": challenge.MaxAttempts,
	})
}

// VerifyDevice handles POST /access/verify-device
func (h *AccessHandlers) VerifyDevice(c *gin.Context) {
	var req VerifyDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, KindInvalidRequest, err.Error())
		return
	}

	token, err := h.challengeSvc.Verify(c.Request.Context(),
		req.AccessToken, h.fingerprintSvc.Normalize(req.Fingerprint), req.Code)
	if err != nil {
		switch err {
		case domain.ErrChallengeInvalidCode:
			respondError(c, http.StatusBadRequest, KindInvalidCode, "Invalid verification code")
		case domain.ErrChallengeExpired, domain.ErrChallengeNotFound:
			respondError(c, http.StatusGone, KindExpired, "Challenge has expired; request a new one")
		case domain.ErrChallengeMaxAttempts:
			respondError(c, http.StatusTooManyRequests, KindAttemptsExhausted, "Too many attempts; request a new code")
		case domain.ErrTokenNotFound, domain.ErrTokenRevoked:
			respondError(c, http.StatusNotFound, KindNotFound, "Not found")
		default:
			respondError(c, http.StatusInternalServerError, KindInternal, "Verification failed")
		}
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"decision":           domain.EligibilityGranted,
		"bound_fingerprints": len(token.BoundFingerprints),
	})
}

// Redeem handles POST /access. It exchanges a granted token + fingerprint
// for a content locator; the delivery collaborator serves the bytes.
func (h *AccessHandlers) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, KindInvalidRequest, err.Error())
		return
	}

	location, err := h.accessSvc.Redeem(c.Request.Context(),
		req.AccessToken, h.fingerprintSvc.Normalize(req.Fingerprint))
	if err != nil {
		switch err {
		case domain.ErrDeviceNotVerified:
			respondError(c, http.StatusForbidden, KindDeviceNotVerified, "Device not verified for this token")
		case domain.ErrTokenNotFound, domain.ErrContentNotFound:
			respondError(c, http.StatusNotFound, KindNotFound, "Not found")
		default:
			respondError(c, http.StatusInternalServerError, KindInternal, "Failed to redeem access")
		}
		return
	}

	respondData(c, http.StatusOK, gin.H{"location": location})
}
