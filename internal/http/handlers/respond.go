package handlers

import "github.com/gin-gonic/gin"

// Error kinds exposed to clients. Stable machine-readable identifiers; the
// message next to them is for humans.
const (
	KindInvalidRequest         = "invalid_request"
	KindNotFound               = "not_found"
	KindInvalidStateTransition = "invalid_state_transition"
	KindEmailMismatch          = "email_mismatch"
	KindInvalidCode            = "invalid_code"
	KindExpired                = "expired"
	KindAttemptsExhausted      = "attempts_exhausted"
	KindResendLimit            = "resend_limit"
	KindDeviceNotVerified      = "device_not_verified"
	KindUnauthorized           = "unauthorized"
	KindInternal               = "internal_error"
)

func respondError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{"error": gin.H{"kind": kind, "message": message}})
}

func respondData(c *gin.Context, status int, data gin.H) {
	c.JSON(status, gin.H{"data": data})
}
