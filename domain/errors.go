package domain

import "errors"

// Request errors
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrPriceMismatch      = errors.New("amount does not match content price")
	ErrContentUnavailable = errors.New("content is not purchasable")
	ErrAlreadyUnlocked    = errors.New("content already unlocked for this session")
)

// State machine errors
var (
	ErrInvalidStateTransition = errors.New("invalid purchase state transition")
	ErrPurchaseIncomplete     = errors.New("purchase is not completed")
)

// Not-found errors
var (
	ErrSessionNotFound  = errors.New("buyer session not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrContentNotFound  = errors.New("content not found")
	ErrTokenNotFound    = errors.New("access token not found")
)

// Access token errors
var (
	ErrTokenRevoked      = errors.New("access token has been revoked")
	ErrDeviceNotVerified = errors.New("device not verified for this token")
)

// Device verification errors
var (
	ErrEmailMismatch        = errors.New("email does not match purchase email")
	ErrChallengeNotFound    = errors.New("device challenge not found")
	ErrChallengeExpired     = errors.New("device challenge has expired")
	ErrChallengeInvalidCode = errors.New("invalid verification code")
	ErrChallengeMaxAttempts = errors.New("maximum verification attempts exceeded")
	ErrChallengeResendLimit = errors.New("verification code resend limit exceeded")
)

// Ops token errors
var (
	ErrOpsTokenInvalid   = errors.New("invalid service token")
	ErrOpsTokenExpired   = errors.New("service token has expired")
	ErrOpsTokenMalformed = errors.New("malformed service token")
	ErrUnauthorized      = errors.New("unauthorized access")
)
