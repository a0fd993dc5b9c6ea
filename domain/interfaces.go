package domain

import (
	"context"
	"time"
)

// SessionRepository defines buyer-session data access operations.
type SessionRepository interface {
	Create(ctx context.Context, session *BuyerSession) error
	FindByID(ctx context.Context, sessionID string) (*BuyerSession, error)
	Update(ctx context.Context, session *BuyerSession) error
}

// PurchaseRepository defines purchase ledger data access operations.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *Purchase) error
	FindByID(ctx context.Context, id string) (*Purchase, error)
	FindByExternalRef(ctx context.Context, externalRef string) (*Purchase, error)
	FindCompletedBySessionAndContent(ctx context.Context, sessionID, contentID string) (*Purchase, error)
	// UpdateStatus persists a status change guarded by the expected current
	// statuses; it returns ErrInvalidStateTransition when the row was not in
	// any of them, so concurrent writers cannot overwrite a terminal state.
	UpdateStatus(ctx context.Context, id string, from []PurchaseStatus, to PurchaseStatus, completedAt *time.Time) (*Purchase, error)
	SetExternalRef(ctx context.Context, id, externalRef string) error
	FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*Purchase, error)
}

// AccessTokenRepository defines access-token data access operations.
type AccessTokenRepository interface {
	// Create inserts the token; when a token already exists for the same
	// purchase it returns that existing token instead of a duplicate.
	Create(ctx context.Context, token *AccessToken) (*AccessToken, error)
	FindByToken(ctx context.Context, token string) (*AccessToken, error)
	FindByPurchaseID(ctx context.Context, purchaseID string) (*AccessToken, error)
	AddFingerprint(ctx context.Context, token, fingerprint string) error
	SetRevoked(ctx context.Context, token string, revoked bool) error
}

// ContentRepository defines content catalog reads.
type ContentRepository interface {
	FindByID(ctx context.Context, id string) (*ContentItem, error)
}

// SessionService defines anonymous buyer session business logic.
type SessionService interface {
	CreateOrGet(ctx context.Context, sessionID, fingerprint, email, phone string) (*BuyerSession, error)
	Resolve(ctx context.Context, sessionID string) (*BuyerSession, error)
}

// PurchaseService defines the purchase state machine.
type PurchaseService interface {
	CreatePurchase(ctx context.Context, sessionID, contentID, email, phone string, amountCents int64, currency string) (*Purchase, *PaymentIntent, error)
	ApplyGatewayOutcome(ctx context.Context, externalRef string, outcome GatewayOutcome) (*Purchase, error)
	ConfirmClientSide(ctx context.Context, purchaseID, externalRef string) (*Purchase, error)
	GetPurchase(ctx context.Context, id string) (*Purchase, error)
	Refund(ctx context.Context, purchaseID string) (*Purchase, error)
	SweepStalePending(ctx context.Context, olderThan time.Duration) (int, error)
}

// AccessService defines token issuance and the eligibility gate.
type AccessService interface {
	IssueToken(ctx context.Context, purchase *Purchase) (*AccessToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeByPurchase(ctx context.Context, purchaseID string) error
	CheckEligibility(ctx context.Context, token, fingerprint string) (*Eligibility, error)
	Redeem(ctx context.Context, token, fingerprint string) (string, error)
}

// ChallengeService defines the device-verification challenge flow.
type ChallengeService interface {
	Request(ctx context.Context, token, candidateFingerprint, email string) (*DeviceChallenge, error)
	Verify(ctx context.Context, token, candidateFingerprint, code string) (*AccessToken, error)
	CanResend(ctx context.Context, token, candidateFingerprint string) (bool, int64, error)
}

// FingerprintService derives a stable opaque identifier from client-supplied
// device signals. Pure, no state.
type FingerprintService interface {
	Derive(signals map[string]string) string
	Normalize(raw string) string
}

// CodeHasher hashes verification codes for at-rest storage.
type CodeHasher interface {
	Hash(code string) (string, error)
	Verify(hashedCode, code string) bool
}

// NotificationService defines the notification collaborator client.
// Delivery is fire-and-forget; retries belong to the collaborator.
type NotificationService interface {
	SendCode(email, phone, code string, ttl time.Duration) error
	SendReceipt(email, phone string, purchase *Purchase) error
}

// PaymentGateway defines the synchronous calls made to the external
// payment processor when a purchase enters PENDING.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, purchase *Purchase) (*PaymentIntent, error)
	VerifyWebhookSignature(payload []byte, signature string) bool
}

// PaymentIntent is the gateway's handle for a pending payment.
type PaymentIntent struct {
	ExternalRef string
	RedirectURL string
}

// ContentLocator produces a short-lived locator for the content-delivery
// collaborator once eligibility has been granted.
type ContentLocator interface {
	Locate(ctx context.Context, content *ContentItem) (string, error)
}

// OpsTokenService defines service-token operations for the ops surface.
type OpsTokenService interface {
	Generate(subject, role string) (string, error)
	Validate(token string) (*OpsTokenClaims, error)
}

// OpsTokenClaims represents validated service token claims.
type OpsTokenClaims struct {
	Subject   string `json:"sub"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
