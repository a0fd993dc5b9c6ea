package domain

import "time"

// BuyerSession represents an anonymous shopper. The session ID, not the
// fingerprint, is the authority presented by the client.
type BuyerSession struct {
	ID          string
	Fingerprint string
	Email       string
	Phone       string
	CreatedAt   time.Time
	LastSeenAt  time.Time
}

// PurchaseStatus is the closed set of purchase lifecycle states.
type PurchaseStatus string

const (
	PurchasePending    PurchaseStatus = "PENDING"
	PurchaseProcessing PurchaseStatus = "PROCESSING"
	PurchaseCompleted  PurchaseStatus = "COMPLETED"
	PurchaseFailed     PurchaseStatus = "FAILED"
	PurchaseRefunded   PurchaseStatus = "REFUNDED"
)

// purchaseTransitions is the single source of truth for legal status edges.
var purchaseTransitions = map[PurchaseStatus]map[PurchaseStatus]bool{
	PurchasePending: {
		PurchaseProcessing: true,
		PurchaseCompleted:  true,
		PurchaseFailed:     true,
	},
	PurchaseProcessing: {
		PurchaseCompleted: true,
		PurchaseFailed:    true,
	},
	PurchaseCompleted: {
		PurchaseRefunded: true,
	},
}

// CanTransition reports whether moving from one purchase status to another
// is a legal edge of the state machine.
func CanTransition(from, to PurchaseStatus) bool {
	return purchaseTransitions[from][to]
}

// IsTerminal reports whether a status admits no further gateway-driven
// transitions. REFUNDED may still follow COMPLETED through the ops refund
// path, but COMPLETED is terminal with respect to gateway outcomes.
func (s PurchaseStatus) IsTerminal() bool {
	switch s {
	case PurchaseCompleted, PurchaseFailed, PurchaseRefunded:
		return true
	}
	return false
}

// Valid reports whether s is a member of the closed status set.
func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchasePending, PurchaseProcessing, PurchaseCompleted, PurchaseFailed, PurchaseRefunded:
		return true
	}
	return false
}

// GatewayOutcome is the asynchronous success/failure signal delivered by
// the payment gateway for a given payment reference.
type GatewayOutcome string

const (
	GatewaySuccess GatewayOutcome = "success"
	GatewayFailure GatewayOutcome = "failure"
)

// TargetStatus maps a gateway outcome to the terminal status it implies.
func (o GatewayOutcome) TargetStatus() PurchaseStatus {
	if o == GatewaySuccess {
		return PurchaseCompleted
	}
	return PurchaseFailed
}

// Purchase is one buyer's claim on one content item.
type Purchase struct {
	ID                 string
	ContentID          string
	BuyerSessionID     string
	Email              string
	Phone              string
	AmountCents        int64
	Currency           string
	Status             PurchaseStatus
	ExternalPaymentRef string
	CreatedAt          time.Time
	CompletedAt        *time.Time
}

// AccessToken is the credential that gates content viewing. The server-side
// record is authoritative; no structure inside the token string is trusted.
type AccessToken struct {
	Token             string
	PurchaseID        string
	ContentID         string
	BoundFingerprints []string
	IssuedAt          time.Time
	Revoked           bool
}

// HasFingerprint reports whether fp is in the token's bound set.
func (t *AccessToken) HasFingerprint(fp string) bool {
	for _, bound := range t.BoundFingerprints {
		if bound == fp {
			return true
		}
	}
	return false
}

// DeviceChallenge is a short-lived email-code gate for binding a new
// fingerprint to an existing access token.
type DeviceChallenge struct {
	AccessToken          string
	CandidateFingerprint string
	Email                string
	CodeHash             string
	ExpiresAt            time.Time
	AttemptCount         int
	MaxAttempts          int
}

// ContentItem is the catalog entry needed for checkout display and price
// validation. Upload and storage mechanics live outside this service.
type ContentItem struct {
	ID          string
	CreatorID   string
	Title       string
	Description string
	PriceCents  int64
	Currency    string
	ObjectKey   string
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EligibilityDecision enumerates the three-way access decision.
type EligibilityDecision string

const (
	EligibilityGranted        EligibilityDecision = "granted"
	EligibilityDeviceMismatch EligibilityDecision = "device_mismatch"
	EligibilityDenied         EligibilityDecision = "denied"
)

// Eligibility is the decision computed before serving content. DeviceMismatch
// is not an error: it routes the client into the device-verification flow.
type Eligibility struct {
	Decision EligibilityDecision
	Reason   string
	Token    *AccessToken
}
