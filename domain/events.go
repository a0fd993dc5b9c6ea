package domain

import "time"

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Purchase lifecycle events
	PurchaseCreatedEvent   AuditEventType = "PURCHASE_CREATED"
	GatewayOutcomeEvent    AuditEventType = "GATEWAY_OUTCOME_APPLIED"
	ClientConfirmEvent     AuditEventType = "CLIENT_CONFIRM_RECEIVED"
	PurchaseRefundedEvent  AuditEventType = "PURCHASE_REFUNDED"
	PurchaseSweptEvent     AuditEventType = "PURCHASE_SWEPT_FAILED"
	IllegalTransitionEvent AuditEventType = "ILLEGAL_STATE_TRANSITION"

	// Access events
	TokenIssuedEvent    AuditEventType = "ACCESS_TOKEN_ISSUED"
	TokenRevokedEvent   AuditEventType = "ACCESS_TOKEN_REVOKED"
	AccessGrantedEvent  AuditEventType = "ACCESS_GRANTED"
	AccessDeniedEvent   AuditEventType = "ACCESS_DENIED"
	DeviceMismatchEvent AuditEventType = "DEVICE_MISMATCH"

	// Device verification events
	ChallengeRequestedEvent AuditEventType = "DEVICE_CHALLENGE_REQUESTED"
	ChallengeVerifiedEvent  AuditEventType = "DEVICE_CHALLENGE_VERIFIED"
	ChallengeFailedEvent    AuditEventType = "DEVICE_CHALLENGE_FAILED"
	ChallengeExhaustedEvent AuditEventType = "DEVICE_CHALLENGE_EXHAUSTED"
)

// AuditEvent represents a business event that occurred in the system
type AuditEvent struct {
	EventType   AuditEventType         `json:"event_type"`
	PurchaseID  string                 `json:"purchase_id,omitempty"`
	ContentID   string                 `json:"content_id,omitempty"`
	SessionID   string                 `json:"session_id,omitempty"`
	Fingerprint string                 `json:"fingerprint,omitempty"`
	Email       string                 `json:"email,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	Success     bool                   `json:"success"`
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType) *AuditEvent {
	return &AuditEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]interface{}),
		Success:   true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithPurchase sets purchase-related fields
func (e *AuditEvent) WithPurchase(p *Purchase) *AuditEvent {
	if p != nil {
		e.PurchaseID = p.ID
		e.ContentID = p.ContentID
		e.SessionID = p.BuyerSessionID
	}
	return e
}

// WithFingerprint sets the fingerprint field
func (e *AuditEvent) WithFingerprint(fp string) *AuditEvent {
	e.Fingerprint = fp
	return e
}

// WithEmail sets the email field
func (e *AuditEvent) WithEmail(email string) *AuditEvent {
	e.Email = email
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}
