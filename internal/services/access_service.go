package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/you/paywallsvc/domain"
	"github.com/you/paywallsvc/internal/infrastructure/auth"
)

const (
	denyReasonInvalidToken       = "invalid_token"
	denyReasonPurchaseIncomplete = "purchase_incomplete"
)

// AccessServiceImpl implements domain.AccessService
type AccessServiceImpl struct {
	tokenRepo    domain.AccessTokenRepository
	purchaseRepo domain.PurchaseRepository
	sessionRepo  domain.SessionRepository
	contentRepo  domain.ContentRepository
	locator      domain.ContentLocator
}

// NewAccessService creates a new access service
func NewAccessService(
	tokenRepo domain.AccessTokenRepository,
	purchaseRepo domain.PurchaseRepository,
	sessionRepo domain.SessionRepository,
	contentRepo domain.ContentRepository,
	locator domain.ContentLocator,
) domain.AccessService {
	return &AccessServiceImpl{
		tokenRepo:    tokenRepo,
		purchaseRepo: purchaseRepo,
		sessionRepo:  sessionRepo,
		contentRepo:  contentRepo,
		locator:      locator,
	}
}

// IssueToken implements domain.AccessService. Issuance is at-most-once per
// purchase: the storage layer's unique constraint on purchase_id resolves
// a webhook racing a client confirm, and a re-entrant call returns the
// existing token instead of minting a duplicate.
func (s *AccessServiceImpl) IssueToken(ctx context.Context, purchase *domain.Purchase) (*domain.AccessToken, error) {
	if purchase.Status != domain.PurchaseCompleted {
		return nil, domain.ErrPurchaseIncomplete
	}

	if existing, err := s.tokenRepo.FindByPurchaseID(ctx, purchase.ID); err == nil {
		return existing, nil
	} else if err != domain.ErrTokenNotFound {
		return nil, err
	}

	tokenString, err := auth.NewOpaqueToken("act_")
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	// The token starts bound to the fingerprint of the session that made
	// the purchase; every further binding requires device verification.
	var bound []string
	if session, err := s.sessionRepo.FindByID(ctx, purchase.BuyerSessionID); err == nil && session.Fingerprint != "" {
		bound = []string{session.Fingerprint}
	}

	token := &domain.AccessToken{
		Token:             tokenString,
		PurchaseID:        purchase.ID,
		ContentID:         purchase.ContentID,
		BoundFingerprints: bound,
		IssuedAt:          time.Now().UTC(),
	}

	created, err := s.tokenRepo.Create(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to store access token: %w", err)
	}

	s.audit(domain.NewAuditEvent(domain.TokenIssuedEvent).WithPurchase(purchase))
	return created, nil
}

// Revoke implements domain.AccessService; idempotent.
func (s *AccessServiceImpl) Revoke(ctx context.Context, token string) error {
	if err := s.tokenRepo.SetRevoked(ctx, token, true); err != nil {
		return err
	}
	s.audit(domain.NewAuditEvent(domain.TokenRevokedEvent).WithMetadata("token_suffix", suffix(token)))
	return nil
}

// RevokeByPurchase implements domain.AccessService
func (s *AccessServiceImpl) RevokeByPurchase(ctx context.Context, purchaseID string) error {
	token, err := s.tokenRepo.FindByPurchaseID(ctx, purchaseID)
	if err != nil {
		return err
	}
	return s.Revoke(ctx, token.Token)
}

// CheckEligibility implements domain.AccessService. The decision is
// three-way on purpose: Denied means this token will never work, while
// DeviceMismatch routes the client into the verification flow.
func (s *AccessServiceImpl) CheckEligibility(ctx context.Context, tokenString, fingerprint string) (*domain.Eligibility, error) {
	token, err := s.tokenRepo.FindByToken(ctx, tokenString)
	if err == domain.ErrTokenNotFound {
		return s.denied(denyReasonInvalidToken, fingerprint), nil
	}
	if err != nil {
		return nil, err
	}
	if token.Revoked {
		return s.denied(denyReasonInvalidToken, fingerprint), nil
	}

	purchase, err := s.purchaseRepo.FindByID(ctx, token.PurchaseID)
	if err == domain.ErrPurchaseNotFound {
		return s.denied(denyReasonInvalidToken, fingerprint), nil
	}
	if err != nil {
		return nil, err
	}
	if purchase.Status != domain.PurchaseCompleted {
		return s.denied(denyReasonPurchaseIncomplete, fingerprint), nil
	}

	if token.HasFingerprint(fingerprint) {
		s.audit(domain.NewAuditEvent(domain.AccessGrantedEvent).WithPurchase(purchase).WithFingerprint(fingerprint))
		return &domain.Eligibility{Decision: domain.EligibilityGranted, Token: token}, nil
	}

	s.audit(domain.NewAuditEvent(domain.DeviceMismatchEvent).WithPurchase(purchase).WithFingerprint(fingerprint))
	return &domain.Eligibility{Decision: domain.EligibilityDeviceMismatch, Token: token}, nil
}

// Redeem implements domain.AccessService. It requires a Granted eligibility
// decision and exchanges it for a short-lived content locator; the delivery
// collaborator serves the bytes.
func (s *AccessServiceImpl) Redeem(ctx context.Context, tokenString, fingerprint string) (string, error) {
	eligibility, err := s.CheckEligibility(ctx, tokenString, fingerprint)
	if err != nil {
		return "", err
	}

	switch eligibility.Decision {
	case domain.EligibilityGranted:
	case domain.EligibilityDeviceMismatch:
		return "", domain.ErrDeviceNotVerified
	default:
		return "", domain.ErrTokenNotFound
	}

	content, err := s.contentRepo.FindByID(ctx, eligibility.Token.ContentID)
	if err != nil {
		return "", err
	}

	url, err := s.locator.Locate(ctx, content)
	if err != nil {
		return "", fmt.Errorf("failed to produce content locator: %w", err)
	}
	return url, nil
}

func (s *AccessServiceImpl) denied(reason, fingerprint string) *domain.Eligibility {
	s.audit(domain.NewAuditEvent(domain.AccessDeniedEvent).WithFingerprint(fingerprint).WithMetadata("reason", reason))
	return &domain.Eligibility{Decision: domain.EligibilityDenied, Reason: reason}
}

func (s *AccessServiceImpl) audit(event *domain.AuditEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("audit: failed to marshal event %s: %v", event.EventType, err)
		return
	}
	log.Printf("audit: %s", data)
}

func suffix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[len(token)-8:]
}
