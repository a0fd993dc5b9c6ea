package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/you/paywallsvc/domain"
)

// PurchaseServiceImpl implements domain.PurchaseService. All purchase status
// changes in the system go through this service; nothing else writes the
// status column.
type PurchaseServiceImpl struct {
	purchaseRepo    domain.PurchaseRepository
	sessionRepo     domain.SessionRepository
	contentRepo     domain.ContentRepository
	accessSvc       domain.AccessService
	gateway         domain.PaymentGateway
	notificationSvc domain.NotificationService
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	purchaseRepo domain.PurchaseRepository,
	sessionRepo domain.SessionRepository,
	contentRepo domain.ContentRepository,
	accessSvc domain.AccessService,
	gateway domain.PaymentGateway,
	notificationSvc domain.NotificationService,
) domain.PurchaseService {
	return &PurchaseServiceImpl{
		purchaseRepo:    purchaseRepo,
		sessionRepo:     sessionRepo,
		contentRepo:     contentRepo,
		accessSvc:       accessSvc,
		gateway:         gateway,
		notificationSvc: notificationSvc,
	}
}

// CreatePurchase implements domain.PurchaseService. The PENDING record is
// committed before the gateway is invoked so a recoverable row exists
// regardless of gateway latency.
func (s *PurchaseServiceImpl) CreatePurchase(ctx context.Context, sessionID, contentID, email, phone string, amountCents int64, currency string) (*domain.Purchase, *domain.PaymentIntent, error) {
	if email == "" {
		return nil, nil, fmt.Errorf("%w: email is required", domain.ErrInvalidRequest)
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.contentRepo.FindByID(ctx, contentID)
	if err != nil {
		return nil, nil, err
	}
	if !content.Published {
		return nil, nil, domain.ErrContentUnavailable
	}
	if amountCents != content.PriceCents || currency != content.Currency {
		return nil, nil, domain.ErrPriceMismatch
	}

	if _, err := s.purchaseRepo.FindCompletedBySessionAndContent(ctx, session.ID, contentID); err == nil {
		return nil, nil, domain.ErrAlreadyUnlocked
	} else if err != domain.ErrPurchaseNotFound {
		return nil, nil, err
	}

	purchase := &domain.Purchase{
		ID:             uuid.NewString(),
		ContentID:      contentID,
		BuyerSessionID: session.ID,
		Email:          email,
		Phone:          phone,
		AmountCents:    amountCents,
		Currency:       currency,
		Status:         domain.PurchasePending,
	}

	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		return nil, nil, fmt.Errorf("failed to create purchase: %w", err)
	}
	s.audit(domain.NewAuditEvent(domain.PurchaseCreatedEvent).WithPurchase(purchase).WithEmail(email))

	intent, err := s.gateway.CreateIntent(ctx, purchase)
	if err != nil {
		// The PENDING row survives; the sweep pass fails it if the gateway
		// never confirms.
		log.Printf("purchase %s: gateway intent creation failed: %v", purchase.ID, err)
		return purchase, nil, nil
	}

	if err := s.purchaseRepo.SetExternalRef(ctx, purchase.ID, intent.ExternalRef); err != nil {
		return nil, nil, fmt.Errorf("failed to record payment reference: %w", err)
	}
	purchase.ExternalPaymentRef = intent.ExternalRef

	return purchase, intent, nil
}

// ApplyGatewayOutcome implements domain.PurchaseService. The gateway's
// outcome is the only signal that can unlock content. Redelivery of the
// same outcome for an already-terminal purchase is absorbed as a no-op;
// a conflicting terminal outcome is rejected and logged.
func (s *PurchaseServiceImpl) ApplyGatewayOutcome(ctx context.Context, externalRef string, outcome domain.GatewayOutcome) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByExternalRef(ctx, externalRef)
	if err != nil {
		return nil, err
	}

	target := outcome.TargetStatus()
	if purchase.Status == target {
		// A prior delivery may have committed the completion but failed
		// token issuance; issuance is re-entrant, so redelivery heals it.
		if target == domain.PurchaseCompleted {
			if _, err := s.accessSvc.IssueToken(ctx, purchase); err != nil {
				return nil, fmt.Errorf("failed to issue access token: %w", err)
			}
		}
		return purchase, nil
	}
	if purchase.Status.IsTerminal() {
		s.audit(domain.NewAuditEvent(domain.IllegalTransitionEvent).WithPurchase(purchase).
			WithMetadata("from", string(purchase.Status)).
			WithMetadata("to", string(target)).
			WithError(domain.ErrInvalidStateTransition))
		log.Printf("purchase %s: rejected gateway outcome %q on terminal status %s", purchase.ID, outcome, purchase.Status)
		return nil, domain.ErrInvalidStateTransition
	}

	var completedAt *time.Time
	if target == domain.PurchaseCompleted {
		now := time.Now().UTC()
		completedAt = &now
	}

	updated, err := s.purchaseRepo.UpdateStatus(ctx, purchase.ID,
		[]domain.PurchaseStatus{domain.PurchasePending, domain.PurchaseProcessing},
		target, completedAt)
	if err == domain.ErrInvalidStateTransition {
		// Lost a race with a concurrent delivery; absorb if it converged on
		// the same terminal state.
		current, findErr := s.purchaseRepo.FindByID(ctx, purchase.ID)
		if findErr != nil {
			return nil, findErr
		}
		if current.Status == target {
			if target == domain.PurchaseCompleted {
				if _, err := s.accessSvc.IssueToken(ctx, current); err != nil {
					return nil, fmt.Errorf("failed to issue access token: %w", err)
				}
			}
			return current, nil
		}
		return nil, domain.ErrInvalidStateTransition
	}
	if err != nil {
		return nil, err
	}

	s.audit(domain.NewAuditEvent(domain.GatewayOutcomeEvent).WithPurchase(updated).
		WithMetadata("outcome", string(outcome)))

	if updated.Status == domain.PurchaseCompleted {
		if _, err := s.accessSvc.IssueToken(ctx, updated); err != nil {
			return nil, fmt.Errorf("failed to issue access token: %w", err)
		}
		go func(p domain.Purchase) {
			if err := s.notificationSvc.SendReceipt(p.Email, p.Phone, &p); err != nil {
				log.Printf("purchase %s: receipt dispatch failed: %v", p.ID, err)
			}
		}(*updated)
	}

	return updated, nil
}

// ConfirmClientSide implements domain.PurchaseService. The client-side
// confirmation is advisory: it moves PENDING to PROCESSING and records the
// client-reported payment reference, but never completes the purchase. Only
// the gateway outcome unlocks content.
func (s *PurchaseServiceImpl) ConfirmClientSide(ctx context.Context, purchaseID, externalRef string) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	s.audit(domain.NewAuditEvent(domain.ClientConfirmEvent).WithPurchase(purchase).
		WithMetadata("external_ref", externalRef))

	if purchase.Status != domain.PurchasePending {
		// Already PROCESSING, or the webhook beat the client here. Both are
		// fine; report the current state.
		return purchase, nil
	}

	if purchase.ExternalPaymentRef == "" && externalRef != "" {
		if err := s.purchaseRepo.SetExternalRef(ctx, purchaseID, externalRef); err != nil {
			return nil, fmt.Errorf("failed to record payment reference: %w", err)
		}
	}

	updated, err := s.purchaseRepo.UpdateStatus(ctx, purchaseID,
		[]domain.PurchaseStatus{domain.PurchasePending}, domain.PurchaseProcessing, nil)
	if err == domain.ErrInvalidStateTransition {
		// A concurrent webhook finished the purchase first.
		return s.purchaseRepo.FindByID(ctx, purchaseID)
	}
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// GetPurchase implements domain.PurchaseService
func (s *PurchaseServiceImpl) GetPurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	return s.purchaseRepo.FindByID(ctx, id)
}

// Refund implements domain.PurchaseService. Refunding an already-refunded
// purchase is a no-op; any other status but COMPLETED is rejected.
func (s *PurchaseServiceImpl) Refund(ctx context.Context, purchaseID string) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if purchase.Status == domain.PurchaseRefunded {
		return purchase, nil
	}
	if purchase.Status != domain.PurchaseCompleted {
		return nil, domain.ErrInvalidStateTransition
	}

	updated, err := s.purchaseRepo.UpdateStatus(ctx, purchaseID,
		[]domain.PurchaseStatus{domain.PurchaseCompleted}, domain.PurchaseRefunded, nil)
	if err != nil {
		return nil, err
	}

	s.audit(domain.NewAuditEvent(domain.PurchaseRefundedEvent).WithPurchase(updated))

	// A refunded purchase must not keep granting access.
	if err := s.accessSvc.RevokeByPurchase(ctx, purchaseID); err != nil && err != domain.ErrTokenNotFound {
		log.Printf("purchase %s: token revoke after refund failed: %v", purchaseID, err)
	}

	return updated, nil
}

// SweepStalePending implements domain.PurchaseService. A PENDING purchase
// that receives no gateway outcome within the window is failed rather than
// left ambiguous forever.
func (s *PurchaseServiceImpl) SweepStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	stale, err := s.purchaseRepo.FindStalePending(ctx, cutoff, 100)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, purchase := range stale {
		if _, err := s.purchaseRepo.UpdateStatus(ctx, purchase.ID,
			[]domain.PurchaseStatus{domain.PurchasePending}, domain.PurchaseFailed, nil); err != nil {
			if err == domain.ErrInvalidStateTransition {
				continue // outcome landed between the scan and the sweep
			}
			return swept, err
		}
		s.audit(domain.NewAuditEvent(domain.PurchaseSweptEvent).WithPurchase(purchase))
		swept++
	}

	return swept, nil
}

func (s *PurchaseServiceImpl) audit(event *domain.AuditEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("audit: failed to marshal event %s: %v", event.EventType, err)
		return
	}
	log.Printf("audit: %s", data)
}
