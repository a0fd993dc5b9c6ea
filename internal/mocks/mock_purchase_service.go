package mocks

import (
	"context"
	"time"

	"github.com/you/paywallsvc/domain"
)

// MockPurchaseService implements domain.PurchaseService for testing
type MockPurchaseService struct {
	CreatePurchaseFunc      func(ctx context.Context, sessionID, contentID, email, phone string, amountCents int64, currency string) (*domain.Purchase, *domain.PaymentIntent, error)
	ApplyGatewayOutcomeFunc func(ctx context.Context, externalRef string, outcome domain.GatewayOutcome) (*domain.Purchase, error)
	ConfirmClientSideFunc   func(ctx context.Context, purchaseID, externalRef string) (*domain.Purchase, error)
	GetPurchaseFunc         func(ctx context.Context, id string) (*domain.Purchase, error)
	RefundFunc              func(ctx context.Context, purchaseID string) (*domain.Purchase, error)
	SweepStalePendingFunc   func(ctx context.Context, olderThan time.Duration) (int, error)
}

// NewMockPurchaseService creates a new MockPurchaseService
func NewMockPurchaseService() *MockPurchaseService {
	return &MockPurchaseService{}
}

// CreatePurchase creates a pending purchase
func (m *MockPurchaseService) CreatePurchase(ctx context.Context, sessionID, contentID, email, phone string, amountCents int64, currency string) (*domain.Purchase, *domain.PaymentIntent, error) {
	if m.CreatePurchaseFunc != nil {
		return m.CreatePurchaseFunc(ctx, sessionID, contentID, email, phone, amountCents, currency)
	}
	purchase := &domain.Purchase{
		ID:             "purchase_mock",
		ContentID:      contentID,
		BuyerSessionID: sessionID,
		Email:          email,
		Phone:          phone,
		AmountCents:    amountCents,
		Currency:       currency,
		Status:         domain.PurchasePending,
		CreatedAt:      time.Now().UTC(),
	}
	return purchase, &domain.PaymentIntent{ExternalRef: "pay_mock"}, nil
}

// ApplyGatewayOutcome applies a gateway outcome
func (m *MockPurchaseService) ApplyGatewayOutcome(ctx context.Context, externalRef string, outcome domain.GatewayOutcome) (*domain.Purchase, error) {
	if m.ApplyGatewayOutcomeFunc != nil {
		return m.ApplyGatewayOutcomeFunc(ctx, externalRef, outcome)
	}
	return &domain.Purchase{ID: "purchase_mock", Status: outcome.TargetStatus()}, nil
}

// ConfirmClientSide records an advisory confirmation
func (m *MockPurchaseService) ConfirmClientSide(ctx context.Context, purchaseID, externalRef string) (*domain.Purchase, error) {
	if m.ConfirmClientSideFunc != nil {
		return m.ConfirmClientSideFunc(ctx, purchaseID, externalRef)
	}
	return &domain.Purchase{ID: purchaseID, Status: domain.PurchaseProcessing}, nil
}

// GetPurchase retrieves a purchase
func (m *MockPurchaseService) GetPurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	if m.GetPurchaseFunc != nil {
		return m.GetPurchaseFunc(ctx, id)
	}
	return &domain.Purchase{ID: id, Status: domain.PurchasePending}, nil
}

// Refund refunds a completed purchase
func (m *MockPurchaseService) Refund(ctx context.Context, purchaseID string) (*domain.Purchase, error) {
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, purchaseID)
	}
	return &domain.Purchase{ID: purchaseID, Status: domain.PurchaseRefunded}, nil
}

// SweepStalePending fails stale pending purchases
func (m *MockPurchaseService) SweepStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	if m.SweepStalePendingFunc != nil {
		return m.SweepStalePendingFunc(ctx, olderThan)
	}
	return 0, nil
}

// Compile-time interface compliance verification
var _ domain.PurchaseService = (*MockPurchaseService)(nil)
