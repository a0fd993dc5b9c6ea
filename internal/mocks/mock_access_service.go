package mocks

import (
	"context"

	"github.com/you/paywallsvc/domain"
)

// MockAccessService implements domain.AccessService for testing
type MockAccessService struct {
	IssueTokenFunc       func(ctx context.Context, purchase *domain.Purchase) (*domain.AccessToken, error)
	RevokeFunc           func(ctx context.Context, token string) error
	RevokeByPurchaseFunc func(ctx context.Context, purchaseID string) error
	CheckEligibilityFunc func(ctx context.Context, token, fingerprint string) (*domain.Eligibility, error)
	RedeemFunc           func(ctx context.Context, token, fingerprint string) (string, error)
}

// NewMockAccessService creates a new MockAccessService
func NewMockAccessService() *MockAccessService {
	return &MockAccessService{}
}

// IssueToken mints a deterministic token
func (m *MockAccessService) IssueToken(ctx context.Context, purchase *domain.Purchase) (*domain.AccessToken, error) {
	if m.IssueTokenFunc != nil {
		return m.IssueTokenFunc(ctx, purchase)
	}
	return &domain.AccessToken{
		Token:      "act_mock_" + purchase.ID,
		PurchaseID: purchase.ID,
		ContentID:  purchase.ContentID,
	}, nil
}

// Revoke marks a token revoked
func (m *MockAccessService) Revoke(ctx context.Context, token string) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, token)
	}
	return nil
}

// RevokeByPurchase revokes a purchase's token
func (m *MockAccessService) RevokeByPurchase(ctx context.Context, purchaseID string) error {
	if m.RevokeByPurchaseFunc != nil {
		return m.RevokeByPurchaseFunc(ctx, purchaseID)
	}
	return nil
}

// CheckEligibility returns Granted by default
func (m *MockAccessService) CheckEligibility(ctx context.Context, token, fingerprint string) (*domain.Eligibility, error) {
	if m.CheckEligibilityFunc != nil {
		return m.CheckEligibilityFunc(ctx, token, fingerprint)
	}
	return &domain.Eligibility{Decision: domain.EligibilityGranted}, nil
}

// Redeem returns a deterministic locator
func (m *MockAccessService) Redeem(ctx context.Context, token, fingerprint string) (string, error) {
	if m.RedeemFunc != nil {
		return m.RedeemFunc(ctx, token, fingerprint)
	}
	return "https://cdn.example/object", nil
}

// Compile-time interface compliance verification
var _ domain.AccessService = (*MockAccessService)(nil)
