package mocks

import (
	"context"

	"github.com/you/paywallsvc/domain"
)

// MockPaymentGateway implements domain.PaymentGateway for testing
type MockPaymentGateway struct {
	CreateIntentFunc           func(ctx context.Context, purchase *domain.Purchase) (*domain.PaymentIntent, error)
	VerifyWebhookSignatureFunc func(payload []byte, signature string) bool
}

// NewMockPaymentGateway creates a new MockPaymentGateway
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

// CreateIntent returns a deterministic payment intent
func (m *MockPaymentGateway) CreateIntent(ctx context.Context, purchase *domain.Purchase) (*domain.PaymentIntent, error) {
	if m.CreateIntentFunc != nil {
		return m.CreateIntentFunc(ctx, purchase)
	}
	return &domain.PaymentIntent{
		ExternalRef: "pay_" + purchase.ID,
		RedirectURL: "https://gateway.example/checkout/" + purchase.ID,
	}, nil
}

// VerifyWebhookSignature accepts every signature by default
func (m *MockPaymentGateway) VerifyWebhookSignature(payload []byte, signature string) bool {
	if m.VerifyWebhookSignatureFunc != nil {
		return m.VerifyWebhookSignatureFunc(payload, signature)
	}
	return true
}

// Compile-time interface compliance verification
var _ domain.PaymentGateway = (*MockPaymentGateway)(nil)
