package mocks

import (
	"context"
	"time"

	"github.com/you/paywallsvc/domain"
)

// MockSessionService implements domain.SessionService for testing
type MockSessionService struct {
	CreateOrGetFunc func(ctx context.Context, sessionID, fingerprint, email, phone string) (*domain.BuyerSession, error)
	ResolveFunc     func(ctx context.Context, sessionID string) (*domain.BuyerSession, error)
}

// NewMockSessionService creates a new MockSessionService
func NewMockSessionService() *MockSessionService {
	return &MockSessionService{}
}

// CreateOrGet returns a deterministic session
func (m *MockSessionService) CreateOrGet(ctx context.Context, sessionID, fingerprint, email, phone string) (*domain.BuyerSession, error) {
	if m.CreateOrGetFunc != nil {
		return m.CreateOrGetFunc(ctx, sessionID, fingerprint, email, phone)
	}
	id := sessionID
	if id == "" {
		id = "sess_mock"
	}
	now := time.Now().UTC()
	return &domain.BuyerSession{
		ID:          id,
		Fingerprint: fingerprint,
		Email:       email,
		Phone:       phone,
		CreatedAt:   now,
		LastSeenAt:  now,
	}, nil
}

// Resolve returns a deterministic session
func (m *MockSessionService) Resolve(ctx context.Context, sessionID string) (*domain.BuyerSession, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, sessionID)
	}
	return &domain.BuyerSession{ID: sessionID}, nil
}

// Compile-time interface compliance verification
var _ domain.SessionService = (*MockSessionService)(nil)
