package mocks

import (
	"time"

	"github.com/you/paywallsvc/domain"
)

// MockOpsTokenService implements domain.OpsTokenService for testing
type MockOpsTokenService struct {
	GenerateFunc func(subject, role string) (string, error)
	ValidateFunc func(token string) (*domain.OpsTokenClaims, error)
}

// NewMockOpsTokenService creates a new MockOpsTokenService
func NewMockOpsTokenService() *MockOpsTokenService {
	return &MockOpsTokenService{}
}

// Generate returns a deterministic token string
func (m *MockOpsTokenService) Generate(subject, role string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(subject, role)
	}
	return "ops_mock_token", nil
}

// Validate accepts "ops_mock_token" as an operator token by default
func (m *MockOpsTokenService) Validate(token string) (*domain.OpsTokenClaims, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(token)
	}
	if token != "ops_mock_token" {
		return nil, domain.ErrOpsTokenInvalid
	}
	now := time.Now()
	return &domain.OpsTokenClaims{
		Subject:   "ops-cli",
		Role:      "operator",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	}, nil
}

// Compile-time interface compliance verification
var _ domain.OpsTokenService = (*MockOpsTokenService)(nil)
