package mocks

import (
	"context"
	"time"

	"github.com/you/paywallsvc/domain"
)

// MockChallengeService implements domain.ChallengeService for testing
type MockChallengeService struct {
	RequestFunc   func(ctx context.Context, token, candidateFingerprint, email string) (*domain.DeviceChallenge, error)
	VerifyFunc    func(ctx context.Context, token, candidateFingerprint, code string) (*domain.AccessToken, error)
	CanResendFunc func(ctx context.Context, token, candidateFingerprint string) (bool, int64, error)
}

// NewMockChallengeService creates a new MockChallengeService
func NewMockChallengeService() *MockChallengeService {
	return &MockChallengeService{}
}

// Request issues a deterministic challenge
func (m *MockChallengeService) Request(ctx context.Context, token, candidateFingerprint, email string) (*domain.DeviceChallenge, error) {
	if m.RequestFunc != nil {
		return m.RequestFunc(ctx, token, candidateFingerprint, email)
	}
	return &domain.DeviceChallenge{
		AccessToken:          token,
		CandidateFingerprint: candidateFingerprint,
		Email:                email,
		ExpiresAt:            time.Now().Add(10 * time.Minute),
		MaxAttempts:          5,
	}, nil
}

// Verify accepts "123456" as the valid code by default
func (m *MockChallengeService) Verify(ctx context.Context, token, candidateFingerprint, code string) (*domain.AccessToken, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, token, candidateFingerprint, code)
	}
	if code != "123456" {
		return nil, domain.ErrChallengeInvalidCode
	}
	return &domain.AccessToken{
		Token:             token,
		BoundFingerprints: []string{candidateFingerprint},
	}, nil
}

// CanResend allows resend with no wait time by default
func (m *MockChallengeService) CanResend(ctx context.Context, token, candidateFingerprint string) (bool, int64, error) {
	if m.CanResendFunc != nil {
		return m.CanResendFunc(ctx, token, candidateFingerprint)
	}
	return true, 0, nil
}

// Compile-time interface compliance verification
var _ domain.ChallengeService = (*MockChallengeService)(nil)
