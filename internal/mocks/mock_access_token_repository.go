package mocks

import (
	"context"
	"sync"

	"github.com/you/paywallsvc/domain"
)

// MockAccessTokenRepository implements domain.AccessTokenRepository for
// testing. Without overrides it behaves as an in-memory store enforcing
// one token per purchase, like the database unique index does.
type MockAccessTokenRepository struct {
	CreateFunc           func(ctx context.Context, token *domain.AccessToken) (*domain.AccessToken, error)
	FindByTokenFunc      func(ctx context.Context, token string) (*domain.AccessToken, error)
	FindByPurchaseIDFunc func(ctx context.Context, purchaseID string) (*domain.AccessToken, error)
	AddFingerprintFunc   func(ctx context.Context, token, fingerprint string) error
	SetRevokedFunc       func(ctx context.Context, token string, revoked bool) error

	mu     sync.Mutex
	tokens map[string]*domain.AccessToken
}

// NewMockAccessTokenRepository creates a new MockAccessTokenRepository
func NewMockAccessTokenRepository() *MockAccessTokenRepository {
	return &MockAccessTokenRepository{
		tokens: make(map[string]*domain.AccessToken),
	}
}

// Seed inserts a token directly into the in-memory store
func (m *MockAccessTokenRepository) Seed(token *domain.AccessToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *token
	copied.BoundFingerprints = append([]string(nil), token.BoundFingerprints...)
	m.tokens[token.Token] = &copied
}

// Create stores a token, deduplicating on purchase ID
func (m *MockAccessTokenRepository) Create(ctx context.Context, token *domain.AccessToken) (*domain.AccessToken, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tokens {
		if existing.PurchaseID == token.PurchaseID {
			copied := *existing
			copied.BoundFingerprints = append([]string(nil), existing.BoundFingerprints...)
			return &copied, nil
		}
	}
	copied := *token
	copied.BoundFingerprints = append([]string(nil), token.BoundFingerprints...)
	m.tokens[token.Token] = &copied
	result := copied
	result.BoundFingerprints = append([]string(nil), copied.BoundFingerprints...)
	return &result, nil
}

// FindByToken retrieves a token by its opaque string
func (m *MockAccessTokenRepository) FindByToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	if m.FindByTokenFunc != nil {
		return m.FindByTokenFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tokens[token]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	copied := *stored
	copied.BoundFingerprints = append([]string(nil), stored.BoundFingerprints...)
	return &copied, nil
}

// FindByPurchaseID retrieves a token by its purchase
func (m *MockAccessTokenRepository) FindByPurchaseID(ctx context.Context, purchaseID string) (*domain.AccessToken, error) {
	if m.FindByPurchaseIDFunc != nil {
		return m.FindByPurchaseIDFunc(ctx, purchaseID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, stored := range m.tokens {
		if stored.PurchaseID == purchaseID {
			copied := *stored
			copied.BoundFingerprints = append([]string(nil), stored.BoundFingerprints...)
			return &copied, nil
		}
	}
	return nil, domain.ErrTokenNotFound
}

// AddFingerprint binds a fingerprint to a token; duplicates are no-ops
func (m *MockAccessTokenRepository) AddFingerprint(ctx context.Context, token, fingerprint string) error {
	if m.AddFingerprintFunc != nil {
		return m.AddFingerprintFunc(ctx, token, fingerprint)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tokens[token]
	if !ok {
		return domain.ErrTokenNotFound
	}
	for _, existing := range stored.BoundFingerprints {
		if existing == fingerprint {
			return nil
		}
	}
	stored.BoundFingerprints = append(stored.BoundFingerprints, fingerprint)
	return nil
}

// SetRevoked flips the revocation flag
func (m *MockAccessTokenRepository) SetRevoked(ctx context.Context, token string, revoked bool) error {
	if m.SetRevokedFunc != nil {
		return m.SetRevokedFunc(ctx, token, revoked)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tokens[token]
	if !ok {
		return domain.ErrTokenNotFound
	}
	stored.Revoked = revoked
	return nil
}

// Compile-time interface compliance verification
var _ domain.AccessTokenRepository = (*MockAccessTokenRepository)(nil)
