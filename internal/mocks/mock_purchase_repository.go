package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/you/paywallsvc/domain"
)

// MockPurchaseRepository implements domain.PurchaseRepository for testing.
// Without overrides it behaves as an in-memory ledger honoring the guarded
// status update, so state-machine tests can run without a database.
type MockPurchaseRepository struct {
	CreateFunc                           func(ctx context.Context, purchase *domain.Purchase) error
	FindByIDFunc                         func(ctx context.Context, id string) (*domain.Purchase, error)
	FindByExternalRefFunc                func(ctx context.Context, externalRef string) (*domain.Purchase, error)
	FindCompletedBySessionAndContentFunc func(ctx context.Context, sessionID, contentID string) (*domain.Purchase, error)
	UpdateStatusFunc                     func(ctx context.Context, id string, from []domain.PurchaseStatus, to domain.PurchaseStatus, completedAt *time.Time) (*domain.Purchase, error)
	SetExternalRefFunc                   func(ctx context.Context, id, externalRef string) error
	FindStalePendingFunc                 func(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Purchase, error)

	mu        sync.Mutex
	purchases map[string]*domain.Purchase
}

// NewMockPurchaseRepository creates a new MockPurchaseRepository
func NewMockPurchaseRepository() *MockPurchaseRepository {
	return &MockPurchaseRepository{
		purchases: make(map[string]*domain.Purchase),
	}
}

// Seed inserts a purchase directly into the in-memory store
func (m *MockPurchaseRepository) Seed(purchase *domain.Purchase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *purchase
	m.purchases[purchase.ID] = &copied
}

// Create stores a purchase
func (m *MockPurchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, purchase)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now().UTC()
	}
	copied := *purchase
	m.purchases[purchase.ID] = &copied
	return nil
}

// FindByID retrieves a purchase by ID
func (m *MockPurchaseRepository) FindByID(ctx context.Context, id string) (*domain.Purchase, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	purchase, ok := m.purchases[id]
	if !ok {
		return nil, domain.ErrPurchaseNotFound
	}
	copied := *purchase
	return &copied, nil
}

// FindByExternalRef retrieves a purchase by payment reference
func (m *MockPurchaseRepository) FindByExternalRef(ctx context.Context, externalRef string) (*domain.Purchase, error) {
	if m.FindByExternalRefFunc != nil {
		return m.FindByExternalRefFunc(ctx, externalRef)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, purchase := range m.purchases {
		if purchase.ExternalPaymentRef == externalRef && externalRef != "" {
			copied := *purchase
			return &copied, nil
		}
	}
	return nil, domain.ErrPurchaseNotFound
}

// FindCompletedBySessionAndContent retrieves a completed purchase for a pair
func (m *MockPurchaseRepository) FindCompletedBySessionAndContent(ctx context.Context, sessionID, contentID string) (*domain.Purchase, error) {
	if m.FindCompletedBySessionAndContentFunc != nil {
		return m.FindCompletedBySessionAndContentFunc(ctx, sessionID, contentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, purchase := range m.purchases {
		if purchase.BuyerSessionID == sessionID && purchase.ContentID == contentID && purchase.Status == domain.PurchaseCompleted {
			copied := *purchase
			return &copied, nil
		}
	}
	return nil, domain.ErrPurchaseNotFound
}

// UpdateStatus applies a guarded status transition
func (m *MockPurchaseRepository) UpdateStatus(ctx context.Context, id string, from []domain.PurchaseStatus, to domain.PurchaseStatus, completedAt *time.Time) (*domain.Purchase, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, from, to, completedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	purchase, ok := m.purchases[id]
	if !ok {
		return nil, domain.ErrPurchaseNotFound
	}
	matched := false
	for _, status := range from {
		if purchase.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return nil, domain.ErrInvalidStateTransition
	}
	purchase.Status = to
	if completedAt != nil {
		purchase.CompletedAt = completedAt
	}
	copied := *purchase
	return &copied, nil
}

// SetExternalRef records the gateway payment reference
func (m *MockPurchaseRepository) SetExternalRef(ctx context.Context, id, externalRef string) error {
	if m.SetExternalRefFunc != nil {
		return m.SetExternalRefFunc(ctx, id, externalRef)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	purchase, ok := m.purchases[id]
	if !ok {
		return domain.ErrPurchaseNotFound
	}
	purchase.ExternalPaymentRef = externalRef
	return nil
}

// FindStalePending lists PENDING purchases created before the cutoff
func (m *MockPurchaseRepository) FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Purchase, error) {
	if m.FindStalePendingFunc != nil {
		return m.FindStalePendingFunc(ctx, olderThan, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var stale []*domain.Purchase
	for _, purchase := range m.purchases {
		if purchase.Status == domain.PurchasePending && purchase.CreatedAt.Before(olderThan) {
			copied := *purchase
			stale = append(stale, &copied)
			if len(stale) == limit {
				break
			}
		}
	}
	return stale, nil
}

// Compile-time interface compliance verification
var _ domain.PurchaseRepository = (*MockPurchaseRepository)(nil)
