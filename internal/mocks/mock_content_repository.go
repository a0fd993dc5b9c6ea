package mocks

import (
	"context"
	"sync"

	"github.com/you/paywallsvc/domain"
)

// MockContentRepository implements domain.ContentRepository for testing
type MockContentRepository struct {
	FindByIDFunc func(ctx context.Context, id string) (*domain.ContentItem, error)

	mu    sync.Mutex
	items map[string]*domain.ContentItem
}

// NewMockContentRepository creates a new MockContentRepository
func NewMockContentRepository() *MockContentRepository {
	return &MockContentRepository{
		items: make(map[string]*domain.ContentItem),
	}
}

// Seed inserts a content item directly into the in-memory store
func (m *MockContentRepository) Seed(item *domain.ContentItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *item
	m.items[item.ID] = &copied
}

// FindByID retrieves a content item by ID
func (m *MockContentRepository) FindByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, domain.ErrContentNotFound
	}
	copied := *item
	return &copied, nil
}

// Compile-time interface compliance verification
var _ domain.ContentRepository = (*MockContentRepository)(nil)
