package mocks

import (
	"context"
	"sync"

	"github.com/you/paywallsvc/domain"
)

// MockSessionRepository implements domain.SessionRepository for testing.
// Without overrides it behaves as an in-memory store.
type MockSessionRepository struct {
	CreateFunc   func(ctx context.Context, session *domain.BuyerSession) error
	FindByIDFunc func(ctx context.Context, sessionID string) (*domain.BuyerSession, error)
	UpdateFunc   func(ctx context.Context, session *domain.BuyerSession) error

	mu       sync.Mutex
	sessions map[string]*domain.BuyerSession
}

// NewMockSessionRepository creates a new MockSessionRepository
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		sessions: make(map[string]*domain.BuyerSession),
	}
}

// Create stores a buyer session
func (m *MockSessionRepository) Create(ctx context.Context, session *domain.BuyerSession) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

// FindByID retrieves a buyer session by ID
func (m *MockSessionRepository) FindByID(ctx context.Context, sessionID string) (*domain.BuyerSession, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

// Update stores an updated buyer session
func (m *MockSessionRepository) Update(ctx context.Context, session *domain.BuyerSession) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, session)
	}
	return m.Create(ctx, session)
}

// Compile-time interface compliance verification
var _ domain.SessionRepository = (*MockSessionRepository)(nil)
