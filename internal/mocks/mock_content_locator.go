package mocks

import (
	"context"

	"github.com/you/paywallsvc/domain"
)

// MockContentLocator implements domain.ContentLocator for testing
type MockContentLocator struct {
	LocateFunc func(ctx context.Context, content *domain.ContentItem) (string, error)
}

// NewMockContentLocator creates a new MockContentLocator
func NewMockContentLocator() *MockContentLocator {
	return &MockContentLocator{}
}

// Locate returns a deterministic locator
func (m *MockContentLocator) Locate(ctx context.Context, content *domain.ContentItem) (string, error) {
	if m.LocateFunc != nil {
		return m.LocateFunc(ctx, content)
	}
	return "https://cdn.example/" + content.ObjectKey, nil
}

// Compile-time interface compliance verification
var _ domain.ContentLocator = (*MockContentLocator)(nil)
