package mocks

import (
	"sync"
	"time"

	"github.com/you/paywallsvc/domain"
)

// MockNotificationService implements domain.NotificationService for testing.
// Sent messages are recorded so tests can assert on dispatch.
type MockNotificationService struct {
	SendCodeFunc    func(email, phone, code string, ttl time.Duration) error
	SendReceiptFunc func(email, phone string, purchase *domain.Purchase) error

	mu        sync.Mutex
	SentCodes []SentCode
	Receipts  []string
}

// SentCode records one dispatched verification code
type SentCode struct {
	Email string
	Phone string
	Code  string
}

// NewMockNotificationService creates a new MockNotificationService
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

// SendCode records a dispatched verification code
func (m *MockNotificationService) SendCode(email, phone, code string, ttl time.Duration) error {
	if m.SendCodeFunc != nil {
		return m.SendCodeFunc(email, phone, code, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentCodes = append(m.SentCodes, SentCode{Email: email, Phone: phone, Code: code})
	return nil
}

// SendReceipt records a dispatched receipt
func (m *MockNotificationService) SendReceipt(email, phone string, purchase *domain.Purchase) error {
	if m.SendReceiptFunc != nil {
		return m.SendReceiptFunc(email, phone, purchase)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Receipts = append(m.Receipts, purchase.ID)
	return nil
}

// LastCode returns the most recently dispatched code, if any
func (m *MockNotificationService) LastCode() (SentCode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SentCodes) == 0 {
		return SentCode{}, false
	}
	return m.SentCodes[len(m.SentCodes)-1], true
}

// Compile-time interface compliance verification
var _ domain.NotificationService = (*MockNotificationService)(nil)
