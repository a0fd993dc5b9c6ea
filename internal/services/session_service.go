package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/you/paywallsvc/domain"
)

// SessionServiceImpl implements domain.SessionService
type SessionServiceImpl struct {
	sessionRepo    domain.SessionRepository
	fingerprintSvc domain.FingerprintService
}

// NewSessionService creates a new session service
func NewSessionService(sessionRepo domain.SessionRepository, fingerprintSvc domain.FingerprintService) domain.SessionService {
	return &SessionServiceImpl{
		sessionRepo:    sessionRepo,
		fingerprintSvc: fingerprintSvc,
	}
}

// CreateOrGet implements domain.SessionService. A presented session ID that
// resolves is refreshed in place; anything else starts a fresh session. A
// session may start fingerprint-less and pick one up later.
func (s *SessionServiceImpl) CreateOrGet(ctx context.Context, sessionID, fingerprint, email, phone string) (*domain.BuyerSession, error) {
	fingerprint = s.fingerprintSvc.Normalize(fingerprint)
	now := time.Now().UTC()

	if sessionID != "" {
		session, err := s.sessionRepo.FindByID(ctx, sessionID)
		if err == nil {
			session.LastSeenAt = now
			if fingerprint != "" {
				session.Fingerprint = fingerprint
			}
			if email != "" {
				session.Email = email
			}
			if phone != "" {
				session.Phone = phone
			}
			if err := s.sessionRepo.Update(ctx, session); err != nil {
				return nil, fmt.Errorf("failed to refresh session: %w", err)
			}
			return session, nil
		}
		if err != domain.ErrSessionNotFound {
			return nil, err
		}
	}

	session := &domain.BuyerSession{
		ID:          "sess_" + uuid.NewString(),
		Fingerprint: fingerprint,
		Email:       email,
		Phone:       phone,
		CreatedAt:   now,
		LastSeenAt:  now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Resolve implements domain.SessionService
func (s *SessionServiceImpl) Resolve(ctx context.Context, sessionID string) (*domain.BuyerSession, error) {
	return s.sessionRepo.FindByID(ctx, sessionID)
}
