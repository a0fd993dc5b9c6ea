package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/paywallsvc/domain"
)

// ChallengeConfig holds the device-verification tuning knobs.
type ChallengeConfig struct {
	CodeLength   int
	TTL          time.Duration
	MaxAttempts  int
	ResendWindow time.Duration
}

// ChallengeServiceImpl implements domain.ChallengeService using Redis
// persistence. One challenge lives under a key derived from the
// (access token, candidate fingerprint) pair, so at most one is active
// per pair at any time.
type ChallengeServiceImpl struct {
	tokenRepo       domain.AccessTokenRepository
	purchaseRepo    domain.PurchaseRepository
	codeHasher      domain.CodeHasher
	notificationSvc domain.NotificationService
	redisClient     *redis.Client
	config          ChallengeConfig
}

// NewChallengeService creates a new Redis-based challenge service
func NewChallengeService(
	tokenRepo domain.AccessTokenRepository,
	purchaseRepo domain.PurchaseRepository,
	codeHasher domain.CodeHasher,
	notificationSvc domain.NotificationService,
	redisClient *redis.Client,
	config ChallengeConfig,
) domain.ChallengeService {
	return &ChallengeServiceImpl{
		tokenRepo:       tokenRepo,
		purchaseRepo:    purchaseRepo,
		codeHasher:      codeHasher,
		notificationSvc: notificationSvc,
		redisClient:     redisClient,
		config:          config,
	}
}

func (s *ChallengeServiceImpl) challengeKey(token, fp string) string {
	return fmt.Sprintf("devchal:%s:%s", token, fp)
}

func (s *ChallengeServiceImpl) attemptsKey(token, fp string) string {
	return fmt.Sprintf("devchal:att:%s:%s", token, fp)
}

func (s *ChallengeServiceImpl) resendKey(token, fp string) string {
	return fmt.Sprintf("devchal:res:%s:%s", token, fp)
}

// Request implements domain.ChallengeService. The supplied email must match
// the purchase's email before anything is issued: an attacker holding only
// the token learns nothing and receives nothing. The code is stored hashed;
// dispatch failure is logged but does not fail the request, because the
// notification collaborator owns retries.
func (s *ChallengeServiceImpl) Request(ctx context.Context, tokenString, candidateFingerprint, email string) (*domain.DeviceChallenge, error) {
	token, err := s.tokenRepo.FindByToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	if token.Revoked {
		return nil, domain.ErrTokenRevoked
	}

	purchase, err := s.purchaseRepo.FindByID(ctx, token.PurchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.Status != domain.PurchaseCompleted {
		return nil, domain.ErrPurchaseIncomplete
	}

	// The purchase email is the only persistent identity an anonymous
	// buyer has; binding a new device requires proving control of it.
	if !strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(purchase.Email)) {
		s.audit(domain.NewAuditEvent(domain.ChallengeRequestedEvent).WithPurchase(purchase).
			WithFingerprint(candidateFingerprint).WithError(domain.ErrEmailMismatch))
		return nil, domain.ErrEmailMismatch
	}

	if canResend, waitTime, _ := s.CanResend(ctx, tokenString, candidateFingerprint); !canResend {
		return nil, fmt.Errorf("%w: wait %d seconds", domain.ErrChallengeResendLimit, waitTime)
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	codeHash, err := s.codeHasher.Hash(code)
	if err != nil {
		return nil, fmt.Errorf("failed to hash verification code: %w", err)
	}

	chalKey := s.challengeKey(tokenString, candidateFingerprint)
	attKey := s.attemptsKey(tokenString, candidateFingerprint)
	resKey := s.resendKey(tokenString, candidateFingerprint)

	if err := s.redisClient.Set(ctx, chalKey, codeHash, s.config.TTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}
	if err := s.redisClient.Set(ctx, attKey, 0, s.config.TTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to initialize attempts counter: %w", err)
	}
	if err := s.redisClient.Set(ctx, resKey, 1, s.config.ResendWindow).Err(); err != nil {
		return nil, fmt.Errorf("failed to set resend throttle: %w", err)
	}

	challenge := &domain.DeviceChallenge{
		AccessToken:          tokenString,
		CandidateFingerprint: candidateFingerprint,
		Email:                purchase.Email,
		CodeHash:             codeHash,
		ExpiresAt:            time.Now().Add(s.config.TTL),
		AttemptCount:         0,
		MaxAttempts:          s.config.MaxAttempts,
	}

	s.audit(domain.NewAuditEvent(domain.ChallengeRequestedEvent).WithPurchase(purchase).
		WithFingerprint(candidateFingerprint))

	// The state is committed; dispatch fires after it, and a delivery
	// failure degrades to "check spam / resend" rather than a hard error.
	go func(email, phone, code string) {
		if err := s.notificationSvc.SendCode(email, phone, code, s.config.TTL); err != nil {
			log.Printf("device challenge: code dispatch failed for %s: %v", email, err)
		}
	}(purchase.Email, purchase.Phone, code)

	return challenge, nil
}

// Verify implements domain.ChallengeService. The attempt counter is
// incremented atomically before the code comparison, so concurrent guesses
// cannot slip past the limit; once it is exceeded the challenge is
// destroyed and even a correct code is rejected.
func (s *ChallengeServiceImpl) Verify(ctx context.Context, tokenString, candidateFingerprint, code string) (*domain.AccessToken, error) {
	chalKey := s.challengeKey(tokenString, candidateFingerprint)
	attKey := s.attemptsKey(tokenString, candidateFingerprint)

	attempts, err := s.redisClient.Incr(ctx, attKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to increment attempts: %w", err)
	}

	if attempts > int64(s.config.MaxAttempts) {
		s.redisClient.Del(ctx, chalKey, attKey)
		s.audit(domain.NewAuditEvent(domain.ChallengeExhaustedEvent).WithFingerprint(candidateFingerprint))
		return nil, domain.ErrChallengeMaxAttempts
	}

	codeHash, err := s.redisClient.Get(ctx, chalKey).Result()
	if err == redis.Nil {
		s.redisClient.Del(ctx, attKey)
		return nil, domain.ErrChallengeExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	if !s.codeHasher.Verify(codeHash, code) {
		s.audit(domain.NewAuditEvent(domain.ChallengeFailedEvent).WithFingerprint(candidateFingerprint).
			WithMetadata("attempt", attempts))
		return nil, domain.ErrChallengeInvalidCode
	}

	// The token may have been revoked (refund, ops action) after the
	// challenge was issued; a dead token must not gain new bindings.
	token, err := s.tokenRepo.FindByToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	if token.Revoked {
		s.redisClient.Del(ctx, chalKey, attKey, s.resendKey(tokenString, candidateFingerprint))
		return nil, domain.ErrTokenRevoked
	}

	if err := s.tokenRepo.AddFingerprint(ctx, tokenString, candidateFingerprint); err != nil {
		return nil, fmt.Errorf("failed to bind fingerprint: %w", err)
	}

	s.redisClient.Del(ctx, chalKey, attKey, s.resendKey(tokenString, candidateFingerprint))

	s.audit(domain.NewAuditEvent(domain.ChallengeVerifiedEvent).WithFingerprint(candidateFingerprint))

	return s.tokenRepo.FindByToken(ctx, tokenString)
}

// CanResend implements domain.ChallengeService with Redis-based throttling
func (s *ChallengeServiceImpl) CanResend(ctx context.Context, tokenString, candidateFingerprint string) (bool, int64, error) {
	resKey := s.resendKey(tokenString, candidateFingerprint)

	ttl, err := s.redisClient.TTL(ctx, resKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check resend TTL: %w", err)
	}

	if ttl <= 0 {
		return true, 0, nil
	}

	return false, int64(ttl.Seconds()), nil
}

// generateCode generates a cryptographically secure numeric code
func (s *ChallengeServiceImpl) generateCode() (string, error) {
	digits := make([]byte, s.config.CodeLength)

	for i := 0; i < s.config.CodeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}

	return string(digits), nil
}

func (s *ChallengeServiceImpl) audit(event *domain.AuditEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("audit: failed to marshal event %s: %v", event.EventType, err)
		return
	}
	log.Printf("audit: %s", data)
}
