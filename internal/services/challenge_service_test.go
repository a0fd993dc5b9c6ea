package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/paywallsvc/domain"
	"github.com/you/paywallsvc/internal/infrastructure/auth"
	"github.com/you/paywallsvc/internal/mocks"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

type challengeTestDeps struct {
	tokenRepo    *mocks.MockAccessTokenRepository
	purchaseRepo *mocks.MockPurchaseRepository
	notification *mocks.MockNotificationService
	codes        chan string
	mr           *miniredis.Miniredis
}

func createChallengeServiceForTest(t *testing.T, config ChallengeConfig) (domain.ChallengeService, *challengeTestDeps) {
	t.Helper()

	client, mr := setupTestRedis(t)
	deps := &challengeTestDeps{
		tokenRepo:    mocks.NewMockAccessTokenRepository(),
		purchaseRepo: mocks.NewMockPurchaseRepository(),
		notification: mocks.NewMockNotificationService(),
		codes:        make(chan string, 4),
		mr:           mr,
	}

	// Dispatch happens on a goroutine after Request returns; the channel
	// lets tests wait for the plaintext code deterministically.
	deps.notification.SendCodeFunc = func(email, phone, code string, ttl time.Duration) error {
		deps.codes <- code
		return nil
	}

	now := time.Now().UTC()
	deps.purchaseRepo.Seed(&domain.Purchase{
		ID:          "purchase_1",
		ContentID:   "content_1",
		Email:       "Buyer@Example.com",
		Status:      domain.PurchaseCompleted,
		CompletedAt: &now,
	})
	deps.tokenRepo.Seed(&domain.AccessToken{
		Token:             "act_known",
		PurchaseID:        "purchase_1",
		ContentID:         "content_1",
		BoundFingerprints: []string{"fp_original"},
	})

	svc := NewChallengeService(deps.tokenRepo, deps.purchaseRepo, auth.NewCodeHasher(),
		deps.notification, client, config)
	return svc, deps
}

func defaultChallengeConfig() ChallengeConfig {
	return ChallengeConfig{
		CodeLength:   6,
		TTL:          10 * time.Minute,
		MaxAttempts:  5,
		ResendWindow: time.Minute,
	}
}

func receiveCode(t *testing.T, deps *challengeTestDeps) string {
	t.Helper()
	select {
	case code := <-deps.codes:
		return code
	case <-time.After(2 * time.Second):
		t.Fatal("no verification code dispatched")
		return ""
	}
}

func TestChallengeService_Request(t *testing.T) {
	t.Run("creates challenge and dispatches code", func(t *testing.T) {
		svc, deps := createChallengeServiceForTest(t, defaultChallengeConfig())

		challenge, err := svc.Request(context.Background(), "act_known", "fp_new", "buyer@example.com")
		require.NoError(t, err)
		assert.Equal(t, "act_known", challenge.AccessToken)
		assert.Equal(t, "fp_new", challenge.CandidateFingerprint)
		assert.Equal(t, 5, challenge.MaxAttempts)

		code := receiveCode(t, deps)
		assert.Len(t, code, 6)
		assert.True(t, deps.mr.Exists("devchal:act_known:fp_new"))
	})

	t.Run("email match is case-insensitive", func(t *testing.T) {
		svc, _ := createChallengeServiceForTest(t, defaultChallengeConfig())
		_, err := svc.Request(context.Background(), "act_known", "fp_new", "BUYER@EXAMPLE.COM")
		assert.NoError(t, err)
	})

	t.Run("email mismatch issues nothing", func(t *testing.T) {
		svc, deps := createChallengeServiceForTest(t, defaultChallengeConfig())

		_, err := svc.Request(context.Background(), "act_known", "fp_new", "attacker@example.com")
		assert.ErrorIs(t, err, domain.ErrEmailMismatch)
		assert.False(t, deps.mr.Exists("devchal:act_known:fp_new"))
		select {
		case <-deps.codes:
			t.Fatal("code must not be dispatched on email mismatch")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, _ := createChallengeServiceForTest(t, defaultChallengeConfig())
		_, err := svc.Request(context.Background(), "act_bogus", "fp_new", "buyer@example.com")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})

	t.Run("revoked token", func(t *testing.T) {
		svc, deps := createChallengeServiceForTest(t, defaultChallengeConfig())
		require.NoError(t, deps.tokenRepo.SetRevoked(context.Background(), "act_known", true))

		_, err := svc.Request(context.Background(), "act_known", "fp_new", "buyer@example.com")
		assert.ErrorIs(t, err, domain.ErrTokenRevoked)
	})

	t.Run("incomplete purchase", func(t *testing.T) {
		svc, deps := createChallengeServiceForTest(t, defaultChallengeConfig())
		deps.purchaseRepo.Seed(&domain.Purchase{
			ID: "purchase_1", Email: "Buyer@Example.com", Status: domain.PurchasePending,
		})

		_, err := svc.Request(context.Background(), "act_known", "fp_new", "buyer@example.com")
		assert.ErrorIs(t, err, domain.ErrPurchaseIncomplete)
	})

	t.Run("resend throttled inside window", func(t *testing.T) {
		svc, deps := createChallengeServiceForTest(t, defaultChallengeConfig())

		_, err := svc.Request(context.Background(), "act_known", "fp_new", "buyer@example.com")
		require.NoError(t, err)
		receiveCode(t, deps)

		_, err = svc.Request(context.Background(), "act_known", "fp_new", "buyer@example.com")
		assert.ErrorIs(t, err, domain.ErrChallengeResendLimit)

		// The window only applies per (token, fingerprint) pair.
		_, err = svc.Request(context.Background(), "act_known", "fp_other", "buyer@example.com")
		assert.NoError(t, err)
		receiveCode(t, deps)

		// Once the window elapses a fresh request goes through.
		deps.mr.FastForward(2 * time.Minute)
		_, err = svc.Request(context.Background(), "act_known", "fp_new", "buyer@example.com")
		assert.NoError(t, err)
	})
}

func TestChallengeService_Verify(t *testing.T) {
	t.Run("correct code binds fingerprint and consumes challenge", func(t *testing.T) {
		svc, deps := createChallengeServiceForTest(t, defaultChallengeConfig())

		_, err := svc.Request(context.Background(), "act_known", "fp_new", "buyer@example.com")
		require.NoError(t, err)
		code := receiveCode(t, deps)

		token, err := svc.Verify(context.Background(), "act_known", "fp_new", code)
		require.NoError(t, err)
		assert.True(t, token.HasFingerprint("fp_new"))
		assert.True(t, token.HasFingerprint("fp_original"), "existing bindings survive")
		assert.False(t, deps.mr.Exists("devchal:act_known:fp_new"))

		// The challenge is single-use.
		_, err = svc.Verify(context.Background(), "act_known", "fp_new", code)
		assert.ErrorIs(t, err, domain.ErrChallengeExpired)
	})

	t.Run("wrong code leaves challenge usable", func(t *testing.T) {
		svc, deps := createChallengeServiceForTest(t, defaultChallengeConfig())

		_, err := svc.Request(context.Background(), "act_known", "fp_new", "buyer@example.com")
		require.NoError(t, err)
		code := receiveCode(t, deps)

		_, err = svc.Verify(context.Background(), "act_known", "fp_new", "000000")
		if err == nil {
			t.Skip("generated code collided with the guess")
		}
		assert.ErrorIs(t, err, domain.ErrChallengeInvalidCode)

		token, err := svc.Verify(context.Background(), "act_known", "fp_new", code)
		require.NoError(t, err)
		assert.True(t, token.HasFingerprint("fp_new"))
	})

	t.Run("attempts exhausted rejects even the correct code", func(t *testing.T) {
		config := defaultChallengeConfig()
		config.MaxAttempts = 3
		svc, deps := createChallengeServiceForTest(t, config)

		_, err := svc.Request(context.Background(), "act_known", "fp_new", "buyer@example.com")
		require.NoError(t, err)
		code := receiveCode(t, deps)

		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		for i := 0; i < 3; i++ {
			_, err = svc.Verify(context.Background(), "act_known", "fp_new", wrong)
			assert.ErrorIs(t, err, domain.ErrChallengeInvalidCode, fmt.Sprintf("attempt %d", i+1))
		}

		_, err = svc.Verify(context.Background(), "act_known", "fp_new", code)
		assert.ErrorIs(t, err, domain.ErrChallengeMaxAttempts)

		token, err := deps.tokenRepo.FindByToken(context.Background(), "act_known")
		require.NoError(t, err)
		assert.False(t, token.HasFingerprint("fp_new"))
	})

	t.Run("token revoked after the challenge was issued", func(t *testing.T) {
		svc, deps := createChallengeServiceForTest(t, defaultChallengeConfig())

		_, err := svc.Request(context.Background(), "act_known", "fp_new", "buyer@example.com")
		require.NoError(t, err)
		code := receiveCode(t, deps)

		// A refund lands between Request and Verify.
		require.NoError(t, deps.tokenRepo.SetRevoked(context.Background(), "act_known", true))

		_, err = svc.Verify(context.Background(), "act_known", "fp_new", code)
		assert.ErrorIs(t, err, domain.ErrTokenRevoked)
		assert.False(t, deps.mr.Exists("devchal:act_known:fp_new"))

		token, err := deps.tokenRepo.FindByToken(context.Background(), "act_known")
		require.NoError(t, err)
		assert.False(t, token.HasFingerprint("fp_new"), "a dead token must not gain bindings")
	})

	t.Run("expired challenge", func(t *testing.T) {
		svc, deps := createChallengeServiceForTest(t, defaultChallengeConfig())

		_, err := svc.Request(context.Background(), "act_known", "fp_new", "buyer@example.com")
		require.NoError(t, err)
		code := receiveCode(t, deps)

		deps.mr.FastForward(11 * time.Minute)

		_, err = svc.Verify(context.Background(), "act_known", "fp_new", code)
		assert.ErrorIs(t, err, domain.ErrChallengeExpired)
	})

	t.Run("verify without a pending challenge", func(t *testing.T) {
		svc, _ := createChallengeServiceForTest(t, defaultChallengeConfig())
		_, err := svc.Verify(context.Background(), "act_known", "fp_new", "123456")
		assert.ErrorIs(t, err, domain.ErrChallengeExpired)
	})
}

func TestChallengeService_CanResend(t *testing.T) {
	svc, deps := createChallengeServiceForTest(t, defaultChallengeConfig())

	ok, wait, err := svc.CanResend(context.Background(), "act_known", "fp_new")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, wait)

	_, err = svc.Request(context.Background(), "act_known", "fp_new", "buyer@example.com")
	require.NoError(t, err)
	receiveCode(t, deps)

	ok, wait, err = svc.CanResend(context.Background(), "act_known", "fp_new")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Positive(t, wait)
}
