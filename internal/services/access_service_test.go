package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/paywallsvc/domain"
	"github.com/you/paywallsvc/internal/mocks"
)

type accessTestDeps struct {
	tokenRepo    *mocks.MockAccessTokenRepository
	purchaseRepo *mocks.MockPurchaseRepository
	sessionRepo  *mocks.MockSessionRepository
	contentRepo  *mocks.MockContentRepository
	locator      *mocks.MockContentLocator
}

func createAccessServiceForTest(t *testing.T) (domain.AccessService, *accessTestDeps) {
	t.Helper()

	deps := &accessTestDeps{
		tokenRepo:    mocks.NewMockAccessTokenRepository(),
		purchaseRepo: mocks.NewMockPurchaseRepository(),
		sessionRepo:  mocks.NewMockSessionRepository(),
		contentRepo:  mocks.NewMockContentRepository(),
		locator:      mocks.NewMockContentLocator(),
	}
	svc := NewAccessService(deps.tokenRepo, deps.purchaseRepo, deps.sessionRepo,
		deps.contentRepo, deps.locator)
	return svc, deps
}

func completedPurchase() *domain.Purchase {
	now := time.Now().UTC()
	return &domain.Purchase{
		ID:             "purchase_1",
		ContentID:      "content_1",
		BuyerSessionID: "sess_1",
		Email:          "buyer@example.com",
		AmountCents:    999,
		Currency:       "USD",
		Status:         domain.PurchaseCompleted,
		CompletedAt:    &now,
	}
}

func TestAccessService_IssueToken(t *testing.T) {
	t.Run("issues token bound to purchasing session fingerprint", func(t *testing.T) {
		svc, deps := createAccessServiceForTest(t)
		require.NoError(t, deps.sessionRepo.Create(context.Background(), &domain.BuyerSession{
			ID: "sess_1", Fingerprint: "fp_buyer",
		}))

		token, err := svc.IssueToken(context.Background(), completedPurchase())
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(token.Token, "act_"))
		assert.Equal(t, "purchase_1", token.PurchaseID)
		assert.Equal(t, "content_1", token.ContentID)
		assert.True(t, token.HasFingerprint("fp_buyer"))
	})

	t.Run("no initial binding when session has no fingerprint", func(t *testing.T) {
		svc, deps := createAccessServiceForTest(t)
		require.NoError(t, deps.sessionRepo.Create(context.Background(), &domain.BuyerSession{
			ID: "sess_1",
		}))

		token, err := svc.IssueToken(context.Background(), completedPurchase())
		require.NoError(t, err)
		assert.Empty(t, token.BoundFingerprints)
	})

	t.Run("re-entrant issuance returns the existing token", func(t *testing.T) {
		svc, deps := createAccessServiceForTest(t)
		require.NoError(t, deps.sessionRepo.Create(context.Background(), &domain.BuyerSession{
			ID: "sess_1", Fingerprint: "fp_buyer",
		}))

		first, err := svc.IssueToken(context.Background(), completedPurchase())
		require.NoError(t, err)
		second, err := svc.IssueToken(context.Background(), completedPurchase())
		require.NoError(t, err)
		assert.Equal(t, first.Token, second.Token)
	})

	t.Run("rejects incomplete purchase", func(t *testing.T) {
		svc, _ := createAccessServiceForTest(t)
		purchase := completedPurchase()
		purchase.Status = domain.PurchasePending

		_, err := svc.IssueToken(context.Background(), purchase)
		assert.ErrorIs(t, err, domain.ErrPurchaseIncomplete)
	})
}

func TestAccessService_CheckEligibility(t *testing.T) {
	setup := func(t *testing.T) (domain.AccessService, *accessTestDeps) {
		svc, deps := createAccessServiceForTest(t)
		deps.purchaseRepo.Seed(completedPurchase())
		deps.tokenRepo.Seed(&domain.AccessToken{
			Token:             "act_known",
			PurchaseID:        "purchase_1",
			ContentID:         "content_1",
			BoundFingerprints: []string{"fp_bound"},
		})
		return svc, deps
	}

	t.Run("granted for bound fingerprint", func(t *testing.T) {
		svc, _ := setup(t)
		elig, err := svc.CheckEligibility(context.Background(), "act_known", "fp_bound")
		require.NoError(t, err)
		assert.Equal(t, domain.EligibilityGranted, elig.Decision)
		require.NotNil(t, elig.Token)
		assert.Equal(t, "content_1", elig.Token.ContentID)
	})

	t.Run("device mismatch for unbound fingerprint", func(t *testing.T) {
		svc, _ := setup(t)
		elig, err := svc.CheckEligibility(context.Background(), "act_known", "fp_other")
		require.NoError(t, err)
		assert.Equal(t, domain.EligibilityDeviceMismatch, elig.Decision)
	})

	t.Run("denied for unknown token", func(t *testing.T) {
		svc, _ := setup(t)
		elig, err := svc.CheckEligibility(context.Background(), "act_bogus", "fp_bound")
		require.NoError(t, err)
		assert.Equal(t, domain.EligibilityDenied, elig.Decision)
		assert.Equal(t, "invalid_token", elig.Reason)
	})

	t.Run("denied for revoked token", func(t *testing.T) {
		svc, deps := setup(t)
		require.NoError(t, deps.tokenRepo.SetRevoked(context.Background(), "act_known", true))

		elig, err := svc.CheckEligibility(context.Background(), "act_known", "fp_bound")
		require.NoError(t, err)
		assert.Equal(t, domain.EligibilityDenied, elig.Decision)
		assert.Equal(t, "invalid_token", elig.Reason)
	})

	t.Run("denied once purchase is refunded", func(t *testing.T) {
		svc, deps := setup(t)
		refunded := completedPurchase()
		refunded.Status = domain.PurchaseRefunded
		deps.purchaseRepo.Seed(refunded)

		elig, err := svc.CheckEligibility(context.Background(), "act_known", "fp_bound")
		require.NoError(t, err)
		assert.Equal(t, domain.EligibilityDenied, elig.Decision)
		assert.Equal(t, "purchase_incomplete", elig.Reason)
	})
}

func TestAccessService_Redeem(t *testing.T) {
	setup := func(t *testing.T) (domain.AccessService, *accessTestDeps) {
		svc, deps := createAccessServiceForTest(t)
		deps.purchaseRepo.Seed(completedPurchase())
		deps.contentRepo.Seed(&domain.ContentItem{
			ID: "content_1", ObjectKey: "clips/1.mp4", Published: true,
			PriceCents: 999, Currency: "USD",
		})
		deps.tokenRepo.Seed(&domain.AccessToken{
			Token:             "act_known",
			PurchaseID:        "purchase_1",
			ContentID:         "content_1",
			BoundFingerprints: []string{"fp_bound"},
		})
		return svc, deps
	}

	t.Run("granted redemption returns locator", func(t *testing.T) {
		svc, deps := setup(t)
		deps.locator.LocateFunc = func(ctx context.Context, content *domain.ContentItem) (string, error) {
			return "https://cdn.example/" + content.ObjectKey + "?sig=abc", nil
		}

		url, err := svc.Redeem(context.Background(), "act_known", "fp_bound")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example/clips/1.mp4?sig=abc", url)
	})

	t.Run("unbound device must verify first", func(t *testing.T) {
		svc, _ := setup(t)
		_, err := svc.Redeem(context.Background(), "act_known", "fp_other")
		assert.ErrorIs(t, err, domain.ErrDeviceNotVerified)
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, _ := setup(t)
		_, err := svc.Redeem(context.Background(), "act_bogus", "fp_bound")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})
}

func TestAccessService_RevokeByPurchase(t *testing.T) {
	svc, deps := createAccessServiceForTest(t)
	deps.tokenRepo.Seed(&domain.AccessToken{Token: "act_known", PurchaseID: "purchase_1"})

	require.NoError(t, svc.RevokeByPurchase(context.Background(), "purchase_1"))

	token, err := deps.tokenRepo.FindByToken(context.Background(), "act_known")
	require.NoError(t, err)
	assert.True(t, token.Revoked)

	assert.ErrorIs(t, svc.RevokeByPurchase(context.Background(), "purchase_missing"), domain.ErrTokenNotFound)
}
