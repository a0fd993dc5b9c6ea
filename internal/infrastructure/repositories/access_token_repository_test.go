package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/paywallsvc/domain"
)

func newTestToken(token, purchaseID string) *domain.AccessToken {
	return &domain.AccessToken{
		Token:             token,
		PurchaseID:        purchaseID,
		ContentID:         "content_1",
		BoundFingerprints: []string{"fp_original"},
		IssuedAt:          time.Now().UTC(),
	}
}

func TestAccessTokenRepository_CreateAndFind(t *testing.T) {
	repo := NewAccessTokenRepository(setupTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestToken("act_1", "purchase_1"))
	require.NoError(t, err)
	assert.Equal(t, "act_1", created.Token)
	assert.Equal(t, []string{"fp_original"}, created.BoundFingerprints)

	byToken, err := repo.FindByToken(ctx, "act_1")
	require.NoError(t, err)
	assert.Equal(t, "purchase_1", byToken.PurchaseID)

	byPurchase, err := repo.FindByPurchaseID(ctx, "purchase_1")
	require.NoError(t, err)
	assert.Equal(t, "act_1", byPurchase.Token)

	_, err = repo.FindByToken(ctx, "act_missing")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	_, err = repo.FindByPurchaseID(ctx, "purchase_missing")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestAccessTokenRepository_OneTokenPerPurchase(t *testing.T) {
	repo := NewAccessTokenRepository(setupTestDB(t))
	ctx := context.Background()

	first, err := repo.Create(ctx, newTestToken("act_1", "purchase_1"))
	require.NoError(t, err)

	// A second insert for the same purchase converges on the first token
	// instead of minting a duplicate credential.
	second, err := repo.Create(ctx, newTestToken("act_2", "purchase_1"))
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)

	_, err = repo.FindByToken(ctx, "act_2")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestAccessTokenRepository_AddFingerprint(t *testing.T) {
	repo := NewAccessTokenRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, newTestToken("act_1", "purchase_1"))
	require.NoError(t, err)

	require.NoError(t, repo.AddFingerprint(ctx, "act_1", "fp_second"))
	// Rebinding is a no-op, not an error.
	require.NoError(t, repo.AddFingerprint(ctx, "act_1", "fp_second"))

	token, err := repo.FindByToken(ctx, "act_1")
	require.NoError(t, err)
	assert.Len(t, token.BoundFingerprints, 2)
	assert.True(t, token.HasFingerprint("fp_original"))
	assert.True(t, token.HasFingerprint("fp_second"))
}

func TestAccessTokenRepository_SetRevoked(t *testing.T) {
	repo := NewAccessTokenRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, newTestToken("act_1", "purchase_1"))
	require.NoError(t, err)

	require.NoError(t, repo.SetRevoked(ctx, "act_1", true))

	token, err := repo.FindByToken(ctx, "act_1")
	require.NoError(t, err)
	assert.True(t, token.Revoked)

	assert.ErrorIs(t, repo.SetRevoked(ctx, "act_missing", true), domain.ErrTokenNotFound)
}
