package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/paywallsvc/domain"
)

// AccessTokenRepositoryImpl implements domain.AccessTokenRepository using GORM
type AccessTokenRepositoryImpl struct {
	db *gorm.DB
}

// DBAccessToken represents the database model for AccessToken. The unique
// index on purchase_id is what guarantees at-most-one token per purchase
// under concurrent issuance.
type DBAccessToken struct {
	Token      string `gorm:"primaryKey;size:128"`
	PurchaseID string `gorm:"uniqueIndex;size:36;not null"`
	ContentID  string `gorm:"index;size:36;not null"`
	IssuedAt   time.Time
	Revoked    bool `gorm:"index;not null;default:false"`
}

// TableName returns the table name for GORM
func (DBAccessToken) TableName() string {
	return "access_tokens"
}

// DBTokenFingerprint is one element of a token's bound-fingerprint set.
// Rows are only ever inserted; the set never shrinks automatically.
type DBTokenFingerprint struct {
	ID          uint   `gorm:"primaryKey"`
	Token       string `gorm:"size:128;not null;uniqueIndex:idx_token_fingerprint"`
	Fingerprint string `gorm:"size:128;not null;uniqueIndex:idx_token_fingerprint"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (DBTokenFingerprint) TableName() string {
	return "access_token_fingerprints"
}

// NewAccessTokenRepository creates a new access token repository
func NewAccessTokenRepository(db *gorm.DB) domain.AccessTokenRepository {
	return &AccessTokenRepositoryImpl{db: db}
}

// Create implements domain.AccessTokenRepository. When an insert collides
// with the purchase_id unique index the existing token is returned, making
// concurrent issuance converge on a single credential.
func (r *AccessTokenRepositoryImpl) Create(ctx context.Context, token *domain.AccessToken) (*domain.AccessToken, error) {
	dbToken := &DBAccessToken{
		Token:      token.Token,
		PurchaseID: token.PurchaseID,
		ContentID:  token.ContentID,
		IssuedAt:   token.IssuedAt,
		Revoked:    token.Revoked,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dbToken).Error; err != nil {
			return err
		}
		for _, fp := range token.BoundFingerprints {
			row := &DBTokenFingerprint{Token: token.Token, Fingerprint: fp}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// The purchase may already hold a token; prefer it over the error.
		existing, findErr := r.FindByPurchaseID(ctx, token.PurchaseID)
		if findErr == nil {
			return existing, nil
		}
		return nil, err
	}

	return r.FindByToken(ctx, token.Token)
}

// FindByToken implements domain.AccessTokenRepository
func (r *AccessTokenRepositoryImpl) FindByToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	var dbToken DBAccessToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&dbToken).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return r.hydrate(ctx, &dbToken)
}

// FindByPurchaseID implements domain.AccessTokenRepository
func (r *AccessTokenRepositoryImpl) FindByPurchaseID(ctx context.Context, purchaseID string) (*domain.AccessToken, error) {
	var dbToken DBAccessToken
	err := r.db.WithContext(ctx).Where("purchase_id = ?", purchaseID).First(&dbToken).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return r.hydrate(ctx, &dbToken)
}

// AddFingerprint implements domain.AccessTokenRepository. Inserting an
// already-bound fingerprint is a no-op.
func (r *AccessTokenRepositoryImpl) AddFingerprint(ctx context.Context, token, fingerprint string) error {
	row := &DBTokenFingerprint{Token: token, Fingerprint: fingerprint}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

// SetRevoked implements domain.AccessTokenRepository
func (r *AccessTokenRepositoryImpl) SetRevoked(ctx context.Context, token string, revoked bool) error {
	res := r.db.WithContext(ctx).Model(&DBAccessToken{}).
		Where("token = ?", token).
		Update("revoked", revoked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

// hydrate loads the bound-fingerprint set and maps to the domain model
func (r *AccessTokenRepositoryImpl) hydrate(ctx context.Context, dbToken *DBAccessToken) (*domain.AccessToken, error) {
	var rows []DBTokenFingerprint
	if err := r.db.WithContext(ctx).
		Where("token = ?", dbToken.Token).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	fingerprints := make([]string, len(rows))
	for i, row := range rows {
		fingerprints[i] = row.Fingerprint
	}

	return &domain.AccessToken{
		Token:             dbToken.Token,
		PurchaseID:        dbToken.PurchaseID,
		ContentID:         dbToken.ContentID,
		BoundFingerprints: fingerprints,
		IssuedAt:          dbToken.IssuedAt,
		Revoked:           dbToken.Revoked,
	}, nil
}
