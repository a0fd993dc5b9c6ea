package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/you/paywallsvc/domain"
)

// PurchaseRepositoryImpl implements domain.PurchaseRepository using GORM
type PurchaseRepositoryImpl struct {
	db *gorm.DB
}

// DBPurchase represents the database model for Purchase (with GORM tags)
type DBPurchase struct {
	ID                 string  `gorm:"primaryKey;size:36"`
	ContentID          string  `gorm:"index;size:36;not null"`
	BuyerSessionID     string  `gorm:"index;size:64;not null"`
	Email              string  `gorm:"size:255;not null"`
	Phone              string  `gorm:"size:32"`
	AmountCents        int64   `gorm:"not null"`
	Currency           string  `gorm:"size:8;not null"`
	Status             string  `gorm:"index;size:16;not null"`
	ExternalPaymentRef *string `gorm:"uniqueIndex;size:128"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CompletedAt        *time.Time
}

// TableName returns the table name for GORM
func (DBPurchase) TableName() string {
	return "purchases"
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(db *gorm.DB) domain.PurchaseRepository {
	return &PurchaseRepositoryImpl{db: db}
}

// Create implements domain.PurchaseRepository
func (r *PurchaseRepositoryImpl) Create(ctx context.Context, purchase *domain.Purchase) error {
	dbPurchase := r.domainToDB(purchase)
	if err := r.db.WithContext(ctx).Create(dbPurchase).Error; err != nil {
		return err
	}
	purchase.CreatedAt = dbPurchase.CreatedAt
	return nil
}

// FindByID implements domain.PurchaseRepository
func (r *PurchaseRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.Purchase, error) {
	var dbPurchase DBPurchase
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbPurchase).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbPurchase), nil
}

// FindByExternalRef implements domain.PurchaseRepository
func (r *PurchaseRepositoryImpl) FindByExternalRef(ctx context.Context, externalRef string) (*domain.Purchase, error) {
	var dbPurchase DBPurchase
	err := r.db.WithContext(ctx).Where("external_payment_ref = ?", externalRef).First(&dbPurchase).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbPurchase), nil
}

// FindCompletedBySessionAndContent implements domain.PurchaseRepository
func (r *PurchaseRepositoryImpl) FindCompletedBySessionAndContent(ctx context.Context, sessionID, contentID string) (*domain.Purchase, error) {
	var dbPurchase DBPurchase
	err := r.db.WithContext(ctx).
		Where("buyer_session_id = ? AND content_id = ? AND status = ?", sessionID, contentID, string(domain.PurchaseCompleted)).
		First(&dbPurchase).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbPurchase), nil
}

// UpdateStatus implements domain.PurchaseRepository. The transition is a
// single guarded UPDATE: the row must still be in one of the expected
// statuses when the write lands, so racing writers cannot overwrite a
// terminal state.
func (r *PurchaseRepositoryImpl) UpdateStatus(ctx context.Context, id string, from []domain.PurchaseStatus, to domain.PurchaseStatus, completedAt *time.Time) (*domain.Purchase, error) {
	fromStatuses := make([]string, len(from))
	for i, s := range from {
		fromStatuses[i] = string(s)
	}

	updates := map[string]interface{}{"status": string(to)}
	if completedAt != nil {
		updates["completed_at"] = completedAt
	}

	res := r.db.WithContext(ctx).Model(&DBPurchase{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Either the purchase does not exist or it was not in an expected
		// status; re-read to tell the two apart.
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidStateTransition
	}

	return r.FindByID(ctx, id)
}

// SetExternalRef implements domain.PurchaseRepository
func (r *PurchaseRepositoryImpl) SetExternalRef(ctx context.Context, id, externalRef string) error {
	return r.db.WithContext(ctx).Model(&DBPurchase{}).
		Where("id = ?", id).
		Update("external_payment_ref", externalRef).Error
}

// FindStalePending implements domain.PurchaseRepository
func (r *PurchaseRepositoryImpl) FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Purchase, error) {
	var dbPurchases []DBPurchase
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(domain.PurchasePending), olderThan).
		Limit(limit).
		Find(&dbPurchases).Error
	if err != nil {
		return nil, err
	}

	purchases := make([]*domain.Purchase, len(dbPurchases))
	for i := range dbPurchases {
		purchases[i] = r.dbToDomain(&dbPurchases[i])
	}
	return purchases, nil
}

// domainToDB converts domain purchase to database purchase
func (r *PurchaseRepositoryImpl) domainToDB(purchase *domain.Purchase) *DBPurchase {
	dbPurchase := &DBPurchase{
		ID:             purchase.ID,
		ContentID:      purchase.ContentID,
		BuyerSessionID: purchase.BuyerSessionID,
		Email:          purchase.Email,
		Phone:          purchase.Phone,
		AmountCents:    purchase.AmountCents,
		Currency:       purchase.Currency,
		Status:         string(purchase.Status),
		CompletedAt:    purchase.CompletedAt,
	}
	if purchase.ExternalPaymentRef != "" {
		ref := purchase.ExternalPaymentRef
		dbPurchase.ExternalPaymentRef = &ref
	}
	return dbPurchase
}

// dbToDomain converts database purchase to domain purchase
func (r *PurchaseRepositoryImpl) dbToDomain(dbPurchase *DBPurchase) *domain.Purchase {
	purchase := &domain.Purchase{
		ID:             dbPurchase.ID,
		ContentID:      dbPurchase.ContentID,
		BuyerSessionID: dbPurchase.BuyerSessionID,
		Email:          dbPurchase.Email,
		Phone:          dbPurchase.Phone,
		AmountCents:    dbPurchase.AmountCents,
		Currency:       dbPurchase.Currency,
		Status:         domain.PurchaseStatus(dbPurchase.Status),
		CreatedAt:      dbPurchase.CreatedAt,
		CompletedAt:    dbPurchase.CompletedAt,
	}
	if dbPurchase.ExternalPaymentRef != nil {
		purchase.ExternalPaymentRef = *dbPurchase.ExternalPaymentRef
	}
	return purchase
}
