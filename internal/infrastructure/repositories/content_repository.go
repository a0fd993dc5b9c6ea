package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/you/paywallsvc/domain"
)

// ContentRepositoryImpl implements domain.ContentRepository using GORM
type ContentRepositoryImpl struct {
	db *gorm.DB
}

// DBContent represents the database model for ContentItem. Upload and
// storage mechanics live outside this service; only the catalog row needed
// for checkout display, price validation and locator generation is here.
type DBContent struct {
	ID          string `gorm:"primaryKey;size:36"`
	CreatorID   string `gorm:"index;size:36;not null"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"size:2048"`
	PriceCents  int64  `gorm:"not null"`
	Currency    string `gorm:"size:8;not null"`
	ObjectKey   string `gorm:"size:512;not null"`
	Published   bool   `gorm:"index;not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (DBContent) TableName() string {
	return "content_items"
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *gorm.DB) domain.ContentRepository {
	return &ContentRepositoryImpl{db: db}
}

// FindByID implements domain.ContentRepository
func (r *ContentRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	var dbContent DBContent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbContent).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrContentNotFound
		}
		return nil, err
	}

	return &domain.ContentItem{
		ID:          dbContent.ID,
		CreatorID:   dbContent.CreatorID,
		Title:       dbContent.Title,
		Description: dbContent.Description,
		PriceCents:  dbContent.PriceCents,
		Currency:    dbContent.Currency,
		ObjectKey:   dbContent.ObjectKey,
		Published:   dbContent.Published,
		CreatedAt:   dbContent.CreatedAt,
		UpdatedAt:   dbContent.UpdatedAt,
	}, nil
}
