package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/linklytics/linklytics/internal/app/model"
	"gorm.io/gorm"
)

// AccessEventRepository records resolved redirects.
type AccessEventRepository interface {
	// RecordAccess inserts the event and bumps the link's click counter inside
	// one transaction. Either both writes commit or neither is visible, so at
	// quiescence the counter always equals the event count.
	RecordAccess(ctx context.Context, linkID uuid.UUID, event *model.AccessEvent) error
}

type accessEventRepository struct {
	db *gorm.DB
}

// NewAccessEventRepository returns a GORM-backed AccessEventRepository.
func NewAccessEventRepository(db *gorm.DB) AccessEventRepository {
	return &accessEventRepository{db: db}
}

func (r *accessEventRepository) RecordAccess(ctx context.Context, linkID uuid.UUID, event *model.AccessEvent) error {
	event.LinkID = linkID
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		// The increment happens at the store, never read-modify-write:
		// N concurrent accesses advance the counter by exactly N.
		result := tx.Model(&model.Link{}).
			Where("id = ?", linkID).
			UpdateColumn("clicks", gorm.Expr("clicks + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrLinkNotFound
		}
		return nil
	})
}
