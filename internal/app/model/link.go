package model

import (
	"time"

	"github.com/google/uuid"
)

// Link maps a short code to its destination URL. The short code is immutable
// once assigned and globally unique; Clicks is mutated only by the access
// recorder's atomic increment.
type Link struct {
	ID          uuid.UUID `db:"id" gorm:"type:uuid;primaryKey"`
	ShortCode   string    `db:"short_code" gorm:"size:64;uniqueIndex;not null"`
	OriginalURL string    `db:"original_url" gorm:"type:text;not null"`
	Topic       string    `db:"topic" gorm:"size:64;index"`
	Clicks      int64     `db:"clicks" gorm:"not null;default:0"`
	UserID      uuid.UUID `db:"user_id" gorm:"type:uuid;not null;index"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `db:"created_at" gorm:"autoCreateTime"`
}

// CachedLink is the identity projection of a Link: the fields that never
// change after creation and are therefore safe to cache. The click counter is
// deliberately absent — it moves on every access and must always be read from
// the store.
type CachedLink struct {
	ID          uuid.UUID `json:"id"`
	ShortCode   string    `json:"shortCode"`
	OriginalURL string    `json:"originalUrl"`
	Topic       string    `json:"topic,omitempty"`
	UserID      uuid.UUID `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Projection returns the cacheable identity subset of the link.
func (l *Link) Projection() *CachedLink {
	return &CachedLink{
		ID:          l.ID,
		ShortCode:   l.ShortCode,
		OriginalURL: l.OriginalURL,
		Topic:       l.Topic,
		UserID:      l.UserID,
		CreatedAt:   l.CreatedAt,
	}
}
