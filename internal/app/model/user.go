package model

import (
	"time"

	"github.com/google/uuid"
)

// User owns short links. Identity issuance (OAuth handshake, token minting)
// happens outside this service; here a user only needs to exist for link
// creation and to anchor the delete cascade.
type User struct {
	ID        uuid.UUID `db:"id" gorm:"type:uuid;primaryKey"`
	GoogleID  string    `db:"google_id" gorm:"size:64;uniqueIndex;not null"`
	Email     string    `db:"email" gorm:"size:255;not null"`
	Name      string    `db:"name" gorm:"size:255"`
	Avatar    string    `db:"avatar" gorm:"type:text"`
	CreatedAt time.Time `db:"created_at" gorm:"autoCreateTime"`
}
