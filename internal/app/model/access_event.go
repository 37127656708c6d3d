package model

import (
	"time"

	"github.com/google/uuid"
)

// Device classes derived from the user agent.
const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
)

// LocationUnknown is recorded when no geo database is configured or the
// lookup yields nothing.
const LocationUnknown = "Unknown"

// AccessEvent records one resolved redirect. Events are immutable; they are
// removed only by the cascade when their link (or its owner) is deleted.
type AccessEvent struct {
	ID         uuid.UUID `db:"id" gorm:"type:uuid;primaryKey"`
	LinkID     uuid.UUID `db:"link_id" gorm:"type:uuid;not null;index"`
	Link       Link      `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE"`
	IP         string    `db:"ip" gorm:"size:64;not null"`
	UserAgent  string    `db:"user_agent" gorm:"type:text"`
	OS         string    `db:"os" gorm:"size:64;not null"`
	Device     string    `db:"device" gorm:"size:16;not null"`
	Location   string    `db:"location" gorm:"size:128"`
	AccessedAt time.Time `db:"accessed_at" gorm:"index;not null"`
}

// AccessAnnouncement is the JetStream message fanned out after an access has
// been durably recorded. It is informational only; the accounting transaction
// has already committed by the time it is published.
type AccessAnnouncement struct {
	ID        string    `json:"id"`
	LinkID    uuid.UUID `json:"link_id"`
	ShortCode string    `json:"short_code"`
	IP        string    `json:"ip"`
	OS        string    `json:"os"`
	Device    string    `json:"device"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	AccessStreamName     = "ACCESSES"
	AccessStreamSubject  = "accesses.recorded"
	AccessConsumerName   = "access-metrics"
	AccessStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
