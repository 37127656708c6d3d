package service

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/nats-io/nats.go"
)

// AccessPublisher fans recorded accesses out to NATS JetStream.
type AccessPublisher struct {
	js nats.JetStreamContext
}

// NewAccessPublisher creates a new access announcement publisher.
func NewAccessPublisher(js nats.JetStreamContext) *AccessPublisher {
	return &AccessPublisher{js: js}
}

// Announce publishes an announcement for an already-committed access.
func (p *AccessPublisher) Announce(link *model.CachedLink, event *model.AccessEvent) error {
	announcement := model.AccessAnnouncement{
		ID:        uuid.New().String(),
		LinkID:    link.ID,
		ShortCode: link.ShortCode,
		IP:        event.IP,
		OS:        event.OS,
		Device:    event.Device,
		Location:  event.Location,
		Timestamp: event.AccessedAt,
	}

	data, err := json.Marshal(announcement)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.AccessStreamSubject, data)
	return err
}
