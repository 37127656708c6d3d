package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/linklytics/linklytics/internal/app/model"
	infraprom "github.com/linklytics/linklytics/internal/infra/prometheus"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// AccessConsumer drains the access fan-out stream and feeds the traffic
// counters exposed on /metrics.
type AccessConsumer struct {
	js       nats.JetStreamContext
	logger   *zap.Logger
	stopChan chan struct{}
}

// NewAccessConsumer creates a new access announcement consumer.
func NewAccessConsumer(js nats.JetStreamContext, logger *zap.Logger) *AccessConsumer {
	return &AccessConsumer{
		js:       js,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start ensures the stream and durable consumer exist and begins consuming.
func (c *AccessConsumer) Start() error {
	if _, err := c.js.StreamInfo(model.AccessStreamName); err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.AccessStreamName,
			Subjects: []string{model.AccessStreamSubject},
			MaxBytes: model.AccessStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	if _, err := c.js.ConsumerInfo(model.AccessStreamName, model.AccessConsumerName); err != nil {
		_, err = c.js.AddConsumer(model.AccessStreamName, &nats.ConsumerConfig{
			Durable:   model.AccessConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.AccessStreamSubject, model.AccessConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

// Stop ends the consume loop.
func (c *AccessConsumer) Stop() {
	close(c.stopChan)
}

func (c *AccessConsumer) consume(sub *nats.Subscription) {
	for {
		select {
		case <-c.stopChan:
			c.logger.Info("access consumer stopped")
			return
		default:
		}

		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch access announcements", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var announcement model.AccessAnnouncement
			if err := json.Unmarshal(msg.Data, &announcement); err != nil {
				c.logger.Error("failed to unmarshal access announcement", zap.Error(err))
				msg.Nak()
				continue
			}

			infraprom.AccessesConsumedTotal.WithLabelValues(announcement.Device).Inc()

			c.logger.Debug("access announcement consumed",
				zap.String("id", announcement.ID),
				zap.String("short_code", announcement.ShortCode),
				zap.String("device", announcement.Device),
				zap.Time("timestamp", announcement.Timestamp),
			)

			msg.Ack()
		}
	}
}
