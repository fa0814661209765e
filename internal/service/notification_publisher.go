package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	commonredis "github.com/undesputed/senior-care-central-sub001/common/redis"
	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// NotificationPublisher live fan-out of a stored notification. The row is the source of
// truth; publishers report errors but callers never fail a request on them.
type NotificationPublisher interface {
	Publish(ctx context.Context, n *domain.Notification) error
}

const notificationCreatedEvent = "notification.created"

// StreamPublisher XADDs notifications to a Redis stream.
type StreamPublisher struct {
	client *commonredis.Client
	stream string
}

func NewStreamPublisher(client *commonredis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream}
}

func (p *StreamPublisher) Publish(ctx context.Context, n *domain.Notification) error {
	if _, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, notificationCreatedEvent, n); err != nil {
		return fmt.Errorf("publish to stream %s: %w", p.stream, err)
	}
	return nil
}

// MQTTPublishFunc matches common/mqtt.Client.Publish.
type MQTTPublishFunc func(topic string, retained bool, payload []byte) error

// MQTTPublisher publishes to {prefix}/{role}/{targetId}/notifications.
type MQTTPublisher struct {
	publish MQTTPublishFunc
	prefix  string
}

func NewMQTTPublisher(publish MQTTPublishFunc, prefix string) *MQTTPublisher {
	return &MQTTPublisher{publish: publish, prefix: prefix}
}

// NotificationTopic the per-recipient MQTT topic.
func NotificationTopic(prefix string, n *domain.Notification) string {
	return fmt.Sprintf("%s/%s/%s/notifications", prefix, n.Role, n.TargetID())
}

func (p *MQTTPublisher) Publish(_ context.Context, n *domain.Notification) error {
	if n.TargetID() == "" {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	topic := NotificationTopic(p.prefix, n)
	if err := p.publish(topic, false, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// FanoutPublisher publishes to every target and logs individual failures.
type FanoutPublisher struct {
	targets []NotificationPublisher
	logger  *zap.Logger
}

func NewFanoutPublisher(logger *zap.Logger, targets ...NotificationPublisher) *FanoutPublisher {
	return &FanoutPublisher{targets: targets, logger: logger}
}

func (p *FanoutPublisher) Publish(ctx context.Context, n *domain.Notification) error {
	var firstErr error
	for _, t := range p.targets {
		if err := t.Publish(ctx, n); err != nil {
			p.logger.Warn("Notification fan-out failed",
				zap.String("notification_id", n.NotificationID),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
