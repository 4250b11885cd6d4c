package outbox

import (
	"fmt"
	"strings"

	"github.com/weglobalmusic/wgme-backend/pkg/config"
	"github.com/weglobalmusic/wgme-backend/pkg/db/models"
	"github.com/weglobalmusic/wgme-backend/pkg/enums"
)

// NonRetryableError signals the publisher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// ResolvedEvent is an outbox row decoded and routed to its topic.
type ResolvedEvent struct {
	Topic    string
	Envelope PayloadEnvelope
}

// TopicRouter maps each event type to the Pub/Sub topic it is published on.
type TopicRouter struct {
	topics map[enums.OutboxEventType]string
}

func NewTopicRouter(cfg config.PubSubConfig) (*TopicRouter, error) {
	topic := strings.TrimSpace(cfg.ReferralTopic)
	if topic == "" {
		return nil, fmt.Errorf("referral topic is required")
	}
	return &TopicRouter{topics: map[enums.OutboxEventType]string{
		enums.EventReferralCodeIssued: topic,
		enums.EventReferralRecorded:   topic,
	}}, nil
}

func (r *TopicRouter) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	topic, ok := r.topics[event.EventType]
	if !ok {
		return nil, NonRetryableError{Err: fmt.Errorf("no topic registered for %s", event.EventType)}
	}
	env, err := DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, NonRetryableError{Err: fmt.Errorf("decode envelope %s: %w", event.ID, err)}
	}
	return &ResolvedEvent{Topic: topic, Envelope: env}, nil
}
