package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/ports"
)

// EventPublisher turns lifecycle events into JSON messages on
// "<prefix>.<event type>".
type EventPublisher struct {
	queue  MessageQueue
	prefix string
	log    *zap.Logger
}

var _ ports.EventPublisher = (*EventPublisher)(nil)

func NewEventPublisher(q MessageQueue, prefix string, log *zap.Logger) *EventPublisher {
	return &EventPublisher{queue: q, prefix: prefix, log: log}
}

// Subject is the topic an event of the given type is published on.
func (p *EventPublisher) Subject(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *EventPublisher) Publish(ctx context.Context, evt domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	subject := p.Subject(evt.Type)
	if err := p.queue.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	p.log.Debug("Event published", zap.String("subject", subject), zap.String("customer_id", evt.CustomerID))
	return nil
}
