package queue

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/solutiontech/gic/pkg/config"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	// Ping reports whether the broker connection is usable.
	Ping() error
	Close() error
}

// New connects the broker selected by queue.provider. "none" (or empty)
// yields a queue that drops every message.
func New(cfg *config.Config, log *zap.Logger) (MessageQueue, error) {
	switch cfg.Queue.Provider {
	case "", "none":
		return NewNoopQueue(log), nil
	case "nats":
		return NewNATSQueue(cfg.NATS, log)
	case "rabbitmq":
		return NewRabbitMQQueue(cfg.RabbitMQ, log)
	default:
		return nil, fmt.Errorf("unknown queue provider: %s", cfg.Queue.Provider)
	}
}

// NoopQueue accepts and discards everything.
type NoopQueue struct {
	log *zap.Logger
}

func NewNoopQueue(log *zap.Logger) *NoopQueue {
	return &NoopQueue{log: log}
}

func (q *NoopQueue) Publish(subject string, data []byte) error {
	q.log.Debug("Event dropped, no broker configured", zap.String("subject", subject), zap.Int("bytes", len(data)))
	return nil
}

func (q *NoopQueue) Subscribe(string, func([]byte) error) error { return nil }
func (q *NoopQueue) Ping() error                                { return nil }
func (q *NoopQueue) Close() error                               { return nil }
