package events

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type Message struct {
	Topic   string
	Key     string
	Payload []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

// Handler processes one message payload from a subscribed topic.
type Handler func(ctx context.Context, payload []byte) error

// ConsumerWorker polls the consumer on an interval and dispatches each
// message to the handler registered for its topic. Handler errors are
// logged and the message is dropped; redelivery is the upstream dedup
// store's problem, not the worker's.
type ConsumerWorker struct {
	logger    *slog.Logger
	consumer  Consumer
	handlers  map[string]Handler
	interval  time.Duration
	batchSize int
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, handlers map[string]Handler, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger:    logger,
		consumer:  consumer,
		handlers:  handlers,
		interval:  interval,
		batchSize: 50,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, w.batchSize)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		handler, ok := w.handlers[msg.Topic]
		if !ok {
			w.logger.DebugContext(ctx, "no handler for topic",
				"module", "events.consumer_worker",
				"topic", msg.Topic,
			)
			continue
		}
		if err := handler(ctx, msg.Payload); err != nil {
			w.logger.WarnContext(ctx, "message handling failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "handle_message",
				"outcome", "failure",
				"topic", msg.Topic,
				"error", err,
			)
		}
	}
	return nil
}
