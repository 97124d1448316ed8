package events

import "context"

// NoopConsumer stands in for kafka when no brokers are configured, so the
// worker loop can run unchanged in local setups.
type NoopConsumer struct{}

func NewNoopConsumer() *NoopConsumer {
	return &NoopConsumer{}
}

func (n *NoopConsumer) Poll(ctx context.Context, _ int) ([]Message, error) {
	return nil, ctx.Err()
}
