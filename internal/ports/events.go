package ports

import "context"

// EventPublisher delivers outbox events to the message broker. The partition
// key keeps all events for one profile on one partition so consumers see
// them in write order.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
