package adapter

import "context"

// EventPublisher hands a JSON event to the broker. It returns once the broker
// has accepted the message.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// RoutingKeyJobCreated is the topic the worker tier consumes.
const RoutingKeyJobCreated = "job-created"
