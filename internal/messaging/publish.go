// Package messaging provides thin typed helpers over watermill
// publishers and subscribers.
package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Publish sends a typed event to its topic.
type Publish[T any] func(event *T) error

// NewPublishFunc binds a watermill publisher and a topic into a typed
// publish function. Events are JSON-encoded.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode event for %q: %w", topic, err)
		}

		msg := message.NewMessage(uuid.NewString(), payload)

		if err := publisher.Publish(topic, msg); err != nil {
			return fmt.Errorf("publish to %q: %w", topic, err)
		}

		return nil
	}
}
