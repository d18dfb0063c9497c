// Package analytics defines the visit event stream: an out-of-band,
// fire-and-forget channel next to the synchronous visit tracker.
package analytics

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"github.com/ricwein/shurl/internal/messaging"
)

// TopicVisitRecorded is the stream topic for visit events.
const TopicVisitRecorded = "visit.recorded"

// VisitEvent is emitted for every resolved request. It deliberately
// carries only the non-personal visit attributes, so the stream stays
// DNT-clean regardless of subscriber behavior.
type VisitEvent struct {
	RedirectID int64     `json:"redirectId"`
	Slug       string    `json:"slug"`
	VisitedAt  time.Time `json:"visitedAt"`
	Origin     string    `json:"origin"`
	DoNotTrack bool      `json:"doNotTrack"`
}

// Store persists consumed visit events.
type Store interface {
	SaveVisitEvent(ctx context.Context, event *VisitEvent) error
}

// NewVisitConsumer builds a consumer that persists visit events into
// store.
func NewVisitConsumer(subscriber message.Subscriber, store Store, logger *zap.Logger) *messaging.Consumer[VisitEvent] {
	return messaging.NewConsumer(subscriber, TopicVisitRecorded,
		func(ctx context.Context, event *VisitEvent) error {
			return store.SaveVisitEvent(ctx, event)
		},
		logger,
	)
}
