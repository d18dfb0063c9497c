package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/ricwein/shurl/internal/analytics"
)

// Noop is an analytics.Store that only logs received events. It keeps
// the consumer runnable without a database.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a logging no-op store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveVisitEvent(_ context.Context, event *analytics.VisitEvent) error {
	n.logger.Info("visit event received",
		zap.Int64("redirectId", event.RedirectID),
		zap.String("slug", event.Slug),
		zap.Time("visitedAt", event.VisitedAt),
		zap.Bool("doNotTrack", event.DoNotTrack),
	)

	return nil
}

// Compile-time check.
var _ analytics.Store = (*Noop)(nil)
