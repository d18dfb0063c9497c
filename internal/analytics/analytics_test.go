package analytics_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ricwein/shurl/internal/analytics"
	astore "github.com/ricwein/shurl/internal/analytics/store"
)

type recordingStore struct {
	mu     sync.Mutex
	events []analytics.VisitEvent
}

func (r *recordingStore) SaveVisitEvent(_ context.Context, event *analytics.VisitEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, *event)

	return nil
}

type channelSubscriber struct {
	msgChan chan *message.Message
}

func (s *channelSubscriber) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	return s.msgChan, nil
}

func (s *channelSubscriber) Close() error {
	return nil
}

func TestVisitConsumer(t *testing.T) {
	t.Run("persists consumed events", func(t *testing.T) {
		sub := &channelSubscriber{msgChan: make(chan *message.Message, 1)}
		recorder := &recordingStore{}

		consumer := analytics.NewVisitConsumer(sub, recorder, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))
		defer func() { _ = consumer.Shutdown() }()

		event := analytics.VisitEvent{
			RedirectID: 7,
			Slug:       "abc",
			VisitedAt:  time.Now().UTC().Truncate(time.Second),
			Origin:     "https://shurl.test",
		}

		payload, err := json.Marshal(event)
		require.NoError(t, err)

		msg := message.NewMessage(uuid.NewString(), payload)
		sub.msgChan <- msg

		select {
		case <-msg.Acked():
		case <-time.After(time.Second):
			t.Fatal("event not acked")
		}

		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		require.Len(t, recorder.events, 1)
		assert.Equal(t, event, recorder.events[0])
	})
}

func TestNoopStore(t *testing.T) {
	t.Run("accepts events without persisting", func(t *testing.T) {
		noop := astore.NewNoop(zap.NewNop())

		err := noop.SaveVisitEvent(context.Background(), &analytics.VisitEvent{Slug: "abc"})

		assert.NoError(t, err)
	})
}
