package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.CatalogEvent
	fail   map[string]bool
}

func (s *recordingSink) Publish(_ context.Context, e domain.CatalogEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[e.Key()] {
		return errors.New("broker down")
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) snapshot() []domain.CatalogEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CatalogEvent(nil), s.events...)
}

func TestDispatcher_PreservesPerKeyOrder(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(4, sink, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < 50; i++ {
		for _, id := range []string{"a", "b", "c"} {
			typ := domain.EventListingCreated
			if i%2 == 1 {
				typ = domain.EventListingDeleted
			}
			require.NoError(t, d.Publish(ctx, domain.CatalogEvent{Type: typ, ListingID: id, ActorID: strconv.Itoa(i)}))
		}
	}

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 150 }, time.Second, 5*time.Millisecond)
	cancel()
	d.Wait()

	next := map[string]int{}
	for _, e := range sink.snapshot() {
		assert.Equal(t, strconv.Itoa(next[e.ListingID]), e.ActorID, "listing %s out of order", e.ListingID)
		next[e.ListingID]++
	}
}

func TestDispatcher_ShardIndexDeterministic(t *testing.T) {
	d := NewDispatcher(8, &recordingSink{}, zerolog.Nop())
	for _, key := range []string{"", "1", "listing-42", "3f2b"} {
		idx := d.shardIndex(key)
		assert.Equal(t, idx, d.shardIndex(key))
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 8)
	}
}

func TestDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, &recordingSink{}, zerolog.Nop())
	assert.Len(t, d.workers, defaultWorkers)
}

func TestDispatcher_FlushesOnShutdown(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(2, sink, zerolog.Nop())

	for i := 0; i < 10; i++ {
		require.NoError(t, d.Publish(context.Background(), domain.CatalogEvent{Type: domain.EventUserRemoved, UserID: strconv.Itoa(i)}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	assert.Len(t, sink.snapshot(), 10)
}

func TestDispatcher_PublishAfterStopFails(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(2, sink, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	require.NoError(t, d.Publish(context.Background(), domain.CatalogEvent{Type: domain.EventListingCreated, ListingID: "early"}))
	cancel()
	d.Wait()

	err := d.Publish(context.Background(), domain.CatalogEvent{Type: domain.EventListingDeleted, ListingID: "late"})
	assert.ErrorIs(t, err, ErrStopped)
	require.Len(t, sink.snapshot(), 1)
	assert.Equal(t, "early", sink.snapshot()[0].ListingID)
}

func TestDispatcher_SinkErrorDoesNotStopWorker(t *testing.T) {
	sink := &recordingSink{fail: map[string]bool{"bad": true}}
	d := NewDispatcher(1, sink, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	require.NoError(t, d.Publish(ctx, domain.CatalogEvent{Type: domain.EventListingCreated, ListingID: "bad"}))
	require.NoError(t, d.Publish(ctx, domain.CatalogEvent{Type: domain.EventListingCreated, ListingID: "good"}))

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	d.Wait()
	assert.Equal(t, "good", sink.snapshot()[0].ListingID)
}

func TestDispatcher_PublishHonoursContextWhenFull(t *testing.T) {
	d := NewDispatcher(1, &recordingSink{}, zerolog.Nop())
	for i := 0; i < channelBuffer; i++ {
		require.NoError(t, d.Publish(context.Background(), domain.CatalogEvent{Type: domain.EventListingCreated, ListingID: "x"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := d.Publish(ctx, domain.CatalogEvent{Type: domain.EventListingCreated, ListingID: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLogSink_NeverFails(t *testing.T) {
	assert.NoError(t, NewLogSink(zerolog.Nop()).Publish(context.Background(), domain.CatalogEvent{Type: domain.EventListingDeleted}))
}
