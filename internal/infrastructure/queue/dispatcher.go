package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mvcmarket/marketplace/internal/api/metrics"
	"github.com/mvcmarket/marketplace/internal/core/domain"
	"github.com/mvcmarket/marketplace/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrStopped is returned by Publish once the dispatcher has shut down.
var ErrStopped = errors.New("queue: dispatcher stopped")

// Dispatcher hands catalog events to a sink from a fixed set of workers.
// Events are sharded on CatalogEvent.Key, so events about the same listing
// or user reach the sink in the order they were published.
type Dispatcher struct {
	workers []chan domain.CatalogEvent
	sink    ports.EventPublisher
	log     zerolog.Logger
	wg      sync.WaitGroup

	// mu is held for reading by every enqueue and for writing by stop, so no
	// event lands in a channel after it is closed.
	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.EventPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.CatalogEvent, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.CatalogEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled the dispatcher
// stops accepting events, each worker delivers what is already buffered and
// exits; Wait blocks until then.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(context.WithoutCancel(ctx), i, ch)
	}
	go func() {
		<-ctx.Done()
		d.stop()
	}()
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish enqueues e on the worker responsible for its key. It blocks only
// while that worker's buffer is full and fails with ErrStopped after
// shutdown.
func (d *Dispatcher) Publish(ctx context.Context, e domain.CatalogEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.log.Warn().Str("event_type", string(e.Type)).Str("key", e.Key()).Msg("event rejected after shutdown")
		return ErrStopped
	}

	idx := d.shardIndex(e.Key())
	select {
	case d.workers[idx] <- e:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
		d.mu.Unlock()
	})
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.CatalogEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for event := range ch {
		metrics.EventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
		d.deliver(ctx, id, event)
	}
	metrics.EventsQueueDepth.WithLabelValues(label).Set(0)
}

func (d *Dispatcher) deliver(ctx context.Context, id int, event domain.CatalogEvent) {
	if err := d.sink.Publish(ctx, event); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		d.log.Error().Err(err).
			Str("event_type", string(event.Type)).
			Str("key", event.Key()).
			Int("worker_id", id).
			Msg("event delivery failed")
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "ok").Inc()
}
