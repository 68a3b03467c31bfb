package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/supplytrace/provenance/internal/core/ports"
	"github.com/supplytrace/provenance/internal/pkg/metrics"
)

const (
	defaultWorkers  = 2
	channelBuffer   = 256
	defaultAttempts = 5
	defaultBackoff  = time.Second
)

// Dispatcher retries artifact generation on a fixed set of workers. Product
// ids are sharded by hash so retries for one product never run concurrently.
type Dispatcher struct {
	workers   []chan string
	generator ports.ArtifactGenerator
	attempts  int
	backoff   time.Duration
	log       zerolog.Logger
}

// Option tweaks a Dispatcher.
type Option func(*Dispatcher)

// WithRetry sets the attempt budget per product and the base backoff, which
// doubles after each failure.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(d *Dispatcher) {
		if attempts > 0 {
			d.attempts = attempts
		}
		if backoff > 0 {
			d.backoff = backoff
		}
	}
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, generator ports.ArtifactGenerator, log zerolog.Logger, opts ...Option) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan string, numWorkers),
		generator: generator,
		attempts:  defaultAttempts,
		backoff:   defaultBackoff,
		log:       log.With().Str("component", "artifact_retry").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue schedules a regeneration for productID. It never blocks: when the
// worker's buffer is full the retry is dropped and logged, since the artifact
// can always be regenerated on demand.
func (d *Dispatcher) Enqueue(productID string) {
	idx := d.shardIndex(productID)
	select {
	case d.workers[idx] <- productID:
		metrics.ArtifactQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		d.log.Warn().Str("product_id", productID).Int("worker_id", idx).Msg("retry queue full, dropping")
	}
}

// shardIndex maps a product id deterministically to a worker index.
func (d *Dispatcher) shardIndex(productID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(productID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	depth := metrics.ArtifactQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case productID, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.retry(ctx, id, productID)
		}
	}
}

func (d *Dispatcher) retry(ctx context.Context, id int, productID string) {
	wait := d.backoff
	for attempt := 1; attempt <= d.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		metrics.ArtifactsTotal.WithLabelValues("retried").Inc()
		h, err := d.generator.Generate(ctx, productID)
		if err == nil {
			d.log.Info().Str("product_id", productID).Str("path", h.Path).Int("attempt", attempt).Msg("artifact regenerated")
			return
		}
		d.log.Warn().Err(err).
			Str("product_id", productID).
			Int("worker_id", id).
			Int("attempt", attempt).
			Msg("artifact retry failed")
		wait *= 2
	}
	d.log.Error().Str("product_id", productID).Int("attempts", d.attempts).Msg("artifact retries exhausted")
}
