package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/strongbox/pkg/lifecycle"
)

// Dispatcher delivers published events to consumers on a bounded worker pool.
//
// Delivery is at least once with no ordering across files. For a single file,
// deletion supersedes change: publishing FileDeleted cancels in-flight
// FileChanged handling for that file and suppresses later FileChanged events.
type Dispatcher struct {
	cfg       Config
	consumers []Consumer
	logger    *slog.Logger

	queue chan Event
	mu    sync.RWMutex
	open  bool

	tombstones *expirable.LRU[uuid.UUID, struct{}]

	trackMu  sync.Mutex
	inflight map[uuid.UUID]int
	running  map[uuid.UUID]map[uint64]context.CancelFunc
	seq      uint64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDispatcher creates a dispatcher. Events are accepted once Start runs.
func NewDispatcher(cfg *Config, logger *slog.Logger, consumers ...Consumer) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		cfg:        *cfg,
		consumers:  consumers,
		logger:     logger.With("system", "events"),
		queue:      make(chan Event, cfg.QueueSize),
		tombstones: expirable.NewLRU[uuid.UUID, struct{}](cfg.TombstoneSize, nil, cfg.TombstoneTTLDuration()),
		inflight:   make(map[uuid.UUID]int),
		running:    make(map[uuid.UUID]map[uint64]context.CancelFunc),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Subscribe adds consumers. It must be called before Start.
func (d *Dispatcher) Subscribe(consumers ...Consumer) {
	d.consumers = append(d.consumers, consumers...)
}

// Start launches the worker pool and registers a shutdown hook that stops
// intake and drains the queue.
func (d *Dispatcher) Start(lc *lifecycle.Coordinator) error {
	d.Run()

	lc.RegisterCheck("events", lifecycle.ReadinessFunc(d.accepting))
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.logger.Info("draining event queue", "pending", len(d.queue))
		d.Close()
		d.logger.Info("event dispatcher stopped")
	})

	return nil
}

// Run opens intake and starts the workers without lifecycle wiring.
func (d *Dispatcher) Run() {
	d.mu.Lock()
	d.open = true
	d.mu.Unlock()

	g := new(errgroup.Group)
	for range d.cfg.Workers {
		g.Go(func() error {
			for e := range d.queue {
				d.dispatch(e)
			}
			return nil
		})
	}

	go func() {
		g.Wait()
		d.cancel()
		close(d.done)
	}()

	d.logger.Info("event dispatcher started", "workers", d.cfg.Workers, "queue_size", d.cfg.QueueSize)
}

// Close stops intake and waits for queued events to be handled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return
	}
	d.open = false
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}

// Publish enqueues events. Each event waits at most the publish timeout for
// queue space; events that do not fit are reported in the returned error.
func (d *Dispatcher) Publish(events ...Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.open {
		eventsDropped.WithLabelValues("closed").Add(float64(len(events)))
		return ErrClosed
	}

	var errs []error
	for _, e := range events {
		switch e.Kind {
		case FileDeleted:
			d.supersede(e.FileID)
		case FileChanged:
			if d.tombstoned(e.FileID) {
				eventsSuperseded.Inc()
				continue
			}
			d.track(e.FileID, 1)
		}

		if err := d.enqueue(e); err != nil {
			if e.Kind == FileChanged {
				d.track(e.FileID, -1)
			}
			eventsDropped.WithLabelValues("queue_full").Inc()
			errs = append(errs, err)
			continue
		}
		eventsPublished.WithLabelValues(string(e.Kind)).Inc()
	}

	return errors.Join(errs...)
}

// Processing reports whether a FileChanged event for id is queued or running.
func (d *Dispatcher) Processing(id uuid.UUID) bool {
	d.trackMu.Lock()
	defer d.trackMu.Unlock()
	return d.inflight[id] > 0
}

func (d *Dispatcher) accepting() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.open
}

func (d *Dispatcher) enqueue(e Event) error {
	select {
	case d.queue <- e:
		return nil
	default:
	}

	timer := time.NewTimer(d.cfg.PublishTimeoutDuration())
	defer timer.Stop()

	select {
	case d.queue <- e:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s for file %s", ErrQueueFull, e.Kind, e.FileID)
	}
}

func (d *Dispatcher) dispatch(e Event) {
	ctx := d.ctx

	if e.Kind == FileChanged {
		defer d.track(e.FileID, -1)

		var release func()
		ctx, release = d.register(e.FileID)
		defer release()

		if d.tombstoned(e.FileID) {
			eventsSuperseded.Inc()
			return
		}
	}

	for _, c := range d.consumers {
		if ctx.Err() != nil {
			break
		}
		d.deliver(ctx, c, e)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, c Consumer, e Event) {
	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 {
			eventsRetried.WithLabelValues(c.Name()).Inc()
		}
		return c.Handle(ctx, e)
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(d.newBackOff(), d.cfg.MaxRetries), ctx))
	if err == nil {
		eventsDelivered.WithLabelValues(c.Name(), string(e.Kind)).Inc()
		return
	}

	if e.Kind == FileChanged && d.tombstoned(e.FileID) {
		eventsSuperseded.Inc()
		d.logger.Debug("file change superseded by deletion", "consumer", c.Name(), "file_id", e.FileID)
		return
	}

	eventsFailed.WithLabelValues(c.Name(), string(e.Kind)).Inc()
	d.logger.Error(
		"event delivery failed",
		"consumer", c.Name(),
		"kind", e.Kind,
		"file_id", e.FileID,
		"document_id", e.DocumentID,
		"attempts", attempt,
		"error", err,
	)
}

func (d *Dispatcher) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.cfg.InitialBackoffDuration()
	b.MaxInterval = d.cfg.MaxBackoffDuration()
	b.MaxElapsedTime = 0
	return b
}

func (d *Dispatcher) tombstoned(id uuid.UUID) bool {
	if id == uuid.Nil {
		return false
	}
	return d.tombstones.Contains(id)
}

// supersede records a deletion and cancels running change handling for id.
func (d *Dispatcher) supersede(id uuid.UUID) {
	if id == uuid.Nil {
		return
	}
	d.tombstones.Add(id, struct{}{})

	d.trackMu.Lock()
	defer d.trackMu.Unlock()
	for _, cancel := range d.running[id] {
		cancel()
	}
}

func (d *Dispatcher) track(id uuid.UUID, delta int) {
	if id == uuid.Nil {
		return
	}
	d.trackMu.Lock()
	defer d.trackMu.Unlock()

	n := d.inflight[id] + delta
	if n <= 0 {
		delete(d.inflight, id)
		return
	}
	d.inflight[id] = n
}

func (d *Dispatcher) register(id uuid.UUID) (context.Context, func()) {
	ctx, cancel := context.WithCancel(d.ctx)

	d.trackMu.Lock()
	d.seq++
	seq := d.seq
	if d.running[id] == nil {
		d.running[id] = make(map[uint64]context.CancelFunc)
	}
	d.running[id][seq] = cancel
	d.trackMu.Unlock()

	return ctx, func() {
		cancel()
		d.trackMu.Lock()
		delete(d.running[id], seq)
		if len(d.running[id]) == 0 {
			delete(d.running, id)
		}
		d.trackMu.Unlock()
	}
}
