// Package notify delivers user notifications off the request path.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/metrics"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/sirupsen/logrus"
)

// Sink is one delivery channel for notifications.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n model.Notification) error
}

// Store persists notifications so the app can list them.
type Store interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
}

type storeSink struct {
	store Store
}

// StoreSink writes every notification to the notifications table.
func StoreSink(store Store) Sink {
	return storeSink{store: store}
}

func (s storeSink) Name() string { return "store" }

func (s storeSink) Deliver(ctx context.Context, n model.Notification) error {
	return s.store.CreateNotification(ctx, &n)
}

type Config struct {
	Workers      int
	QueueSize    int
	SinkTimeout  time.Duration
	DrainTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.SinkTimeout <= 0 {
		c.SinkTimeout = 10 * time.Second
	}
	return c
}

// Dispatcher queues notifications and hands them to a fixed pool of workers.
// Notify never blocks: when the queue is full the notification is dropped.
type Dispatcher struct {
	cfg   Config
	sinks []Sink
	log   *logrus.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan model.Notification
	wg     sync.WaitGroup
}

func NewDispatcher(cfg Config, log *logrus.Logger, sinks ...Sink) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		cfg:   cfg,
		sinks: sinks,
		log:   log,
		queue: make(chan model.Notification, cfg.QueueSize),
	}
}

// AddSink registers another sink. Call before Start.
func (d *Dispatcher) AddSink(s Sink) {
	d.sinks = append(d.sinks, s)
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n model.Notification) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SinkTimeout)
		err := sink.Deliver(ctx, n)
		cancel()

		if err != nil {
			metrics.RecordNotification("failed")
			d.log.WithError(err).WithFields(logrus.Fields{
				"sink":    sink.Name(),
				"user_id": n.UserID,
				"type":    n.Type,
			}).Warn("notification delivery failed")
			continue
		}
		metrics.RecordNotification("delivered")
	}
}

// Notify implements service.Notifier.
func (d *Dispatcher) Notify(n model.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.RecordNotification("dropped")
		return
	}

	select {
	case d.queue <- n:
		metrics.RecordNotification("queued")
	default:
		metrics.RecordNotification("dropped")
		d.log.WithFields(logrus.Fields{"user_id": n.UserID, "type": n.Type}).Warn("notification queue full, dropping")
	}
}

// Stop refuses new notifications and waits for queued ones to be delivered
// until ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
