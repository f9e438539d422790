package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultQueueSize   = 256
	defaultSendTimeout = 10 * time.Second
)

// Dispatcher delivers events on a background goroutine so a slow transport
// never blocks a transition. Events are dropped when the queue is full.
type Dispatcher struct {
	next   Notifier
	queue  chan Event
	logger *zap.Logger

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
	once    sync.Once
}

func NewDispatcher(next Notifier, queueSize int, log *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		next:   next,
		queue:  make(chan Event, queueSize),
		logger: log.Named("notification"),
		done:   make(chan struct{}),
	}
}

// Start launches the delivery goroutine.
func (d *Dispatcher) Start() {
	d.once.Do(func() {
		go d.run()
	})
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), defaultSendTimeout)
		if err := d.next.Notify(ctx, event); err != nil {
			d.logger.Warn("notification delivery failed",
				zap.String("type", event.Type),
				zap.Stringer("recipient", event.Recipient),
				zap.Error(err))
		}
		cancel()
	}
}

// Notify enqueues event and never blocks.
func (d *Dispatcher) Notify(_ context.Context, event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.logger.Warn("dispatcher stopped, dropping notification", zap.String("type", event.Type))
		return nil
	}

	select {
	case d.queue <- event:
	default:
		d.logger.Warn("notification queue full, dropping event",
			zap.String("type", event.Type),
			zap.Stringer("recipient", event.Recipient))
	}
	return nil
}

// Stop stops accepting events and waits until the queue is drained or ctx
// expires.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.Start()
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
