package features

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultForwardBuffer is the queue length used when NewForwarder is given
// a non-positive size.
const DefaultForwardBuffer = 256

type sighting struct {
	field, value string
}

// Forwarder hands unmapped values to slower observers (the database, the
// event bus) from a background goroutine. Unmapped never blocks: when the
// queue is full the sighting is dropped and counted.
type Forwarder struct {
	queue   chan sighting
	next    []Observer
	logger  *slog.Logger
	dropped atomic.Int64

	once sync.Once
	done chan struct{}
}

func NewForwarder(size int, logger *slog.Logger, next ...Observer) *Forwarder {
	if size <= 0 {
		size = DefaultForwardBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{
		queue:  make(chan sighting, size),
		next:   next,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Unmapped implements Observer.
func (f *Forwarder) Unmapped(field, value string) {
	select {
	case f.queue <- sighting{field, value}:
	default:
		if n := f.dropped.Add(1); n == 1 || n%100 == 0 {
			f.logger.Warn("unmapped value queue full, dropping", "field", field, "dropped", n)
		}
	}
}

// Dropped returns how many sightings were discarded because the queue was full.
func (f *Forwarder) Dropped() int64 {
	return f.dropped.Load()
}

// Run drains the queue until ctx is done, then delivers whatever is still
// queued and returns. It must be called once.
func (f *Forwarder) Run(ctx context.Context) {
	defer f.once.Do(func() { close(f.done) })
	for {
		select {
		case s := <-f.queue:
			f.deliver(s)
		case <-ctx.Done():
			for {
				select {
				case s := <-f.queue:
					f.deliver(s)
				default:
					return
				}
			}
		}
	}
}

// Wait blocks until Run has returned or ctx is done.
func (f *Forwarder) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Forwarder) deliver(s sighting) {
	for _, o := range f.next {
		o.Unmapped(s.field, s.value)
	}
}
