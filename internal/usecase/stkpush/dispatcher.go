package stkpush

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrDispatcherClosed = errors.New("dispatcher closed")

type Task func(ctx context.Context)

// Dispatcher runs tasks off the caller's goroutine. Tasks sharing a key run
// one at a time in submission order; different keys run concurrently.
type Dispatcher struct {
	mu     sync.Mutex
	queues map[string][]Task
	closed bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		queues: make(map[string][]Task),
		ctx:    ctx,
		cancel: cancel,
		log:    log.Named("dispatcher"),
	}
}

// Submit queues task under key and returns without waiting for it.
func (d *Dispatcher) Submit(key string, task Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	q, running := d.queues[key]
	d.queues[key] = append(q, task)
	if !running {
		d.wg.Add(1)
		go d.drain(key)
	}
	return nil
}

// drain owns key until its queue is empty. The map entry exists exactly
// while a drainer runs.
func (d *Dispatcher) drain(key string) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[key]
		if len(q) == 0 {
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		task := q[0]
		q[0] = nil
		d.queues[key] = q[1:]
		d.mu.Unlock()

		d.run(key, task)
	}
}

func (d *Dispatcher) run(key string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("task panicked", zap.String("key", key), zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	task(d.ctx)
}

// Pending reports the number of queued tasks not yet started.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, q := range d.queues {
		n += len(q)
	}
	return n
}

// Close stops intake and waits for queued tasks. When ctx ends first the
// task context is cancelled and ctx.Err is returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}
