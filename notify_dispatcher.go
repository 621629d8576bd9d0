package goSession

import (
	"context"
	"sync"
	"sync/atomic"
)

// notificationDispatcher delivers notifications to the sink either inline or
// through a buffered goroutine. Async delivery preserves emission order.
type notificationDispatcher struct {
	cfg       NotificationConfig
	sink      NotificationSink
	ch        chan Notification
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newNotificationDispatcher(cfg NotificationConfig, sink NotificationSink) *notificationDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &notificationDispatcher{
		cfg:  cfg,
		sink: sink,
	}
	if !cfg.Async {
		return d
	}

	if cfg.BufferSize <= 0 {
		d.cfg.BufferSize = 1
	}
	d.ch = make(chan Notification, d.cfg.BufferSize)
	d.done = make(chan struct{})

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *notificationDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case n := <-d.ch:
			d.sink.Notify(context.Background(), n)
		case <-d.done:
			for {
				select {
				case n := <-d.ch:
					d.sink.Notify(context.Background(), n)
				default:
					return
				}
			}
		}
	}
}

// Notify delivers n. In async mode a full buffer either drops n (DropIfFull)
// or blocks until space frees up, ctx ends or the dispatcher closes.
func (d *notificationDispatcher) Notify(ctx context.Context, n Notification) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !d.cfg.Async {
		d.sink.Notify(ctx, n)
		return
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- n:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- n:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.done:
	}
}

// Close drains buffered notifications and stops the delivery goroutine.
func (d *notificationDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		if d.done != nil {
			close(d.done)
			d.wg.Wait()
		}
	})
}

func (d *notificationDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
