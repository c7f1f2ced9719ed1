package goAccount

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher moves events off the request path onto one goroutine that
// feeds the sink. Emit and Close share mu so no send races the channel close.
type auditDispatcher struct {
	sink       AuditSink
	events     chan AuditEvent
	dropIfFull bool
	flushed    chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

// newAuditDispatcher returns nil when auditing is off; a nil dispatcher
// accepts and discards events.
func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled || sink == nil {
		return nil
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}

	d := &auditDispatcher{
		sink:       sink,
		events:     make(chan AuditEvent, size),
		dropIfFull: cfg.DropIfFull,
		flushed:    make(chan struct{}),
	}
	go d.forward()
	return d
}

// forward delivers until the channel is closed and empty.
func (d *auditDispatcher) forward() {
	defer close(d.flushed)
	for event := range d.events {
		d.sink.Emit(context.Background(), event)
	}
}

// Emit queues event. With dropIfFull a full buffer drops the event; otherwise
// Emit waits for room, and an event abandoned by ctx also counts as dropped.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.events <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}
	select {
	case d.events <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	}
}

// Close stops intake, then waits until every queued event reached the sink.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()
	<-d.flushed
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
