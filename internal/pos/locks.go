package pos

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// orderLocks serializes mutations per order id. Each order gets a
// single-slot semaphore: one mutation runs at a time, queued callers enter
// in arrival order, and operations on different orders never contend.
// A caller that cannot take the slot within the timeout fails with the busy
// kind and has had no effect; a caller that took the slot runs to completion.
type orderLocks struct {
	mu      sync.Mutex
	slots   map[uuid.UUID]*orderSlot
	timeout time.Duration
}

type orderSlot struct {
	ch   chan struct{}
	refs int
}

func newOrderLocks(timeout time.Duration) *orderLocks {
	return &orderLocks{
		slots:   make(map[uuid.UUID]*orderSlot),
		timeout: timeout,
	}
}

// acquire takes the order's slot, waiting up to the configured timeout or
// the caller's context, whichever ends first. The returned release must be
// called exactly once.
func (l *orderLocks) acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[id]
	if !ok {
		slot = &orderSlot{ch: make(chan struct{}, 1)}
		l.slots[id] = slot
	}
	slot.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case slot.ch <- struct{}{}:
		return func() {
			<-slot.ch
			l.put(id, slot)
		}, nil
	case <-ctx.Done():
		l.put(id, slot)
		return nil, Errf(KindBusy, "order %s is busy", id)
	case <-timer.C:
		l.put(id, slot)
		return nil, Errf(KindBusy, "order %s is busy", id)
	}
}

func (l *orderLocks) put(id uuid.UUID, slot *orderSlot) {
	l.mu.Lock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, id)
	}
	l.mu.Unlock()
}
