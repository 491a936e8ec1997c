package pos

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// dedupWindow absorbs client retries of add-item. A token seen within the
// window means the add already happened; the caller gets the current
// snapshot instead of a second line item.
type dedupWindow struct {
	mu     sync.Mutex
	seen   map[dedupKey]time.Time
	window time.Duration
}

type dedupKey struct {
	orderID uuid.UUID
	token   string
}

func newDedupWindow(window time.Duration) *dedupWindow {
	return &dedupWindow{
		seen:   make(map[dedupKey]time.Time),
		window: window,
	}
}

// isDuplicate reports whether the token is live within the window. Expired
// entries are pruned as a side effect.
func (d *dedupWindow) isDuplicate(orderID uuid.UUID, token string) bool {
	if token == "" {
		return false
	}

	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()

	d.prune(now)
	_, ok := d.seen[dedupKey{orderID: orderID, token: token}]
	return ok
}

// record marks a token as used. Called only after the add has been
// committed, so a retry of a failed add is never absorbed.
func (d *dedupWindow) record(orderID uuid.UUID, token string) {
	if token == "" {
		return
	}

	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()

	d.prune(now)
	d.seen[dedupKey{orderID: orderID, token: token}] = now
}

func (d *dedupWindow) prune(now time.Time) {
	for key, at := range d.seen {
		if now.Sub(at) > d.window {
			delete(d.seen, key)
		}
	}
}
