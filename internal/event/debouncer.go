package event

import (
	"sync"
	"time"
)

// Debouncer drops repeated events of one merge request within a time window.
type Debouncer struct {
	window time.Duration
	now    func() time.Time
	seen   map[string]time.Time
	mu     sync.Mutex
}

// NewDebouncer creates a debouncer with the given window. A zero window lets
// every event through.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window: window,
		now:    time.Now,
		seen:   make(map[string]time.Time),
	}
}

// ShouldProcess reports whether e should be processed, and if so records it.
func (d *Debouncer) ShouldProcess(e *Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := e.Key()
	now := d.now()

	if lastSeen, ok := d.seen[key]; ok && now.Sub(lastSeen) < d.window {
		return false
	}

	d.seen[key] = now
	return true
}

// Forget removes e's record so that its next delivery is processed.
func (d *Debouncer) Forget(e *Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, e.Key())
}

// Cleanup removes records older than twice the window.
func (d *Debouncer) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	threshold := d.now().Add(-d.window * 2)
	for key, t := range d.seen {
		if t.Before(threshold) {
			delete(d.seen, key)
		}
	}
}
