package memo

import (
	"sync"
	"time"
)

type localEntry struct {
	value     interface{}
	expiresAt time.Time
}

func (e localEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// localTier holds produced values as they are, so they come back without
// passing through any encoding.
type localTier struct {
	mu      sync.RWMutex
	entries map[string]localEntry
	now     func() time.Time
}

func newLocalTier() *localTier {
	return &localTier{
		entries: make(map[string]localEntry),
		now:     time.Now,
	}
}

func (l *localTier) get(key string) (interface{}, bool) {
	l.mu.RLock()
	entry, ok := l.entries[key]
	l.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if entry.expired(l.now()) {
		l.mu.Lock()
		if current, ok := l.entries[key]; ok && current.expired(l.now()) {
			delete(l.entries, key)
		}
		l.mu.Unlock()

		return nil, false
	}

	return entry.value, true
}

// set stores value until expiresAt; a zero expiresAt never expires.
func (l *localTier) set(key string, value interface{}, expiresAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[key] = localEntry{value: value, expiresAt: expiresAt}
}

func (l *localTier) delete(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, key)
}
