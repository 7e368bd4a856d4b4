package surface

import (
	"sort"
	"sync"
)

const subscriberBuffer = 100

// MemorySurface is an in-memory implementation of [Surface].
//
// Writes replace the previous content of the same element. Subscribers
// receive updates via buffered channels (buffer size 100); a full buffer
// drops the update for that subscriber only.
type MemorySurface struct {
	mu       sync.RWMutex
	contents map[string]Content

	subMu       sync.RWMutex
	subscribers map[chan Content]struct{}
}

// NewMemorySurface creates an empty [MemorySurface].
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{
		contents:    make(map[string]Content),
		subscribers: make(map[chan Content]struct{}),
	}
}

// Write stores c under c.ID and fans it out to subscribers.
//
// The notification is sent while holding the write lock so that subscribers
// observe writes in the same order the surface applied them.
func (m *MemorySurface) Write(c Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents[c.ID] = c
	m.notifySubscribers(c)
}

// Get returns the content of the element with the given id.
func (m *MemorySurface) Get(id string) (Content, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contents[id]
	return c, ok
}

// GetAll returns every element's content sorted by id.
//
// The returned slice is a copy; modifications do not affect the surface.
func (m *MemorySurface) GetAll() []Content {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]Content, 0, len(m.contents))
	for _, c := range m.contents {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Subscribe creates a new subscription.
//
// Caller must call [MemorySurface.Unsubscribe] when done to prevent leaks.
func (m *MemorySurface) Subscribe() <-chan Content {
	ch := make(chan Content, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemorySurface) Unsubscribe(ch <-chan Content) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (m *MemorySurface) notifySubscribers(c Content) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- c:
		default:
			// slow subscriber, drop
		}
	}
}
