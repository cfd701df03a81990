package draft

import (
	"sync"

	"chatdraft/backend/internal/models"
)

// ChangeEvent is delivered to listeners after every mutation.
type ChangeEvent struct {
	Elements    []models.MessageElement
	Suggestions *SuggestionFuture
}

// ChangeListener receives change events.
type ChangeListener func(ChangeEvent)

// ListenerHandle identifies a registered listener for removal.
type ListenerHandle uint64

type listenerEntry struct {
	handle ListenerHandle
	fn     ChangeListener
}

// ChangeNotifier fans events out to listeners synchronously, in registration
// order. Events raised while a delivery is in progress (a listener mutating
// the draft) are queued and delivered after it, so every listener sees
// events in mutation order.
type ChangeNotifier struct {
	mu         sync.Mutex
	next       ListenerHandle
	listeners  []listenerEntry
	pending    []ChangeEvent
	delivering bool
}

// Add registers fn and returns its handle.
func (n *ChangeNotifier) Add(fn ChangeListener) ListenerHandle {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	n.listeners = append(n.listeners, listenerEntry{handle: n.next, fn: fn})
	return n.next
}

// Remove unregisters the listener with handle h.
func (n *ChangeNotifier) Remove(h ListenerHandle) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, l := range n.listeners {
		if l.handle == h {
			n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered listeners.
func (n *ChangeNotifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}

// Notify delivers e to every listener. A panicking listener propagates to
// the caller; events still queued behind it are dropped and later calls
// deliver normally.
func (n *ChangeNotifier) Notify(e ChangeEvent) {
	n.mu.Lock()
	n.pending = append(n.pending, e)
	if n.delivering {
		n.mu.Unlock()
		return
	}
	n.delivering = true
	n.mu.Unlock()

	done := false
	defer func() {
		if done {
			return
		}
		n.mu.Lock()
		n.delivering = false
		n.pending = nil
		n.mu.Unlock()
	}()

	for {
		n.mu.Lock()
		if len(n.pending) == 0 {
			n.delivering = false
			n.mu.Unlock()
			done = true
			return
		}
		next := n.pending[0]
		n.pending = n.pending[1:]
		listeners := make([]listenerEntry, len(n.listeners))
		copy(listeners, n.listeners)
		n.mu.Unlock()

		for _, l := range listeners {
			l.fn(next)
		}
	}
}
