// internal/store/bus.go
package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/selbekk/rotfest-crowdsource-app/internal/models"
)

// Event describes a single write to an ImageRecord. Before is nil for
// creates; After is the record as written.
type Event struct {
	Before *models.ImageRecord
	After  *models.ImageRecord
}

// Bus fans record writes out to watchers (per-write before/after events)
// and listeners (full ordered snapshots). Publishing never blocks a
// store write: watcher events queue without bound until the consumer
// takes them, listener channels keep only the latest snapshot.
type Bus struct {
	mu        sync.RWMutex
	pubMu     sync.Mutex
	watchers  map[string]*watcher
	listeners map[string]chan []models.ImageRecord
	closed    bool
}

func NewBus() *Bus {
	return &Bus{
		watchers:  make(map[string]*watcher),
		listeners: make(map[string]chan []models.ImageRecord),
	}
}

// watcher queues record-write events for one consumer. Every event is a
// processing-pipeline input, so none may be dropped: a record whose
// create event is lost would sit in processing forever. The queue grows
// as needed while the consumer is busy and drains in publish order.
type watcher struct {
	mu      sync.Mutex
	pending []Event
	wake    chan struct{}
	out     chan Event
	done    chan struct{}
	stop    sync.Once
}

func newWatcher() *watcher {
	w := &watcher{
		wake: make(chan struct{}, 1),
		out:  make(chan Event),
		done: make(chan struct{}),
	}
	go w.pump()
	return w
}

func (w *watcher) enqueue(evt Event) {
	w.mu.Lock()
	w.pending = append(w.pending, evt)
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// pump moves queued events to the out channel one at a time, in order,
// until the watcher is cancelled.
func (w *watcher) pump() {
	defer close(w.out)
	for {
		w.mu.Lock()
		for len(w.pending) == 0 {
			w.mu.Unlock()
			select {
			case <-w.wake:
			case <-w.done:
				return
			}
			w.mu.Lock()
		}
		evt := w.pending[0]
		w.pending = w.pending[1:]
		w.mu.Unlock()

		select {
		case w.out <- evt:
		case <-w.done:
			return
		}
	}
}

func (w *watcher) cancel() {
	w.stop.Do(func() { close(w.done) })
}

// Watch registers for record-write events. The returned cancel func
// releases the registration and closes the channel; it is safe to call
// more than once.
func (b *Bus) Watch() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	w := newWatcher()
	id := uuid.NewString()
	b.watchers[id] = w

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.watchers[id]; ok {
			delete(b.watchers, id)
			w.cancel()
		}
	}
	return w.out, cancel
}

// Listen registers for full ordered snapshots. The channel holds only
// the most recent snapshot; a slow consumer sees the latest state, not
// every intermediate one.
func (b *Bus) Listen() (<-chan []models.ImageRecord, func()) {
	return b.listen(nil)
}

// listen registers a snapshot listener and, when initial is non-nil,
// seeds the channel with it before any published snapshot can arrive.
func (b *Bus) listen(initial []models.ImageRecord) (chan []models.ImageRecord, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan []models.ImageRecord, 1)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	if initial != nil {
		ch <- initial
	}

	id := uuid.NewString()
	b.listeners[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.listeners[id]; ok {
				delete(b.listeners, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers evt to all watchers and snapshot to all listeners.
func (b *Bus) Publish(evt Event, snapshot []models.ImageRecord) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, w := range b.watchers {
		w.enqueue(evt)
	}

	for _, ch := range b.listeners {
		pushLatest(ch, snapshot)
	}
}

// PublishOrdered captures a snapshot and delivers it while holding the
// publish lock, so two racing writers cannot leave a listener with an
// older snapshot pending after a newer one was already delivered.
func (b *Bus) PublishOrdered(evt Event, snapshot func() []models.ImageRecord) {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	b.Publish(evt, snapshot())
}

// pushLatest replaces whatever snapshot is pending with the new one.
func pushLatest(ch chan []models.ImageRecord, snapshot []models.ImageRecord) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Close shuts the bus down and closes all registered channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, w := range b.watchers {
		delete(b.watchers, id)
		w.cancel()
	}
	for id, ch := range b.listeners {
		delete(b.listeners, id)
		close(ch)
	}
}
