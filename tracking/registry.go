package tracking

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// StoreFactory returns the durable storage scoped to one browser client.
// Returning nil means the client gets memory-only identity.
type StoreFactory func(clientID string) KeyValueStore

// Registry holds one Tracker per browser client. Identity survives in the
// client's store; dedup slots live only as long as the Tracker.
type Registry struct {
	writer   EventWriter
	storeFor StoreFactory
	opts     Options

	mu       sync.Mutex
	trackers map[string]*Tracker
}

// NewRegistry builds a Registry. opts.Store is ignored; storeFor supplies
// each client's storage.
func NewRegistry(writer EventWriter, storeFor StoreFactory, opts Options) *Registry {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	return &Registry{
		writer:   writer,
		storeFor: storeFor,
		opts:     opts,
		trackers: make(map[string]*Tracker),
	}
}

// Get returns the client's tracker, creating it on first use.
func (r *Registry) Get(clientID string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.trackers[clientID]; ok {
		return t
	}

	opts := r.opts
	opts.Store = nil
	if r.storeFor != nil {
		opts.Store = r.storeFor(clientID)
	}
	t := NewTracker(r.writer, opts)
	r.trackers[clientID] = t
	log.Debug().Str("client_id", clientID).Msg("Tracker created")
	return t
}

// Reset clears a client's dedup slots. Unknown clients are ignored.
func (r *Registry) Reset(clientID string) {
	r.mu.Lock()
	t, ok := r.trackers[clientID]
	r.mu.Unlock()
	if ok {
		t.Reset()
	}
}

// Sweep drops trackers not used within idle and returns how many were dropped.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.opts.Clock.Now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, t := range r.trackers {
		if t.LastUsed().Before(cutoff) {
			delete(r.trackers, id)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", len(r.trackers)).Msg("Swept idle trackers")
	}
	return removed
}

// Len is the number of live trackers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}

// Wait blocks until in-flight writes of all live trackers finish.
func (r *Registry) Wait() {
	r.mu.Lock()
	trackers := make([]*Tracker, 0, len(r.trackers))
	for _, t := range r.trackers {
		trackers = append(trackers, t)
	}
	r.mu.Unlock()

	for _, t := range trackers {
		t.Wait()
	}
}
