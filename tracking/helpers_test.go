package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tourismhub/api/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sequenceIDs struct {
	mu sync.Mutex
	n  int
}

func (s *sequenceIDs) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n), nil
}

type failingIDs struct{}

func (failingIDs) NewID() (string, error) { return "", errors.New("entropy unavailable") }

type brokenStore struct{}

func (brokenStore) Get(string) (string, error) { return "", errors.New("storage disabled") }
func (brokenStore) Set(string, string) error  { return errors.New("storage disabled") }

type recordingWriter struct {
	mu     sync.Mutex
	events []*models.AnalyticsEvent
	err    error
}

func (w *recordingWriter) InsertAnalyticsEvent(_ context.Context, ev *models.AnalyticsEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.events = append(w.events, ev)
	return nil
}

func (w *recordingWriter) Events() []*models.AnalyticsEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*models.AnalyticsEvent(nil), w.events...)
}

type panickingWriter struct{}

func (panickingWriter) InsertAnalyticsEvent(context.Context, *models.AnalyticsEvent) error {
	panic("driver exploded")
}

// blockingWriter holds every write until release is closed.
type blockingWriter struct {
	recordingWriter
	release chan struct{}
}

func (w *blockingWriter) InsertAnalyticsEvent(ctx context.Context, ev *models.AnalyticsEvent) error {
	<-w.release
	return w.recordingWriter.InsertAnalyticsEvent(ctx, ev)
}

func newTestTracker(w EventWriter) (*Tracker, *fakeClock, *MemoryStore) {
	clock := newFakeClock()
	store := NewMemoryStore()
	return NewTracker(w, Options{Store: store, Clock: clock, IDs: &sequenceIDs{}}), clock, store
}

func intPtr(n int) *int { return &n }
