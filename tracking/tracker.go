package tracking

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tourismhub/api/models"
)

// EventWriter is the backend event store.
type EventWriter interface {
	InsertAnalyticsEvent(ctx context.Context, event *models.AnalyticsEvent) error
}

// Outcome says what a Track call did with the interaction.
type Outcome string

const (
	OutcomeEmitted    Outcome = "emitted"
	OutcomeIneligible Outcome = "ineligible"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeOwnerView  Outcome = "owner_view"
	OutcomeEmptyQuery Outcome = "empty_query"
)

const (
	anonymousRole     = "anonymous"
	anonymousSentinel = "anon"
)

type PageViewInput struct {
	UserID   string
	UserRole string
	PagePath string
}

type SearchInput struct {
	Query       string
	Scope       string
	ResultCount *int
	UserID      string
	UserRole    string
	PagePath    string
	Filters     map[string]any
}

type FilterInput struct {
	Scope       string
	FilterName  string
	FilterValue any
	UserID      string
	UserRole    string
	PagePath    string
	Filters     map[string]any
}

type ContentViewInput struct {
	ContentType string
	ContentID   string
	OwnerID     string
	UserID      string
	UserRole    string
	PagePath    string
}

type ProfileViewInput struct {
	ProfileID string
	UserID    string
	UserRole  string
}

// Options configures a Tracker. Zero values use durable-storage-less
// defaults: memory-only identity, system clock, uuid ids.
type Options struct {
	Store KeyValueStore
	Clock Clock
	IDs   IDGenerator
}

// Tracker turns interactions of one browser client into analytics events.
//
// Eligibility and dedup are decided synchronously under mu, and the dedup slot
// is updated before the write starts. The write itself runs in the background
// with no deadline; its failure is logged and counted, never returned.
type Tracker struct {
	identity *IdentityStore
	policy   *Policy
	writer   EventWriter
	clock    Clock

	mu       sync.Mutex
	slots    dedupSlots
	lastUsed time.Time

	inflight sync.WaitGroup
}

func NewTracker(writer EventWriter, opts Options) *Tracker {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	identity := NewIdentityStore(opts.Store, opts.Clock, opts.IDs)
	return &Tracker{
		identity: identity,
		policy:   NewPolicy(identity, opts.Clock),
		writer:   writer,
		clock:    opts.Clock,
		lastUsed: opts.Clock.Now(),
	}
}

// Identity exposes the client's identity store.
func (t *Tracker) Identity() *IdentityStore { return t.identity }

// Policy exposes the eligibility rules bound to this client's identity.
func (t *Tracker) Policy() *Policy { return t.policy }

func (t *Tracker) TrackPageView(ctx context.Context, in PageViewInput) Outcome {
	return t.run(ctx, models.EventPageView, func() (Outcome, *models.AnalyticsEvent) {
		path := in.PagePath
		if path == "" || !t.policy.ShouldTrackPageView(path, in.UserID) {
			return OutcomeIneligible, nil
		}
		if !t.policy.ShouldTrackByRole(in.UserID, in.UserRole) {
			return OutcomeIneligible, nil
		}
		if !t.slots.markIfNew(categoryPageView, path) {
			return OutcomeDuplicate, nil
		}

		ev := t.newEvent(models.EventPageView, in.UserID, in.UserRole)
		ev.PagePath = &path
		ev.LandingPath = optional(t.identity.LandingPath(path))
		return OutcomeEmitted, ev
	})
}

func (t *Tracker) TrackSearchPerformed(ctx context.Context, in SearchInput) Outcome {
	return t.run(ctx, models.EventSearchPerformed, func() (Outcome, *models.AnalyticsEvent) {
		query := strings.TrimSpace(in.Query)
		if query == "" {
			return OutcomeEmptyQuery, nil
		}
		if !t.policy.ShouldTrackByRole(in.UserID, in.UserRole) {
			return OutcomeIneligible, nil
		}
		key := dedupKey(in.Scope, strings.ToLower(query), countKey(in.ResultCount), in.PagePath)
		if !t.slots.markIfNew(categorySearch, key) {
			return OutcomeDuplicate, nil
		}

		ev := t.newEvent(models.EventSearchPerformed, in.UserID, in.UserRole)
		ev.PagePath = optional(in.PagePath)
		ev.LandingPath = optional(t.identity.LandingPath(in.PagePath))
		ev.SearchQuery = &query
		ev.SearchScope = optional(in.Scope)
		if in.ResultCount != nil {
			n := *in.ResultCount
			ev.SearchResultCount = &n
		}
		ev.Filters = copyFilters(in.Filters)
		return OutcomeEmitted, ev
	})
}

func (t *Tracker) TrackFilterUsage(ctx context.Context, in FilterInput) Outcome {
	return t.run(ctx, models.EventFilterUsed, func() (Outcome, *models.AnalyticsEvent) {
		if !t.policy.ShouldTrackByRole(in.UserID, in.UserRole) {
			return OutcomeIneligible, nil
		}
		key := dedupKey(in.Scope, in.FilterName, stringifyValue(in.FilterValue), in.PagePath)
		if !t.slots.markIfNew(categoryFilter, key) {
			return OutcomeDuplicate, nil
		}

		ev := t.newEvent(models.EventFilterUsed, in.UserID, in.UserRole)
		ev.PagePath = optional(in.PagePath)
		ev.LandingPath = optional(t.identity.LandingPath(in.PagePath))
		ev.SearchScope = optional(in.Scope)
		ev.Filters = copyFilters(in.Filters)
		ev.Filters[in.FilterName] = in.FilterValue
		return OutcomeEmitted, ev
	})
}

// TrackContentView records a destination or product being opened. Owners
// viewing their own content are never tracked.
func (t *Tracker) TrackContentView(ctx context.Context, in ContentViewInput) Outcome {
	return t.run(ctx, models.EventPageView, func() (Outcome, *models.AnalyticsEvent) {
		if t.policy.IsOwnerView(in.OwnerID, in.UserID) {
			return OutcomeOwnerView, nil
		}
		if !t.policy.ShouldTrackByRole(in.UserID, in.UserRole) {
			return OutcomeIneligible, nil
		}
		key := dedupKey(in.ContentType, in.ContentID, userOrAnon(in.UserID))
		if !t.slots.markIfNew(categoryContent, key) {
			return OutcomeDuplicate, nil
		}

		path := in.PagePath
		if path == "" {
			path = fmt.Sprintf("modal:%s:%s", in.ContentType, in.ContentID)
		}
		ev := t.newEvent(models.EventPageView, in.UserID, in.UserRole)
		ev.PagePath = &path
		ev.LandingPath = t.peekLanding()
		ev.Metadata["content_type"] = in.ContentType
		ev.Metadata["content_id"] = in.ContentID
		if in.OwnerID != "" {
			ev.Metadata["owner_id"] = in.OwnerID
		}
		return OutcomeEmitted, ev
	})
}

func (t *Tracker) TrackProfileView(ctx context.Context, in ProfileViewInput) Outcome {
	return t.run(ctx, models.EventPageView, func() (Outcome, *models.AnalyticsEvent) {
		if t.policy.IsOwnerView(in.ProfileID, in.UserID) {
			return OutcomeOwnerView, nil
		}
		if !t.policy.ShouldTrackByRole(in.UserID, in.UserRole) {
			return OutcomeIneligible, nil
		}
		key := dedupKey("profile", in.ProfileID, userOrAnon(in.UserID))
		if !t.slots.markIfNew(categoryContent, key) {
			return OutcomeDuplicate, nil
		}

		path := "profile:" + in.ProfileID
		ev := t.newEvent(models.EventPageView, in.UserID, in.UserRole)
		ev.PagePath = &path
		ev.LandingPath = t.peekLanding()
		ev.Metadata["content_type"] = "profile"
		ev.Metadata["content_id"] = in.ProfileID
		ev.Metadata["owner_id"] = in.ProfileID
		return OutcomeEmitted, ev
	})
}

// Reset clears the dedup slots, as a full page reload does.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slots.reset()
}

// LastUsed is when a Track call last reached this tracker.
func (t *Tracker) LastUsed() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastUsed
}

// Wait blocks until every write started so far has finished.
func (t *Tracker) Wait() {
	t.inflight.Wait()
}

func (t *Tracker) run(ctx context.Context, name models.EventName, gate func() (Outcome, *models.AnalyticsEvent)) Outcome {
	t.mu.Lock()
	t.lastUsed = t.clock.Now()
	outcome, ev := gate()
	t.mu.Unlock()

	if ev == nil {
		eventsSuppressed.WithLabelValues(string(name), string(outcome)).Inc()
		return outcome
	}
	t.emit(ctx, ev)
	return outcome
}

func (t *Tracker) emit(ctx context.Context, ev *models.AnalyticsEvent) {
	ctx = context.WithoutCancel(ctx)
	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				eventWriteFailures.WithLabelValues(string(ev.EventName)).Inc()
				log.Error().Interface("panic", r).Str("event", string(ev.EventName)).Msg("Event writer panicked")
			}
		}()

		if err := t.writer.InsertAnalyticsEvent(ctx, ev); err != nil {
			eventWriteFailures.WithLabelValues(string(ev.EventName)).Inc()
			log.Error().Err(err).
				Str("event", string(ev.EventName)).
				Str("session_id", ev.SessionID).
				Str("page_path", deref(ev.PagePath)).
				Str("search_query", deref(ev.SearchQuery)).
				Msg("Failed to record analytics event")
			return
		}
		eventsEmitted.WithLabelValues(string(ev.EventName)).Inc()
	}()
}

func (t *Tracker) newEvent(name models.EventName, userID, role string) *models.AnalyticsEvent {
	if role == "" {
		role = anonymousRole
	}
	return &models.AnalyticsEvent{
		EventID:   uuid.NewString(),
		SessionID: t.identity.SessionID(),
		UserID:    optional(userID),
		EventName: name,
		Metadata:  map[string]any{"user_role": role},
		CreatedAt: t.clock.Now().UTC(),
	}
}

func (t *Tracker) peekLanding() *string {
	if v, ok := t.identity.PeekLandingPath(); ok {
		return &v
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func userOrAnon(userID string) string {
	if userID == "" {
		return anonymousSentinel
	}
	return userID
}

func countKey(n *int) string {
	if n == nil {
		return "null"
	}
	return strconv.Itoa(*n)
}

func stringifyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func copyFilters(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
