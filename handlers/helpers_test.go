package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"tourismhub/api/middleware"
	"tourismhub/api/models"
	"tourismhub/api/store"
	"tourismhub/api/tracking"
	"tourismhub/api/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

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

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*models.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, email string, hash []byte, role string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[email]; ok {
		return nil, store.ErrUserExists
	}
	u := &models.User{ID: "user-" + email, Email: email, Role: role, HashedPassword: hash, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

type fakeStats struct {
	lastOwner    string
	lastInterval string
	err          error
}

func (f *fakeStats) GetEventCountsOverTime(_ context.Context, interval string, start, _ time.Time, eventName string) ([]models.EventCountByTime, error) {
	f.lastInterval = interval
	if f.err != nil {
		return nil, f.err
	}
	return []models.EventCountByTime{{Time: start, EventName: &eventName, Count: 4}}, nil
}

func (f *fakeStats) GetUniqueSessionsOverTime(_ context.Context, interval string, start, _ time.Time) ([]models.EventCountByTime, error) {
	f.lastInterval = interval
	return []models.EventCountByTime{{Time: start, Count: 2}}, f.err
}

func (f *fakeStats) GetTopNPagePaths(context.Context, time.Time, time.Time, uint64) ([]models.TopPathResult, error) {
	return []models.TopPathResult{{PagePath: "/destinations", Count: 9}}, f.err
}

func (f *fakeStats) GetTopSearches(_ context.Context, scope string, _, _ time.Time, _ uint64) ([]models.TopSearchResult, error) {
	return []models.TopSearchResult{{Query: "lake", Scope: scope, Count: 3}}, f.err
}

func (f *fakeStats) GetContentViewsForOwner(_ context.Context, ownerID string, _, _ time.Time) ([]models.ContentViewCount, error) {
	f.lastOwner = ownerID
	return []models.ContentViewCount{{ContentType: "product", ContentID: "p1", Views: 5, Sessions: 4}}, f.err
}

var errBackend = errors.New("backend unavailable")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

type testServer struct {
	router   *gin.Engine
	writer   *recordingWriter
	registry *tracking.Registry
	users    *fakeUsers
	stats    *fakeStats
	issuer   *utils.JWTIssuer
	clock    *fakeClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		writer: &recordingWriter{},
		users:  newFakeUsers(),
		stats:  &fakeStats{},
		issuer: utils.NewJWTIssuer([]byte("test-secret"), time.Hour),
		clock:  &fakeClock{now: time.Now()},
	}
	ts.registry = tracking.NewRegistry(ts.writer, func(string) tracking.KeyValueStore {
		return tracking.NewMemoryStore()
	}, tracking.Options{Clock: ts.clock})
	ts.router = NewRouter(RouterConfig{
		Auth:    NewAuthHandlers(ts.users, ts.issuer, false),
		Track:   NewTrackHandlers(ts.registry),
		Stats:   NewStatsHandlers(ts.stats),
		Issuer:  ts.issuer,
		Origins: []string{"http://localhost:3000"},
	})
	return ts
}

func (ts *testServer) token(t *testing.T, id, role string) string {
	t.Helper()
	tok, err := ts.issuer.GenerateJWT(&models.User{ID: id, Email: id + "@example.com", Role: role})
	require.NoError(t, err)
	return tok
}

type requestOpt func(*http.Request)

func withToken(tok string) requestOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func withClient(id string) requestOpt {
	return func(r *http.Request) { r.Header.Set(middleware.ClientHeaderName, id) }
}

func withHeader(k, v string) requestOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (ts *testServer) do(t *testing.T, method, path string, body any, opts ...requestOpt) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
