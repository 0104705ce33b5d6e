package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestPolicy() (*Policy, *fakeClock) {
	clock := newFakeClock()
	ids := NewIdentityStore(NewMemoryStore(), clock, &sequenceIDs{})
	return NewPolicy(ids, clock), clock
}

func TestPolicy_ShouldTrackPageView(t *testing.T) {
	p, _ := newTestPolicy()

	tests := []struct {
		name   string
		path   string
		userID string
		want   bool
	}{
		{"dashboard anonymous", "/dashboard/anything", "", false},
		{"dashboard user", "/dashboard/anything", "u1", false},
		{"dashboard root", "/dashboard", "u1", false},
		{"admin", "/admin/users?page=2", "u9", false},
		{"own profile", "/profile/u1", "u1", false},
		{"own profile with query", "/profile/u1?tab=reviews#top", "u1", false},
		{"own profile subpage", "/profile/u1/reviews", "u1", false},
		{"other profile", "/profile/u1", "u2", true},
		{"profile anonymous", "/profile/u1", "", true},
		{"destination", "/destinations/lake-bled", "u1", true},
		{"home with query", "/?q=dashboard", "", true},
		{"fragment only", "/explore#/dashboard", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ShouldTrackPageView(tt.path, tt.userID))
		})
	}
}

func TestPolicy_IsOwnerView(t *testing.T) {
	p, _ := newTestPolicy()

	assert.True(t, p.IsOwnerView("u1", "u1"))
	assert.False(t, p.IsOwnerView("u1", "u2"))
	assert.False(t, p.IsOwnerView("", ""))
	assert.False(t, p.IsOwnerView("u1", ""))
	assert.False(t, p.IsOwnerView("", "u1"))
}

func TestPolicy_AnonymousDwellGate(t *testing.T) {
	p, clock := newTestPolicy()

	assert.False(t, p.ShouldTrackAnonymous(), "first check records and refuses")
	_, recorded := p.identity.AnonymousFirstSeen()
	assert.True(t, recorded)

	clock.Advance(5 * time.Second)
	assert.False(t, p.ShouldTrackAnonymous())

	clock.Advance(5 * time.Second)
	assert.True(t, p.ShouldTrackAnonymous())

	clock.Advance(time.Hour)
	assert.True(t, p.ShouldTrackAnonymous(), "latch stays open")
}

func TestPolicy_ShouldTrackByRole(t *testing.T) {
	p, clock := newTestPolicy()

	assert.True(t, p.ShouldTrackByRole("u1", "tourist"))
	assert.False(t, p.ShouldTrackByRole("u1", "municipality"))
	assert.False(t, p.ShouldTrackByRole("u1", "developer"))
	assert.False(t, p.ShouldTrackByRole("u1", "admin"))
	assert.False(t, p.ShouldTrackByRole("u1", ""))

	// Authenticated checks never start the anonymous clock.
	_, recorded := p.identity.AnonymousFirstSeen()
	assert.False(t, recorded)

	assert.False(t, p.ShouldTrackByRole("", ""))
	clock.Advance(MinAnonymousDwell)
	assert.True(t, p.ShouldTrackByRole("", ""))
}
