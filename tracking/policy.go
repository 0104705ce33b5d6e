package tracking

import (
	"regexp"
	"strings"
	"time"

	"tourismhub/api/models"
)

// MinAnonymousDwell is how long an anonymous visitor must have been around
// before their interactions are tracked.
const MinAnonymousDwell = 10 * time.Second

// Owner and operator tooling lives under these prefixes and is never tracked.
var untrackedPrefixes = []string{"/dashboard", "/admin"}

var profilePathPattern = regexp.MustCompile(`^/profile/([^/]+)`)

// Policy decides whether an interaction is tracked at all, before dedup.
type Policy struct {
	identity *IdentityStore
	clock    Clock
}

func NewPolicy(identity *IdentityStore, clock Clock) *Policy {
	if clock == nil {
		clock = SystemClock
	}
	return &Policy{identity: identity, clock: clock}
}

// ShouldTrackPageView rejects dashboard/admin paths and a user viewing their
// own profile. Query string and fragment are ignored.
func (p *Policy) ShouldTrackPageView(path, userID string) bool {
	clean := stripQueryAndFragment(path)
	for _, prefix := range untrackedPrefixes {
		if strings.HasPrefix(clean, prefix) {
			return false
		}
	}
	if userID != "" {
		if m := profilePathPattern.FindStringSubmatch(clean); m != nil && m[1] == userID {
			return false
		}
	}
	return true
}

// IsOwnerView reports whether the viewer owns the content.
func (p *Policy) IsOwnerView(ownerID, userID string) bool {
	return ownerID != "" && userID != "" && ownerID == userID
}

// ShouldTrackAnonymous is false until the visitor's first-seen time is
// recorded and MinAnonymousDwell has passed since. The first call records
// the time and returns false.
func (p *Policy) ShouldTrackAnonymous() bool {
	first, ok := p.identity.AnonymousFirstSeen()
	if !ok {
		p.identity.EnsureAnonymousFirstSeen()
		return false
	}
	return p.clock.Now().Sub(first) >= MinAnonymousDwell
}

// ShouldTrackByRole tracks authenticated tourists only. Visitors without a
// user id go through the anonymous dwell rule.
func (p *Policy) ShouldTrackByRole(userID, role string) bool {
	if userID != "" {
		return role == models.RoleTourist
	}
	return p.ShouldTrackAnonymous()
}

func stripQueryAndFragment(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}
