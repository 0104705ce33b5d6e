package tracking

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// KeyPrefix namespaces every identity key in client storage.
const KeyPrefix = "tourismhub_analytics_"

const (
	sessionIDKey     = KeyPrefix + "session_id"
	landingPathKey   = KeyPrefix + "landing_path"
	anonFirstSeenKey = KeyPrefix + "anon_first_seen"
)

// IdentityStore remembers the session id, the first path ever seen and when an
// anonymous visitor was first observed. It never returns errors: if the
// backing store is missing or failing, values are kept in memory only.
type IdentityStore struct {
	store KeyValueStore
	clock Clock
	ids   IDGenerator

	mu        sync.Mutex
	ephemeral map[string]string
}

// NewIdentityStore builds an IdentityStore. A nil store means no durable
// storage is available; nil clock and ids default to the system clock and uuid.
func NewIdentityStore(store KeyValueStore, clock Clock, ids IDGenerator) *IdentityStore {
	if clock == nil {
		clock = SystemClock
	}
	if ids == nil {
		ids = UUIDGenerator
	}
	return &IdentityStore{
		store:     store,
		clock:     clock,
		ids:       ids,
		ephemeral: make(map[string]string),
	}
}

// SessionID returns the stored session id, creating and storing one if absent.
func (s *IdentityStore) SessionID() string {
	if v, ok := s.get(sessionIDKey); ok && v != "" {
		return v
	}
	id := s.newID()
	s.set(sessionIDKey, id)
	return id
}

// LandingPath returns the stored landing path. When none is stored yet,
// current is stored and returned. Once set it is never replaced.
func (s *IdentityStore) LandingPath(current string) string {
	if v, ok := s.get(landingPathKey); ok && v != "" {
		return v
	}
	if current == "" {
		return ""
	}
	s.set(landingPathKey, current)
	return current
}

// PeekLandingPath returns the stored landing path without setting one.
func (s *IdentityStore) PeekLandingPath() (string, bool) {
	v, ok := s.get(landingPathKey)
	return v, ok && v != ""
}

// AnonymousFirstSeen returns when an anonymous visitor was first observed.
// Absent or unparsable values report false.
func (s *IdentityStore) AnonymousFirstSeen() (time.Time, bool) {
	v, ok := s.get(anonFirstSeenKey)
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// EnsureAnonymousFirstSeen records the current time if no valid timestamp exists.
func (s *IdentityStore) EnsureAnonymousFirstSeen() {
	if _, ok := s.AnonymousFirstSeen(); ok {
		return
	}
	s.set(anonFirstSeenKey, strconv.FormatInt(s.clock.Now().UnixMilli(), 10))
}

func (s *IdentityStore) newID() string {
	id, err := s.ids.NewID()
	if err == nil && id != "" {
		return id
	}
	if err != nil {
		log.Warn().Err(err).Msg("Session id generator failed, using timestamp fallback")
	}
	return fmt.Sprintf("%d-%s", s.clock.Now().UnixMilli(), strconv.FormatUint(rand.Uint64(), 36))
}

func (s *IdentityStore) get(key string) (string, bool) {
	if s.store != nil {
		v, err := s.store.Get(key)
		if err == nil {
			return v, true
		}
		if errors.Is(err, ErrKeyNotFound) {
			return "", false
		}
		log.Warn().Err(err).Str("key", key).Msg("Identity storage read failed, using memory")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.ephemeral[key]
	return v, ok
}

// set keeps a memory copy of every value. get falls back to it only when the
// store errors, never when the store reports the key missing.
func (s *IdentityStore) set(key, value string) {
	s.mu.Lock()
	s.ephemeral[key] = value
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	if err := s.store.Set(key, value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Identity storage write failed, keeping value in memory")
	}
}
