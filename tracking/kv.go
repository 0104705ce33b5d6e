package tracking

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrKeyNotFound is returned by KeyValueStore.Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the durable per-browser string storage the identity keys live in.
type KeyValueStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces random opaque identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type uuidGenerator struct{}

func (uuidGenerator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// UUIDGenerator produces random (v4) UUID strings.
var UUIDGenerator IDGenerator = uuidGenerator{}

// MemoryStore is a KeyValueStore kept in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Clear drops every key, as if browser storage had been wiped.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
}

var _ KeyValueStore = (*MemoryStore)(nil)
