package store

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourismhub/api/tracking"
)

func openTestBadger(t *testing.T) *badger.DB {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBadgerKV_GetSet(t *testing.T) {
	kv := NewBadgerKV(openTestBadger(t), "client-1")

	_, err := kv.Get("missing")
	assert.ErrorIs(t, err, tracking.ErrKeyNotFound)

	require.NoError(t, kv.Set("k", "v1"))
	v, err := kv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	require.NoError(t, kv.Set("k", "v2"))
	v, err = kv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

func TestBadgerKV_ClientsAreIsolated(t *testing.T) {
	db := openTestBadger(t)
	factory := BadgerStoreFactory(db)
	a := factory("a")
	b := factory("b")

	require.NoError(t, a.Set("session", "sa"))
	_, err := b.Get("session")
	assert.ErrorIs(t, err, tracking.ErrKeyNotFound)
}

func TestBadgerKV_Clear(t *testing.T) {
	db := openTestBadger(t)
	a := NewBadgerKV(db, "a")
	b := NewBadgerKV(db, "b")
	require.NoError(t, a.Set("k", "1"))
	require.NoError(t, b.Set("k", "2"))

	require.NoError(t, a.Clear())

	_, err := a.Get("k")
	assert.ErrorIs(t, err, tracking.ErrKeyNotFound)
	v, err := b.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestBadgerKV_BacksIdentityAcrossTrackers(t *testing.T) {
	db := openTestBadger(t)

	first := tracking.NewIdentityStore(NewBadgerKV(db, "c"), nil, nil)
	id := first.SessionID()
	first.LandingPath("/welcome")

	second := tracking.NewIdentityStore(NewBadgerKV(db, "c"), nil, nil)
	assert.Equal(t, id, second.SessionID())
	assert.Equal(t, "/welcome", second.LandingPath("/other"))
}
