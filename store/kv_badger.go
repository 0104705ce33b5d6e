package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"tourismhub/api/tracking"
)

const clientKeyPrefix = "client:"

// BadgerKV is a tracking.KeyValueStore scoped to one browser client.
type BadgerKV struct {
	db     *badger.DB
	prefix string
}

func NewBadgerKV(db *badger.DB, clientID string) *BadgerKV {
	return &BadgerKV{db: db, prefix: clientKeyPrefix + clientID + ":"}
}

// BadgerStoreFactory hands each client its own namespace in db.
func BadgerStoreFactory(db *badger.DB) tracking.StoreFactory {
	return func(clientID string) tracking.KeyValueStore {
		return NewBadgerKV(db, clientID)
	}
}

func (s *BadgerKV) Get(key string) (string, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(s.prefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return tracking.ErrKeyNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (s *BadgerKV) Set(key, value string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(s.prefix+key), []byte(value)); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

// Clear removes every key of this client.
func (s *BadgerKV) Clear() error {
	return s.db.DropPrefix([]byte(s.prefix))
}

var _ tracking.KeyValueStore = (*BadgerKV)(nil)
