package database

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

// BadgerClient holds the embedded store backing per-client identity keys.
type BadgerClient struct {
	DB *badger.DB
}

func NewBadgerDB(dir string) (*BadgerClient, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", dir, err)
	}

	log.Info().Str("dir", dir).Msg("Opened identity store")
	return &BadgerClient{DB: db}, nil
}

func (c *BadgerClient) Close() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing identity store")
			return
		}
		log.Info().Msg("Identity store closed")
	}
}
