// Package cache provides an in-memory TTL key/value store for computed
// responses, backed by badger.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/danielolaszy/starburst/internal/logging"
)

// Store caches JSON-encoded values until their TTL passes.
type Store struct {
	db  *badger.DB
	now func() time.Time
}

// entry wraps a value with its expiry. badger expires keys with second
// resolution; ExpiresAt is checked on read for millisecond TTLs.
type entry struct {
	ExpiresAt time.Time       `json:"expiresAt"`
	Value     json.RawMessage `json:"value"`
}

// badgerLogger routes badger's internal logs through the application logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error(fmt.Sprintf(format, args...), "component", "cache")
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn(fmt.Sprintf(format, args...), "component", "cache")
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug(fmt.Sprintf(format, args...), "component", "cache")
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug(fmt.Sprintf(format, args...), "component", "cache")
}

// Open creates an empty in-memory store.
func Open() (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithSyncWrites(false).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get decodes the value stored under key into dst. It reports false when
// the key is missing or expired.
func (s *Store) Get(key string, dst interface{}) (bool, error) {
	var e entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if !s.now().Before(e.ExpiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(e.Value, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key for ttl. A non-positive ttl stores nothing.
func (s *Store) Set(key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	data, err := json.Marshal(entry{ExpiresAt: s.now().Add(ttl), Value: raw})
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}

	// Round up so badger never evicts before ExpiresAt.
	badgerTTL := ttl.Truncate(time.Second) + time.Second
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), data).WithTTL(badgerTTL))
	})
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
