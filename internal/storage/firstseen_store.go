package storage

import (
	"errors"
	"fmt"
	"strconv"
)

// FirstSeenStore remembers when a transaction was first seen in the mempool
type FirstSeenStore struct {
	db *PebbleDB
}

// NewFirstSeenStore creates a new FirstSeenStore
func NewFirstSeenStore(db *PebbleDB) *FirstSeenStore {
	return &FirstSeenStore{db: db}
}

func firstSeenKey(chain, txid string) []byte {
	return []byte(fmt.Sprintf("%s:%s", chain, txid))
}

// Record stores ts unless a timestamp is already known. It reports whether
// ts was stored.
func (s *FirstSeenStore) Record(chain, txid string, ts int64) (bool, error) {
	if _, err := s.db.Get(CFFirstSeen, firstSeenKey(chain, txid)); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	if err := s.db.Put(CFFirstSeen, firstSeenKey(chain, txid), []byte(strconv.FormatInt(ts, 10))); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the first-seen unix timestamp, or nil when unknown
func (s *FirstSeenStore) Get(chain, txid string) (*int64, error) {
	data, err := s.db.Get(CFFirstSeen, firstSeenKey(chain, txid))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ts, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse first-seen timestamp: %w", err)
	}
	return &ts, nil
}
