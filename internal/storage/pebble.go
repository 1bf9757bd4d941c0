package storage

import (
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
)

// Column families, simulated with key prefixes
const (
	CFBlocks         = "blk:"
	CFBlocksByHeight = "bht:"
	CFBlockTxs       = "btx:"
	CFTransactions   = "txn:"
	CFVins           = "vin:"
	CFVouts          = "vot:"
	CFAddresses      = "adr:"
	CFAddressVins    = "avi:"
	CFAddressVouts   = "avo:"
	CFSyncState      = "syn:"
	CFFirstSeen      = "fsn:"
)

var knownCFs = map[string]bool{
	CFBlocks:         true,
	CFBlocksByHeight: true,
	CFBlockTxs:       true,
	CFTransactions:   true,
	CFVins:           true,
	CFVouts:          true,
	CFAddresses:      true,
	CFAddressVins:    true,
	CFAddressVouts:   true,
	CFSyncState:      true,
	CFFirstSeen:      true,
}

// ErrNotFound is returned by the typed stores when a record does not exist
var ErrNotFound = errors.New("not found")

// PebbleDB wraps the Pebble database
type PebbleDB struct {
	db       *pebble.DB
	bulkMode bool // NoSync writes while catching up; Flush at checkpoints
}

// Batch groups writes that must land atomically
type Batch struct {
	batch *pebble.Batch
	db    *PebbleDB
}

// NewPebbleDB opens (creating if needed) a Pebble database at path
func NewPebbleDB(path string) (*PebbleDB, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	opts := &pebble.Options{
		Cache:        pebble.NewCache(256 << 20),
		MaxOpenFiles: 500,
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &PebbleDB{db: db}, nil
}

// Close closes the database
func (p *PebbleDB) Close() error {
	return p.db.Close()
}

// SetBulkMode toggles NoSync writes. Callers must Flush at checkpoints.
func (p *PebbleDB) SetBulkMode(enabled bool) {
	p.bulkMode = enabled
}

// Flush forces memtables to disk
func (p *PebbleDB) Flush() error {
	return p.db.Flush()
}

func (p *PebbleDB) writeOptions() *pebble.WriteOptions {
	if p.bulkMode {
		return pebble.NoSync
	}
	return pebble.Sync
}

func cfKey(cf string, key []byte) ([]byte, error) {
	if !knownCFs[cf] {
		return nil, fmt.Errorf("column family not found: %s", cf)
	}
	full := make([]byte, 0, len(cf)+len(key))
	full = append(full, cf...)
	return append(full, key...), nil
}

// Put stores a key-value pair in the specified column family
func (p *PebbleDB) Put(cf string, key, value []byte) error {
	k, err := cfKey(cf, key)
	if err != nil {
		return err
	}
	return p.db.Set(k, value, p.writeOptions())
}

// Get retrieves a value; a missing key yields ErrNotFound
func (p *PebbleDB) Get(cf string, key []byte) ([]byte, error) {
	k, err := cfKey(cf, key)
	if err != nil {
		return nil, err
	}

	value, closer, err := p.db.Get(k)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	// value is only valid until closer.Close()
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Delete removes a key from the specified column family
func (p *PebbleDB) Delete(cf string, key []byte) error {
	k, err := cfKey(cf, key)
	if err != nil {
		return err
	}
	return p.db.Delete(k, p.writeOptions())
}

// NewBatch creates a new write batch
func (p *PebbleDB) NewBatch() *Batch {
	return &Batch{batch: p.db.NewBatch(), db: p}
}

// Put adds a put operation to the batch
func (b *Batch) Put(cf string, key, value []byte) error {
	k, err := cfKey(cf, key)
	if err != nil {
		return err
	}
	return b.batch.Set(k, value, nil)
}

// Delete adds a delete operation to the batch
func (b *Batch) Delete(cf string, key []byte) error {
	k, err := cfKey(cf, key)
	if err != nil {
		return err
	}
	return b.batch.Delete(k, nil)
}

// Commit applies the batch
func (b *Batch) Commit() error {
	return b.batch.Commit(b.db.writeOptions())
}

// Close releases the batch; safe after Commit
func (b *Batch) Close() {
	b.batch.Close()
}

// Scan calls fn for every key under prefix inside cf, in key order. The key
// passed to fn has the column family stripped and, like value, is only valid
// during the call.
func (p *PebbleDB) Scan(cf string, prefix []byte, fn func(key, value []byte) error) error {
	lower, err := cfKey(cf, prefix)
	if err != nil {
		return err
	}

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: prefixUpperBound(lower),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key()[len(cf):], iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// prefixUpperBound returns the smallest key greater than every key with prefix
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
