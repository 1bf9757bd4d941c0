package storage

import (
	"fmt"
	"strings"

	"github.com/thanhnp/insight-apis/internal/models"
)

// TxStore handles transaction storage operations
type TxStore struct {
	db *PebbleDB
}

// NewTxStore creates a new TxStore
func NewTxStore(db *PebbleDB) *TxStore {
	return &TxStore{db: db}
}

func txKey(chain, txid string) []byte {
	return []byte(fmt.Sprintf("%s:%s", chain, txid))
}

func blockTxKey(chain, blockHash, txid string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", chain, blockHash, txid))
}

func blockTxPrefix(chain, blockHash string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chain, blockHash))
}

// SaveBatch saves transactions and their block membership in one batch
func (s *TxStore) SaveBatch(txs []*models.Transaction) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, tx := range txs {
		if err := putJSON(batch, CFTransactions, txKey(tx.Chain, tx.TxID), tx); err != nil {
			return err
		}
		if err := batch.Put(CFBlockTxs, blockTxKey(tx.Chain, tx.BlockHash, tx.TxID), nil); err != nil {
			return err
		}
	}

	return batch.Commit()
}

// Get retrieves a transaction by its ID; ErrNotFound when it is not indexed
func (s *TxStore) Get(chain, txid string) (*models.Transaction, error) {
	return getJSON[models.Transaction](s.db, CFTransactions, txKey(chain, txid))
}

// GetIDsByBlock lists the ids of the transactions indexed under a block
func (s *TxStore) GetIDsByBlock(chain, blockHash string) ([]string, error) {
	prefix := blockTxPrefix(chain, blockHash)
	var ids []string
	err := s.db.Scan(CFBlockTxs, prefix, func(key, _ []byte) error {
		ids = append(ids, strings.TrimPrefix(string(key), string(prefix)))
		return nil
	})
	return ids, err
}

// Delete removes a transaction and its block membership
func (s *TxStore) Delete(tx *models.Transaction) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Delete(CFTransactions, txKey(tx.Chain, tx.TxID)); err != nil {
		return err
	}
	if err := batch.Delete(CFBlockTxs, blockTxKey(tx.Chain, tx.BlockHash, tx.TxID)); err != nil {
		return err
	}

	return batch.Commit()
}
