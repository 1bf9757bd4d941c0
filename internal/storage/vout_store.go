package storage

import (
	"fmt"

	"github.com/thanhnp/insight-apis/internal/models"
)

// VoutStore handles vout storage operations
type VoutStore struct {
	db *PebbleDB
}

// NewVoutStore creates a new VoutStore
func NewVoutStore(db *PebbleDB) *VoutStore {
	return &VoutStore{db: db}
}

func voutKey(chain, txid string, index int) []byte {
	return []byte(fmt.Sprintf("%s:%s:%06d", chain, txid, index))
}

func voutTxPrefix(chain, txid string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chain, txid))
}

// Save stores a single vout
func (s *VoutStore) Save(vout *models.Vout) error {
	return putJSON(s.db, CFVouts, voutKey(vout.Chain, vout.TxID, vout.VoutIndex), vout)
}

// SaveBatch saves multiple vouts in a single batch operation
func (s *VoutStore) SaveBatch(vouts []*models.Vout) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, vout := range vouts {
		if err := putJSON(batch, CFVouts, voutKey(vout.Chain, vout.TxID, vout.VoutIndex), vout); err != nil {
			return err
		}
	}

	return batch.Commit()
}

// Get retrieves a specific vout; ErrNotFound when it is not indexed
func (s *VoutStore) Get(chain, txid string, index int) (*models.Vout, error) {
	vout, err := getJSON[models.Vout](s.db, CFVouts, voutKey(chain, txid, index))
	if err != nil {
		return nil, err
	}
	vout.TxID = txid
	return vout, nil
}

// GetByTx retrieves all vouts of a transaction in output order
func (s *VoutStore) GetByTx(chain, txid string) ([]*models.Vout, error) {
	vouts, err := scanJSON[models.Vout](s.db, CFVouts, voutTxPrefix(chain, txid))
	if err != nil {
		return nil, err
	}
	for _, vout := range vouts {
		vout.TxID = txid
	}
	return vouts, nil
}

// MarkSpent records which input spent the vout
func (s *VoutStore) MarkSpent(chain, txid string, index int, spentByTxID string, spentByVin int) error {
	vout, err := s.Get(chain, txid, index)
	if err != nil {
		return fmt.Errorf("vout %s:%s:%d: %w", chain, txid, index, err)
	}

	vout.Spent = true
	vout.SpentByTxID = spentByTxID
	vout.SpentByVin = spentByVin
	return s.Save(vout)
}

// MarkUnspent clears the spent flag (reorg handling)
func (s *VoutStore) MarkUnspent(chain, txid string, index int) error {
	vout, err := s.Get(chain, txid, index)
	if err != nil {
		return fmt.Errorf("vout %s:%s:%d: %w", chain, txid, index, err)
	}

	vout.Spent = false
	vout.SpentByTxID = ""
	vout.SpentByVin = 0
	return s.Save(vout)
}

// DeleteByTx deletes all vouts of a transaction
func (s *VoutStore) DeleteByTx(chain, txid string, count int) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for i := 0; i < count; i++ {
		if err := batch.Delete(CFVouts, voutKey(chain, txid, i)); err != nil {
			return err
		}
	}

	return batch.Commit()
}
