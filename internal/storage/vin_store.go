package storage

import (
	"fmt"

	"github.com/thanhnp/insight-apis/internal/models"
)

// VinStore handles vin storage operations
type VinStore struct {
	db *PebbleDB
}

// NewVinStore creates a new VinStore
func NewVinStore(db *PebbleDB) *VinStore {
	return &VinStore{db: db}
}

func vinKey(chain, txid string, index int) []byte {
	return []byte(fmt.Sprintf("%s:%s:%06d", chain, txid, index))
}

func vinTxPrefix(chain, txid string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chain, txid))
}

// SaveBatch saves multiple vins in a single batch operation
func (s *VinStore) SaveBatch(vins []*models.Vin) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, vin := range vins {
		if err := putJSON(batch, CFVins, vinKey(vin.Chain, vin.TxID, vin.VinIndex), vin); err != nil {
			return err
		}
	}

	return batch.Commit()
}

// GetByTx retrieves all vins of a transaction in input order
func (s *VinStore) GetByTx(chain, txid string) ([]*models.Vin, error) {
	vins, err := scanJSON[models.Vin](s.db, CFVins, vinTxPrefix(chain, txid))
	if err != nil {
		return nil, err
	}
	// TxID is not serialized
	for _, vin := range vins {
		vin.TxID = txid
	}
	return vins, nil
}

// DeleteByTx deletes all vins of a transaction
func (s *VinStore) DeleteByTx(chain, txid string, count int) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for i := 0; i < count; i++ {
		if err := batch.Delete(CFVins, vinKey(chain, txid, i)); err != nil {
			return err
		}
	}

	return batch.Commit()
}
