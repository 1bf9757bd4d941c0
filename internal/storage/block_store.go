package storage

import (
	"fmt"

	"github.com/thanhnp/insight-apis/internal/models"
)

// BlockStore handles block storage operations
type BlockStore struct {
	db *PebbleDB
}

// NewBlockStore creates a new BlockStore
func NewBlockStore(db *PebbleDB) *BlockStore {
	return &BlockStore{db: db}
}

func blockKey(chain, hash string) []byte {
	return []byte(fmt.Sprintf("%s:%s", chain, hash))
}

// Heights are zero padded so the index iterates in height order
func blockHeightKey(chain string, height int64) []byte {
	return []byte(fmt.Sprintf("%s:%012d", chain, height))
}

// Save stores a block and its height index entry
func (s *BlockStore) Save(block *models.Block) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	if err := putJSON(batch, CFBlocks, blockKey(block.Chain, block.Hash), block); err != nil {
		return err
	}
	if err := batch.Put(CFBlocksByHeight, blockHeightKey(block.Chain, block.Height), []byte(block.Hash)); err != nil {
		return err
	}

	return batch.Commit()
}

// GetByHash retrieves a block by its hash
func (s *BlockStore) GetByHash(chain, hash string) (*models.Block, error) {
	return getJSON[models.Block](s.db, CFBlocks, blockKey(chain, hash))
}

// GetByHeight retrieves the block currently indexed at height
func (s *BlockStore) GetByHeight(chain string, height int64) (*models.Block, error) {
	hash, err := s.db.Get(CFBlocksByHeight, blockHeightKey(chain, height))
	if err != nil {
		return nil, err
	}
	return s.GetByHash(chain, string(hash))
}

// Delete removes a block and its height index entry
func (s *BlockStore) Delete(chain, hash string, height int64) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Delete(CFBlocks, blockKey(chain, hash)); err != nil {
		return err
	}
	if err := batch.Delete(CFBlocksByHeight, blockHeightKey(chain, height)); err != nil {
		return err
	}

	return batch.Commit()
}
