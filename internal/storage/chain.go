package storage

// ChainStores holds all stores for a single chain
type ChainStores struct {
	DB             *PebbleDB
	BlockStore     *BlockStore
	TxStore        *TxStore
	VinStore       *VinStore
	VoutStore      *VoutStore
	AddressStore   *AddressStore
	SyncStore      *SyncStore
	FirstSeenStore *FirstSeenStore
}

// NewChainStores creates all stores for a chain using the given database
func NewChainStores(db *PebbleDB) *ChainStores {
	return &ChainStores{
		DB:             db,
		BlockStore:     NewBlockStore(db),
		TxStore:        NewTxStore(db),
		VinStore:       NewVinStore(db),
		VoutStore:      NewVoutStore(db),
		AddressStore:   NewAddressStore(db),
		SyncStore:      NewSyncStore(db),
		FirstSeenStore: NewFirstSeenStore(db),
	}
}

// Close closes the database
func (cs *ChainStores) Close() error {
	return cs.DB.Close()
}
