package models

import (
	"time"
)

// Block represents a blockchain block
type Block struct {
	Hash         string    `json:"hash"`
	Height       int64     `json:"height"`
	Version      int32     `json:"version"`
	PreviousHash string    `json:"previous_hash"`
	MerkleRoot   string    `json:"merkle_root"`
	Timestamp    time.Time `json:"timestamp"`
	TxCount      int       `json:"tx_count"`
	Chain        string    `json:"chain"` // "btc" or "ltc"
}

// RawBlock is a block as delivered by a node, already split into the
// records the index stores.
type RawBlock struct {
	Block *Block
	Txs   []*Transaction
	Vins  []*Vin
	Vouts []*Vout
}
