package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents an indexed blockchain transaction
type Transaction struct {
	TxID        string    `json:"txid"`
	BlockHash   string    `json:"block_hash"`
	BlockHeight int64     `json:"block_height"`
	Version     int32     `json:"version"`
	LockTime    uint32    `json:"lock_time"`
	Size        int       `json:"size"`
	Sent        int64     `json:"sent"` // sum of outputs, in satoshis
	IsCoinbase  bool      `json:"is_coinbase"`
	Timestamp   time.Time `json:"timestamp"`
	Chain       string    `json:"chain"`
	NumVin      int       `json:"num_vin"`
	NumVout     int       `json:"num_vout"`
}

// TxItem is one entry of a transaction listing: either a full *TxDetail or a
// *DoubleSpendPlaceholder.
type TxItem interface {
	ID() string
}

// TxDetail is a transaction with its inputs and outputs resolved to
// addresses and amounts.
type TxDetail struct {
	TxID          string          `json:"txid"`
	BlockHash     string          `json:"blockhash,omitempty"`
	BlockHeight   int64           `json:"blockheight"`
	Confirmations int64           `json:"confirmations"`
	Time          int64           `json:"time"`
	FirstSeenTs   *int64          `json:"firstSeenTs,omitempty"`
	Version       int32           `json:"version"`
	LockTime      uint32          `json:"locktime"`
	Size          int             `json:"size"`
	IsCoinbase    bool            `json:"isCoinBase,omitempty"`
	Vin           []VinDetail     `json:"vin"`
	Vout          []VoutDetail    `json:"vout"`
	ValueOut      decimal.Decimal `json:"valueOut"`
	ValueIn       decimal.Decimal `json:"valueIn"`
	Fees          decimal.Decimal `json:"fees"`
}

func (t *TxDetail) ID() string { return t.TxID }

// DoubleSpendPlaceholder stands in for a transaction that an address still
// references but whose detail can no longer be found.
type DoubleSpendPlaceholder struct {
	TxID                string `json:"txid"`
	PossibleDoubleSpend bool   `json:"possibleDoubleSpend"`
	FirstSeenTs         *int64 `json:"firstSeenTs,omitempty"`
}

func (p *DoubleSpendPlaceholder) ID() string { return p.TxID }

// SatToCoin converts satoshis to coin units.
func SatToCoin(sat int64) decimal.Decimal {
	return decimal.New(sat, -8)
}
