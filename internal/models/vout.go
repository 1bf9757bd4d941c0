package models

import "github.com/shopspring/decimal"

// Vout represents a transaction output
type Vout struct {
	TxID         string   `json:"-"` // excluded from API response
	VoutIndex    int      `json:"vout_index"`
	Value        int64    `json:"value"` // in satoshis
	ScriptPubKey string   `json:"script_pubkey"`
	Type         string   `json:"type"` // pubkeyhash, scripthash, etc.
	Addresses    []string `json:"addresses"`
	Spent        bool     `json:"spent"`
	SpentByTxID  string   `json:"spent_by_txid,omitempty"`
	SpentByVin   int      `json:"spent_by_vin,omitempty"`
	Chain        string   `json:"chain"`
}

// ScriptPubKey is the output script as returned in a TxDetail
type ScriptPubKey struct {
	Hex       string   `json:"hex"`
	Type      string   `json:"type"`
	Addresses []string `json:"addresses"`
}

// VoutDetail is an output as returned in a TxDetail
type VoutDetail struct {
	N            int             `json:"n"`
	Value        decimal.Decimal `json:"value"`
	ValueSat     int64           `json:"valueSat"`
	ScriptPubKey ScriptPubKey    `json:"scriptPubKey"`
	SpentTxID    string          `json:"spentTxId,omitempty"`
}
