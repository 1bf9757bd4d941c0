package models

import "github.com/shopspring/decimal"

// Vin represents a transaction input
type Vin struct {
	TxID        string   `json:"-"` // excluded from API response
	VinIndex    int      `json:"vin_index"`
	PrevTxID    string   `json:"prev_txid"`
	PrevVoutIdx int      `json:"prev_vout_index"`
	ScriptSig   string   `json:"script_sig"`
	Sequence    uint32   `json:"sequence"`
	Witness     []string `json:"witness,omitempty"`
	Address     string   `json:"address,omitempty"` // owner of the spent output, when known
	Value       int64    `json:"value"`             // value of the spent output, in satoshis
	Chain       string   `json:"chain"`
}

// IsCoinbase reports whether the input creates new coins instead of
// spending a previous output.
func (v *Vin) IsCoinbase() bool {
	return v.PrevTxID == "" ||
		v.PrevTxID == "0000000000000000000000000000000000000000000000000000000000000000" ||
		v.PrevVoutIdx == 4294967295
}

// VinDetail is an input as returned in a TxDetail
type VinDetail struct {
	N        int             `json:"n"`
	TxID     string          `json:"txid,omitempty"`
	Vout     int             `json:"vout"`
	Sequence uint32          `json:"sequence"`
	Coinbase bool            `json:"coinbase,omitempty"`
	Addr     string          `json:"addr,omitempty"`
	ValueSat int64           `json:"valueSat"`
	Value    decimal.Decimal `json:"value"`
}
