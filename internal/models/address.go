package models

import "github.com/shopspring/decimal"

// Address represents an address with balance information
type Address struct {
	Address       string `json:"address"`
	Balance       int64  `json:"balance"` // in satoshis
	TotalReceived int64  `json:"total_received"`
	TotalSent     int64  `json:"total_sent"`
	TxCount       int    `json:"tx_count"`
	Chain         string `json:"chain"`
}

// TxSummary is one transaction in an address history. Ts is the block time;
// FirstSeenTs is when the transaction was first seen in the mempool.
type TxSummary struct {
	TxID        string `json:"txid"`
	FirstSeenTs *int64 `json:"firstSeenTs,omitempty"`
	Ts          *int64 `json:"ts,omitempty"`
}

// SortTs is the timestamp used to order transactions: first-seen when known,
// block time otherwise.
func (s TxSummary) SortTs() int64 {
	if s.FirstSeenTs != nil {
		return *s.FirstSeenTs
	}
	if s.Ts != nil {
		return *s.Ts
	}
	return 0
}

// UTXO is an unspent output owned by an address
type UTXO struct {
	Address       string          `json:"address"`
	TxID          string          `json:"txid"`
	Vout          int             `json:"vout"`
	ScriptPubKey  string          `json:"scriptPubKey"`
	Amount        decimal.Decimal `json:"amount"`
	Satoshis      int64           `json:"satoshis"`
	Height        int64           `json:"height"`
	Confirmations int64           `json:"confirmations"`
}

// AddressInfo is the state of an address after an address book update.
// Transactions is newest first.
type AddressInfo struct {
	Address               string      `json:"addrStr"`
	BalanceSat            int64       `json:"balanceSat"`
	TotalReceivedSat      int64       `json:"totalReceivedSat"`
	TotalSentSat          int64       `json:"totalSentSat"`
	UnconfirmedBalanceSat int64       `json:"unconfirmedBalanceSat"`
	TxApperances          int         `json:"txApperances"`
	Transactions          []TxSummary `json:"transactions,omitempty"`
	Unspent               []UTXO      `json:"-"`
}

// TxIDs returns the ids of Transactions in order
func (a *AddressInfo) TxIDs() []string {
	ids := make([]string, len(a.Transactions))
	for i, tx := range a.Transactions {
		ids[i] = tx.TxID
	}
	return ids
}
