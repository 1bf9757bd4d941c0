package models

import "github.com/shopspring/decimal"

// DepositRecord is an output paying a watched address from a transaction
// that the address did not fund.
type DepositRecord struct {
	TxID          string          `json:"txId"`
	Amount        decimal.Decimal `json:"amount"`
	AmountSat     int64           `json:"amountSat"`
	Confirmations int64           `json:"confirmations"`
	Address       string          `json:"address"`
	Timestamp     int64           `json:"timestamp"`
}
