// Package txdb builds full transaction detail out of the chain index.
package txdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/thanhnp/insight-apis/internal/models"
	"github.com/thanhnp/insight-apis/internal/storage"
)

// ErrTxNotFound means the transaction is not in the index. Callers treat it
// differently from storage failures.
var ErrTxNotFound = errors.New("transaction not found")

// DB serves transaction detail for one chain.
type DB struct {
	chain  string
	stores *storage.ChainStores
}

// New creates a DB over chain's stores.
func New(chain string, stores *storage.ChainStores) *DB {
	return &DB{chain: chain, stores: stores}
}

// FetchByID returns the detail of txid, or ErrTxNotFound.
func (d *DB) FetchByID(ctx context.Context, txid string) (*models.TxDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx, err := d.stores.TxStore.Get(d.chain, txid)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", txid, ErrTxNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", txid, err)
	}

	vins, err := d.stores.VinStore.GetByTx(d.chain, txid)
	if err != nil {
		return nil, fmt.Errorf("failed to get inputs of %s: %w", txid, err)
	}
	vouts, err := d.stores.VoutStore.GetByTx(d.chain, txid)
	if err != nil {
		return nil, fmt.Errorf("failed to get outputs of %s: %w", txid, err)
	}
	tip, err := d.stores.SyncStore.GetSyncedHeight(d.chain)
	if err != nil {
		return nil, fmt.Errorf("failed to get synced height: %w", err)
	}
	firstSeen, err := d.stores.FirstSeenStore.Get(d.chain, txid)
	if err != nil {
		return nil, fmt.Errorf("failed to get first-seen time of %s: %w", txid, err)
	}

	detail := &models.TxDetail{
		TxID:          tx.TxID,
		BlockHash:     tx.BlockHash,
		BlockHeight:   tx.BlockHeight,
		Confirmations: confirmations(tip, tx.BlockHeight),
		Time:          tx.Timestamp.Unix(),
		FirstSeenTs:   firstSeen,
		Version:       tx.Version,
		LockTime:      tx.LockTime,
		Size:          tx.Size,
		IsCoinbase:    tx.IsCoinbase,
		Vin:           make([]models.VinDetail, 0, len(vins)),
		Vout:          make([]models.VoutDetail, 0, len(vouts)),
	}

	var valueIn, valueOut int64
	for _, vin := range vins {
		vd := models.VinDetail{
			N:        vin.VinIndex,
			Sequence: vin.Sequence,
		}
		if vin.IsCoinbase() {
			vd.Coinbase = true
		} else {
			vd.TxID = vin.PrevTxID
			vd.Vout = vin.PrevVoutIdx
			vd.Addr = vin.Address
			vd.ValueSat = vin.Value
			vd.Value = models.SatToCoin(vin.Value)
			valueIn += vin.Value
		}
		detail.Vin = append(detail.Vin, vd)
	}

	for _, vout := range vouts {
		addrs := vout.Addresses
		if addrs == nil {
			addrs = []string{}
		}
		detail.Vout = append(detail.Vout, models.VoutDetail{
			N:        vout.VoutIndex,
			Value:    models.SatToCoin(vout.Value),
			ValueSat: vout.Value,
			ScriptPubKey: models.ScriptPubKey{
				Hex:       vout.ScriptPubKey,
				Type:      vout.Type,
				Addresses: addrs,
			},
			SpentTxID: vout.SpentByTxID,
		})
		valueOut += vout.Value
	}

	detail.ValueOut = models.SatToCoin(valueOut)
	if tx.IsCoinbase {
		detail.ValueIn = decimal.Zero
		detail.Fees = decimal.Zero
	} else {
		detail.ValueIn = models.SatToCoin(valueIn)
		detail.Fees = models.SatToCoin(valueIn - valueOut)
	}

	return detail, nil
}

func confirmations(tip, height int64) int64 {
	if tip < 0 || height > tip {
		return 0
	}
	return tip - height + 1
}
