// Package addressbook answers address queries (history, balances, unspent
// outputs) from the chain index, optionally through a cache.
package addressbook

import (
	"context"
	"fmt"
	"sort"

	"github.com/thanhnp/insight-apis/internal/logger"
	"github.com/thanhnp/insight-apis/internal/models"
	"github.com/thanhnp/insight-apis/internal/storage"
)

// UpdateOptions selects what an Update fills in.
type UpdateOptions struct {
	// TxLimit caps the transaction list: -1 is unlimited, 0 suppresses it.
	TxLimit int
	// OnlyUnspent skips the transaction list and only loads unspent outputs.
	OnlyUnspent bool
	// IgnoreCache reads straight from the index.
	IgnoreCache bool
	// IncludeTxInfo keeps the timestamps on each transaction summary.
	IncludeTxInfo bool
}

// Cache stores computed address state between requests.
type Cache interface {
	Get(ctx context.Context, chain, address string) (*models.AddressInfo, bool, error)
	Set(ctx context.Context, chain, address string, info *models.AddressInfo) error
}

// Book serves one chain.
type Book struct {
	chain  string
	stores *storage.ChainStores
	cache  Cache
}

// Option configures a Book.
type Option func(*Book)

// WithCache puts c in front of the index.
func WithCache(c Cache) Option {
	return func(b *Book) {
		b.cache = c
	}
}

// New creates a Book reading chain's index.
func New(chain string, stores *storage.ChainStores, opts ...Option) *Book {
	b := &Book{chain: chain, stores: stores}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Update loads the state of address and shapes it according to opts.
func (b *Book) Update(ctx context.Context, address string, opts UpdateOptions) (*models.AddressInfo, error) {
	info, err := b.load(ctx, address, opts.IgnoreCache)
	if err != nil {
		return nil, err
	}
	return shape(info, opts), nil
}

func (b *Book) load(ctx context.Context, address string, ignoreCache bool) (*models.AddressInfo, error) {
	if b.cache != nil && !ignoreCache {
		info, ok, err := b.cache.Get(ctx, b.chain, address)
		if err != nil {
			logger.Warn(ctx, "address cache read failed", "chain", b.chain, "address", address, "error", err)
		} else if ok {
			return info, nil
		}
	}

	info, err := b.fromIndex(address)
	if err != nil {
		return nil, fmt.Errorf("failed to load address %s: %w", address, err)
	}

	if b.cache != nil {
		if err := b.cache.Set(ctx, b.chain, address, info); err != nil {
			logger.Warn(ctx, "address cache write failed", "chain", b.chain, "address", address, "error", err)
		}
	}
	return info, nil
}

func (b *Book) fromIndex(address string) (*models.AddressInfo, error) {
	addr, err := b.stores.AddressStore.Get(b.chain, address)
	if err != nil {
		return nil, err
	}
	tip, err := b.stores.SyncStore.GetSyncedHeight(b.chain)
	if err != nil {
		return nil, err
	}

	voutRefs, err := b.stores.AddressStore.GetVoutReferences(b.chain, address)
	if err != nil {
		return nil, err
	}
	vinRefs, err := b.stores.AddressStore.GetVinReferences(b.chain, address)
	if err != nil {
		return nil, err
	}

	txs := make(map[string]*models.Transaction)
	lookup := func(txid string) (*models.Transaction, error) {
		if tx, ok := txs[txid]; ok {
			return tx, nil
		}
		tx, err := b.stores.TxStore.Get(b.chain, txid)
		if err != nil {
			return nil, err
		}
		txs[txid] = tx
		return tx, nil
	}

	info := &models.AddressInfo{
		Address:          address,
		BalanceSat:       addr.Balance,
		TotalReceivedSat: addr.TotalReceived,
		TotalSentSat:     addr.TotalSent,
		TxApperances:     addr.TxCount,
		Transactions:     []models.TxSummary{},
		Unspent:          []models.UTXO{},
	}

	for _, ref := range voutRefs {
		vout, err := b.stores.VoutStore.Get(b.chain, ref.TxID, ref.Index)
		if err != nil {
			return nil, err
		}
		if vout.Spent {
			continue
		}
		tx, err := lookup(ref.TxID)
		if err != nil {
			return nil, err
		}
		info.Unspent = append(info.Unspent, models.UTXO{
			Address:       address,
			TxID:          ref.TxID,
			Vout:          ref.Index,
			ScriptPubKey:  vout.ScriptPubKey,
			Amount:        models.SatToCoin(vout.Value),
			Satoshis:      vout.Value,
			Height:        tx.BlockHeight,
			Confirmations: confirmations(tip, tx.BlockHeight),
		})
	}

	seen := make(map[string]struct{})
	for _, ref := range append(voutRefs, vinRefs...) {
		if _, ok := seen[ref.TxID]; ok {
			continue
		}
		seen[ref.TxID] = struct{}{}

		tx, err := lookup(ref.TxID)
		if err != nil {
			return nil, err
		}
		firstSeen, err := b.stores.FirstSeenStore.Get(b.chain, ref.TxID)
		if err != nil {
			return nil, err
		}
		ts := tx.Timestamp.Unix()
		info.Transactions = append(info.Transactions, models.TxSummary{
			TxID:        ref.TxID,
			FirstSeenTs: firstSeen,
			Ts:          &ts,
		})
	}

	sort.Slice(info.Transactions, func(i, j int) bool {
		a, b := info.Transactions[i], info.Transactions[j]
		if a.SortTs() != b.SortTs() {
			return a.SortTs() > b.SortTs()
		}
		return a.TxID > b.TxID
	})
	sort.SliceStable(info.Unspent, func(i, j int) bool {
		return info.Unspent[i].Height > info.Unspent[j].Height
	})

	return info, nil
}

func confirmations(tip, height int64) int64 {
	if tip < 0 || height > tip {
		return 0
	}
	return tip - height + 1
}

// shape copies info, trimming it to what opts asked for.
func shape(info *models.AddressInfo, opts UpdateOptions) *models.AddressInfo {
	out := *info
	out.Unspent = append([]models.UTXO(nil), info.Unspent...)

	if opts.OnlyUnspent || opts.TxLimit == 0 {
		out.Transactions = nil
		return &out
	}

	txs := info.Transactions
	if opts.TxLimit > 0 && len(txs) > opts.TxLimit {
		txs = txs[:opts.TxLimit]
	}
	out.Transactions = make([]models.TxSummary, len(txs))
	for i, tx := range txs {
		if opts.IncludeTxInfo {
			out.Transactions[i] = tx
		} else {
			out.Transactions[i] = models.TxSummary{TxID: tx.TxID}
		}
	}
	return &out
}
