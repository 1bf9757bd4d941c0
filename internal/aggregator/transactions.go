package aggregator

import (
	"context"
	"errors"
	"fmt"

	"github.com/thanhnp/insight-apis/internal/addressbook"
	"github.com/thanhnp/insight-apis/internal/addrset"
	"github.com/thanhnp/insight-apis/internal/fanout"
	"github.com/thanhnp/insight-apis/internal/logger"
	"github.com/thanhnp/insight-apis/internal/models"
	"github.com/thanhnp/insight-apis/internal/txdb"
)

// ListTransactions merges the histories of addrs, newest first, and returns
// the requested window with every entry hydrated. Entries whose detail is
// gone are replaced by a possible double spend placeholder; any other fetch
// failure fails the call.
func (s *Service) ListTransactions(ctx context.Context, addrs []addrset.Address, w Window, ignoreCache bool) (*models.PagedResult, error) {
	opts := addressbook.UpdateOptions{
		TxLimit:       -1,
		IgnoreCache:   ignoreCache,
		IncludeTxInfo: true,
	}
	lists, err := fanout.CollectAll(ctx, addrs, s.cfg.FetchConcurrency,
		func(ctx context.Context, a addrset.Address) ([]models.TxSummary, error) {
			info, err := s.book.Update(ctx, a.String(), opts)
			if err != nil {
				return nil, fmt.Errorf("address %s: %w", a, err)
			}
			return info.Transactions, nil
		})
	if err != nil {
		return nil, err
	}

	txs := merge(lists)
	from, to := w.resolve(len(txs), s.cfg.MaxBatchSize)
	sortNewestFirst(txs)
	page := txs[from:to]

	items, err := fanout.CollectAll(ctx, page, s.cfg.FetchConcurrency, s.hydrate)
	if err != nil {
		return nil, err
	}

	return &models.PagedResult{
		TotalItems: len(txs),
		From:       from,
		To:         to,
		Items:      items,
	}, nil
}

func (s *Service) hydrate(ctx context.Context, summary models.TxSummary) (models.TxItem, error) {
	detail, err := s.txs.FetchByID(ctx, summary.TxID)
	if errors.Is(err, txdb.ErrTxNotFound) {
		logger.Debug(ctx, "transaction no longer indexed", "chain", s.chain, "txid", summary.TxID)
		return &models.DoubleSpendPlaceholder{
			TxID:                summary.TxID,
			PossibleDoubleSpend: true,
			FirstSeenTs:         summary.FirstSeenTs,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", summary.TxID, err)
	}

	if detail.FirstSeenTs == nil && summary.FirstSeenTs != nil {
		detail.FirstSeenTs = summary.FirstSeenTs
	}
	return detail, nil
}

// GetUTXOs returns the unspent outputs of every address, in address order.
func (s *Service) GetUTXOs(ctx context.Context, addrs []addrset.Address, ignoreCache bool) ([]models.UTXO, error) {
	opts := addressbook.UpdateOptions{
		OnlyUnspent: true,
		IgnoreCache: ignoreCache,
	}
	perAddress, err := fanout.CollectAll(ctx, addrs, s.cfg.FetchConcurrency,
		func(ctx context.Context, a addrset.Address) ([]models.UTXO, error) {
			info, err := s.book.Update(ctx, a.String(), opts)
			if err != nil {
				return nil, fmt.Errorf("address %s: %w", a, err)
			}
			return info.Unspent, nil
		})
	if err != nil {
		return nil, err
	}

	utxos := []models.UTXO{}
	for _, list := range perAddress {
		utxos = append(utxos, list...)
	}
	return utxos, nil
}

// Summary returns the balances of a single address and, unless noTxList is
// set, its transaction ids.
func (s *Service) Summary(ctx context.Context, addr addrset.Address, noTxList, ignoreCache bool) (*models.AddressInfo, error) {
	opts := addressbook.UpdateOptions{TxLimit: -1, IgnoreCache: ignoreCache}
	if noTxList {
		opts.TxLimit = 0
	}
	return s.book.Update(ctx, addr.String(), opts)
}

// UTXOs returns the unspent outputs of a single address.
func (s *Service) UTXOs(ctx context.Context, addr addrset.Address, ignoreCache bool) ([]models.UTXO, error) {
	info, err := s.book.Update(ctx, addr.String(), addressbook.UpdateOptions{OnlyUnspent: true, IgnoreCache: ignoreCache})
	if err != nil {
		return nil, err
	}
	if info.Unspent == nil {
		return []models.UTXO{}, nil
	}
	return info.Unspent, nil
}

func (s *Service) balances(ctx context.Context, addr addrset.Address, ignoreCache bool) (*models.AddressInfo, error) {
	return s.book.Update(ctx, addr.String(), addressbook.UpdateOptions{TxLimit: 0, IgnoreCache: ignoreCache})
}

// Balance returns the confirmed balance in satoshis.
func (s *Service) Balance(ctx context.Context, addr addrset.Address, ignoreCache bool) (int64, error) {
	info, err := s.balances(ctx, addr, ignoreCache)
	if err != nil {
		return 0, err
	}
	return info.BalanceSat, nil
}

// TotalReceived returns the satoshis ever received.
func (s *Service) TotalReceived(ctx context.Context, addr addrset.Address, ignoreCache bool) (int64, error) {
	info, err := s.balances(ctx, addr, ignoreCache)
	if err != nil {
		return 0, err
	}
	return info.TotalReceivedSat, nil
}

// TotalSent returns the satoshis ever spent.
func (s *Service) TotalSent(ctx context.Context, addr addrset.Address, ignoreCache bool) (int64, error) {
	info, err := s.balances(ctx, addr, ignoreCache)
	if err != nil {
		return 0, err
	}
	return info.TotalSentSat, nil
}

// UnconfirmedBalance returns the balance change pending in the mempool.
func (s *Service) UnconfirmedBalance(ctx context.Context, addr addrset.Address, ignoreCache bool) (int64, error) {
	info, err := s.balances(ctx, addr, ignoreCache)
	if err != nil {
		return 0, err
	}
	return info.UnconfirmedBalanceSat, nil
}
