package aggregator

import (
	"context"
	"errors"
	"slices"

	"github.com/thanhnp/insight-apis/internal/addressbook"
	"github.com/thanhnp/insight-apis/internal/addrset"
	"github.com/thanhnp/insight-apis/internal/fanout"
	"github.com/thanhnp/insight-apis/internal/logger"
	"github.com/thanhnp/insight-apis/internal/models"
)

// ErrDepositDetection is returned when any address or transaction could not
// be classified. No partial result accompanies it.
var ErrDepositDetection = errors.New("deposit detection failed")

// DetectDeposits returns every output paying one of addrs from a transaction
// in which that address does not also appear as an input. Transactions in
// excluded are skipped without being fetched. Any lookup failure, a missing
// transaction included, fails the whole call.
func (s *Service) DetectDeposits(ctx context.Context, addrs []addrset.Address, excluded []string) ([]models.DepositRecord, error) {
	skip := make(map[string]struct{}, len(excluded))
	for _, txid := range excluded {
		skip[txid] = struct{}{}
	}

	found := make([][]models.DepositRecord, len(addrs))
	indexes := make([]int, len(addrs))
	for i := range indexes {
		indexes[i] = i
	}

	ok := fanout.Every(ctx, indexes, s.cfg.DepositAddressConcurrency, func(ctx context.Context, i int) bool {
		records, ok := s.depositsFor(ctx, addrs[i].String(), skip)
		found[i] = records
		return ok
	})
	if !ok {
		logger.Warn(ctx, "deposit detection failed", "chain", s.chain, "addresses", addrset.Strings(addrs))
		return nil, ErrDepositDetection
	}

	deposits := []models.DepositRecord{}
	for _, records := range found {
		deposits = append(deposits, records...)
	}
	return deposits, nil
}

func (s *Service) depositsFor(ctx context.Context, address string, skip map[string]struct{}) ([]models.DepositRecord, bool) {
	info, err := s.book.Update(ctx, address, addressbook.UpdateOptions{TxLimit: -1, IgnoreCache: true})
	if err != nil {
		logger.Error(ctx, "failed to load address for deposit detection", "chain", s.chain, "address", address, "error", err)
		return nil, false
	}

	txids := info.TxIDs()
	found := make([][]models.DepositRecord, len(txids))
	indexes := make([]int, len(txids))
	for i := range indexes {
		indexes[i] = i
	}

	ok := fanout.Every(ctx, indexes, s.cfg.DepositTxConcurrency, func(ctx context.Context, i int) bool {
		txid := txids[i]
		if _, excluded := skip[txid]; excluded {
			logger.Debug(ctx, "ignoring excluded transaction", "chain", s.chain, "txid", txid)
			return true
		}

		tx, err := s.txs.FetchByID(ctx, txid)
		if err != nil {
			logger.Error(ctx, "failed to fetch transaction for deposit detection", "chain", s.chain, "address", address, "txid", txid, "error", err)
			return false
		}
		found[i] = classify(ctx, tx, address)
		return true
	})
	if !ok {
		return nil, false
	}

	var records []models.DepositRecord
	for _, r := range found {
		records = append(records, r...)
	}
	return records, true
}

// classify returns the outputs of tx that deposit into address.
func classify(ctx context.Context, tx *models.TxDetail, address string) []models.DepositRecord {
	var records []models.DepositRecord
	for _, vout := range tx.Vout {
		addrs := vout.ScriptPubKey.Addresses
		if len(addrs) > 1 {
			logger.Debug(ctx, "output pays more than one address", "txid", tx.TxID, "n", vout.N)
		}
		if !slices.Contains(addrs, address) {
			continue
		}
		if spendsFrom(tx.Vin, address) {
			logger.Debug(ctx, "ignoring outgoing transaction", "txid", tx.TxID, "address", address)
			continue
		}
		records = append(records, models.DepositRecord{
			TxID:          tx.TxID,
			Amount:        vout.Value,
			AmountSat:     vout.ValueSat,
			Confirmations: tx.Confirmations,
			Address:       address,
			Timestamp:     tx.Time,
		})
	}
	return records
}

func spendsFrom(vins []models.VinDetail, address string) bool {
	for _, vin := range vins {
		if vin.Addr == address {
			return true
		}
	}
	return false
}
