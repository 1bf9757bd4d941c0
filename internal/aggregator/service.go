// Package aggregator answers questions about a set of addresses at once:
// merged transaction listings, combined unspent outputs and deposit
// detection. It only coordinates its collaborators and holds no state of its
// own between calls.
package aggregator

import (
	"context"

	"github.com/thanhnp/insight-apis/internal/addressbook"
	"github.com/thanhnp/insight-apis/internal/models"
)

// MaxBatchSize is the default ceiling on a listing page.
const MaxBatchSize = 100

// AddressBook loads the state of one address.
type AddressBook interface {
	Update(ctx context.Context, address string, opts addressbook.UpdateOptions) (*models.AddressInfo, error)
}

// TxFetcher loads transaction detail. A missing transaction is reported
// with txdb.ErrTxNotFound.
type TxFetcher interface {
	FetchByID(ctx context.Context, txid string) (*models.TxDetail, error)
}

// Config holds the page size ceiling and the fan-out limits.
type Config struct {
	MaxBatchSize              int
	FetchConcurrency          int
	DepositAddressConcurrency int
	DepositTxConcurrency      int
}

// DefaultConfig returns the production limits.
func DefaultConfig() Config {
	return Config{
		MaxBatchSize:              MaxBatchSize,
		FetchConcurrency:          5,
		DepositAddressConcurrency: 2,
		DepositTxConcurrency:      1,
	}
}

// Service serves one chain.
type Service struct {
	cfg   Config
	book  AddressBook
	txs   TxFetcher
	chain string
}

// New creates a Service. Zero fields of cfg take their default.
func New(chain string, cfg Config, book AddressBook, txs TxFetcher) *Service {
	def := DefaultConfig()
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = def.MaxBatchSize
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = def.FetchConcurrency
	}
	if cfg.DepositAddressConcurrency <= 0 {
		cfg.DepositAddressConcurrency = def.DepositAddressConcurrency
	}
	if cfg.DepositTxConcurrency <= 0 {
		cfg.DepositTxConcurrency = def.DepositTxConcurrency
	}
	return &Service{cfg: cfg, book: book, txs: txs, chain: chain}
}

// Chain returns the chain the service answers for.
func (s *Service) Chain() string { return s.chain }

// FetchTx returns the detail of one transaction.
func (s *Service) FetchTx(ctx context.Context, txid string) (*models.TxDetail, error) {
	return s.txs.FetchByID(ctx, txid)
}
