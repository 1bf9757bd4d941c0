// Package rpc talks to bitcoind and litecoind over JSON-RPC (HTTP POST mode)
// and turns their block data into index records.
package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/thanhnp/insight-apis/internal/config"
	"github.com/thanhnp/insight-apis/internal/metrics"
	"github.com/thanhnp/insight-apis/internal/models"
	"github.com/thanhnp/insight-apis/internal/pkg/retry"
	"github.com/thanhnp/insight-apis/pkg/semver"
)

// NodeClient is the subset of node RPC the syncer needs.
type NodeClient interface {
	Chain() string
	CheckVersion(ctx context.Context) (*semver.Version, error)
	GetBlockCount(ctx context.Context) (int64, error)
	GetBlockHash(ctx context.Context, height int64) (string, error)
	GetBlock(ctx context.Context, hash string) (*models.RawBlock, error)
	GetRawMempool(ctx context.Context) ([]string, error)
	Close()
}

// NewClient connects to the node configured for chain.
func NewClient(chain string, cfg config.ChainConfig, m *metrics.Metrics, opts ...retry.Option) (NodeClient, error) {
	c := &caller{chain: chain, retry: retry.New(opts...), metrics: m}
	switch chain {
	case "btc":
		return newBTCClient(cfg, c)
	case "ltc":
		return newLTCClient(cfg, c)
	default:
		return nil, fmt.Errorf("unsupported chain: %s", chain)
	}
}

// caller wraps every RPC with retries and metrics.
type caller struct {
	chain   string
	retry   retry.Retry
	metrics *metrics.Metrics
}

func call[T any](ctx context.Context, c *caller, method string, fn func() (T, error)) (T, error) {
	start := time.Now()
	var out T
	err := c.retry.Execute(ctx, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	c.metrics.RecordRPCCall(c.chain, method, err, time.Since(start).Seconds())
	if err != nil {
		return out, fmt.Errorf("%s %s: %w", c.chain, method, err)
	}
	return out, nil
}

// checkSubversion fails when the node is older than minVer.
func checkSubversion(chain, subversion string, minVer *semver.Version) (*semver.Version, error) {
	ver, err := semver.ParseSubversion(subversion)
	if err != nil {
		return nil, err
	}
	if ver.LessThan(minVer) {
		return ver, fmt.Errorf("%s node version %s is older than the required %s", chain, ver, minVer)
	}
	return ver, nil
}

// isCoinbaseInput reports whether an input mints coins.
func isCoinbaseInput(coinbase, prevTxID string) bool {
	return coinbase != "" || prevTxID == ""
}
