package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"

	"github.com/thanhnp/insight-apis/internal/config"
	"github.com/thanhnp/insight-apis/internal/logger"
	"github.com/thanhnp/insight-apis/internal/models"
	"github.com/thanhnp/insight-apis/pkg/semver"
)

// Oldest supported Bitcoin Core release.
var minBitcoinCore = &semver.Version{Major: 0, Minor: 21, Patch: 0}

// BTCClient wraps the Bitcoin RPC client
type BTCClient struct {
	client *rpcclient.Client
	call   *caller
}

func newBTCClient(cfg config.ChainConfig, c *caller) (*BTCClient, error) {
	logger.Info(context.Background(), "connecting to bitcoin node", "host", cfg.Host, "user", cfg.User, "tls", !cfg.DisableTLS)

	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		HTTPPostMode: true,
		DisableTLS:   cfg.DisableTLS,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create RPC client: %w", err)
	}

	return &BTCClient{client: client, call: c}, nil
}

func (c *BTCClient) Chain() string { return "btc" }

// Close closes the RPC client connection
func (c *BTCClient) Close() {
	c.client.Shutdown()
}

// CheckVersion fails when the node is too old to index from.
func (c *BTCClient) CheckVersion(ctx context.Context) (*semver.Version, error) {
	info, err := call(ctx, c.call, "getnetworkinfo", c.client.GetNetworkInfo)
	if err != nil {
		return nil, err
	}
	return checkSubversion("btc", info.SubVersion, minBitcoinCore)
}

// GetBlockCount returns the current block height
func (c *BTCClient) GetBlockCount(ctx context.Context) (int64, error) {
	return call(ctx, c.call, "getblockcount", c.client.GetBlockCount)
}

// GetBlockHash returns the block hash for a given height
func (c *BTCClient) GetBlockHash(ctx context.Context, height int64) (string, error) {
	return call(ctx, c.call, "getblockhash", func() (string, error) {
		hash, err := c.client.GetBlockHash(height)
		if err != nil {
			return "", err
		}
		return hash.String(), nil
	})
}

// GetBlock returns the block with its transactions split into index records
func (c *BTCClient) GetBlock(ctx context.Context, hash string) (*models.RawBlock, error) {
	h, err := chainhash.NewHashFromStr(hash)
	if err != nil {
		return nil, fmt.Errorf("invalid block hash %q: %w", hash, err)
	}
	block, err := call(ctx, c.call, "getblock", func() (*btcjson.GetBlockVerboseTxResult, error) {
		return c.client.GetBlockVerboseTx(h)
	})
	if err != nil {
		return nil, err
	}
	return ParseBTCBlock(block)
}

// GetRawMempool returns the ids of the transactions in the mempool
func (c *BTCClient) GetRawMempool(ctx context.Context) ([]string, error) {
	hashes, err := call(ctx, c.call, "getrawmempool", c.client.GetRawMempool)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(hashes))
	for i, h := range hashes {
		ids[i] = h.String()
	}
	return ids, nil
}

// ParseBTCBlock converts a verbose bitcoind block into index records
func ParseBTCBlock(b *btcjson.GetBlockVerboseTxResult) (*models.RawBlock, error) {
	ts := time.Unix(b.Time, 0).UTC()
	raw := &models.RawBlock{
		Block: &models.Block{
			Hash:         b.Hash,
			Height:       b.Height,
			Version:      b.Version,
			PreviousHash: b.PreviousHash,
			MerkleRoot:   b.MerkleRoot,
			Timestamp:    ts,
			TxCount:      len(b.Tx),
			Chain:        "btc",
		},
	}

	for _, rawTx := range b.Tx {
		tx := &models.Transaction{
			TxID:        rawTx.Txid,
			BlockHash:   b.Hash,
			BlockHeight: b.Height,
			Version:     int32(rawTx.Version),
			LockTime:    rawTx.LockTime,
			Size:        int(rawTx.Size),
			IsCoinbase:  len(rawTx.Vin) > 0 && isCoinbaseInput(rawTx.Vin[0].Coinbase, rawTx.Vin[0].Txid),
			Timestamp:   ts,
			Chain:       "btc",
			NumVin:      len(rawTx.Vin),
			NumVout:     len(rawTx.Vout),
		}

		for i, rawVin := range rawTx.Vin {
			vin := &models.Vin{
				TxID:     rawTx.Txid,
				VinIndex: i,
				Sequence: rawVin.Sequence,
				Witness:  rawVin.Witness,
				Chain:    "btc",
			}
			if !isCoinbaseInput(rawVin.Coinbase, rawVin.Txid) {
				vin.PrevTxID = rawVin.Txid
				vin.PrevVoutIdx = int(rawVin.Vout)
			}
			if rawVin.ScriptSig != nil {
				vin.ScriptSig = rawVin.ScriptSig.Hex
			}
			raw.Vins = append(raw.Vins, vin)
		}

		for _, rawVout := range rawTx.Vout {
			amount, err := btcutil.NewAmount(rawVout.Value)
			if err != nil {
				return nil, fmt.Errorf("tx %s output %d: %w", rawTx.Txid, rawVout.N, err)
			}
			addrs := rawVout.ScriptPubKey.Addresses
			if rawVout.ScriptPubKey.Address != "" {
				addrs = []string{rawVout.ScriptPubKey.Address}
			}
			raw.Vouts = append(raw.Vouts, &models.Vout{
				TxID:         rawTx.Txid,
				VoutIndex:    int(rawVout.N),
				Value:        int64(amount),
				ScriptPubKey: rawVout.ScriptPubKey.Hex,
				Type:         rawVout.ScriptPubKey.Type,
				Addresses:    addrs,
				Chain:        "btc",
			})
			tx.Sent += int64(amount)
		}

		raw.Txs = append(raw.Txs, tx)
	}

	return raw, nil
}
