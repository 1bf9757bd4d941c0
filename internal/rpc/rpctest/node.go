// Package rpctest provides an in-memory node for tests.
package rpctest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/thanhnp/insight-apis/internal/models"
	"github.com/thanhnp/insight-apis/internal/rpc"
	"github.com/thanhnp/insight-apis/pkg/semver"
)

// Node is an in-memory rpc.NodeClient whose best chain tests can extend
// and reorganize.
type Node struct {
	mu      sync.Mutex
	chain   string
	best    []*models.RawBlock
	known   map[string]*models.RawBlock
	mempool []string
	err     error
}

var _ rpc.NodeClient = (*Node)(nil)

// NewNode creates an empty node for chain.
func NewNode(chain string) *Node {
	return &Node{chain: chain, known: make(map[string]*models.RawBlock)}
}

// Extend appends blocks to the best chain.
func (n *Node) Extend(blocks ...*models.RawBlock) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, b := range blocks {
		n.best = append(n.best, b)
		n.known[b.Block.Hash] = b
	}
}

// Reorg drops the best chain from height on and appends blocks.
func (n *Node) Reorg(height int64, blocks ...*models.RawBlock) {
	n.mu.Lock()
	n.best = n.best[:height]
	n.mu.Unlock()
	n.Extend(blocks...)
}

// SetMempool replaces the mempool contents.
func (n *Node) SetMempool(txids ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mempool = txids
}

// FailWith makes every call return err until called again with nil.
func (n *Node) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

func (n *Node) Chain() string { return n.chain }

func (n *Node) CheckVersion(context.Context) (*semver.Version, error) {
	return &semver.Version{Major: 25}, n.failure()
}

func (n *Node) GetBlockCount(context.Context) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return int64(len(n.best)) - 1, n.err
}

func (n *Node) GetBlockHash(_ context.Context, height int64) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return "", n.err
	}
	if height < 0 || height >= int64(len(n.best)) {
		return "", fmt.Errorf("block height %d out of range", height)
	}
	return n.best[height].Block.Hash, nil
}

func (n *Node) GetBlock(_ context.Context, hash string) (*models.RawBlock, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return nil, n.err
	}
	b, ok := n.known[hash]
	if !ok {
		return nil, fmt.Errorf("block %s not found", hash)
	}
	return clone(b), nil
}

func (n *Node) GetRawMempool(context.Context) ([]string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.mempool...), n.err
}

func (n *Node) Close() {}

func (n *Node) failure() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

// clone copies the records so consumers may annotate them.
func clone(b *models.RawBlock) *models.RawBlock {
	block := *b.Block
	out := &models.RawBlock{Block: &block}
	for _, tx := range b.Txs {
		cp := *tx
		out.Txs = append(out.Txs, &cp)
	}
	for _, vin := range b.Vins {
		cp := *vin
		out.Vins = append(out.Vins, &cp)
	}
	for _, vout := range b.Vouts {
		cp := *vout
		out.Vouts = append(out.Vouts, &cp)
	}
	return out
}

// In references an output spent by a test transaction.
type In struct {
	TxID  string
	Index int
}

// Out is an output of a test transaction.
type Out struct {
	Addr  string
	Value int64
}

// NewBlock creates an empty block at height on top of prev.
func NewBlock(chain string, height int64, hash, prev string) *models.RawBlock {
	return &models.RawBlock{Block: &models.Block{
		Hash:         hash,
		Height:       height,
		PreviousHash: prev,
		Timestamp:    time.Unix(1600000000+height*600, 0).UTC(),
		Chain:        chain,
	}}
}

// AddTx appends a transaction to b. A transaction without inputs is a
// coinbase.
func AddTx(b *models.RawBlock, txid string, ins []In, outs []Out) *models.RawBlock {
	chain := b.Block.Chain
	tx := &models.Transaction{
		TxID:        txid,
		BlockHash:   b.Block.Hash,
		BlockHeight: b.Block.Height,
		IsCoinbase:  len(ins) == 0,
		Timestamp:   b.Block.Timestamp,
		Chain:       chain,
		NumVin:      max(len(ins), 1),
		NumVout:     len(outs),
	}

	if len(ins) == 0 {
		b.Vins = append(b.Vins, &models.Vin{TxID: txid, Chain: chain})
	}
	for i, in := range ins {
		b.Vins = append(b.Vins, &models.Vin{
			TxID:        txid,
			VinIndex:    i,
			PrevTxID:    in.TxID,
			PrevVoutIdx: in.Index,
			Chain:       chain,
		})
	}
	for i, out := range outs {
		var addrs []string
		if out.Addr != "" {
			addrs = []string{out.Addr}
		}
		b.Vouts = append(b.Vouts, &models.Vout{
			TxID:      txid,
			VoutIndex: i,
			Value:     out.Value,
			Addresses: addrs,
			Chain:     chain,
		})
		tx.Sent += out.Value
	}

	b.Txs = append(b.Txs, tx)
	b.Block.TxCount = len(b.Txs)
	return b
}
