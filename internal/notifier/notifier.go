// Package notifier polls a node and reports chain changes against the local
// index: blocks to disconnect after a reorg, new blocks to connect and
// transactions seen in the mempool.
package notifier

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/thanhnp/insight-apis/internal/logger"
	"github.com/thanhnp/insight-apis/internal/models"
	"github.com/thanhnp/insight-apis/internal/rpc"
)

// BlockHandler is called for each block to connect, in height order
type BlockHandler func(ctx context.Context, block *models.RawBlock) error

// DisconnectHandler is called for each indexed block the node no longer has
// on its best chain, tip first
type DisconnectHandler func(ctx context.Context, blockHash string, height int64) error

// MempoolHandler is called with the mempool contents after each poll
type MempoolHandler func(ctx context.Context, txids []string, seenAt time.Time) error

// ChainView is the local index as seen by the notifier
type ChainView interface {
	// Tip returns the highest indexed block, or height -1 when empty.
	Tip() (height int64, hash string, err error)
}

// Notifier compares a node with a ChainView
type Notifier struct {
	node         rpc.NodeClient
	view         ChainView
	startHeight  int64
	pollInterval time.Duration

	onConnect    BlockHandler
	onDisconnect DisconnectHandler
	onMempool    MempoolHandler

	nodeHeight atomic.Int64
}

// New creates a Notifier. Blocks below startHeight are never connected.
func New(node rpc.NodeClient, view ChainView, startHeight int64, pollInterval time.Duration) *Notifier {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	n := &Notifier{
		node:         node,
		view:         view,
		startHeight:  startHeight,
		pollInterval: pollInterval,
	}
	n.nodeHeight.Store(-1)
	return n
}

// Chain returns the chain identifier ("btc" or "ltc")
func (n *Notifier) Chain() string { return n.node.Chain() }

// OnBlockConnected registers a handler for new blocks
func (n *Notifier) OnBlockConnected(h BlockHandler) { n.onConnect = h }

// OnBlockDisconnected registers a handler for disconnected blocks (reorgs)
func (n *Notifier) OnBlockDisconnected(h DisconnectHandler) { n.onDisconnect = h }

// OnMempool registers a handler for mempool snapshots
func (n *Notifier) OnMempool(h MempoolHandler) { n.onMempool = h }

// NodeHeight returns the node height seen by the last poll, -1 before the
// first one
func (n *Notifier) NodeHeight() int64 { return n.nodeHeight.Load() }

// RefreshNodeHeight asks the node for its height
func (n *Notifier) RefreshNodeHeight(ctx context.Context) (int64, error) {
	height, err := n.node.GetBlockCount(ctx)
	if err != nil {
		return 0, err
	}
	n.nodeHeight.Store(height)
	return height, nil
}

// Poll brings the index level with the node once: it disconnects blocks the
// node dropped, connects the missing ones and reports the mempool.
func (n *Notifier) Poll(ctx context.Context) error {
	nodeHeight, err := n.RefreshNodeHeight(ctx)
	if err != nil {
		return err
	}

	localHeight, err := n.rewind(ctx, nodeHeight)
	if err != nil {
		return err
	}

	from := localHeight + 1
	if from < n.startHeight {
		from = n.startHeight
	}
	for height := from; height <= nodeHeight; height++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.connect(ctx, height); err != nil {
			return err
		}
	}

	if n.onMempool != nil {
		txids, err := n.node.GetRawMempool(ctx)
		if err != nil {
			return err
		}
		if err := n.onMempool(ctx, txids, time.Now()); err != nil {
			return fmt.Errorf("mempool handler: %w", err)
		}
	}
	return nil
}

// rewind disconnects indexed blocks until the local tip is on the node's
// best chain and returns the remaining tip height.
func (n *Notifier) rewind(ctx context.Context, nodeHeight int64) (int64, error) {
	for {
		height, hash, err := n.view.Tip()
		if err != nil {
			return 0, fmt.Errorf("failed to read local tip: %w", err)
		}
		if height < 0 {
			return height, nil
		}

		if height <= nodeHeight {
			nodeHash, err := n.node.GetBlockHash(ctx, height)
			if err != nil {
				return 0, err
			}
			if nodeHash == hash {
				return height, nil
			}
		}

		logger.Warn(ctx, "block disconnected", "chain", n.Chain(), "height", height, "hash", hash)
		if n.onDisconnect == nil {
			return 0, fmt.Errorf("reorg at height %d with no disconnect handler", height)
		}
		if err := n.onDisconnect(ctx, hash, height); err != nil {
			return 0, fmt.Errorf("failed to disconnect block %d: %w", height, err)
		}
	}
}

func (n *Notifier) connect(ctx context.Context, height int64) error {
	hash, err := n.node.GetBlockHash(ctx, height)
	if err != nil {
		return err
	}
	block, err := n.node.GetBlock(ctx, hash)
	if err != nil {
		return err
	}
	if n.onConnect == nil {
		return nil
	}
	if err := n.onConnect(ctx, block); err != nil {
		return fmt.Errorf("failed to connect block %d: %w", height, err)
	}
	return nil
}

// Run polls until ctx is done. Failed polls are logged and retried on the
// next tick.
func (n *Notifier) Run(ctx context.Context) {
	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	for {
		if err := n.Poll(ctx); err != nil && ctx.Err() == nil {
			logger.Error(ctx, "poll failed", "chain", n.Chain(), "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
