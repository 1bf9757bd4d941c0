package notifier

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhnp/insight-apis/internal/models"
	"github.com/thanhnp/insight-apis/internal/rpc/rpctest"
)

// memChain is a ChainView that applies the notifier callbacks to a slice
type memChain struct {
	blocks       []*models.Block
	connected    []int64
	disconnected []int64
	mempool      [][]string
	tipErr       error
}

func (c *memChain) Tip() (int64, string, error) {
	if c.tipErr != nil {
		return 0, "", c.tipErr
	}
	if len(c.blocks) == 0 {
		return -1, "", nil
	}
	tip := c.blocks[len(c.blocks)-1]
	return tip.Height, tip.Hash, nil
}

func (c *memChain) attach(n *Notifier) {
	n.OnBlockConnected(func(_ context.Context, b *models.RawBlock) error {
		c.blocks = append(c.blocks, b.Block)
		c.connected = append(c.connected, b.Block.Height)
		return nil
	})
	n.OnBlockDisconnected(func(_ context.Context, hash string, height int64) error {
		tip := c.blocks[len(c.blocks)-1]
		if tip.Hash != hash || tip.Height != height {
			return fmt.Errorf("unexpected disconnect of %s", hash)
		}
		c.blocks = c.blocks[:len(c.blocks)-1]
		c.disconnected = append(c.disconnected, height)
		return nil
	})
	n.OnMempool(func(_ context.Context, txids []string, _ time.Time) error {
		c.mempool = append(c.mempool, txids)
		return nil
	})
}

// chainOf builds count linked blocks named <prefix><height> starting at from
func chainOf(prefix string, from, count int64, prev string) []*models.RawBlock {
	var blocks []*models.RawBlock
	for h := from; h < from+count; h++ {
		hash := fmt.Sprintf("%s%d", prefix, h)
		blocks = append(blocks, rpctest.NewBlock("btc", h, hash, prev))
		prev = hash
	}
	return blocks
}

func TestPoll(t *testing.T) {
	ctx := context.Background()

	t.Run("connects missing blocks in order", func(t *testing.T) {
		node := rpctest.NewNode("btc")
		node.Extend(chainOf("a", 0, 4, "")...)
		view := &memChain{}
		n := New(node, view, 0, time.Second)
		view.attach(n)

		require.NoError(t, n.Poll(ctx))

		assert.Equal(t, []int64{0, 1, 2, 3}, view.connected)
		assert.Equal(t, int64(3), n.NodeHeight())

		node.Extend(chainOf("a", 4, 2, "a3")...)
		require.NoError(t, n.Poll(ctx))
		assert.Equal(t, []int64{0, 1, 2, 3, 4, 5}, view.connected)
		assert.Empty(t, view.disconnected)
	})

	t.Run("starts at the configured height", func(t *testing.T) {
		node := rpctest.NewNode("btc")
		node.Extend(chainOf("a", 0, 5, "")...)
		view := &memChain{}
		n := New(node, view, 3, time.Second)
		view.attach(n)

		require.NoError(t, n.Poll(ctx))

		assert.Equal(t, []int64{3, 4}, view.connected)
	})

	t.Run("rewinds to the fork point", func(t *testing.T) {
		node := rpctest.NewNode("btc")
		node.Extend(chainOf("a", 0, 5, "")...)
		view := &memChain{}
		n := New(node, view, 0, time.Second)
		view.attach(n)
		require.NoError(t, n.Poll(ctx))

		node.Reorg(3, chainOf("b", 3, 3, "a2")...)
		require.NoError(t, n.Poll(ctx))

		assert.Equal(t, []int64{4, 3}, view.disconnected)
		tip, hash, err := view.Tip()
		require.NoError(t, err)
		assert.Equal(t, int64(5), tip)
		assert.Equal(t, "b5", hash)
	})

	t.Run("rewinds past a shorter node chain", func(t *testing.T) {
		node := rpctest.NewNode("btc")
		node.Extend(chainOf("a", 0, 5, "")...)
		view := &memChain{}
		n := New(node, view, 0, time.Second)
		view.attach(n)
		require.NoError(t, n.Poll(ctx))

		node.Reorg(2, chainOf("c", 2, 1, "a1")...)
		require.NoError(t, n.Poll(ctx))

		assert.Equal(t, []int64{4, 3, 2}, view.disconnected)
		_, hash, _ := view.Tip()
		assert.Equal(t, "c2", hash)
	})

	t.Run("reports the mempool", func(t *testing.T) {
		node := rpctest.NewNode("btc")
		node.Extend(chainOf("a", 0, 1, "")...)
		node.SetMempool("m1", "m2")
		view := &memChain{}
		n := New(node, view, 0, time.Second)
		view.attach(n)

		require.NoError(t, n.Poll(ctx))

		assert.Equal(t, [][]string{{"m1", "m2"}}, view.mempool)
	})

	t.Run("node failure", func(t *testing.T) {
		node := rpctest.NewNode("btc")
		node.Extend(chainOf("a", 0, 2, "")...)
		node.FailWith(errors.New("connection refused"))
		view := &memChain{}
		n := New(node, view, 0, time.Second)
		view.attach(n)

		err := n.Poll(ctx)

		assert.ErrorContains(t, err, "connection refused")
		assert.Empty(t, view.connected)
		assert.Equal(t, int64(-1), n.NodeHeight())
	})

	t.Run("handler failure stops the poll", func(t *testing.T) {
		node := rpctest.NewNode("btc")
		node.Extend(chainOf("a", 0, 3, "")...)
		view := &memChain{}
		n := New(node, view, 0, time.Second)
		view.attach(n)
		n.OnBlockConnected(func(_ context.Context, b *models.RawBlock) error {
			if b.Block.Height == 1 {
				return errors.New("disk full")
			}
			view.blocks = append(view.blocks, b.Block)
			return nil
		})

		err := n.Poll(ctx)

		assert.ErrorContains(t, err, "failed to connect block 1")
		assert.Len(t, view.blocks, 1)
	})

	t.Run("local tip failure", func(t *testing.T) {
		node := rpctest.NewNode("btc")
		view := &memChain{tipErr: errors.New("corrupt")}
		n := New(node, view, 0, time.Second)

		assert.ErrorContains(t, n.Poll(ctx), "failed to read local tip")
	})
}

func TestRunStopsWithContext(t *testing.T) {
	node := rpctest.NewNode("btc")
	node.Extend(chainOf("a", 0, 2, "")...)
	view := &memChain{}
	n := New(node, view, 0, 10*time.Millisecond)
	view.attach(n)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return n.NodeHeight() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
