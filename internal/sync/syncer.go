package sync

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/thanhnp/insight-apis/internal/logger"
	"github.com/thanhnp/insight-apis/internal/metrics"
	"github.com/thanhnp/insight-apis/internal/models"
	"github.com/thanhnp/insight-apis/internal/notifier"
	"github.com/thanhnp/insight-apis/internal/rpc"
	"github.com/thanhnp/insight-apis/internal/storage"
)

// Status is the sync progress of one chain
type Status struct {
	Chain            string  `json:"chain"`
	Status           string  `json:"status"`
	Height           int64   `json:"height"`
	BlockChainHeight int64   `json:"blockChainHeight"`
	SyncPercentage   float64 `json:"syncPercentage"`
	Error            string  `json:"error,omitempty"`
}

// Status values
const (
	StatusSyncing  = "syncing"
	StatusFinished = "finished"
	StatusError    = "error"
)

// Options configures a Syncer
type Options struct {
	StartHeight  int64
	PollInterval time.Duration
	// RetryDelay is the pause between failed historical sync attempts.
	RetryDelay time.Duration
}

// Syncer keeps a chain's index level with its node
type Syncer struct {
	chain       string
	node        rpc.NodeClient
	stores      *storage.ChainStores
	notifier    *notifier.Notifier
	metrics     *metrics.Metrics
	startHeight int64
	retryDelay  time.Duration

	mu             sync.RWMutex
	running        bool
	historicalDone bool
	lastErr        error
	cancel         context.CancelFunc
	done           chan struct{}

	// mempool ids already timestamped, only touched by the poll loop
	mempoolSeen map[string]struct{}
}

// NewSyncer creates a new Syncer
func NewSyncer(node rpc.NodeClient, stores *storage.ChainStores, opts Options, m *metrics.Metrics) *Syncer {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	s := &Syncer{
		chain:       node.Chain(),
		node:        node,
		stores:      stores,
		metrics:     m,
		startHeight: opts.StartHeight,
		retryDelay:  opts.RetryDelay,
		mempoolSeen: make(map[string]struct{}),
	}

	s.notifier = notifier.New(node, s, opts.StartHeight, opts.PollInterval)
	s.notifier.OnBlockConnected(s.processBlock)
	s.notifier.OnBlockDisconnected(s.revertBlock)
	s.notifier.OnMempool(s.recordMempool)
	return s
}

// Chain returns the chain identifier
func (s *Syncer) Chain() string { return s.chain }

// Start checks the node version, then syncs history in the background and
// keeps polling for new blocks afterwards
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	ver, err := s.node.CheckVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to check node version: %w", err)
	}
	logger.Info(ctx, "node connected", "chain", s.chain, "version", ver.String())

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.running = true

	go func() {
		defer close(s.done)
		if err := s.syncHistorical(ctx); err != nil {
			return
		}
		s.notifier.Run(ctx)
	}()

	return nil
}

// Stop stops the synchronization and waits for the current block to finish
func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	done := s.done
	s.running = false
	s.mu.Unlock()

	<-done
}

// syncHistorical catches up with the node in bulk mode. It returns only once
// caught up or when ctx is done.
func (s *Syncer) syncHistorical(ctx context.Context) error {
	logger.Info(ctx, "starting historical sync", "chain", s.chain)

	s.stores.DB.SetBulkMode(true)
	defer func() {
		if err := s.stores.DB.Flush(); err != nil {
			logger.Warn(ctx, "final flush failed", "chain", s.chain, "error", err)
		}
		s.stores.DB.SetBulkMode(false)
	}()

	for {
		err := s.notifier.Poll(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			logger.Info(ctx, "historical sync cancelled", "chain", s.chain)
			return ctx.Err()
		}

		s.setErr(err)
		logger.Error(ctx, "historical sync failed, retrying", "chain", s.chain, "error", err, "retry_in", s.retryDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}

	s.mu.Lock()
	s.historicalDone = true
	s.lastErr = nil
	s.mu.Unlock()

	height, _ := s.GetSyncedHeight()
	logger.Info(ctx, "historical sync completed", "chain", s.chain, "height", height)
	return nil
}

func (s *Syncer) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// Tip returns the highest indexed block
func (s *Syncer) Tip() (int64, string, error) {
	height, err := s.stores.SyncStore.GetSyncedHeight(s.chain)
	if err != nil || height < 0 {
		return height, "", err
	}
	block, err := s.stores.BlockStore.GetByHeight(s.chain, height)
	if err != nil {
		return 0, "", fmt.Errorf("failed to get block at height %d: %w", height, err)
	}
	return height, block.Hash, nil
}

type outpoint struct {
	txid  string
	index int
}

type spend struct {
	vin  *models.Vin
	prev *models.Vout
}

// addressDelta accumulates the effect of a block on one address
type addressDelta struct {
	received int64
	sent     int64
	txs      map[string]struct{}
}

type deltas map[string]*addressDelta

func (d deltas) get(addr string) *addressDelta {
	ad, ok := d[addr]
	if !ok {
		ad = &addressDelta{txs: make(map[string]struct{})}
		d[addr] = ad
	}
	return ad
}

// apply writes the deltas; sign is 1 when connecting and -1 when reverting
func (d deltas) apply(as *storage.AddressStore, chain string, sign int64) error {
	for addr, ad := range d {
		if err := as.UpdateBalance(chain, addr, sign*ad.received, sign*ad.sent, int(sign)*len(ad.txs)); err != nil {
			return fmt.Errorf("failed to update address %s: %w", addr, err)
		}
	}
	return nil
}

// processBlock stores a block on top of the current tip and updates the
// spent flags, balances and address references it affects
func (s *Syncer) processBlock(ctx context.Context, raw *models.RawBlock) error {
	block := raw.Block
	tipHeight, tipHash, err := s.Tip()
	if err != nil {
		return err
	}
	if tipHeight >= 0 && (block.Height != tipHeight+1 || block.PreviousHash != tipHash) {
		return fmt.Errorf("block %d %s does not extend tip %d %s", block.Height, block.Hash, tipHeight, tipHash)
	}

	// Outputs may be spent later in the same block
	inBlock := make(map[outpoint]*models.Vout, len(raw.Vouts))
	for _, vout := range raw.Vouts {
		inBlock[outpoint{vout.TxID, vout.VoutIndex}] = vout
	}

	var spends []spend
	for _, vin := range raw.Vins {
		if vin.IsCoinbase() {
			continue
		}
		prev, ok := inBlock[outpoint{vin.PrevTxID, vin.PrevVoutIdx}]
		if !ok {
			prev, err = s.stores.VoutStore.Get(s.chain, vin.PrevTxID, vin.PrevVoutIdx)
			if errors.Is(err, storage.ErrNotFound) {
				// funded below the start height
				if block.Height > s.startHeight {
					logger.Debug(ctx, "spent output not indexed", "chain", s.chain, "prev_tx", vin.PrevTxID, "prev_vout", vin.PrevVoutIdx)
				}
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to get spent output: %w", err)
			}
		}
		if len(prev.Addresses) > 0 {
			vin.Address = prev.Addresses[0]
		}
		vin.Value = prev.Value
		spends = append(spends, spend{vin: vin, prev: prev})
	}

	if err := s.stores.BlockStore.Save(block); err != nil {
		return fmt.Errorf("failed to save block: %w", err)
	}
	if err := s.stores.TxStore.SaveBatch(raw.Txs); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}
	if err := s.stores.VinStore.SaveBatch(raw.Vins); err != nil {
		return fmt.Errorf("failed to save vins: %w", err)
	}
	if err := s.stores.VoutStore.SaveBatch(raw.Vouts); err != nil {
		return fmt.Errorf("failed to save vouts: %w", err)
	}

	d := make(deltas)
	as := s.stores.AddressStore

	for _, sp := range spends {
		if err := s.stores.VoutStore.MarkSpent(s.chain, sp.vin.PrevTxID, sp.vin.PrevVoutIdx, sp.vin.TxID, sp.vin.VinIndex); err != nil {
			return err
		}
		for _, addr := range sp.prev.Addresses {
			ad := d.get(addr)
			ad.sent += sp.prev.Value
			ad.txs[sp.vin.TxID] = struct{}{}
			if err := as.AddVinReference(s.chain, addr, sp.vin.TxID, sp.vin.VinIndex); err != nil {
				return fmt.Errorf("failed to add vin reference: %w", err)
			}
		}
	}

	for _, vout := range raw.Vouts {
		for _, addr := range vout.Addresses {
			ad := d.get(addr)
			ad.received += vout.Value
			ad.txs[vout.TxID] = struct{}{}
			if err := as.AddVoutReference(s.chain, addr, vout.TxID, vout.VoutIndex); err != nil {
				return fmt.Errorf("failed to add vout reference: %w", err)
			}
		}
	}

	if err := d.apply(as, s.chain, 1); err != nil {
		return err
	}

	if err := s.stores.SyncStore.SetSyncedHeight(s.chain, block.Height); err != nil {
		return fmt.Errorf("failed to update sync state: %w", err)
	}

	s.metrics.RecordBlockConnected(s.chain, block.Height)
	if block.Height%100 == 0 {
		logger.Info(ctx, "synced", "chain", s.chain, "height", block.Height)
	} else {
		logger.Debug(ctx, "block connected", "chain", s.chain, "height", block.Height, "hash", block.Hash)
	}
	return nil
}

// revertBlock removes the tip block during a reorg
func (s *Syncer) revertBlock(ctx context.Context, blockHash string, height int64) error {
	if _, err := s.stores.BlockStore.GetByHash(s.chain, blockHash); err != nil {
		return fmt.Errorf("failed to get block: %w", err)
	}

	ids, err := s.stores.TxStore.GetIDsByBlock(s.chain, blockHash)
	if err != nil {
		return fmt.Errorf("failed to get block transactions: %w", err)
	}

	d := make(deltas)
	as := s.stores.AddressStore
	var txs []*models.Transaction

	for _, id := range ids {
		tx, err := s.stores.TxStore.Get(s.chain, id)
		if err != nil {
			return fmt.Errorf("failed to get transaction %s: %w", id, err)
		}
		txs = append(txs, tx)

		vouts, err := s.stores.VoutStore.GetByTx(s.chain, id)
		if err != nil {
			return fmt.Errorf("failed to get vouts for tx %s: %w", id, err)
		}
		for _, vout := range vouts {
			for _, addr := range vout.Addresses {
				ad := d.get(addr)
				ad.received += vout.Value
				ad.txs[id] = struct{}{}
				if err := as.RemoveVoutReference(s.chain, addr, id, vout.VoutIndex); err != nil {
					return fmt.Errorf("failed to remove vout reference: %w", err)
				}
			}
		}

		vins, err := s.stores.VinStore.GetByTx(s.chain, id)
		if err != nil {
			return fmt.Errorf("failed to get vins for tx %s: %w", id, err)
		}
		for _, vin := range vins {
			if vin.IsCoinbase() {
				continue
			}
			prev, err := s.stores.VoutStore.Get(s.chain, vin.PrevTxID, vin.PrevVoutIdx)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to get spent output: %w", err)
			}
			if err := s.stores.VoutStore.MarkUnspent(s.chain, vin.PrevTxID, vin.PrevVoutIdx); err != nil {
				return err
			}
			for _, addr := range prev.Addresses {
				ad := d.get(addr)
				ad.sent += prev.Value
				ad.txs[id] = struct{}{}
				if err := as.RemoveVinReference(s.chain, addr, id, vin.VinIndex); err != nil {
					return fmt.Errorf("failed to remove vin reference: %w", err)
				}
			}
		}
	}

	if err := d.apply(as, s.chain, -1); err != nil {
		return err
	}

	for _, tx := range txs {
		if err := s.stores.VinStore.DeleteByTx(s.chain, tx.TxID, tx.NumVin); err != nil {
			return fmt.Errorf("failed to delete vins: %w", err)
		}
		if err := s.stores.VoutStore.DeleteByTx(s.chain, tx.TxID, tx.NumVout); err != nil {
			return fmt.Errorf("failed to delete vouts: %w", err)
		}
		if err := s.stores.TxStore.Delete(tx); err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}
	}

	if err := s.stores.BlockStore.Delete(s.chain, blockHash, height); err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}
	if err := s.stores.SyncStore.SetSyncedHeight(s.chain, height-1); err != nil {
		return fmt.Errorf("failed to update sync state: %w", err)
	}

	s.metrics.RecordBlockReverted(s.chain, height-1)
	logger.Info(ctx, "block reverted", "chain", s.chain, "height", height, "hash", blockHash, "txs", len(txs))
	return nil
}

// recordMempool stores the first-seen time of transactions new to the
// mempool. It runs at the end of every successful poll.
func (s *Syncer) recordMempool(ctx context.Context, txids []string, seenAt time.Time) error {
	s.metrics.RecordNodeHeight(s.chain, s.notifier.NodeHeight())

	current := make(map[string]struct{}, len(txids))
	recorded := 0
	for _, txid := range txids {
		current[txid] = struct{}{}
		if _, ok := s.mempoolSeen[txid]; ok {
			continue
		}
		stored, err := s.stores.FirstSeenStore.Record(s.chain, txid, seenAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to record first-seen time of %s: %w", txid, err)
		}
		if stored {
			recorded++
		}
	}
	s.mempoolSeen = current

	if recorded > 0 {
		s.metrics.RecordFirstSeen(s.chain, recorded)
		logger.Debug(ctx, "mempool transactions seen", "chain", s.chain, "new", recorded, "mempool", len(txids))
	}
	return nil
}

// IsHistoricalDone reports whether the initial catch-up has finished
func (s *Syncer) IsHistoricalDone() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historicalDone
}

// IsSyncing returns true if the syncer is currently running
func (s *Syncer) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// GetSyncedHeight returns the last synced block height
func (s *Syncer) GetSyncedHeight() (int64, error) {
	return s.stores.SyncStore.GetSyncedHeight(s.chain)
}

// Status reports the sync progress
func (s *Syncer) Status() Status {
	st := Status{
		Chain:            s.chain,
		Status:           StatusSyncing,
		BlockChainHeight: s.notifier.NodeHeight(),
	}

	height, err := s.GetSyncedHeight()
	if err != nil {
		st.Status = StatusError
		st.Error = err.Error()
		return st
	}
	st.Height = height

	s.mu.RLock()
	done, lastErr := s.historicalDone, s.lastErr
	s.mu.RUnlock()

	if done {
		st.Status = StatusFinished
	} else if lastErr != nil {
		st.Status = StatusError
		st.Error = lastErr.Error()
	}

	switch {
	case st.BlockChainHeight > 0 && height >= 0:
		st.SyncPercentage = math.Min(100, math.Round(float64(height)/float64(st.BlockChainHeight)*1000)/10)
	case done:
		st.SyncPercentage = 100
	}
	return st
}
