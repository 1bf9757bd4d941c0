package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhnp/insight-apis/internal/models"
)

func newTestStores(t *testing.T) *ChainStores {
	t.Helper()
	db, err := NewPebbleDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewChainStores(db)
}

func TestPebbleDB(t *testing.T) {
	stores := newTestStores(t)
	db := stores.DB

	t.Run("missing key is ErrNotFound", func(t *testing.T) {
		_, err := db.Get(CFTransactions, []byte("nope"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown column family", func(t *testing.T) {
		err := db.Put("zzz:", []byte("k"), []byte("v"))
		assert.ErrorContains(t, err, "column family not found")
	})

	t.Run("scan stays inside prefix", func(t *testing.T) {
		require.NoError(t, db.Put(CFSyncState, []byte("a:1"), []byte("x")))
		require.NoError(t, db.Put(CFSyncState, []byte("a:2"), []byte("y")))
		require.NoError(t, db.Put(CFSyncState, []byte("b:1"), []byte("z")))

		var keys []string
		err := db.Scan(CFSyncState, []byte("a:"), func(key, _ []byte) error {
			keys = append(keys, string(key))
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"a:1", "a:2"}, keys)
	})
}

func TestTxStore(t *testing.T) {
	stores := newTestStores(t)
	tx := &models.Transaction{
		TxID:      "tx1",
		BlockHash: "blk1",
		Chain:     "btc",
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}

	require.NoError(t, stores.TxStore.SaveBatch([]*models.Transaction{tx}))

	got, err := stores.TxStore.Get("btc", "tx1")
	require.NoError(t, err)
	assert.Equal(t, tx.Timestamp, got.Timestamp)

	ids, err := stores.TxStore.GetIDsByBlock("btc", "blk1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tx1"}, ids)

	require.NoError(t, stores.TxStore.Delete(tx))
	_, err = stores.TxStore.Get("btc", "tx1")
	assert.ErrorIs(t, err, ErrNotFound)

	ids, err = stores.TxStore.GetIDsByBlock("btc", "blk1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestVoutStore(t *testing.T) {
	stores := newTestStores(t)
	vouts := []*models.Vout{
		{TxID: "tx1", VoutIndex: 0, Value: 100, Addresses: []string{"A"}, Chain: "btc"},
		{TxID: "tx1", VoutIndex: 1, Value: 200, Addresses: []string{"B"}, Chain: "btc"},
	}
	require.NoError(t, stores.VoutStore.SaveBatch(vouts))

	require.NoError(t, stores.VoutStore.MarkSpent("btc", "tx1", 1, "tx2", 0))

	got, err := stores.VoutStore.GetByTx("btc", "tx1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "tx1", got[0].TxID)
	assert.False(t, got[0].Spent)
	assert.True(t, got[1].Spent)
	assert.Equal(t, "tx2", got[1].SpentByTxID)

	require.NoError(t, stores.VoutStore.MarkUnspent("btc", "tx1", 1))
	vout, err := stores.VoutStore.Get("btc", "tx1", 1)
	require.NoError(t, err)
	assert.False(t, vout.Spent)

	assert.ErrorIs(t, stores.VoutStore.MarkSpent("btc", "missing", 0, "tx2", 0), ErrNotFound)

	require.NoError(t, stores.VoutStore.DeleteByTx("btc", "tx1", 2))
	got, err = stores.VoutStore.GetByTx("btc", "tx1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddressStore(t *testing.T) {
	stores := newTestStores(t)
	as := stores.AddressStore

	t.Run("unknown address has zero balances", func(t *testing.T) {
		addr, err := as.Get("btc", "fresh")
		require.NoError(t, err)
		assert.Equal(t, "fresh", addr.Address)
		assert.Zero(t, addr.Balance)
	})

	t.Run("balance deltas", func(t *testing.T) {
		require.NoError(t, as.UpdateBalance("btc", "A", 500, 0, 1))
		require.NoError(t, as.UpdateBalance("btc", "A", 0, 200, 1))

		addr, err := as.Get("btc", "A")
		require.NoError(t, err)
		assert.Equal(t, int64(300), addr.Balance)
		assert.Equal(t, int64(500), addr.TotalReceived)
		assert.Equal(t, int64(200), addr.TotalSent)
		assert.Equal(t, 2, addr.TxCount)
	})

	t.Run("references", func(t *testing.T) {
		require.NoError(t, as.AddVoutReference("btc", "A", "tx1", 0))
		require.NoError(t, as.AddVoutReference("btc", "A", "tx2", 3))
		require.NoError(t, as.AddVoutReference("btc", "AB", "tx9", 0))
		require.NoError(t, as.AddVinReference("btc", "A", "tx3", 1))

		vouts, err := as.GetVoutReferences("btc", "A")
		require.NoError(t, err)
		assert.Equal(t, []OutPoint{{TxID: "tx1", Index: 0}, {TxID: "tx2", Index: 3}}, vouts)

		vins, err := as.GetVinReferences("btc", "A")
		require.NoError(t, err)
		assert.Equal(t, []OutPoint{{TxID: "tx3", Index: 1}}, vins)

		require.NoError(t, as.RemoveVoutReference("btc", "A", "tx1", 0))
		vouts, err = as.GetVoutReferences("btc", "A")
		require.NoError(t, err)
		assert.Equal(t, []OutPoint{{TxID: "tx2", Index: 3}}, vouts)
	})
}

func TestFirstSeenStore(t *testing.T) {
	stores := newTestStores(t)
	fs := stores.FirstSeenStore

	ts, err := fs.Get("btc", "tx1")
	require.NoError(t, err)
	assert.Nil(t, ts)

	stored, err := fs.Record("btc", "tx1", 100)
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = fs.Record("btc", "tx1", 200)
	require.NoError(t, err)
	assert.False(t, stored)

	ts, err = fs.Get("btc", "tx1")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, int64(100), *ts)
}

func TestSyncStore(t *testing.T) {
	stores := newTestStores(t)

	h, err := stores.SyncStore.GetSyncedHeight("btc")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), h)

	require.NoError(t, stores.SyncStore.SetSyncedHeight("btc", 42))
	h, err = stores.SyncStore.GetSyncedHeight("btc")
	require.NoError(t, err)
	assert.Equal(t, int64(42), h)
}
