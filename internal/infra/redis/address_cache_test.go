package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhnp/insight-apis/internal/models"
)

func TestAddressCacheKey(t *testing.T) {
	assert.Equal(t, "addr:btc:1BoatSLRHtKNngkdXEeobR76b53LETtpyT", addressCacheKey("btc", "1BoatSLRHtKNngkdXEeobR76b53LETtpyT"))
	assert.NotEqual(t, addressCacheKey("btc", "x"), addressCacheKey("ltc", "x"))
}

func TestAddressCache(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx := context.Background()
	client, err := NewClient(ctx, addr, "", "", 0)
	if err != nil {
		t.Skipf("Cannot connect to Redis: %v", err)
	}
	defer client.Close()

	cache := NewAddressCache(client, time.Minute)
	address := "test-" + uuid.NewString()
	defer client.conn.Del(ctx, addressCacheKey("btc", address))

	_, ok, err := cache.Get(ctx, "btc", address)
	require.NoError(t, err)
	assert.False(t, ok)

	ts := int64(1700000000)
	info := &models.AddressInfo{
		Address:      address,
		BalanceSat:   1500,
		TxApperances: 1,
		Transactions: []models.TxSummary{{TxID: "tx1", Ts: &ts}},
		Unspent:      []models.UTXO{{Address: address, TxID: "tx1", Vout: 0, Satoshis: 1500}},
	}
	require.NoError(t, cache.Set(ctx, "btc", address, info))

	got, ok, err := cache.Get(ctx, "btc", address)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1500), got.BalanceSat)
	assert.Equal(t, []string{"tx1"}, got.TxIDs())
	require.Len(t, got.Unspent, 1)
	assert.Equal(t, int64(1500), got.Unspent[0].Satoshis)
}
