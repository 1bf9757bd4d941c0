package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/thanhnp/insight-apis/internal/addressbook"
	"github.com/thanhnp/insight-apis/internal/models"
)

// addressCachePrefix is the base key prefix for cached address summaries.
const addressCachePrefix = "addr"

// addressCacheKey returns the key of a cached address summary.
//
// Format: "addr:{chain}:{address}"
func addressCacheKey(chain, address string) string {
	return fmt.Sprintf("%s:%s:%s", addressCachePrefix, chain, address)
}

// cachedAddress is the stored form of an AddressInfo. Unspent is not part of
// the AddressInfo JSON, so it is carried separately.
type cachedAddress struct {
	Info    *models.AddressInfo `json:"info"`
	Unspent []models.UTXO       `json:"unspent"`
}

// AddressCache keeps address book results for a short time so repeated
// lookups of the same address skip the index.
type AddressCache struct {
	client *Client
	ttl    time.Duration
}

// NewAddressCache creates a cache whose entries expire after ttl
func NewAddressCache(client *Client, ttl time.Duration) *AddressCache {
	return &AddressCache{client: client, ttl: ttl}
}

// Get returns the cached summary. A missing key is a miss, not an error.
func (c *AddressCache) Get(ctx context.Context, chain, address string) (*models.AddressInfo, bool, error) {
	data, err := c.client.conn.Get(ctx, addressCacheKey(chain, address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry cachedAddress
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached address %s: %w", address, err)
	}
	if entry.Info == nil {
		return nil, false, nil
	}
	entry.Info.Unspent = entry.Unspent
	return entry.Info, true, nil
}

// Set stores the summary with the cache TTL
func (c *AddressCache) Set(ctx context.Context, chain, address string, info *models.AddressInfo) error {
	data, err := json.Marshal(cachedAddress{Info: info, Unspent: info.Unspent})
	if err != nil {
		return err
	}
	return c.client.conn.Set(ctx, addressCacheKey(chain, address), data, c.ttl).Err()
}

// Compile-time assertion to ensure *AddressCache satisfies addressbook.Cache
var _ addressbook.Cache = new(AddressCache)
