package redis

import (
	"context"

	redis "github.com/redis/go-redis/v9"
)

// Client wraps a go-redis connection
type Client struct {
	conn *redis.Client
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// NewClient connects to addr and checks the connection with a PING
func NewClient(ctx context.Context, addr, username, password string, db int) (*Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		conn.Close()
		return nil, err
	}

	return &Client{
		conn: conn,
	}, nil
}
