package forward

import (
	"context"
	"encoding/hex"

	"github.com/redis/go-redis/v9"
)

// Redis publishes every message encoded with Encode to a channel and keeps
// the last payload of each pipe, hex encoded, under the key returned by Topic.
type Redis struct {
	db      *redis.Client
	channel string
	prefix  string
}

var _ Sink = (*Redis)(nil)

// NewRedis returns a Redis sink using database 0 at addr. Connections are
// established lazily by the client.
func NewRedis(addr, channel, prefix string) *Redis {
	return &Redis{
		db:      redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
		prefix:  prefix,
	}
}

// Ping checks the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.db.Ping(ctx).Err()
}

// Forward implements Sink.
func (r *Redis) Forward(ctx context.Context, m Message) error {
	_, err := r.db.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, Topic(r.prefix, m.Pipe), hex.EncodeToString(m.Payload), 0)
		if r.channel != "" {
			p.Publish(ctx, r.channel, Encode(m))
		}
		return nil
	})
	return err
}

// Close closes the client connection pool.
func (r *Redis) Close() error {
	return r.db.Close()
}
