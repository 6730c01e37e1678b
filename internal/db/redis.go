package db

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs two concerns that don't belong in Postgres: a short-lived
// position cache so a reconnecting player's last known tile survives a
// soft-disconnect without a round trip to Postgres, and a pub/sub channel
// other world processes (future horizontal scaling) could subscribe to for
// cross-process presence. Neither is load-bearing for a single-process
// deployment, but both are cheap and match the session's reconnection grace
// window.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr string) (*Redis, error) {
	if addr == "" {
		return &Redis{}, nil
	}

	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	log.Infof("connected to redis")
	return &Redis{client: client}, nil
}

func (r *Redis) Close() error {
	if r != nil && r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Redis) Client() *redis.Client { return r.client }

func (r *Redis) IsConnected() bool { return r.client != nil }

// PositionCache is the JSON blob cached per account while its session is
// SOFT_DISCONNECTED, so reclaim doesn't need to wait on Postgres.
type PositionCache struct {
	X, Y int
	HP   int
}

func positionKey(accountID int) string {
	return "tileworld:pos:" + strconv.Itoa(accountID)
}

func (r *Redis) SetPositionCache(ctx context.Context, accountID int, pos PositionCache, ttl time.Duration) error {
	if r.client == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, positionKey(accountID), data, ttl).Err()
}

func (r *Redis) GetPositionCache(ctx context.Context, accountID int) (*PositionCache, error) {
	if r.client == nil {
		return nil, ErrNotConnected
	}
	data, err := r.client.Get(ctx, positionKey(accountID)).Bytes()
	if err != nil {
		return nil, err
	}
	var pos PositionCache
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, err
	}
	return &pos, nil
}

const tickChannel = "tileworld:ticks"

// PublishTick broadcasts a tick summary for any external observers
// (admin dashboards, a second world process). No code in this server calls
// it: neither the tick goroutine nor the Writer publishes ticks.
func (r *Redis) PublishTick(ctx context.Context, tick int64, payload []byte) error {
	if r.client == nil {
		return ErrNotConnected
	}
	return r.client.Publish(ctx, tickChannel, payload).Err()
}

func (r *Redis) SubscribeToTicks(ctx context.Context) (<-chan *redis.Message, error) {
	if r.client == nil {
		return nil, ErrNotConnected
	}
	sub := r.client.Subscribe(ctx, tickChannel)
	return sub.Channel(), nil
}
