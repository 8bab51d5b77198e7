package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relata/relata/pkg/observability"
	"github.com/relata/relata/pkg/prefab"
)

const redisKeyPrefix = "relata:snapshot:"

// RedisConfig configures a Redis-backed snapshot store.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string
	// Password is optional.
	Password string
	// DB selects the logical database.
	DB int
	// TTL bounds snapshot lifetime; zero means no expiration.
	TTL time.Duration
}

// RedisStore keeps snapshots as JSON values in Redis, optionally with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Put(ctx context.Context, p *prefab.Prefab) error {
	start := time.Now()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+p.ID.String(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	observability.Store().OnPut(ctx, "redis", p.ID.String(), p.EntityCount(), p.EdgeCount(), time.Since(start))
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*prefab.Prefab, error) {
	start := time.Now()
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			observability.Store().OnGet(ctx, "redis", id, false, time.Since(start))
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	var p prefab.Prefab
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	observability.Store().OnGet(ctx, "redis", id, true, time.Since(start))
	return &p, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Info, error) {
	start := time.Now()
	var infos []Info

	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), redisKeyPrefix)
		p, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Expired between SCAN and GET.
				continue
			}
			return nil, err
		}
		infos = append(infos, InfoOf(p))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	observability.Store().OnList(ctx, "redis", len(infos), time.Since(start))
	return infos, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	observability.Store().OnDelete(ctx, "redis", id, time.Since(start))
	return nil
}

var _ Store = (*RedisStore)(nil)
