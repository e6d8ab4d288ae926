package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures a Redis-backed snapshot store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces all keys. Empty means "flowcanvas".
	Prefix string
}

// RedisStore shares snapshots across instances through Redis. Snapshots are
// stored as JSON values and indexed by a set of IDs for listing.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "flowcanvas"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) key(id string) string { return s.prefix + ":snapshot:" + id }
func (s *RedisStore) indexKey() string     { return s.prefix + ":snapshots" }

func (s *RedisStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}

func (s *RedisStore) Put(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(snap.ID), data, 0)
	pipe.SAdd(ctx, s.indexKey(), snap.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	removed, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	if err := s.client.SRem(ctx, s.indexKey(), id).Err(); err != nil {
		return fmt.Errorf("unindex snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Snapshot, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// Index entry outlived its value; drop it.
			_ = s.client.SRem(ctx, s.indexKey(), id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}
