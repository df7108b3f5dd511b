package snapshot

import (
	"context"
	"encoding/json"

	backend "github.com/redis/go-redis/v9"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
)

// RedisStore implements Store against Redis, for hosts that run multiple
// workflow processes sharing one snapshot namespace.
// Grounded on aretw0-trellis's internal/adapters/redis.Store: a thin
// struct wrapping a *redis.Client, one string key per record (the
// JSON-encoded file map) plus a set index,
// context-scoped methods, no local caching.
type RedisStore struct {
	client *backend.Client
	prefix string
}

// NewRedisStore connects to addr and returns a RedisStore. password/db
// follow go-redis conventions (empty password, db 0 are valid).
func NewRedisStore(addr, password string, db int) *RedisStore {
	return NewRedisStoreFromClient(backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

// NewRedisStoreFromClient wraps an already-configured client.
func NewRedisStoreFromClient(client *backend.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "fractalic:snapshot:"}
}

func (s *RedisStore) key(label string) string { return s.prefix + label }
func (s *RedisStore) indexKey() string        { return s.prefix + "index" }

func (s *RedisStore) Save(ctx context.Context, label string, files map[string][]byte) error {
	data, err := json.Marshal(files)
	if err != nil {
		return ferr.Wrap(ferr.KindInternal, err, "marshal snapshot %s", label)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(label), data, 0)
	pipe.SAdd(ctx, s.indexKey(), label)
	if _, err := pipe.Exec(ctx); err != nil {
		return ferr.Wrap(ferr.KindInternal, err, "save snapshot %s to redis", label)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, label string) (map[string][]byte, error) {
	val, err := s.client.Get(ctx, s.key(label)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, ferr.New(ferr.KindBlockNotFnd, "snapshot %q not found", label)
		}
		return nil, ferr.Wrap(ferr.KindInternal, err, "load snapshot %s from redis", label)
	}

	var files map[string][]byte
	if err := json.Unmarshal([]byte(val), &files); err != nil {
		return nil, ferr.Wrap(ferr.KindInternal, err, "decode snapshot %s", label)
	}
	return files, nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	labels, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, ferr.Wrap(ferr.KindInternal, err, "list snapshots from redis")
	}
	return labels, nil
}

// Close releases the underlying redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
