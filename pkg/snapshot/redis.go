package snapshot

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/flowmap/pkg/errors"
)

// DefaultRedisPrefix namespaces version keys in a shared Redis.
const DefaultRedisPrefix = "flowmap:versions:"

// RedisStore keeps each version as a JSON string, a summary hash for
// listing, and a sorted set of IDs scored by creation time.
//
// Keys, for prefix p:
//
//	p{id}      full version JSON
//	p:index    sorted set id -> created_at (unix nanos)
//	p:summary  hash id -> summary JSON
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect redis %s", addr)
	}
	return NewRedisStoreFromClient(client, ""), nil
}

// NewRedisStoreFromClient wraps an existing client; the store closes it on
// Close.
func NewRedisStoreFromClient(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }
func (s *RedisStore) indexKey() string     { return s.prefix + ":index" }
func (s *RedisStore) summaryKey() string   { return s.prefix + ":summary" }

// Save stores v in a single transaction.
func (s *RedisStore) Save(ctx context.Context, v *Version) error {
	if err := validate(v); err != nil {
		return err
	}
	full, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode version")
	}
	sum, err := json.Marshal(v.Summary())
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode summary")
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(v.ID), full, 0)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(v.CreatedAt.UnixNano()), Member: v.ID})
		pipe.HSet(ctx, s.summaryKey(), v.ID, sum)
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save version %s", v.ID)
	}
	return nil
}

// Get loads one version.
func (s *RedisStore) Get(ctx context.Context, id string) (*Version, error) {
	if err := errors.ValidateVersionID(id); err != nil {
		return nil, notFound(id)
	}
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get version %s", id)
	}
	var v Version
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode version %s", id)
	}
	return &v, nil
}

// List returns summaries in index order, newest first.
func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list versions")
	}
	out := []Summary{}
	if len(ids) == 0 {
		return out, nil
	}
	vals, err := s.client.HMGet(ctx, s.summaryKey(), ids...).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list versions")
	}
	for _, raw := range vals {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var sum Summary
		if err := json.Unmarshal([]byte(str), &sum); err != nil {
			continue
		}
		out = append(out, sum)
	}
	return out, nil
}

// Delete removes one version and its index entries.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateVersionID(id); err != nil {
		return notFound(id)
	}
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		pipe.HDel(ctx, s.summaryKey(), id)
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete version %s", id)
	}
	if del.Val() == 0 {
		return notFound(id)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
