package layoutstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/wedding-seating/internal/seating"
)

// Redis keeps layout blobs as plain string keys under an optional prefix.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, seating.ErrBlobNotFound
	}
	return b, err
}

func (r *Redis) Save(ctx context.Context, key string, data []byte) error {
	return r.rdb.Set(ctx, r.key(key), data, 0).Err()
}

var _ seating.Persister = (*Redis)(nil)
