package layoutstore

import (
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/wedding-seating/internal/config"
	"github.com/iliyamo/wedding-seating/internal/seating"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the persister selected by cfg.Backend.  The returned closer
// releases the backend; it is a no-op for memory and Redis, whose client
// belongs to the caller.
func New(cfg config.LayoutConfig, rdb *redis.Client) (seating.Persister, io.Closer, error) {
	switch cfg.Backend {
	case "", config.LayoutBackendMemory:
		return seating.NewMemoryPersister(), nopCloser{}, nil
	case config.LayoutBackendRedis:
		if rdb == nil {
			return nil, nil, fmt.Errorf("layout backend %q needs a reachable redis", cfg.Backend)
		}
		return NewRedis(rdb, cfg.RedisPrefix), nopCloser{}, nil
	case config.LayoutBackendSQLite:
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown layout backend %q", cfg.Backend)
	}
}
