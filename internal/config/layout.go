package config

// Layout persistence backends.
const (
	LayoutBackendMemory = "memory"
	LayoutBackendRedis  = "redis"
	LayoutBackendSQLite = "sqlite"
)

// LayoutConfig selects where the table layout and seat map are kept and
// how the plan reacts to drops.
type LayoutConfig struct {
	Backend              string
	SQLitePath           string
	RedisPrefix          string
	RotationAwareHitTest bool
}

// LoadLayoutConfig reads LAYOUT_BACKEND (sqlite by default),
// LAYOUT_SQLITE_PATH, LAYOUT_REDIS_PREFIX and HITTEST_ROTATION_AWARE.
func LoadLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Backend:              envStr("LAYOUT_BACKEND", LayoutBackendSQLite),
		SQLitePath:           envStr("LAYOUT_SQLITE_PATH", "data/layout.db"),
		RedisPrefix:          envStr("LAYOUT_REDIS_PREFIX", "seating"),
		RotationAwareHitTest: envBool("HITTEST_ROTATION_AWARE", false),
	}
}
