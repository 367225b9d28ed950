package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strings"
)

// Guest directory drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config holds the runtime configuration of the HTTP service.  Each field
// corresponds to an environment variable.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	Directory DirectoryConfig
	Auth      AuthConfig
}

// DirectoryConfig locates the guest directory database.  MySQL is
// configured through the DB_* parts, Postgres through a single DSN.
type DirectoryConfig struct {
	Driver string
	DSN    string
	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string
}

// AuthConfig holds the JWT settings shared with the hosted backend.
type AuthConfig struct {
	JWTSecret    string // HS256 secret used to verify (and in dev, mint) tokens
	AdminRole    string // role claim required on /v1/admin routes
	AccessTTLMin int    // lifetime of tokens minted by seatctl
}

// Load reads the service configuration.  Required variables are enforced
// by must() and missing values cause the program to exit.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		Directory: LoadDirectoryConfig(),
		Auth:      LoadAuthConfig(),
	}
}

// LoadDirectoryConfig reads GUEST_DB_DRIVER (mysql by default) and the
// variables that driver needs.
func LoadDirectoryConfig() DirectoryConfig {
	driver := strings.ToLower(envStr("GUEST_DB_DRIVER", DriverMySQL))
	switch driver {
	case DriverPostgres, "pgx":
		return DirectoryConfig{Driver: DriverPostgres, DSN: must("GUEST_DB_DSN")}
	case DriverMySQL:
		return DirectoryConfig{
			Driver: DriverMySQL,
			DBUser: must("DB_USER"),
			DBPass: os.Getenv("DB_PASS"), // empty allowed
			DBHost: must("DB_HOST"),
			DBPort: must("DB_PORT"),
			DBName: must("DB_NAME"),
		}
	default:
		log.Fatalf("unsupported GUEST_DB_DRIVER: %q", driver)
		return DirectoryConfig{}
	}
}

// LoadAuthConfig reads JWT_SECRET (required), ADMIN_ROLE and
// ACCESS_TOKEN_TTL_MIN.
func LoadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:    must("JWT_SECRET"),
		AdminRole:    envStr("ADMIN_ROLE", "authenticated"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
