package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Web       WebConfig
	Auth      AuthConfig
	Database  DatabaseConfig
	Embedding EmbeddingConfig
	Matching  MatchingConfig
	Ledger    LedgerConfig
	Log       LogConfig
	Geofence  GeofenceDefaults
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // extra CORS origins; localhost is always allowed
}

type AuthConfig struct {
	JWTSecret         string        // required by serve, no built-in default
	AdminUsername     string        // defaults to "admin"
	AdminPassword     string        // plain admin password (development)
	AdminPasswordHash string        // bcrypt hash, preferred over AdminPassword
	TokenTTL          time.Duration // defaults to 24h
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL; when empty the JSON file backend is used
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
	DataDir      string // Directory for the JSON file backend (default ./data)
}

type EmbeddingConfig struct {
	URL     string        // face embedding server, defaults to http://localhost:8000
	Timeout time.Duration // bound on a single extraction call (default 30s)
}

type MatchingConfig struct {
	MatchThreshold     float64 `yaml:"match_threshold"`
	DuplicateThreshold float64 `yaml:"duplicate_threshold"`
}

type LedgerConfig struct {
	Timezone         string        // IANA zone used to derive periods; empty means local time
	RolloverInterval time.Duration // background rollover interval (default 1h)
}

// Location resolves the configured time zone, falling back to local time.
func (c *LedgerConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type LogConfig struct {
	Level string // debug, info, warn, error
}

// GeofenceDefaults is the policy used until an administrator saves one.
type GeofenceDefaults struct {
	Enabled      bool    `yaml:"enabled"`
	Latitude     float64 `yaml:"latitude"`
	Longitude    float64 `yaml:"longitude"`
	RadiusMeters float64 `yaml:"radius"`
	LocationName string  `yaml:"location_name"`
}

type defaultsFile struct {
	Matching MatchingConfig   `yaml:"matching"`
	Geofence GeofenceDefaults `yaml:"geofence"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a float in [0, 1]. Out-of-range or invalid values yield the default.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f <= 1 {
		return f
	}
	return defaultVal
}

// envDuration reads a Go duration string such as "30s" or "1h".
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envList(key string) []string {
	var out []string
	for o := range strings.SplitSeq(os.Getenv(key), ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func Load() *Config {
	var defaults defaultsFile
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 5000),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			AdminUsername:     envString("ADMIN_USERNAME", "admin"),
			AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			TokenTTL:          envDuration("TOKEN_TTL", 24*time.Hour),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
			DataDir:      envString("DATA_DIR", "data"),
		},
		Embedding: EmbeddingConfig{
			URL:     envString("EMBEDDING_URL", "http://localhost:8000"),
			Timeout: envDuration("EXTRACT_TIMEOUT", 30*time.Second),
		},
		Matching: MatchingConfig{
			MatchThreshold:     envFloat("MATCH_THRESHOLD", defaults.Matching.MatchThreshold),
			DuplicateThreshold: envFloat("DUPLICATE_THRESHOLD", defaults.Matching.DuplicateThreshold),
		},
		Ledger: LedgerConfig{
			Timezone:         os.Getenv("TIMEZONE"),
			RolloverInterval: envDuration("ROLLOVER_INTERVAL", time.Hour),
		},
		Log: LogConfig{
			Level: envString("LOG_LEVEL", "info"),
		},
		Geofence: defaults.Geofence,
	}
}
