package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnv              = "development"
	defaultHTTPHost         = "0.0.0.0"
	defaultHTTPPort         = 8080
	defaultLogLevel         = "info"
	defaultLogFormat        = "json"
	defaultDataDir          = "./.data"
	defaultTradesEndpoint   = "https://ant.aliceblueonline.com/open-api/od/v1/trades"
	defaultRequestsPerSec   = 5
	defaultAccountID        = "Master"
	defaultTradesLimit      = 200
	defaultRedisDB          = 0
	defaultCacheTTLSeconds  = 30
	defaultTradesExchange   = "tradebook.trades"
	defaultPollIntervalSecs = 60

	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"
)

// Config keeps the runtime configuration for the service.
type Config struct {
	Env      string
	HTTP     HTTPConfig
	Log      LogConfig
	Store    StoreConfig
	Alice    AliceConfig
	Trades   TradesConfig
	Redis    RedisConfig
	Cache    CacheConfig
	RabbitMQ RabbitMQConfig
	Poll     PollConfig
}

// HTTPConfig holds HTTP server related settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

type LogConfig struct {
	Level  string
	Format string
}

// StoreConfig selects where the token and trade documents live.
type StoreConfig struct {
	Backend     string
	DataDir     string
	DatabaseDSN string
}

// AliceConfig configures the broker trade book client.
type AliceConfig struct {
	TradesEndpoint    string
	Timeout           time.Duration
	RequestsPerSecond float64
	DefaultAccountID  string
}

type TradesConfig struct {
	DefaultLimit int
}

// RedisConfig stores Redis connection parameters. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig stores cache behavior.
type CacheConfig struct {
	TTLSeconds int
}

// RabbitMQConfig enables trade event publishing when URL is set.
type RabbitMQConfig struct {
	URL            string
	TradesExchange string
}

type PollConfig struct {
	Accounts []string
	Interval time.Duration
}

// Load builds Config from environment variables, reading a .env file first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getInt("HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return nil, fmt.Errorf("parse HTTP_PORT: %w", err)
	}

	backend := strings.ToLower(getString("STORE_BACKEND", StoreBackendFile))
	dsn := os.Getenv("DATABASE_DSN")
	switch backend {
	case StoreBackendFile:
	case StoreBackendPostgres:
		if dsn == "" {
			return nil, errors.New("DATABASE_DSN is required when STORE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", backend)
	}

	timeoutSeconds, err := getInt("ALICE_HTTP_TIMEOUT_SECONDS", 0)
	if err != nil {
		return nil, fmt.Errorf("parse ALICE_HTTP_TIMEOUT_SECONDS: %w", err)
	}
	rps, err := getFloat("ALICE_REQUESTS_PER_SECOND", defaultRequestsPerSec)
	if err != nil {
		return nil, fmt.Errorf("parse ALICE_REQUESTS_PER_SECOND: %w", err)
	}

	limit, err := getInt("TRADES_DEFAULT_LIMIT", defaultTradesLimit)
	if err != nil {
		return nil, fmt.Errorf("parse TRADES_DEFAULT_LIMIT: %w", err)
	}

	redisDB, err := getInt("REDIS_DB", defaultRedisDB)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_DB: %w", err)
	}

	cacheTTL, err := getInt("CACHE_TTL_SECONDS", defaultCacheTTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse CACHE_TTL_SECONDS: %w", err)
	}

	pollInterval, err := getInt("POLL_INTERVAL_SECONDS", defaultPollIntervalSecs)
	if err != nil {
		return nil, fmt.Errorf("parse POLL_INTERVAL_SECONDS: %w", err)
	}

	return &Config{
		Env:  getString("APP_ENV", defaultEnv),
		HTTP: HTTPConfig{Host: getString("HTTP_HOST", defaultHTTPHost), Port: port},
		Log: LogConfig{
			Level:  getString("LOG_LEVEL", defaultLogLevel),
			Format: getString("LOG_FORMAT", defaultLogFormat),
		},
		Store: StoreConfig{
			Backend:     backend,
			DataDir:     getString("DATA_DIR", defaultDataDir),
			DatabaseDSN: dsn,
		},
		Alice: AliceConfig{
			TradesEndpoint:    getString("ALICE_TRADES_ENDPOINT", defaultTradesEndpoint),
			Timeout:           time.Duration(timeoutSeconds) * time.Second,
			RequestsPerSecond: rps,
			DefaultAccountID:  getString("DEFAULT_ACCOUNT_ID", defaultAccountID),
		},
		Trades: TradesConfig{DefaultLimit: limit},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			TTLSeconds: cacheTTL,
		},
		RabbitMQ: RabbitMQConfig{
			URL:            os.Getenv("RABBITMQ_URL"),
			TradesExchange: getString("RABBITMQ_TRADES_EXCHANGE", defaultTradesExchange),
		},
		Poll: PollConfig{
			Accounts: getList("POLL_ACCOUNTS"),
			Interval: time.Duration(pollInterval) * time.Second,
		},
	}, nil
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int: %w", key, value, err)
	}
	return parsed, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to float: %w", key, value, err)
	}
	return parsed, nil
}

func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
