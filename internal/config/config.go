package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	AppEnv  string
	AppPort string

	CatalogBaseURL   string
	CatalogTimeout   time.Duration
	CatalogRPS       float64
	CatalogBurst     int
	CatalogCacheSize int
	CatalogCacheTTL  time.Duration

	PageSize              int
	StockCheckConcurrency int

	StoreDriver string
	StorePath   string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string

	BridgeSecret string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8080"),

		CatalogBaseURL:   getEnv("CATALOG_BASE_URL", "https://dummyjson.com"),
		CatalogTimeout:   getDuration("CATALOG_TIMEOUT", 15*time.Second),
		CatalogRPS:       getFloat("CATALOG_RPS", 10),
		CatalogBurst:     getInt("CATALOG_BURST", 20),
		CatalogCacheSize: getInt("CATALOG_CACHE_SIZE", 256),
		CatalogCacheTTL:  getDuration("CATALOG_CACHE_TTL", time.Minute),

		PageSize:              getInt("PAGE_SIZE", 12),
		StockCheckConcurrency: getInt("STOCK_CHECK_CONCURRENCY", 4),

		StoreDriver: getEnv("STORE_DRIVER", DriverSQLite),
		StorePath:   getEnv("STORE_PATH", "shop.db"),
		DBHost:      os.Getenv("DB_HOST"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBPort:      getEnv("DB_PORT", "5432"),

		BridgeSecret: os.Getenv("BRIDGE_SECRET"),
	}
}

// Validate reports settings that would leave the app unable to start.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if c.StorePath == "" {
			return errors.New("STORE_PATH is required for the sqlite3 driver")
		}
	case DriverPostgres:
		if c.DBHost == "" {
			return errors.New("DB_HOST is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.PageSize <= 0 {
		return errors.New("PAGE_SIZE must be positive")
	}
	if c.StockCheckConcurrency <= 0 {
		return errors.New("STOCK_CHECK_CONCURRENCY must be positive")
	}
	if c.CatalogBaseURL == "" {
		return errors.New("CATALOG_BASE_URL is required")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.AppPort
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}
