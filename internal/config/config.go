package config

import (
	"errors"  // Validation errors
	"fmt"     // Error formatting
	"math"    // Integer bounds
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // Durations

	"github.com/joho/godotenv" // For loading .env files
)

// Supported database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBDriver   string // mysql or sqlite
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	SQLitePath string // Database file when DBDriver is sqlite
	JWTSecret  string // JWT secret key
	RedisAddr  string // Redis server address, empty disables the cache
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	FreeRacesPerMeeting    uint          // Free unlocks per user per meeting
	GoldCostPerRace        uint64        // Gold debited for a paid unlock
	DefaultRevenueSharePct uint8         // Producer share when a profile has none
	StoreTimeout           time.Duration // Bound on every storage call
	AccessMaxAttempts      int           // Attempts on optimistic conflicts within one request
	CacheTTL               time.Duration // Lifetime of cached wallet and history views

	errs []error // Out of range values seen by LoadConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	c := &Config{
		AppPort:    getEnv("APP_PORT", "8080"),
		DBDriver:   getEnv("DB_DRIVER", DriverMySQL),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBName:     os.Getenv("DB_NAME"),
		SQLitePath: getEnv("SQLITE_PATH", "race_access.db"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		RedisPass:  os.Getenv("REDIS_PASS"),
		RedisDB:    getInt("REDIS_DB", 0),
		IsProd:     os.Getenv("IS_PROD") == "true",

		StoreTimeout: time.Duration(getInt("STORE_TIMEOUT_MS", 3000)) * time.Millisecond,
		CacheTTL:     time.Duration(getInt("CACHE_TTL_SECONDS", 60)) * time.Second,
	}
	// Range checked as int before narrowing so nothing wraps around
	c.FreeRacesPerMeeting = uint(c.bounded("FREE_RACES_PER_MEETING", 2, 0, math.MaxInt32))
	c.GoldCostPerRace = uint64(c.bounded("GOLD_COST_PER_RACE", 1, 1, math.MaxInt32))
	c.DefaultRevenueSharePct = uint8(c.bounded("DEFAULT_REVENUE_SHARE_PCT", 70, 0, 100))
	c.AccessMaxAttempts = c.bounded("ACCESS_MAX_ATTEMPTS", 3, 1, 100)
	return c
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	if err := errors.Join(c.errs...); err != nil {
		return err // Malformed or out of range environment values
	}
	switch {
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	case c.DBDriver != DriverMySQL && c.DBDriver != DriverSQLite:
		return errors.New("DB_DRIVER must be mysql or sqlite")
	case c.GoldCostPerRace == 0:
		return errors.New("GOLD_COST_PER_RACE must be positive")
	case c.DefaultRevenueSharePct > 100:
		return errors.New("DEFAULT_REVENUE_SHARE_PCT must be between 0 and 100")
	case c.StoreTimeout <= 0:
		return errors.New("STORE_TIMEOUT_MS must be positive")
	case c.AccessMaxAttempts < 1:
		return errors.New("ACCESS_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// DSN builds the MySQL Data Source Name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

// bounded reads an integer variable within [lo, hi]. Anything else is
// recorded for Validate and the default is used in its place.
func (c *Config) bounded(key string, def, lo, hi int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def // Unset
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		c.errs = append(c.errs, fmt.Errorf("%s must be an integer between %d and %d, got %q", key, lo, hi, raw))
		return def
	}
	return v
}

// getEnv returns the variable or a default when unset
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getInt parses an integer variable, falling back to def when unset or malformed
func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
