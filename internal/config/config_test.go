package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("FREE_RACES_PER_MEETING", "")
	t.Setenv("GOLD_COST_PER_RACE", "")
	t.Setenv("STORE_TIMEOUT_MS", "")
	t.Setenv("DB_DRIVER", "")

	cfg := LoadConfig()

	assert.Equal(t, uint(2), cfg.FreeRacesPerMeeting)
	assert.Equal(t, uint64(1), cfg.GoldCostPerRace)
	assert.Equal(t, uint8(70), cfg.DefaultRevenueSharePct)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("FREE_RACES_PER_MEETING", "5")
	t.Setenv("GOLD_COST_PER_RACE", "3")
	t.Setenv("STORE_TIMEOUT_MS", "250")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, uint(5), cfg.FreeRacesPerMeeting)
	assert.Equal(t, uint64(3), cfg.GoldCostPerRace)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoadConfig_RejectsOutOfRangeIntegers(t *testing.T) {
	tests := map[string]string{
		"DEFAULT_REVENUE_SHARE_PCT": "300",
		"FREE_RACES_PER_MEETING":    "-1",
		"GOLD_COST_PER_RACE":        "0",
		"ACCESS_MAX_ATTEMPTS":       "zero",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s")
			t.Setenv(key, value)

			cfg := LoadConfig()

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadConfig_SharePctDoesNotWrap(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DEFAULT_REVENUE_SHARE_PCT", "300")

	cfg := LoadConfig()

	assert.Equal(t, uint8(70), cfg.DefaultRevenueSharePct)
	assert.Error(t, cfg.Validate())
}

func TestLoadConfig_AcceptsBounds(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DEFAULT_REVENUE_SHARE_PCT", "100")
	t.Setenv("FREE_RACES_PER_MEETING", "0")
	t.Setenv("ACCESS_MAX_ATTEMPTS", "1")

	cfg := LoadConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, uint8(100), cfg.DefaultRevenueSharePct)
	assert.Equal(t, uint(0), cfg.FreeRacesPerMeeting)
	assert.Equal(t, 1, cfg.AccessMaxAttempts)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWTSecret:              "s",
			DBDriver:               DriverSQLite,
			GoldCostPerRace:        1,
			DefaultRevenueSharePct: 70,
			StoreTimeout:           time.Second,
			AccessMaxAttempts:      3,
		}
	}
	assert.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"missing secret":  func(c *Config) { c.JWTSecret = "" },
		"unknown driver":  func(c *Config) { c.DBDriver = "oracle" },
		"free gold":       func(c *Config) { c.GoldCostPerRace = 0 },
		"share above 100": func(c *Config) { c.DefaultRevenueSharePct = 101 },
		"no timeout":      func(c *Config) { c.StoreTimeout = 0 },
		"no attempts":     func(c *Config) { c.AccessMaxAttempts = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	c := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "races"}
	assert.Equal(t, "u:p@tcp(h:3306)/races?parseTime=true", c.DSN())
}
