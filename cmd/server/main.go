package main

import (
	"context" // Context for the Redis ping

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging

	"race_access/internal/access"  // Access gate
	"race_access/internal/api"     // API handlers
	"race_access/internal/config"  // Configuration
	"race_access/internal/db"      // Database connection
	"race_access/internal/metrics" // Prometheus metrics
	"race_access/internal/store"   // Data access
	"race_access/internal/utils"   // Read cache
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	conn, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if cfg.DBDriver == config.DriverSQLite {
		if err := db.Migrate(conn); err != nil { // Local runs create their own schema
			logrus.Fatalf("failed to migrate: %v", err)
		}
	}

	// Redis is optional; without it every read goes to the database
	var rdb redis.Cmdable
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		rdb = client
	}

	rec := metrics.New()
	st := store.New(conn, cfg.StoreTimeout)
	gate := access.NewGate(st, access.Options{
		FreeRacesPerMeeting:    cfg.FreeRacesPerMeeting,
		GoldCostPerRace:        cfg.GoldCostPerRace,
		DefaultRevenueSharePct: cfg.DefaultRevenueSharePct,
		MaxAttempts:            cfg.AccessMaxAttempts,
	}, utils.NewCache(rdb, cfg.CacheTTL), rec)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default() // Gin router instance
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}
	api.Register(r, api.Deps{Gate: gate, Store: st, Metrics: rec, JWTSecret: cfg.JWTSecret})

	logrus.WithFields(logrus.Fields{
		"port":          cfg.AppPort,
		"driver":        cfg.DBDriver,
		"cache":         rdb != nil,
		"free_per_meet": cfg.FreeRacesPerMeeting,
		"gold_per_race": cfg.GoldCostPerRace,
	}).Info("Server running")
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
