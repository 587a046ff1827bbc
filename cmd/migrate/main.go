package main

import (
	"github.com/sirupsen/logrus" // Logging library

	"race_access/internal/config" // Configuration
	"race_access/internal/db"     // Database connection
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	conn, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		logrus.Fatalf("%v", err)
	}
	logrus.WithField("driver", cfg.DBDriver).Info("Migration completed")
}
