package main

import (
	"context"
	"fmt"
	"os"

	"NewsHarvester/internal/config"
	"NewsHarvester/internal/infrastructure/storage"
	"NewsHarvester/internal/logging"
)

func main() {
	if len(os.Args) != 2 || (os.Args[1] != storage.MigrateUp && os.Args[1] != storage.MigrateDown) {
		fmt.Fprintf(os.Stderr, "usage: %s up|down\n", os.Args[0])
		os.Exit(2)
	}
	direction := os.Args[1]

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format).With("component", "migrate")

	db, err := storage.Open(context.Background(), cfg.Database.DSN)
	if err != nil {
		logger.Error("cannot connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	changed, err := storage.Migrate(db, direction)
	if err != nil {
		logger.Error("migration failed", "direction", direction, "error", err)
		db.Close()
		os.Exit(1)
	}
	logger.Info("migration finished", "direction", direction, "changed", changed)
}
