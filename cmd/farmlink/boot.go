package main

import (
	"io"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/config"
	"github.com/shashiranjanraj/farmlink/pkg/database"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
	"github.com/shashiranjanraj/farmlink/pkg/metrics"
)

// boot loads config and installs the process logger.
func boot() (*config.Config, io.Closer, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	closer, err := logger.Setup(logger.Options{
		Production: cfg.IsProduction(),
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.IsProduction() && cfg.InsecureSecret() {
		logger.Warn("SECRET_KEY is the default value; set a real secret in production")
	}
	return cfg, closer, nil
}

// openDB connects to the configured database. m may be nil.
func openDB(cfg *config.Config, m *metrics.Metrics) (*gorm.DB, error) {
	var opts []database.Option
	if m != nil {
		opts = append(opts, database.WithObserver(m.ObserveDBQuery))
	}
	return database.Open(cfg.DBDriver, cfg.DatabaseURL, opts...)
}

// withDB boots, opens the database and runs fn.
func withDB(fn func(cfg *config.Config, db *gorm.DB) error) error {
	cfg, closer, err := boot()
	if err != nil {
		return err
	}
	defer closer.Close()

	db, err := openDB(cfg, nil)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return fn(cfg, db)
}
