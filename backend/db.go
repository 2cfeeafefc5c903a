package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
	"gitea.kood.tech/petrkubec/campus-compass/backend/store"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// openCatalogStore picks the catalog source: database, then YAML file, then
// the built-in tables. The returned close func is never nil.
func openCatalogStore(ctx context.Context, cfg *Config, log *zap.Logger) (store.CatalogStore, func() error, error) {
	noop := func() error { return nil }

	switch {
	case cfg.DatabaseURL != "":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("connecting to the database: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("cannot reach the database: %w", err)
		}
		log.Info("database connection established, reading catalog from postgres")
		return store.NewPostgresStore(db), db.Close, nil

	case cfg.CatalogFile != "":
		c, err := store.LoadYAML(cfg.CatalogFile)
		if err != nil {
			return nil, noop, err
		}
		s, err := store.NewMemoryStore(c)
		if err != nil {
			return nil, noop, err
		}
		log.Info("catalog loaded from file", zap.String("path", cfg.CatalogFile))
		return s, noop, nil
	}

	s, err := store.NewMemoryStore(compass.DefaultCatalog())
	if err != nil {
		return nil, noop, err
	}
	log.Info("using built-in catalog")
	return s, noop, nil
}
