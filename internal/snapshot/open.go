package snapshot

import (
	"context"

	"github.com/wonny/covidwatch/pkg/config"
	"github.com/wonny/covidwatch/pkg/database"
)

// Open picks PostgreSQL when a database URL is configured, bbolt otherwise
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if !cfg.UsePostgres() {
		return OpenBolt(cfg.Storage.DataDir)
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := NewPostgres(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
