package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/thriftdrop-backend/pkg/config"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db"
	"github.com/angelmondragon/thriftdrop-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date at startup, but only in dev with
// THRIFTDROP_AUTO_MIGRATE set. Postgres gets the embedded goose migrations;
// sqlite gets the equivalent hand-written schema.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"service":   cfg.Service.Kind,
		"db_driver": cfg.DB.Driver,
	})

	if cfg.DB.IsSQLite() {
		if err := ApplySQLite(ctx, client.DB()); err != nil {
			return err
		}
		logg.Info(ctx, "sqlite schema applied")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	logg.Info(ctx, "running embedded goose migrations")
	if err := RunEmbedded(ctx, sqlDB, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}
