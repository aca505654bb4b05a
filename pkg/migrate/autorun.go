package migrate

import (
	"context"
	"fmt"

	"github.com/linkcart/storefront-core/pkg/config"
	"github.com/linkcart/storefront-core/pkg/db"
	"github.com/linkcart/storefront-core/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on boot in dev when
// STOREFRONT_AUTO_MIGRATE is set. SQLite dev databases are skipped.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})
	if cfg.DB.Driver == config.DriverSQLite {
		logg.Warn(ctx, "auto-migrate skipped: migrations target postgres")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	migrator, err := New(sqlDB, Embedded(), logg)
	if err != nil {
		return err
	}

	logg.Info(ctx, "auto-migrate starting")
	if err := migrator.Run(ctx, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "auto-migrate finished")
	return nil
}
