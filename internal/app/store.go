package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mx-space/engagement/internal/config"
	"github.com/mx-space/engagement/internal/store"
	"github.com/mx-space/engagement/internal/store/gormstore"
	"github.com/mx-space/engagement/internal/store/mongostore"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

func openStore(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (store.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		return mongostore.Open(ctx, mongostore.Options{
			URI:       cfg.Mongo.URI,
			Database:  cfg.Mongo.Database,
			OpTimeout: cfg.Mongo.Timeout,
		}, log)
	default:
		dsn := cfg.Database.DSNValue()
		if cfg.Database.Driver == config.DriverSQLite && filepath.IsAbs(dsn) {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, err
			}
		}
		level := logger.Warn
		if cfg.IsDev() {
			level = logger.Info
		}
		return gormstore.Open(gormstore.Options{
			Driver:      cfg.Database.Driver,
			DSN:         dsn,
			AutoMigrate: true,
			LogLevel:    level,
			OpTimeout:   cfg.Database.OpTimeout,
		}, log)
	}
}
