// Package gormstore implements the storage collaborator on MySQL or SQLite
// through GORM.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mx-space/engagement/internal/models"
	"github.com/mx-space/engagement/internal/pkg/apperr"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Options configures Open.
type Options struct {
	Driver      string
	DSN         string
	AutoMigrate bool
	LogLevel    logger.LogLevel
	OpTimeout   time.Duration
}

// Store is the GORM-backed storage collaborator.
type Store struct {
	db        *gorm.DB
	log       *zap.Logger
	opTimeout time.Duration
}

// Open connects with the configured driver and optionally runs auto-migration.
func Open(opts Options, log *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverMySQL, "":
		dialector = mysql.New(mysql.Config{
			DSN:               opts.DSN,
			DefaultStringSize: 191,
		})
	case DriverSQLite:
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	logLevel := opts.LogLevel
	if logLevel == 0 {
		logLevel = logger.Warn
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.Driver == DriverSQLite {
		// SQLite serializes writers anyway; a single connection keeps an
		// in-memory database shared and avoids "database is locked".
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s := New(db, log)
	s.opTimeout = opts.OpTimeout
	if opts.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return s, nil
}

// New wraps an existing connection.
func New(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log.Named("GormStore")}
}

// Migrate runs GORM auto-migration for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.PostModel{},
		&models.CommentModel{},
	)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperr.Storage(err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return apperr.Storage(sqlDB.PingContext(ctx))
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// translate maps driver errors onto apperr kinds.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Validation(entity + " with the same title or slug already exists")
	default:
		return apperr.Storage(err)
	}
}
