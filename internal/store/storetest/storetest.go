// Package storetest provides throwaway SQLite-backed stores for package tests.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mx-space/engagement/internal/store/gormstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// NewSQLite opens a migrated in-memory database private to t.
func NewSQLite(t testing.TB) *gormstore.Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
	s, err := gormstore.Open(gormstore.Options{
		Driver:      gormstore.DriverSQLite,
		DSN:         dsn,
		AutoMigrate: true,
		LogLevel:    logger.Silent,
	}, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}
