// Package dbtest opens isolated sqlite databases carrying the full schema.
package dbtest

import (
	"context"
	"strings"
	"testing"

	"github.com/angelmondragon/wedplan-backend/pkg/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns an in-memory sqlite database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// shared-cache sqlite reports lock errors instead of waiting
	sqlDB.SetMaxOpenConns(1)

	if err := db.EnsureSQLiteSchema(context.Background(), conn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Client wraps Open in a db.Client for code that needs WithTx.
func Client(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromGorm(Open(t))
}
