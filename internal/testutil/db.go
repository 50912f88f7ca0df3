// Package testutil provides an in-memory database for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/pkg/config"
	"github.com/suteetoe/claimdesk/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// OpenTestDB returns a migrated SQLite database private to the calling test.
// A single connection is used so the in-memory database lives as long as the pool.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbSeq.Add(1))
	db, err := database.Open(sqlite.Open(dsn), &config.DBConfig{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateModels(db, model.All()...))

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

// CreateUser inserts an active user with the given email and password.
func CreateUser(t *testing.T, db *gorm.DB, email, password string, staff bool) *model.User {
	t.Helper()

	u := &model.User{Email: email, Name: email, IsActive: true, IsStaff: staff}
	require.NoError(t, u.SetPassword(password))
	require.NoError(t, db.Create(u).Error)
	return u
}
