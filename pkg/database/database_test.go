package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/claimdesk/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm/logger"
)

func TestOpen_AppliesPoolSettings(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	cfg := &config.DBConfig{
		MaxIdleConns:    2,
		MaxOpenConns:    7,
		ConnMaxLifetime: time.Minute,
		LogLevel:        logger.Silent,
	}

	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
	require.NoError(t, err)

	pool, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 7, pool.Stats().MaxOpenConnections)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	// gorm pings once while opening
	mock.ExpectPing()
	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}), &config.DBConfig{LogLevel: logger.Silent})
	require.NoError(t, err)

	mock.ExpectPing()
	assert.NoError(t, Ping(context.Background(), db))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, Ping(context.Background(), db))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateModels_NilDB(t *testing.T) {
	assert.Error(t, MigrateModels(nil))
}
