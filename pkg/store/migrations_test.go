package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMigrationsAreOrdered(t *testing.T) {
	migrations := GetMigrations()
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.Description)
		assert.NotEmpty(t, m.SQL)
	}
}

func TestRunMigrationsSkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS permcache_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied := sqlmock.NewRows([]string{"count"}).AddRow(1)
	pending := sqlmock.NewRows([]string{"count"}).AddRow(0)

	migrations := GetMigrations()
	for i, m := range migrations {
		if i == 0 {
			// version 1 is already recorded and must not re-run
			mock.ExpectQuery("SELECT COUNT").WithArgs(m.Version).WillReturnRows(applied)
			continue
		}
		mock.ExpectQuery("SELECT COUNT").WithArgs(m.Version).WillReturnRows(pending)
		pending = sqlmock.NewRows([]string{"count"}).AddRow(0)
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO permcache_migrations").
			WithArgs(m.Version, m.Description).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	require.NoError(t, RunMigrations(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
