package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/config"
)

// stubDriver hands out connections that answer pings and nothing else
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }

func init() {
	sql.Register("inkmind-stub", stubDriver{})
}

// closingRunner closes its connection on Close like the migrate postgres driver
type closingRunner struct {
	conn *sql.DB
	up   error
	ran  bool
}

func (r *closingRunner) Up() error {
	r.ran = true
	return r.up
}

func (r *closingRunner) Close() (error, error) {
	return nil, r.conn.Close()
}

func stubDB(t *testing.T) *DB {
	t.Helper()
	conn, err := sql.Open("inkmind-stub", "shared")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &DB{
		DB:     sqlx.NewDb(conn, "postgres"),
		config: config.DatabaseConfig{Host: "localhost", Port: 5432, Name: "inkmind"},
	}
}

func stubMigrations(t *testing.T, up error) (*closingRunner, *[]string) {
	t.Helper()
	origOpen, origRunner := openMigrationDB, newMigrationRunner
	t.Cleanup(func() {
		openMigrationDB, newMigrationRunner = origOpen, origRunner
	})

	var dsns []string
	runner := &closingRunner{up: up}
	openMigrationDB = func(dsn string) (*sql.DB, error) {
		dsns = append(dsns, dsn)
		return sql.Open("inkmind-stub", dsn)
	}
	newMigrationRunner = func(conn *sql.DB) (migrationRunner, error) {
		runner.conn = conn
		return runner, nil
	}
	return runner, &dsns
}

func TestMigrateUpKeepsPoolOpen(t *testing.T) {
	db := stubDB(t)
	runner, dsns := stubMigrations(t, nil)

	require.NoError(t, db.MigrateUp())
	assert.True(t, runner.ran)
	assert.Len(t, *dsns, 1)
	assert.Contains(t, (*dsns)[0], "dbname=inkmind")

	assert.Error(t, runner.conn.Ping(), "migration connection is released")
	assert.NoError(t, db.DB.Ping())
	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestMigrateUpNoChangeIsNotAnError(t *testing.T) {
	db := stubDB(t)
	stubMigrations(t, migrate.ErrNoChange)

	assert.NoError(t, db.MigrateUp())
	assert.NoError(t, db.DB.Ping())
}

func TestMigrateUpFailure(t *testing.T) {
	db := stubDB(t)
	stubMigrations(t, errors.New("syntax error at or near \"TABEL\""))

	err := db.MigrateUp()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration failed")
	assert.NoError(t, db.DB.Ping())
}

func TestMigrateUpRunnerErrorReleasesConnection(t *testing.T) {
	db := stubDB(t)
	origOpen, origRunner := openMigrationDB, newMigrationRunner
	t.Cleanup(func() {
		openMigrationDB, newMigrationRunner = origOpen, origRunner
	})

	var conn *sql.DB
	openMigrationDB = func(dsn string) (*sql.DB, error) {
		c, err := sql.Open("inkmind-stub", dsn)
		conn = c
		return c, err
	}
	newMigrationRunner = func(*sql.DB) (migrationRunner, error) {
		return nil, errors.New("failed to create migration driver")
	}

	assert.EqualError(t, db.MigrateUp(), "failed to create migration driver")
	assert.Error(t, conn.Ping())
	assert.NoError(t, db.DB.Ping())
}

func TestGetConnectionInfo(t *testing.T) {
	db := stubDB(t)
	info := db.GetConnectionInfo()
	assert.Contains(t, info, "open_connections")
	assert.Contains(t, info, "wait_duration")
}
