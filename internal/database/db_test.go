package database

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN_RoundTrip(t *testing.T) {
	dsn := DSN("app", "p@ss", "db.local", "3307", "messagely")

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "p@ss", cfg.Passwd)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db.local:3307", cfg.Addr)
	assert.Equal(t, "messagely", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, time.UTC, cfg.Loc)
	assert.True(t, cfg.ClientFoundRows)
}

func TestDSN_NoPassword(t *testing.T) {
	dsn := DSN("app", "", "localhost", "3306", "messagely")

	assert.Contains(t, dsn, "app@tcp(localhost:3306)/messagely")
}
