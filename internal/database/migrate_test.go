package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"00001_create_users.sql", "00002_create_messages.sql"}, names)

	users, err := fs.ReadFile(migrationsFS, migrationsDir+"/00001_create_users.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(users), "PRIMARY KEY (username)"))

	msgs, err := fs.ReadFile(migrationsFS, migrationsDir+"/00002_create_messages.sql")
	require.NoError(t, err)
	assert.Contains(t, string(msgs), "REFERENCES users (username)")
}

// Usernames compare byte for byte so "ALICE" never resolves to "alice".
func TestMigrations_UsernamesAreCaseSensitive(t *testing.T) {
	users, err := fs.ReadFile(migrationsFS, migrationsDir+"/00001_create_users.sql")
	require.NoError(t, err)
	assert.Regexp(t, `username\s+VARCHAR\(64\)\s+COLLATE utf8mb4_bin`, string(users))

	msgs, err := fs.ReadFile(migrationsFS, migrationsDir+"/00002_create_messages.sql")
	require.NoError(t, err)
	assert.Regexp(t, `from_username\s+VARCHAR\(64\)\s+COLLATE utf8mb4_bin`, string(msgs))
	assert.Regexp(t, `to_username\s+VARCHAR\(64\)\s+COLLATE utf8mb4_bin`, string(msgs))
}

func TestMigrate_UsesEmbeddedDir(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Migrate(context.Background(), nil))
	assert.Equal(t, "migrations", gotDir)
}

func TestMigrate_WrapsError(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	boom := errors.New("boom")
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error { return boom }

	err := Migrate(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "migrate:")
}
