package main

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/000002_b.up.sql": {Data: []byte("SELECT 2;")},
		"migrations/000001_a.up.sql": {Data: []byte("SELECT 1;")},
		"migrations/README.md":       {Data: []byte("ignored")},
	}

	got, err := loadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "000001_a", got[0].version)
	assert.Equal(t, "SELECT 1;", got[0].sql)
	assert.Equal(t, "000002_b", got[1].version)
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := loadMigrations(migrationFS)
	require.NoError(t, err)
	require.Len(t, got, 6)
	assert.Equal(t, "000001_create_users", got[0].version)
	assert.Contains(t, got[2].sql, "join_requests_one_pending_idx")
}
