package database

import (
	"testing"

	"github.com/nmang004/atlas-sub000/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "atlas.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteDSN("atlas.db"))
	assert.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteDSN("file:x?mode=memory"))
}

func TestConnectSQLiteAndMigrate(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBPath: "file:migrate_test?mode=memory&cache=shared"}

	db, err := Connect(cfg)
	require.NoError(t, err)
	assert.Same(t, db, DB)

	require.NoError(t, Migrate(db))
	for _, table := range []string{"users", "user_preferences", "categories", "prompts", "prompt_variables", "prompt_variants", "prompt_examples", "prompt_votes"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}
