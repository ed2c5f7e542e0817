package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cglreviews/internal/logging"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory(context.Background(), t.Name(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.CloseDB() })
	return db
}

func TestOpenMemory_AppliesSchema(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"users", "posts", "ratings", "images", "post_images", "post_votes",
		"admin_favorites", "sessions", "verify", "password_resets", "email_changes", "suspended",
		"user_status_changes", "location_types", "programs", "user_statuses", "meta"} {
		var count int
		found, err := db.Executor().Get(ctx, &count, "SELECT COUNT(*) FROM "+table)
		require.NoError(t, err, table)
		assert.True(t, found)
		assert.Zero(t, count)
	}

	// applying the schema twice is harmless
	assert.NoError(t, db.RunMigrations(ctx))
	assert.NoError(t, db.HealthCheck(ctx))
}

func TestWithTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		err := db.WithTx(ctx, func(exec *Executor) error {
			_, err := exec.Exec(ctx, "INSERT INTO meta (name, value) VALUES (?, ?)", "a", "1")
			return err
		})
		require.NoError(t, err)

		var value string
		found, err := db.Executor().Get(ctx, &value, "SELECT value FROM meta WHERE name = ?", "a")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "1", value)
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTx(ctx, func(exec *Executor) error {
			if _, err := exec.Exec(ctx, "INSERT INTO meta (name, value) VALUES (?, ?)", "b", "2"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var value string
		found, err := db.Executor().Get(ctx, &value, "SELECT value FROM meta WHERE name = ?", "b")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("foreign keys are enforced", func(t *testing.T) {
		_, err := db.Executor().Exec(ctx,
			"INSERT INTO sessions (id, user_id, create_time, update_time) VALUES (?, ?, ?, ?)",
			"s1", "nobody", 1, 1)
		var qerr *QueryError
		assert.True(t, errors.As(err, &qerr))
	})
}
