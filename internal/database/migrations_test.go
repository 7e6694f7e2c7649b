package database_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Kyz7/formbuilder/internal/database"
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func writeMigration(t *testing.T, dir, name, sql string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644))
}

func indexExists(t *testing.T, db *gorm.DB, name string) bool {
	var count int64
	require.NoError(t, db.Raw("SELECT count(*) FROM sqlite_master WHERE type = 'index' AND name = ?", name).Scan(&count).Error)
	return count == 1
}

func TestRunMigrations(t *testing.T) {
	db := testutils.TestDB(t)
	dir := t.TempDir()
	writeMigration(t, dir, "001_links.sql", "CREATE INDEX IF NOT EXISTS idx_test_links ON survey_links (user_id, survey_id);")
	writeMigration(t, dir, "rollback_001_links.sql", "DROP INDEX IF EXISTS idx_test_links;")

	t.Run("Success - Applies pending files once", func(t *testing.T) {
		require.NoError(t, database.RunMigrations(db, dir))
		assert.True(t, indexExists(t, db, "idx_test_links"))

		require.NoError(t, database.RunMigrations(db, dir))
		applied, err := database.GetAppliedMigrations(db)
		require.NoError(t, err)
		require.Len(t, applied, 1)
		assert.Equal(t, "001_links.sql", applied[0].Version)
	})

	t.Run("Success - Rollback drops the index and the record", func(t *testing.T) {
		require.NoError(t, database.RollbackMigration(db, dir, "001_links.sql"))
		assert.False(t, indexExists(t, db, "idx_test_links"))

		applied, err := database.GetAppliedMigrations(db)
		require.NoError(t, err)
		assert.Empty(t, applied)
	})

	t.Run("Error - Rollback of an unknown version", func(t *testing.T) {
		assert.Error(t, database.RollbackMigration(db, dir, "999_missing.sql"))
	})

	t.Run("Error - Broken file is not recorded", func(t *testing.T) {
		writeMigration(t, dir, "002_broken.sql", "CREATE INDEX ON nowhere;")
		assert.Error(t, database.RunMigrations(db, dir))

		applied, err := database.GetAppliedMigrations(db)
		require.NoError(t, err)
		for _, m := range applied {
			assert.NotEqual(t, "002_broken.sql", m.Version)
		}
	})
}

func TestShippedMigrations(t *testing.T) {
	db := testutils.TestDB(t)
	require.NoError(t, database.RunMigrations(db, filepath.Join("..", "..", "migrations")))
	assert.True(t, indexExists(t, db, "idx_surveys_lower_name"))

	require.NoError(t, database.RollbackMigration(db, filepath.Join("..", "..", "migrations"), "001_survey_indexes.sql"))
	assert.False(t, indexExists(t, db, "idx_surveys_lower_name"))
}

func TestUniqueViolation(t *testing.T) {
	db := testutils.TestDB(t)
	testutils.CreateTestUser(t, db, "unique_user", "unique@example.com", "", models.RoleStandard)

	err := db.Create(&models.User{Username: "unique_user", Email: "fresh@example.com", Role: models.RoleStandard}).Error
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.True(t, database.ViolatedColumn(err, "username"))
	assert.False(t, database.ViolatedColumn(err, "email"))

	assert.False(t, database.IsUniqueViolation(errors.New("connection refused")))
	assert.False(t, database.IsUniqueViolation(nil))
	assert.True(t, database.IsNotFound(gorm.ErrRecordNotFound))
}
