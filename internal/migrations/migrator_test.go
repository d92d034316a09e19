package migrations

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pushp314/pulse-chat/internal/database"
	"github.com/pushp314/pulse-chat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(dsn, database.Options{MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestMigratorRunsOnce(t *testing.T) {
	db := setupTestDB(t)

	ran, err := NewMigrator(db).Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_add_unread_index", "002_backfill_direct_keys", "003_backfill_name_lower"}, ran)

	ran, err = NewMigrator(db).Run()
	require.NoError(t, err)
	assert.Empty(t, ran)

	var count int64
	db.Model(&MigrationRecord{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestBackfillDirectKeys(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()

	legacy := models.Conversation{ID: "c1", IsGroup: false, CreatedAt: now}
	require.NoError(t, db.Create(&legacy).Error)
	require.NoError(t, db.Create(&[]models.Membership{
		{ConversationID: "c1", UserID: "u2", LastReadAt: now},
		{ConversationID: "c1", UserID: "u1", LastReadAt: now},
	}).Error)

	_, err := NewMigrator(db).Run()
	require.NoError(t, err)

	var got models.Conversation
	require.NoError(t, db.First(&got, "id = ?", "c1").Error)
	require.NotNil(t, got.DirectKey)
	assert.Equal(t, "u1:u2", *got.DirectKey)
}

func TestBackfillNameLower(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()

	require.NoError(t, db.Create(&models.User{ID: "u1", ExternalAuthID: "ext-1", Name: "Émile", LastSeen: now}).Error)
	// Simulate a row written before the column existed
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", "u1").Update("name_lower", "").Error)

	_, err := NewMigrator(db).Run()
	require.NoError(t, err)

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", "u1").Error)
	assert.Equal(t, "émile", got.NameLower)
}
