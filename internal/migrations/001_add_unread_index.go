package migrations

import (
	"gorm.io/gorm"
)

// Migration001AddUnreadIndex adds the index behind the unread-count scan:
// WHERE conversation_id = ? AND created_at > ? AND sender_id <> ?
// Plain CREATE INDEX IF NOT EXISTS works on both PostgreSQL and SQLite.
func Migration001AddUnreadIndex() Migration {
	return Migration{
		ID:   "001_add_unread_index",
		Name: "Add composite index for unread counts",
		Up: func(db *gorm.DB) error {
			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_messages_unread
				ON messages (conversation_id, created_at, sender_id)
			`).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP INDEX IF EXISTS idx_messages_unread`).Error
		},
	}
}
