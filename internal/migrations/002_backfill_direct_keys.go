package migrations

import (
	"fmt"

	"github.com/pushp314/pulse-chat/internal/models"
	"gorm.io/gorm"
)

// Migration002BackfillDirectKeys fills direct_key on direct conversations created
// before the column existed, so the unique index covers them too.
// Fails when two direct conversations already share a pair; those need a manual merge.
func Migration002BackfillDirectKeys() Migration {
	return Migration{
		ID:        "002_backfill_direct_keys",
		Name:      "Backfill canonical pair keys on direct conversations",
		DependsOn: []string{"001_add_unread_index"},
		Up: func(db *gorm.DB) error {
			var convs []models.Conversation
			if err := db.Where("is_group = ? AND direct_key IS NULL", false).
				Preload("Memberships").
				Find(&convs).Error; err != nil {
				return err
			}

			seen := make(map[string]string)
			for _, c := range convs {
				if len(c.Memberships) != 2 {
					return fmt.Errorf("direct conversation %s has %d members", c.ID, len(c.Memberships))
				}
				key := models.DirectKeyFor(c.Memberships[0].UserID, c.Memberships[1].UserID)
				if other, dup := seen[key]; dup {
					return fmt.Errorf("duplicate direct conversations %s and %s for pair %s", other, c.ID, key)
				}
				seen[key] = c.ID

				if err := db.Model(&models.Conversation{}).
					Where("id = ?", c.ID).
					Update("direct_key", key).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(db *gorm.DB) error {
			return nil
		},
	}
}
