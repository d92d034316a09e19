package migrations

import (
	"strings"

	"github.com/pushp314/pulse-chat/internal/models"
	"gorm.io/gorm"
)

// Migration003BackfillNameLower fills name_lower for users synced before the
// column existed. Folding happens in Go so non-ASCII names fold on every dialect.
func Migration003BackfillNameLower() Migration {
	return Migration{
		ID:        "003_backfill_name_lower",
		Name:      "Backfill folded user names for search",
		DependsOn: []string{"002_backfill_direct_keys"},
		Up: func(db *gorm.DB) error {
			var users []models.User
			if err := db.Select("id", "name", "name_lower").Find(&users).Error; err != nil {
				return err
			}
			for _, u := range users {
				folded := strings.ToLower(u.Name)
				if folded == u.NameLower {
					continue
				}
				if err := db.Model(&models.User{}).
					Where("id = ?", u.ID).
					Update("name_lower", folded).Error; err != nil {
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
