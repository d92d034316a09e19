package seeds

import (
	"context"
	"fmt"
	"log"

	"github.com/pushp314/pulse-chat/internal/services"
)

// DemoUser is an identity the seeder syncs as if it came from the auth provider
type DemoUser struct {
	ExternalID string
	Name       string
	Email      string
	AvatarURL  string
}

var DemoUsers = []DemoUser{
	{ExternalID: "demo|ada", Name: "Ada Lovelace", Email: "ada@pulse.dev"},
	{ExternalID: "demo|grace", Name: "Grace Hopper", Email: "grace@pulse.dev"},
	{ExternalID: "demo|alan", Name: "Alan Turing", Email: "alan@pulse.dev"},
	{ExternalID: "demo|linus", Name: "Linus Torvalds", Email: "linus@pulse.dev"},
}

func avatarFor(u DemoUser) string {
	if u.AvatarURL != "" {
		return u.AvatarURL
	}
	return "https://api.dicebear.com/7.x/identicon/svg?seed=" + u.ExternalID
}

// SeedUsers syncs every demo user and returns their ids keyed by external id
func SeedUsers(ctx context.Context, engine *services.Engine) (map[string]string, error) {
	log.Println("👤 Seeding demo users...")
	ids := make(map[string]string, len(DemoUsers))
	for _, u := range DemoUsers {
		id, err := engine.UpsertUser(ctx, u.ExternalID, u.Name, u.Email, avatarFor(u))
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.ExternalID, err)
		}
		ids[u.ExternalID] = id
		log.Printf("   ✅ %s (%s)", u.Name, id)
	}
	return ids, nil
}
