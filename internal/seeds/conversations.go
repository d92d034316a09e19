package seeds

import (
	"context"
	"fmt"
	"log"

	"github.com/pushp314/pulse-chat/internal/services"
)

// Result lists what SeedDemo created
type Result struct {
	Users  map[string]string
	Direct string
	Group  string
}

// SeedDemo creates the demo users, one direct chat and one group with a
// short history. Running it twice reuses the users and the direct chat but
// creates a new group.
func SeedDemo(ctx context.Context, engine *services.Engine) (*Result, error) {
	users, err := SeedUsers(ctx, engine)
	if err != nil {
		return nil, err
	}
	ada, grace := users["demo|ada"], users["demo|grace"]
	alan, linus := users["demo|alan"], users["demo|linus"]

	log.Println("💬 Seeding conversations...")
	direct, err := engine.GetOrCreateDirect(ctx, ada, grace)
	if err != nil {
		return nil, fmt.Errorf("seed direct conversation: %w", err)
	}
	group, err := engine.CreateGroup(ctx, "Compiler Club", ada, []string{grace, alan, linus})
	if err != nil {
		return nil, fmt.Errorf("seed group: %w", err)
	}

	script := []struct {
		conversation, sender, body string
	}{
		{direct, ada, "Did the analytical engine notes make sense?"},
		{direct, grace, "Mostly. Found a bug on page 3 though 🐛"},
		{group, alan, "Welcome everyone!"},
		{group, linus, "Talk is cheap. Show me the code."},
		{group, grace, "It's easier to ask forgiveness than permission."},
	}
	var last string
	for _, line := range script {
		id, err := engine.SendMessage(ctx, line.conversation, line.sender, line.body)
		if err != nil {
			return nil, fmt.Errorf("seed message: %w", err)
		}
		last = id
	}
	if _, err := engine.ToggleReaction(ctx, last, ada, "😂"); err != nil {
		return nil, fmt.Errorf("seed reaction: %w", err)
	}

	log.Printf("   ✅ direct=%s group=%s", direct, group)
	return &Result{Users: users, Direct: direct, Group: group}, nil
}
