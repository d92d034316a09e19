package models

// All lists every table owned by the chat engine, in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Conversation{},
		&Membership{},
		&Message{},
		&Reaction{},
		&TypingIndicator{},
	}
}
