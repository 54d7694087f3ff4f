package models

// All lists every model managed by auto-migration, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Chat{},
		&ChatParticipant{},
		&Message{},
		&MessageReaction{},
		&MessageReadReceipt{},
		&Notification{},
		&ForumThread{},
		&ForumPost{},
		&ActivityLog{},
	}
}
