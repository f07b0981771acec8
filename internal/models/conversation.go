package models

import "time"

// Conversation roles persisted in history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ConversationTurn stores a single message in an assistant session. Turns are
// append-only and ordered by Sequence within (UserID, SessionID).
type ConversationTurn struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"size:64;not null;index:idx_turn_session,priority:1" json:"user_id"`
	SessionID string    `gorm:"size:64;not null;index:idx_turn_session,priority:2" json:"session_id"`
	Sequence  int       `gorm:"not null;index:idx_turn_session,priority:3" json:"sequence"`
	Role      string    `gorm:"size:16;not null" json:"role"` // "user", "assistant", "system"
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
