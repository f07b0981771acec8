package models

import "time"

// UserPreference holds per-user assistant settings injected into the system prompt.
type UserPreference struct {
	UserID             string    `gorm:"primaryKey;size:64" json:"user_id"`
	CommunicationStyle string    `gorm:"size:32" json:"communication_style"`
	CustomInstructions string    `gorm:"type:text" json:"custom_instructions"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Interaction records a completed assistant query for downstream learning.
type Interaction struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	SessionID string    `gorm:"size:64;index" json:"session_id"`
	Query     string    `gorm:"type:text;not null" json:"query"`
	ToolCalls string    `gorm:"type:json" json:"tool_calls"` // JSON array of function names
	CreatedAt time.Time `json:"created_at"`
}
