package models

import "time"

// Pending action ticket statuses.
const (
	PendingStatusOpen      = "pending_confirmation"
	PendingStatusConfirmed = "confirmed"
	PendingStatusCancelled = "cancelled"
)

// PendingAction is a high-risk tool call suspended until the user confirms or
// cancels it. It holds everything needed to resume after a restart.
type PendingAction struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	UserID        string     `gorm:"size:64;not null;index:idx_pending_lookup,priority:1" json:"user_id"`
	SessionID     string     `gorm:"size:64;not null;index:idx_pending_lookup,priority:2" json:"session_id"`
	FunctionName  string     `gorm:"size:64;not null;index:idx_pending_lookup,priority:3" json:"function_name"`
	Arguments     string     `gorm:"type:text;not null" json:"arguments"`
	ArgumentsHash string     `gorm:"size:64;not null" json:"arguments_hash"`
	Description   string     `gorm:"type:text" json:"description"`
	ModelUsed     string     `gorm:"size:64" json:"model_used,omitempty"`
	Status        string     `gorm:"size:24;default:pending_confirmation;index" json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}
