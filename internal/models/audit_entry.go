package models

import "time"

// Audit entry statuses.
const (
	AuditStatusExecuted            = "executed"
	AuditStatusPendingConfirmation = "pending_confirmation"
	AuditStatusFailed              = "failed"
)

// AuditEntry is one append-only record of a dispatched (or gated) assistant
// action. Entries form a hash chain ordered by Sequence.
type AuditEntry struct {
	ID                   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Sequence             uint64    `gorm:"not null;uniqueIndex" json:"sequence"`
	UserID               string    `gorm:"size:64;not null;index" json:"user_id"`
	SessionID            string    `gorm:"size:64;index" json:"session_id"`
	FunctionName         string    `gorm:"size:64;not null;index" json:"function_name"`
	Arguments            string    `gorm:"type:text" json:"arguments"`
	Result               string    `gorm:"type:text" json:"result"`
	RiskTier             string    `gorm:"size:16;not null" json:"risk_tier"`
	Status               string    `gorm:"size:24;not null" json:"status"`
	RequiresConfirmation bool      `gorm:"default:false" json:"requires_confirmation"`
	WasConfirmed         bool      `gorm:"default:false" json:"was_confirmed"`
	ModelUsed            string    `gorm:"size:64" json:"model_used,omitempty"`
	TokensUsed           *int      `json:"tokens_used,omitempty"`
	PrevHash             string    `gorm:"size:64" json:"prev_hash"`
	Hash                 string    `gorm:"size:64;not null" json:"hash"`
	Signature            string    `gorm:"size:128" json:"signature,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}
