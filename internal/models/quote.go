package models

import "time"

// Quote statuses.
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusSent     = "sent"
	QuoteStatusAccepted = "accepted"
	QuoteStatusRejected = "rejected"
)

// Quote is a priced offer tied to an opportunity or contact.
type Quote struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID       string     `gorm:"size:64;not null;index" json:"owner_id"`
	OpportunityID *uint      `gorm:"index" json:"opportunity_id,omitempty"`
	ContactID     *uint      `gorm:"index" json:"contact_id,omitempty"`
	Number        string     `gorm:"size:32;uniqueIndex" json:"number"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Amount        float64    `gorm:"default:0" json:"amount"`
	Status        string     `gorm:"size:16;default:draft;index" json:"status"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
