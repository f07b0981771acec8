package models

import "time"

// Campaign statuses.
const (
	CampaignStatusDraft = "draft"
	CampaignStatusSent  = "sent"
)

// Campaign is an outbound marketing send to the owner's contacts.
type Campaign struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID        string     `gorm:"size:64;not null;index" json:"owner_id"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	Channel        string     `gorm:"size:16;default:email" json:"channel"`
	Status         string     `gorm:"size:16;default:draft;index" json:"status"`
	Subject        string     `gorm:"size:255" json:"subject,omitempty"`
	Body           string     `gorm:"type:text" json:"body,omitempty"`
	RecipientCount int        `gorm:"default:0" json:"recipient_count"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
