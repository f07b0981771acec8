package models

import "time"

// Lead statuses.
const (
	LeadStatusNew         = "new"
	LeadStatusContacted   = "contacted"
	LeadStatusQualified   = "qualified"
	LeadStatusUnqualified = "unqualified"
	LeadStatusConverted   = "converted"
	LeadStatusLost        = "lost"
)

// LeadStatuses lists every valid lead status.
var LeadStatuses = []string{
	LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
	LeadStatusUnqualified, LeadStatusConverted, LeadStatusLost,
}

// Lead is a prospective customer that has not yet been converted.
type Lead struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   string    `gorm:"size:64;not null;index" json:"owner_id"`
	ContactID *uint     `gorm:"index" json:"contact_id,omitempty"`
	FirstName string    `gorm:"size:128;not null" json:"first_name"`
	LastName  string    `gorm:"size:128" json:"last_name"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	Company   string    `gorm:"size:255" json:"company,omitempty"`
	Source    string    `gorm:"size:64" json:"source,omitempty"`
	Status    string    `gorm:"size:16;default:new;index" json:"status"`
	Score     int       `gorm:"default:0" json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
