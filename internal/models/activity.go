package models

import "time"

// Note is a free-text annotation attached to a contact, lead or opportunity.
type Note struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID    string    `gorm:"size:64;not null;index" json:"owner_id"`
	EntityType string    `gorm:"size:16;not null;index:idx_note_entity" json:"entity_type"`
	EntityID   uint      `gorm:"not null;index:idx_note_entity" json:"entity_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Email records a message sent to a contact from the CRM.
type Email struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   string    `gorm:"size:64;not null;index" json:"owner_id"`
	ContactID uint      `gorm:"not null;index" json:"contact_id"`
	ToAddress string    `gorm:"size:255;not null" json:"to_address"`
	Subject   string    `gorm:"size:255;not null" json:"subject"`
	Body      string    `gorm:"type:text" json:"body"`
	Status    string    `gorm:"size:16;default:sent" json:"status"`
	SentAt    time.Time `json:"sent_at"`
}

// FollowUpSequence is a scheduled multi-step outreach to one contact.
type FollowUpSequence struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   string         `gorm:"size:64;not null;index" json:"owner_id"`
	ContactID uint           `gorm:"not null;index" json:"contact_id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Status    string         `gorm:"size:16;default:active" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	Steps     []SequenceStep `gorm:"foreignKey:SequenceID" json:"steps"`
}

// SequenceStep is one scheduled touch within a FollowUpSequence.
type SequenceStep struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SequenceID uint      `gorm:"not null;index" json:"sequence_id"`
	Position   int       `gorm:"not null" json:"position"`
	DelayDays  int       `gorm:"not null" json:"delay_days"`
	Subject    string    `gorm:"size:255" json:"subject"`
	DueAt      time.Time `json:"due_at"`
}
