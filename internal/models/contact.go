package models

import "time"

// Contact is a person record owned by a single CRM user.
type Contact struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   string    `gorm:"size:64;not null;index" json:"owner_id"`
	FirstName string    `gorm:"size:128;not null" json:"first_name"`
	LastName  string    `gorm:"size:128" json:"last_name"`
	Email     string    `gorm:"size:255;index" json:"email,omitempty"`
	Phone     string    `gorm:"size:64" json:"phone,omitempty"`
	Company   string    `gorm:"size:255" json:"company,omitempty"`
	JobTitle  string    `gorm:"size:128" json:"job_title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (c Contact) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
