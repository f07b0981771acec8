package models

import "time"

// Payment statuses.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusLinkSent = "link_sent"
	PaymentStatusPaid     = "paid"
)

// Payment is a requested or received payment, usually against a quote.
type Payment struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     string    `gorm:"size:64;not null;index" json:"owner_id"`
	QuoteID     *uint     `gorm:"index" json:"quote_id,omitempty"`
	ContactID   *uint     `gorm:"index" json:"contact_id,omitempty"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Currency    string    `gorm:"size:3;default:USD" json:"currency"`
	Status      string    `gorm:"size:16;default:pending;index" json:"status"`
	PaymentLink string    `gorm:"size:512" json:"payment_link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
