package models

import "time"

// Opportunity pipeline stages.
const (
	StageProspecting   = "prospecting"
	StageQualification = "qualification"
	StageProposal      = "proposal"
	StageNegotiation   = "negotiation"
	StageClosedWon     = "closed_won"
	StageClosedLost    = "closed_lost"
)

// OpportunityStages lists the pipeline stages in order.
var OpportunityStages = []string{
	StageProspecting, StageQualification, StageProposal,
	StageNegotiation, StageClosedWon, StageClosedLost,
}

// Opportunity is a potential deal moving through the sales pipeline.
type Opportunity struct {
	ID                uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID           string     `gorm:"size:64;not null;index" json:"owner_id"`
	ContactID         *uint      `gorm:"index" json:"contact_id,omitempty"`
	Name              string     `gorm:"size:255;not null" json:"name"`
	Amount            float64    `gorm:"default:0" json:"amount"`
	Stage             string     `gorm:"size:32;default:prospecting;index" json:"stage"`
	Probability       int        `gorm:"default:0" json:"probability"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
