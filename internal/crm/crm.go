// Package crm provides the CRM entity operations invoked by the assistant.
// Every operation is scoped to an owner (the calling user); records owned by
// someone else behave as if they do not exist.
package crm

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// DefaultSearchLimit caps search results when the caller gives no limit.
const DefaultSearchLimit = 25

// Services bundles every CRM service over one database handle.
type Services struct {
	Contacts      *ContactService
	Leads         *LeadService
	Opportunities *OpportunityService
	Campaigns     *CampaignService
	Quotes        *QuoteService
	Payments      *PaymentService
	Activities    *ActivityService
	Reports       *ReportService
}

// NewServices wires all CRM services to db.
func NewServices(db *gorm.DB) *Services {
	return &Services{
		Contacts:      &ContactService{db: db},
		Leads:         &LeadService{db: db},
		Opportunities: &OpportunityService{db: db},
		Campaigns:     &CampaignService{db: db},
		Quotes:        &QuoteService{db: db},
		Payments:      &PaymentService{db: db},
		Activities:    &ActivityService{db: db},
		Reports:       &ReportService{db: db},
	}
}

// first loads one owner-scoped row by id into dest, mapping a missing row to
// NotFoundError.
func first(db *gorm.DB, dest interface{}, entity, ownerID string, id uint) error {
	err := db.Where("id = ? AND owner_id = ?", id, ownerID).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity, id)
	}
	if err != nil {
		return fmt.Errorf("crm: get %s %d: %w", strings.ToLower(entity), id, err)
	}
	return nil
}

// likeTerm wraps a search term for a case-insensitive LIKE match.
func likeTerm(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > 100 {
		return DefaultSearchLimit
	}
	return limit
}
