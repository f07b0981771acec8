package crm

import (
	"fmt"
	"strings"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"gorm.io/gorm"
)

// LeadService manages leads.
type LeadService struct {
	db *gorm.DB
}

// CreateLeadOpts holds parameters for creating a lead.
type CreateLeadOpts struct {
	FirstName string
	LastName  string
	Email     string
	Company   string
	Source    string
	ContactID *uint
	Score     int
}

// LeadFilters holds optional filters for searching leads.
type LeadFilters struct {
	Term   string
	Status string
	Limit  int
}

// ValidLeadTransitions maps each lead status to its valid next statuses.
// Converted and lost are terminal.
var ValidLeadTransitions = map[string][]string{
	models.LeadStatusNew:         {models.LeadStatusContacted, models.LeadStatusQualified, models.LeadStatusUnqualified, models.LeadStatusLost},
	models.LeadStatusContacted:   {models.LeadStatusQualified, models.LeadStatusUnqualified, models.LeadStatusLost},
	models.LeadStatusQualified:   {models.LeadStatusConverted, models.LeadStatusUnqualified, models.LeadStatusLost},
	models.LeadStatusUnqualified: {models.LeadStatusContacted, models.LeadStatusQualified, models.LeadStatusLost},
}

func isValidLeadTransition(from, to string) bool {
	for _, s := range ValidLeadTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Search returns leads matching the filters.
func (s *LeadService) Search(ownerID string, f LeadFilters) ([]models.Lead, error) {
	q := s.db.Where("owner_id = ?", ownerID)
	if f.Status != "" {
		if err := checkEnum("status", f.Status, models.LeadStatuses); err != nil {
			return nil, err
		}
		q = q.Where("status = ?", f.Status)
	}
	if strings.TrimSpace(f.Term) != "" {
		like := likeTerm(f.Term)
		q = q.Where("(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ?)",
			like, like, like, like)
	}
	var leads []models.Lead
	if err := q.Order("score DESC, id ASC").Limit(limitOrDefault(f.Limit)).Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("crm: search leads: %w", err)
	}
	return leads, nil
}

// Get returns one lead.
func (s *LeadService) Get(ownerID string, id uint) (*models.Lead, error) {
	var l models.Lead
	if err := first(s.db, &l, "Lead", ownerID, id); err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a new lead with status "new".
func (s *LeadService) Create(ownerID string, opts CreateLeadOpts) (*models.Lead, error) {
	if strings.TrimSpace(opts.FirstName) == "" {
		return nil, invalid("first_name", "is required")
	}
	if opts.Score < 0 || opts.Score > 100 {
		return nil, invalid("score", "must be between 0 and 100")
	}
	if opts.ContactID != nil {
		var c models.Contact
		if err := first(s.db, &c, "Contact", ownerID, *opts.ContactID); err != nil {
			return nil, err
		}
	}
	l := models.Lead{
		OwnerID:   ownerID,
		ContactID: opts.ContactID,
		FirstName: opts.FirstName,
		LastName:  opts.LastName,
		Email:     opts.Email,
		Company:   opts.Company,
		Source:    opts.Source,
		Status:    models.LeadStatusNew,
		Score:     opts.Score,
	}
	if err := s.db.Create(&l).Error; err != nil {
		return nil, fmt.Errorf("crm: create lead: %w", err)
	}
	return &l, nil
}

// UpdateStatus moves a lead to a new status, enforcing ValidLeadTransitions.
func (s *LeadService) UpdateStatus(ownerID string, id uint, status string) (*models.Lead, error) {
	if err := checkEnum("status", status, models.LeadStatuses); err != nil {
		return nil, err
	}
	l, err := s.Get(ownerID, id)
	if err != nil {
		return nil, err
	}
	if l.Status == status {
		return l, nil
	}
	if !isValidLeadTransition(l.Status, status) {
		return nil, invalid("status", "cannot move lead from %s to %s", l.Status, status)
	}
	if err := s.db.Model(l).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("crm: update lead %d status: %w", id, err)
	}
	l.Status = status
	return l, nil
}
