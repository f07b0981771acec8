package crm

import (
	"fmt"
	"strings"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"gorm.io/gorm"
)

// ContactService manages contacts.
type ContactService struct {
	db *gorm.DB
}

// CreateContactOpts holds parameters for creating a contact.
type CreateContactOpts struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Company   string
	JobTitle  string
}

// Search returns contacts whose name, email or company matches term.
func (s *ContactService) Search(ownerID, term string, limit int) ([]models.Contact, error) {
	q := s.db.Where("owner_id = ?", ownerID)
	if strings.TrimSpace(term) != "" {
		like := likeTerm(term)
		q = q.Where("(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ?)",
			like, like, like, like)
	}
	var contacts []models.Contact
	if err := q.Order("id ASC").Limit(limitOrDefault(limit)).Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("crm: search contacts: %w", err)
	}
	return contacts, nil
}

// Get returns one contact.
func (s *ContactService) Get(ownerID string, id uint) (*models.Contact, error) {
	var c models.Contact
	if err := first(s.db, &c, "Contact", ownerID, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new contact.
func (s *ContactService) Create(ownerID string, opts CreateContactOpts) (*models.Contact, error) {
	if strings.TrimSpace(opts.FirstName) == "" {
		return nil, invalid("first_name", "is required")
	}
	c := models.Contact{
		OwnerID:   ownerID,
		FirstName: opts.FirstName,
		LastName:  opts.LastName,
		Email:     opts.Email,
		Phone:     opts.Phone,
		Company:   opts.Company,
		JobTitle:  opts.JobTitle,
	}
	if err := s.db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("crm: create contact: %w", err)
	}
	return &c, nil
}
