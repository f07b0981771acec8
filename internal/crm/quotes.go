package crm

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"gorm.io/gorm"
)

// QuoteService manages quotes.
type QuoteService struct {
	db *gorm.DB
}

// CreateQuoteOpts holds parameters for creating a quote.
type CreateQuoteOpts struct {
	Title         string
	Amount        float64
	OpportunityID *uint
	ContactID     *uint
}

var quoteStatuses = []string{
	models.QuoteStatusDraft, models.QuoteStatusSent,
	models.QuoteStatusAccepted, models.QuoteStatusRejected,
}

// GenerateQuoteNumber creates a quote number in Q-xxxxxx format (6-char hex).
func GenerateQuoteNumber() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crm: generate quote number: %w", err)
	}
	return "Q-" + strings.ToUpper(hex.EncodeToString(b)), nil
}

// List returns quotes, optionally filtered by status.
func (s *QuoteService) List(ownerID, status string, limit int) ([]models.Quote, error) {
	q := s.db.Where("owner_id = ?", ownerID)
	if status != "" {
		if err := checkEnum("status", status, quoteStatuses); err != nil {
			return nil, err
		}
		q = q.Where("status = ?", status)
	}
	var quotes []models.Quote
	if err := q.Order("id ASC").Limit(limitOrDefault(limit)).Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("crm: list quotes: %w", err)
	}
	return quotes, nil
}

// Get returns one quote.
func (s *QuoteService) Get(ownerID string, id uint) (*models.Quote, error) {
	var q models.Quote
	if err := first(s.db, &q, "Quote", ownerID, id); err != nil {
		return nil, err
	}
	return &q, nil
}

// Create inserts a draft quote with a unique number.
func (s *QuoteService) Create(ownerID string, opts CreateQuoteOpts) (*models.Quote, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return nil, invalid("title", "is required")
	}
	if opts.Amount <= 0 {
		return nil, invalid("amount", "must be greater than zero")
	}
	if opts.OpportunityID != nil {
		var o models.Opportunity
		if err := first(s.db, &o, "Opportunity", ownerID, *opts.OpportunityID); err != nil {
			return nil, err
		}
	}
	if opts.ContactID != nil {
		var c models.Contact
		if err := first(s.db, &c, "Contact", ownerID, *opts.ContactID); err != nil {
			return nil, err
		}
	}

	number, err := s.uniqueNumber()
	if err != nil {
		return nil, err
	}
	q := models.Quote{
		OwnerID:       ownerID,
		OpportunityID: opts.OpportunityID,
		ContactID:     opts.ContactID,
		Number:        number,
		Title:         opts.Title,
		Amount:        opts.Amount,
		Status:        models.QuoteStatusDraft,
	}
	if err := s.db.Create(&q).Error; err != nil {
		return nil, fmt.Errorf("crm: create quote: %w", err)
	}
	return &q, nil
}

// Send marks a draft quote as sent.
func (s *QuoteService) Send(ownerID string, id uint) (*models.Quote, error) {
	q, err := s.Get(ownerID, id)
	if err != nil {
		return nil, err
	}
	if q.Status != models.QuoteStatusDraft {
		return nil, invalid("quote_id", "quote %d is %s, only draft quotes can be sent", id, q.Status)
	}
	now := time.Now()
	if err := s.db.Model(q).Updates(map[string]interface{}{
		"status":  models.QuoteStatusSent,
		"sent_at": now,
	}).Error; err != nil {
		return nil, fmt.Errorf("crm: send quote %d: %w", id, err)
	}
	q.Status = models.QuoteStatusSent
	q.SentAt = &now
	return q, nil
}

// uniqueNumber retries number generation on collision.
func (s *QuoteService) uniqueNumber() (string, error) {
	for i := 0; i < 5; i++ {
		n, err := GenerateQuoteNumber()
		if err != nil {
			return "", err
		}
		var count int64
		if err := s.db.Model(&models.Quote{}).Where("number = ?", n).Count(&count).Error; err != nil {
			return "", fmt.Errorf("crm: check quote number: %w", err)
		}
		if count == 0 {
			return n, nil
		}
	}
	return "", fmt.Errorf("crm: could not allocate a unique quote number")
}
