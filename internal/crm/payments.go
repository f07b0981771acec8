package crm

import (
	"fmt"
	"strings"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentLinkBase prefixes every generated checkout link.
const PaymentLinkBase = "https://pay.crm.local/checkout/"

// PaymentService manages payment requests.
type PaymentService struct {
	db *gorm.DB
}

// PaymentLinkOpts holds parameters for sending a payment link. Either QuoteID
// or Amount must be set; a quote supplies the amount and contact.
type PaymentLinkOpts struct {
	QuoteID   *uint
	ContactID *uint
	Amount    float64
	Currency  string
}

// List returns payments, optionally filtered by status.
func (s *PaymentService) List(ownerID, status string, limit int) ([]models.Payment, error) {
	q := s.db.Where("owner_id = ?", ownerID)
	if status != "" {
		if err := checkEnum("status", status, []string{
			models.PaymentStatusPending, models.PaymentStatusLinkSent, models.PaymentStatusPaid,
		}); err != nil {
			return nil, err
		}
		q = q.Where("status = ?", status)
	}
	var payments []models.Payment
	if err := q.Order("id ASC").Limit(limitOrDefault(limit)).Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("crm: list payments: %w", err)
	}
	return payments, nil
}

// SendLink creates a payment request and its checkout link.
func (s *PaymentService) SendLink(ownerID string, opts PaymentLinkOpts) (*models.Payment, error) {
	if opts.QuoteID != nil {
		var q models.Quote
		if err := first(s.db, &q, "Quote", ownerID, *opts.QuoteID); err != nil {
			return nil, err
		}
		if opts.Amount == 0 {
			opts.Amount = q.Amount
		}
		if opts.ContactID == nil {
			opts.ContactID = q.ContactID
		}
	}
	if opts.Amount <= 0 {
		return nil, invalid("amount", "must be greater than zero")
	}
	if opts.ContactID != nil {
		var c models.Contact
		if err := first(s.db, &c, "Contact", ownerID, *opts.ContactID); err != nil {
			return nil, err
		}
	}
	currency := strings.ToUpper(opts.Currency)
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return nil, invalid("currency", "must be a 3-letter ISO code")
	}

	p := models.Payment{
		OwnerID:     ownerID,
		QuoteID:     opts.QuoteID,
		ContactID:   opts.ContactID,
		Amount:      opts.Amount,
		Currency:    currency,
		Status:      models.PaymentStatusLinkSent,
		PaymentLink: PaymentLinkBase + uuid.NewString(),
	}
	if err := s.db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("crm: create payment: %w", err)
	}
	return &p, nil
}
