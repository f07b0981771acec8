package crm

import (
	"fmt"
	"strings"
	"time"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"gorm.io/gorm"
)

// Note entity types.
const (
	EntityContact     = "contact"
	EntityLead        = "lead"
	EntityOpportunity = "opportunity"
)

// ActivityService records notes, emails and follow-up sequences.
type ActivityService struct {
	db *gorm.DB
}

// SequenceStepOpts describes one step of a follow-up sequence.
type SequenceStepOpts struct {
	DelayDays int
	Subject   string
}

// AddNote attaches a note to a contact, lead or opportunity.
func (s *ActivityService) AddNote(ownerID, entityType string, entityID uint, content string) (*models.Note, error) {
	if strings.TrimSpace(content) == "" {
		return nil, invalid("content", "is required")
	}
	if err := s.checkEntity(ownerID, entityType, entityID); err != nil {
		return nil, err
	}
	n := models.Note{
		OwnerID:    ownerID,
		EntityType: entityType,
		EntityID:   entityID,
		Content:    content,
	}
	if err := s.db.Create(&n).Error; err != nil {
		return nil, fmt.Errorf("crm: add note: %w", err)
	}
	return &n, nil
}

// Notes returns the notes on one entity, oldest first.
func (s *ActivityService) Notes(ownerID, entityType string, entityID uint) ([]models.Note, error) {
	var notes []models.Note
	err := s.db.Where("owner_id = ? AND entity_type = ? AND entity_id = ?", ownerID, entityType, entityID).
		Order("id ASC").Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("crm: list notes: %w", err)
	}
	return notes, nil
}

// SendEmail records an email sent to a contact. The contact must have an
// email address.
func (s *ActivityService) SendEmail(ownerID string, contactID uint, subject, body string) (*models.Email, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, invalid("subject", "is required")
	}
	var c models.Contact
	if err := first(s.db, &c, "Contact", ownerID, contactID); err != nil {
		return nil, err
	}
	if c.Email == "" {
		return nil, invalid("contact_id", "contact %d has no email address", contactID)
	}
	e := models.Email{
		OwnerID:   ownerID,
		ContactID: contactID,
		ToAddress: c.Email,
		Subject:   subject,
		Body:      body,
		Status:    "sent",
		SentAt:    time.Now(),
	}
	if err := s.db.Create(&e).Error; err != nil {
		return nil, fmt.Errorf("crm: send email: %w", err)
	}
	return &e, nil
}

// ScheduleSequence creates an active follow-up sequence for a contact with
// steps due relative to now.
func (s *ActivityService) ScheduleSequence(ownerID string, contactID uint, name string, steps []SequenceStepOpts) (*models.FollowUpSequence, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalid("name", "is required")
	}
	if len(steps) == 0 {
		return nil, invalid("steps", "at least one step is required")
	}
	var c models.Contact
	if err := first(s.db, &c, "Contact", ownerID, contactID); err != nil {
		return nil, err
	}

	now := time.Now()
	seq := models.FollowUpSequence{
		OwnerID:   ownerID,
		ContactID: contactID,
		Name:      name,
		Status:    "active",
	}
	for i, st := range steps {
		if st.DelayDays < 0 {
			return nil, invalid("steps", "step %d has a negative delay", i+1)
		}
		seq.Steps = append(seq.Steps, models.SequenceStep{
			Position:  i + 1,
			DelayDays: st.DelayDays,
			Subject:   st.Subject,
			DueAt:     now.AddDate(0, 0, st.DelayDays),
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&seq).Error
	})
	if err != nil {
		return nil, fmt.Errorf("crm: schedule sequence: %w", err)
	}
	return &seq, nil
}

func (s *ActivityService) checkEntity(ownerID, entityType string, id uint) error {
	switch entityType {
	case EntityContact:
		var c models.Contact
		return first(s.db, &c, "Contact", ownerID, id)
	case EntityLead:
		var l models.Lead
		return first(s.db, &l, "Lead", ownerID, id)
	case EntityOpportunity:
		var o models.Opportunity
		return first(s.db, &o, "Opportunity", ownerID, id)
	default:
		return checkEnum("entity_type", entityType, []string{EntityContact, EntityLead, EntityOpportunity})
	}
}
