package crm

import (
	"fmt"
	"strings"
	"time"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"gorm.io/gorm"
)

// CampaignService manages marketing campaigns.
type CampaignService struct {
	db *gorm.DB
}

// CreateCampaignOpts holds parameters for creating a campaign.
type CreateCampaignOpts struct {
	Name    string
	Channel string
	Subject string
	Body    string
}

// CampaignStats summarizes one campaign.
type CampaignStats struct {
	CampaignID     uint       `json:"campaign_id"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	Channel        string     `json:"channel"`
	RecipientCount int        `json:"recipient_count"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
}

// List returns campaigns, optionally filtered by status.
func (s *CampaignService) List(ownerID, status string, limit int) ([]models.Campaign, error) {
	q := s.db.Where("owner_id = ?", ownerID)
	if status != "" {
		if err := checkEnum("status", status, []string{models.CampaignStatusDraft, models.CampaignStatusSent}); err != nil {
			return nil, err
		}
		q = q.Where("status = ?", status)
	}
	var campaigns []models.Campaign
	if err := q.Order("id ASC").Limit(limitOrDefault(limit)).Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("crm: list campaigns: %w", err)
	}
	return campaigns, nil
}

// Create inserts a draft campaign.
func (s *CampaignService) Create(ownerID string, opts CreateCampaignOpts) (*models.Campaign, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return nil, invalid("name", "is required")
	}
	if opts.Channel == "" {
		opts.Channel = "email"
	}
	c := models.Campaign{
		OwnerID: ownerID,
		Name:    opts.Name,
		Channel: opts.Channel,
		Status:  models.CampaignStatusDraft,
		Subject: opts.Subject,
		Body:    opts.Body,
	}
	if err := s.db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("crm: create campaign: %w", err)
	}
	return &c, nil
}

// Stats returns delivery figures for one campaign.
func (s *CampaignService) Stats(ownerID string, id uint) (*CampaignStats, error) {
	var c models.Campaign
	if err := first(s.db, &c, "Campaign", ownerID, id); err != nil {
		return nil, err
	}
	return &CampaignStats{
		CampaignID:     c.ID,
		Name:           c.Name,
		Status:         c.Status,
		Channel:        c.Channel,
		RecipientCount: c.RecipientCount,
		SentAt:         c.SentAt,
	}, nil
}

// Send marks a draft campaign as sent to every owner contact with an email
// address. A campaign can only be sent once.
func (s *CampaignService) Send(ownerID string, id uint) (*models.Campaign, error) {
	var c models.Campaign
	if err := first(s.db, &c, "Campaign", ownerID, id); err != nil {
		return nil, err
	}
	if c.Status == models.CampaignStatusSent {
		return nil, invalid("campaign_id", "campaign %d was already sent", id)
	}

	var recipients int64
	if err := s.db.Model(&models.Contact{}).
		Where("owner_id = ? AND email <> ''", ownerID).
		Count(&recipients).Error; err != nil {
		return nil, fmt.Errorf("crm: count campaign recipients: %w", err)
	}

	now := time.Now()
	if err := s.db.Model(&c).Updates(map[string]interface{}{
		"status":          models.CampaignStatusSent,
		"recipient_count": int(recipients),
		"sent_at":         now,
	}).Error; err != nil {
		return nil, fmt.Errorf("crm: send campaign %d: %w", id, err)
	}
	c.Status = models.CampaignStatusSent
	c.RecipientCount = int(recipients)
	c.SentAt = &now
	return &c, nil
}
