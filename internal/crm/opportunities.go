package crm

import (
	"fmt"
	"strings"
	"time"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"gorm.io/gorm"
)

// OpportunityService manages pipeline opportunities.
type OpportunityService struct {
	db *gorm.DB
}

// CreateOpportunityOpts holds parameters for creating an opportunity.
type CreateOpportunityOpts struct {
	Name              string
	Amount            float64
	Stage             string
	ContactID         *uint
	ExpectedCloseDate *time.Time
}

// OpportunityFilters holds optional filters for searching opportunities.
type OpportunityFilters struct {
	Term      string
	Stage     string
	MinAmount float64
	Limit     int
}

// stageProbability is the default win probability applied on entering a stage.
var stageProbability = map[string]int{
	models.StageProspecting:   10,
	models.StageQualification: 25,
	models.StageProposal:      50,
	models.StageNegotiation:   75,
	models.StageClosedWon:     100,
	models.StageClosedLost:    0,
}

// Search returns opportunities matching the filters, largest first.
func (s *OpportunityService) Search(ownerID string, f OpportunityFilters) ([]models.Opportunity, error) {
	q := s.db.Where("owner_id = ?", ownerID)
	if f.Stage != "" {
		if err := checkEnum("stage", f.Stage, models.OpportunityStages); err != nil {
			return nil, err
		}
		q = q.Where("stage = ?", f.Stage)
	}
	if f.MinAmount > 0 {
		q = q.Where("amount >= ?", f.MinAmount)
	}
	if strings.TrimSpace(f.Term) != "" {
		q = q.Where("LOWER(name) LIKE ?", likeTerm(f.Term))
	}
	var opps []models.Opportunity
	if err := q.Order("amount DESC, id ASC").Limit(limitOrDefault(f.Limit)).Find(&opps).Error; err != nil {
		return nil, fmt.Errorf("crm: search opportunities: %w", err)
	}
	return opps, nil
}

// Get returns one opportunity.
func (s *OpportunityService) Get(ownerID string, id uint) (*models.Opportunity, error) {
	var o models.Opportunity
	if err := first(s.db, &o, "Opportunity", ownerID, id); err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts a new opportunity. Stage defaults to prospecting.
func (s *OpportunityService) Create(ownerID string, opts CreateOpportunityOpts) (*models.Opportunity, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return nil, invalid("name", "is required")
	}
	if opts.Amount < 0 {
		return nil, invalid("amount", "must not be negative")
	}
	if opts.Stage == "" {
		opts.Stage = models.StageProspecting
	}
	if err := checkEnum("stage", opts.Stage, models.OpportunityStages); err != nil {
		return nil, err
	}
	if opts.ContactID != nil {
		var c models.Contact
		if err := first(s.db, &c, "Contact", ownerID, *opts.ContactID); err != nil {
			return nil, err
		}
	}
	o := models.Opportunity{
		OwnerID:           ownerID,
		ContactID:         opts.ContactID,
		Name:              opts.Name,
		Amount:            opts.Amount,
		Stage:             opts.Stage,
		Probability:       stageProbability[opts.Stage],
		ExpectedCloseDate: opts.ExpectedCloseDate,
	}
	if err := s.db.Create(&o).Error; err != nil {
		return nil, fmt.Errorf("crm: create opportunity: %w", err)
	}
	return &o, nil
}

// MoveStage moves an opportunity to another pipeline stage. Closed
// opportunities cannot be reopened.
func (s *OpportunityService) MoveStage(ownerID string, id uint, stage string) (*models.Opportunity, error) {
	if err := checkEnum("stage", stage, models.OpportunityStages); err != nil {
		return nil, err
	}
	o, err := s.Get(ownerID, id)
	if err != nil {
		return nil, err
	}
	if closedStage(o.Stage) && o.Stage != stage {
		return nil, invalid("stage", "opportunity %d is already %s", id, o.Stage)
	}
	prob := stageProbability[stage]
	if err := s.db.Model(o).Updates(map[string]interface{}{"stage": stage, "probability": prob}).Error; err != nil {
		return nil, fmt.Errorf("crm: move opportunity %d: %w", id, err)
	}
	o.Stage = stage
	o.Probability = prob
	return o, nil
}

func closedStage(stage string) bool {
	return stage == models.StageClosedWon || stage == models.StageClosedLost
}
