package crm

import (
	"fmt"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"gorm.io/gorm"
)

// ReportService computes aggregate reports.
type ReportService struct {
	db *gorm.DB
}

// StageSummary aggregates the opportunities in one stage.
type StageSummary struct {
	Stage          string  `json:"stage"`
	Count          int     `json:"count"`
	TotalAmount    float64 `json:"total_amount"`
	WeightedAmount float64 `json:"weighted_amount"`
}

// PipelineReport is the per-stage breakdown of the owner's pipeline.
type PipelineReport struct {
	Stages         []StageSummary `json:"stages"`
	OpenCount      int            `json:"open_count"`
	OpenAmount     float64        `json:"open_amount"`
	WeightedAmount float64        `json:"weighted_amount"`
	WonAmount      float64        `json:"won_amount"`
}

// Pipeline returns a report with one row per stage, in pipeline order,
// including empty stages.
func (s *ReportService) Pipeline(ownerID string) (*PipelineReport, error) {
	var rows []StageSummary
	err := s.db.Model(&models.Opportunity{}).
		Select("stage, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_amount, COALESCE(SUM(amount * probability / 100.0), 0) AS weighted_amount").
		Where("owner_id = ?", ownerID).
		Group("stage").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("crm: pipeline report: %w", err)
	}

	byStage := make(map[string]StageSummary, len(rows))
	for _, r := range rows {
		byStage[r.Stage] = r
	}

	report := &PipelineReport{}
	for _, stage := range models.OpportunityStages {
		row, ok := byStage[stage]
		if !ok {
			row = StageSummary{Stage: stage}
		}
		report.Stages = append(report.Stages, row)
		switch stage {
		case models.StageClosedWon:
			report.WonAmount = row.TotalAmount
		case models.StageClosedLost:
		default:
			report.OpenCount += row.Count
			report.OpenAmount += row.TotalAmount
			report.WeightedAmount += row.WeightedAmount
		}
	}
	return report, nil
}
