// Package learning stores per-user assistant preferences and the
// interaction log, and derives a learned-context hint from past usage.
package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Communication styles accepted in preferences.
var CommunicationStyles = []string{"concise", "detailed", "friendly", "formal"}

// Lookback bounds how many recent interactions feed the learned context.
const Lookback = 50

// Store is the GORM-backed learning collaborator.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Preferences returns the user's preferences, or zero values if none are
// stored.
func (s *Store) Preferences(ctx context.Context, userID string) (*models.UserPreference, error) {
	var p models.UserPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserPreference{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("learning: load preferences: %w", err)
	}
	return &p, nil
}

// SavePreferences upserts the user's preferences.
func (s *Store) SavePreferences(ctx context.Context, p *models.UserPreference) error {
	if p.UserID == "" {
		return fmt.Errorf("learning: user is required")
	}
	if p.CommunicationStyle != "" && !validStyle(p.CommunicationStyle) {
		return fmt.Errorf("learning: communication style %q must be one of: %s",
			p.CommunicationStyle, strings.Join(CommunicationStyles, ", "))
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"communication_style", "custom_instructions", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("learning: save preferences: %w", err)
	}
	return nil
}

func validStyle(style string) bool {
	for _, s := range CommunicationStyles {
		if s == style {
			return true
		}
	}
	return false
}

// LogInteraction records a completed query and the actions it took.
func (s *Store) LogInteraction(ctx context.Context, userID, sessionID, query string, toolCalls []string) error {
	if toolCalls == nil {
		toolCalls = []string{}
	}
	calls, err := json.Marshal(toolCalls)
	if err != nil {
		return fmt.Errorf("learning: marshal tool calls: %w", err)
	}
	row := models.Interaction{
		UserID:    userID,
		SessionID: sessionID,
		Query:     query,
		ToolCalls: string(calls),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("learning: log interaction: %w", err)
	}
	return nil
}

// LearnedContext summarizes the user's recent tool usage as a prompt hint.
// Users with no history get an empty string.
func (s *Store) LearnedContext(ctx context.Context, userID string) (string, error) {
	var rows []models.Interaction
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("id DESC").Limit(Lookback).Find(&rows).Error
	if err != nil {
		return "", fmt.Errorf("learning: load interactions: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	counts := map[string]int{}
	for _, r := range rows {
		var calls []string
		if err := json.Unmarshal([]byte(r.ToolCalls), &calls); err != nil {
			continue
		}
		for _, c := range calls {
			counts[c]++
		}
	}

	type usage struct {
		name  string
		count int
	}
	var ranked []usage
	for name, n := range counts {
		ranked = append(ranked, usage{name, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The user has made %d recent requests.", len(rows))
	if len(ranked) > 0 {
		parts := make([]string, len(ranked))
		for i, u := range ranked {
			parts[i] = fmt.Sprintf("%s (%d)", u.name, u.count)
		}
		fmt.Fprintf(&b, " Most used actions: %s.", strings.Join(parts, ", "))
	}
	return b.String(), nil
}
