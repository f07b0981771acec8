// Package memory persists assistant conversation turns and rebuilds a
// bounded prompt context from them.
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/config"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SummaryPrefix starts the synthetic turn that stands in for older history.
const SummaryPrefix = "Summary of earlier conversation: "

// Turn is one entry of prompt context.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Summarizer condenses older turns into a short text.
type Summarizer interface {
	Summarize(ctx context.Context, turns []models.ConversationTurn) (string, error)
}

// Opts holds parameters for creating a Manager.
type Opts struct {
	DB                *gorm.DB
	WorkingMemorySize int        // defaults to config.DefaultWorkingMemorySize
	Summarizer        Summarizer // optional; without one older turns are dropped
}

// Manager reads and appends conversation turns keyed by (user, session).
type Manager struct {
	db         *gorm.DB
	window     int
	summarizer Summarizer
}

// New creates a Manager.
func New(opts Opts) (*Manager, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("memory: db is required")
	}
	window := opts.WorkingMemorySize
	if window <= 0 {
		window = config.DefaultWorkingMemorySize
	}
	return &Manager{db: opts.DB, window: window, summarizer: opts.Summarizer}, nil
}

// WorkingMemorySize returns the number of verbatim turns kept in context.
func (m *Manager) WorkingMemorySize() int {
	return m.window
}

// SaveTurn appends one turn to the session.
func (m *Manager) SaveTurn(ctx context.Context, userID, sessionID, role, content string) error {
	switch role {
	case models.RoleUser, models.RoleAssistant, models.RoleSystem:
	default:
		return fmt.Errorf("memory: invalid role %q", role)
	}
	if userID == "" || sessionID == "" {
		return fmt.Errorf("memory: user and session are required")
	}
	seq, err := m.nextSequence(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	turn := models.ConversationTurn{
		UserID:    userID,
		SessionID: sessionID,
		Sequence:  seq,
		Role:      role,
		Content:   content,
	}
	if err := m.db.WithContext(ctx).Create(&turn).Error; err != nil {
		return fmt.Errorf("memory: save turn: %w", err)
	}
	return nil
}

// History returns every persisted turn of a session in order.
func (m *Manager) History(ctx context.Context, userID, sessionID string) ([]models.ConversationTurn, error) {
	var turns []models.ConversationTurn
	result := m.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("sequence").Find(&turns)
	if result.Error != nil {
		return nil, fmt.Errorf("memory: load history: %w", result.Error)
	}
	return turns, nil
}

// TurnCount returns the number of persisted turns in a session.
func (m *Manager) TurnCount(ctx context.Context, userID, sessionID string) (int, error) {
	var count int64
	result := m.db.WithContext(ctx).Model(&models.ConversationTurn{}).
		Where("user_id = ? AND session_id = ?", userID, sessionID).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("memory: turn count: %w", result.Error)
	}
	return int(count), nil
}

// LoadContext returns the prompt context for a session: every turn when the
// session fits the working window, otherwise a system summary of the older
// turns followed by the most recent window verbatim. A failed or empty
// summary is left out.
func (m *Manager) LoadContext(ctx context.Context, userID, sessionID string) ([]Turn, error) {
	history, err := m.History(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if len(history) <= m.window {
		return toTurns(history), nil
	}

	split := len(history) - m.window
	older, recent := history[:split], history[split:]

	out := make([]Turn, 0, m.window+1)
	if summary := m.summarize(ctx, sessionID, older); summary != "" {
		out = append(out, Turn{
			Role:      models.RoleSystem,
			Content:   SummaryPrefix + summary,
			CreatedAt: older[len(older)-1].CreatedAt,
		})
	}
	return append(out, toTurns(recent)...), nil
}

func (m *Manager) summarize(ctx context.Context, sessionID string, older []models.ConversationTurn) string {
	if m.summarizer == nil {
		return ""
	}
	summary, err := m.summarizer.Summarize(ctx, older)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Int("turns", len(older)).Msg("memory_summarize_failed")
		return ""
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		log.Warn().Str("session_id", sessionID).Msg("memory_summary_empty")
	}
	return summary
}

// nextSequence returns the next sequence number for a session.
func (m *Manager) nextSequence(ctx context.Context, userID, sessionID string) (int, error) {
	var maxSeq int
	result := m.db.WithContext(ctx).Model(&models.ConversationTurn{}).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Select("COALESCE(MAX(sequence), 0)").Scan(&maxSeq)
	if result.Error != nil {
		return 0, fmt.Errorf("memory: next sequence: %w", result.Error)
	}
	return maxSeq + 1, nil
}

func toTurns(rows []models.ConversationTurn) []Turn {
	out := make([]Turn, len(rows))
	for i, r := range rows {
		out[i] = Turn{Role: r.Role, Content: r.Content, CreatedAt: r.CreatedAt}
	}
	return out
}
