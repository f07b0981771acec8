package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/oracle"
)

const summarizeInstructions = `You condense CRM assistant conversations. Summarize the transcript below in a few sentences.
Keep every entity name, record id, amount, status and decision that was mentioned. Do not invent facts.`

// OracleSummarizer summarizes turns with a secondary oracle call.
type OracleSummarizer struct {
	Oracle oracle.Oracle
	Model  string // optional override
}

// Summarize implements Summarizer.
func (s *OracleSummarizer) Summarize(ctx context.Context, turns []models.ConversationTurn) (string, error) {
	if s.Oracle == nil {
		return "", oracle.ErrUnavailable
	}
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	c, err := s.Oracle.Complete(ctx, oracle.Request{
		Model: s.Model,
		Messages: []oracle.Message{
			{Role: oracle.RoleSystem, Content: summarizeInstructions},
			{Role: oracle.RoleUser, Content: b.String()},
		},
		ToolChoice: oracle.ToolChoiceNone,
	})
	if err != nil {
		return "", fmt.Errorf("memory: summarize: %w", err)
	}
	return c.Content, nil
}
