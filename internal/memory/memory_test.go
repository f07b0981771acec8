package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/db"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/oracle"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/oracle/oracletest"
)

// summarizerFunc adapts a function to Summarizer.
type summarizerFunc func(ctx context.Context, turns []models.ConversationTurn) (string, error)

func (f summarizerFunc) Summarize(ctx context.Context, turns []models.ConversationTurn) (string, error) {
	return f(ctx, turns)
}

// echoSummarizer joins the content of every summarized turn.
var echoSummarizer = summarizerFunc(func(_ context.Context, turns []models.ConversationTurn) (string, error) {
	parts := make([]string, len(turns))
	for i, t := range turns {
		parts[i] = t.Content
	}
	return strings.Join(parts, " | "), nil
})

func testManager(t *testing.T, s Summarizer) *Manager {
	t.Helper()
	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	m, err := New(Opts{DB: gdb, Summarizer: s})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func seedTurns(t *testing.T, m *Manager, user, session string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		role := models.RoleUser
		if i%2 == 0 {
			role = models.RoleAssistant
		}
		if err := m.SaveTurn(context.Background(), user, session, role, fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("SaveTurn %d: %v", i, err)
		}
	}
}

func TestNew_NilDB(t *testing.T) {
	_, err := New(Opts{})
	if err == nil || !strings.Contains(err.Error(), "db is required") {
		t.Errorf("err = %v, want db is required", err)
	}
}

func TestNew_DefaultWindow(t *testing.T) {
	m := testManager(t, nil)
	if m.WorkingMemorySize() != 20 {
		t.Errorf("WorkingMemorySize = %d, want 20", m.WorkingMemorySize())
	}
}

func TestSaveTurn_RejectsToolRole(t *testing.T) {
	m := testManager(t, nil)
	err := m.SaveTurn(context.Background(), "alice", "s1", "tool", "{}")
	if err == nil {
		t.Fatal("expected error for tool role")
	}
}

func TestSaveTurn_SequencesPerSession(t *testing.T) {
	m := testManager(t, nil)
	ctx := context.Background()
	seedTurns(t, m, "alice", "s1", 3)
	seedTurns(t, m, "alice", "s2", 1)
	seedTurns(t, m, "bob", "s1", 2)

	history, err := m.History(ctx, "alice", "s1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	for i, turn := range history {
		if turn.Sequence != i+1 {
			t.Errorf("turn %d sequence = %d, want %d", i, turn.Sequence, i+1)
		}
	}

	tests := []struct {
		user, session string
		want          int
	}{
		{"alice", "s1", 3},
		{"alice", "s2", 1},
		{"bob", "s1", 2},
		{"carol", "s1", 0},
	}
	for _, tt := range tests {
		n, err := m.TurnCount(ctx, tt.user, tt.session)
		if err != nil {
			t.Fatalf("TurnCount: %v", err)
		}
		if n != tt.want {
			t.Errorf("TurnCount(%s, %s) = %d, want %d", tt.user, tt.session, n, tt.want)
		}
	}
}

// ------------------------------------------------------------------
// LoadContext
// ------------------------------------------------------------------

func TestLoadContext_WithinWindow(t *testing.T) {
	for _, n := range []int{0, 1, 20} {
		t.Run(fmt.Sprintf("%d turns", n), func(t *testing.T) {
			called := false
			m := testManager(t, summarizerFunc(func(context.Context, []models.ConversationTurn) (string, error) {
				called = true
				return "x", nil
			}))
			seedTurns(t, m, "alice", "s1", n)

			turns, err := m.LoadContext(context.Background(), "alice", "s1")
			if err != nil {
				t.Fatalf("LoadContext: %v", err)
			}
			if len(turns) != n {
				t.Fatalf("len = %d, want %d", len(turns), n)
			}
			for i, turn := range turns {
				if want := fmt.Sprintf("turn %d", i+1); turn.Content != want {
					t.Errorf("turns[%d] = %q, want %q", i, turn.Content, want)
				}
			}
			if called {
				t.Error("summarizer should not be called within the window")
			}
		})
	}
}

func TestLoadContext_Idempotent(t *testing.T) {
	m := testManager(t, echoSummarizer)
	seedTurns(t, m, "alice", "s1", 12)
	a, _ := m.LoadContext(context.Background(), "alice", "s1")
	b, _ := m.LoadContext(context.Background(), "alice", "s1")
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Content != b[i].Content || a[i].Role != b[i].Role {
			t.Errorf("entry %d differs", i)
		}
	}
}

func TestLoadContext_SummarizesOlderTurns(t *testing.T) {
	var got []models.ConversationTurn
	m := testManager(t, summarizerFunc(func(ctx context.Context, turns []models.ConversationTurn) (string, error) {
		got = turns
		return echoSummarizer(ctx, turns)
	}))
	seedTurns(t, m, "alice", "s1", 25)

	turns, err := m.LoadContext(context.Background(), "alice", "s1")
	if err != nil {
		t.Fatalf("LoadContext: %v", err)
	}
	if len(turns) != 21 {
		t.Fatalf("len = %d, want 21", len(turns))
	}
	if len(got) != 5 {
		t.Errorf("summarizer got %d turns, want 5", len(got))
	}

	summary := turns[0]
	if summary.Role != models.RoleSystem {
		t.Errorf("summary role = %q, want system", summary.Role)
	}
	if !strings.HasPrefix(summary.Content, SummaryPrefix) {
		t.Errorf("summary = %q, want prefix %q", summary.Content, SummaryPrefix)
	}
	for i := 1; i <= 5; i++ {
		if !strings.Contains(summary.Content, fmt.Sprintf("turn %d", i)) {
			t.Errorf("summary missing dropped turn %d", i)
		}
	}
	if turns[1].Content != "turn 6" || turns[20].Content != "turn 25" {
		t.Errorf("recent window = %q .. %q, want turn 6 .. turn 25", turns[1].Content, turns[20].Content)
	}
}

func TestLoadContext_SummarizerFailureOmitsSummary(t *testing.T) {
	tests := []struct {
		name string
		s    Summarizer
	}{
		{"error", summarizerFunc(func(context.Context, []models.ConversationTurn) (string, error) {
			return "", errors.New("oracle down")
		})},
		{"empty", summarizerFunc(func(context.Context, []models.ConversationTurn) (string, error) {
			return "   ", nil
		})},
		{"none", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testManager(t, tt.s)
			seedTurns(t, m, "alice", "s1", 23)
			turns, err := m.LoadContext(context.Background(), "alice", "s1")
			if err != nil {
				t.Fatalf("LoadContext: %v", err)
			}
			if len(turns) != 20 {
				t.Fatalf("len = %d, want 20", len(turns))
			}
			if turns[0].Content != "turn 4" {
				t.Errorf("first turn = %q, want turn 4", turns[0].Content)
			}
		})
	}
}

func TestLoadContext_CustomWindow(t *testing.T) {
	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	m, _ := New(Opts{DB: gdb, WorkingMemorySize: 4, Summarizer: echoSummarizer})
	seedTurns(t, m, "alice", "s1", 6)
	turns, _ := m.LoadContext(context.Background(), "alice", "s1")
	if len(turns) != 5 {
		t.Fatalf("len = %d, want 5", len(turns))
	}
	if turns[0].Content != SummaryPrefix+"turn 1 | turn 2" {
		t.Errorf("summary = %q", turns[0].Content)
	}
}

// ------------------------------------------------------------------
// OracleSummarizer
// ------------------------------------------------------------------

func TestOracleSummarizer(t *testing.T) {
	o := oracletest.NewScripted(oracletest.Text("Discussed Acme Corp (contact 17), quote Q-1A2B3C for $4,500."))
	s := &OracleSummarizer{Oracle: o, Model: "gpt-4o-mini"}

	out, err := s.Summarize(context.Background(), []models.ConversationTurn{
		{Role: models.RoleUser, Content: "Find Acme Corp"},
		{Role: models.RoleAssistant, Content: "Acme Corp is contact 17."},
	})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !strings.Contains(out, "contact 17") {
		t.Errorf("summary = %q", out)
	}

	req := o.Last()
	if req.ToolChoice != oracle.ToolChoiceNone {
		t.Errorf("ToolChoice = %q, want none", req.ToolChoice)
	}
	if len(req.Tools) != 0 {
		t.Errorf("summarizer sent %d tools, want 0", len(req.Tools))
	}
	if req.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", req.Model)
	}
	if !strings.Contains(req.Messages[1].Content, "user: Find Acme Corp") {
		t.Errorf("transcript = %q", req.Messages[1].Content)
	}
}

func TestOracleSummarizer_Error(t *testing.T) {
	s := &OracleSummarizer{Oracle: oracletest.NewScripted(oracletest.Fail(errors.New("rate limited")))}
	_, err := s.Summarize(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("err = %v", err)
	}

	_, err = (&OracleSummarizer{}).Summarize(context.Background(), nil)
	if !errors.Is(err, oracle.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}
