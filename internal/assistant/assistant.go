// Package assistant runs the agentic action loop: it turns a free-text
// request into a bounded sequence of tool calls, gates high-risk actions
// behind explicit confirmation and records every action in the audit log.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/audit"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/config"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/dispatch"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/memory"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/notify"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/oracle"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/tools"
)

// ErrOracleUnavailable is reported when no language model is configured.
var ErrOracleUnavailable = errors.New("assistant: oracle unavailable")

// Memory loads and appends conversation turns.
type Memory interface {
	LoadContext(ctx context.Context, userID, sessionID string) ([]memory.Turn, error)
	SaveTurn(ctx context.Context, userID, sessionID, role, content string) error
}

// Auditor appends audit entries.
type Auditor interface {
	Record(ctx context.Context, r audit.Record) (*models.AuditEntry, error)
}

// Learner supplies per-user prompt context and receives completed
// interactions.
type Learner interface {
	Preferences(ctx context.Context, userID string) (*models.UserPreference, error)
	LearnedContext(ctx context.Context, userID string) (string, error)
	LogInteraction(ctx context.Context, userID, sessionID, query string, toolCalls []string) error
}

// Opts holds parameters for creating an Orchestrator.
type Opts struct {
	DB            *gorm.DB // pending action tickets
	Oracle        oracle.Oracle
	Dispatcher    *dispatch.Dispatcher
	Memory        Memory
	Audit         Auditor
	Learning      Learner         // optional
	Notifier      notify.Notifier // optional
	Model         string          // passed to the oracle; empty uses its default
	MaxIterations int             // default config.DefaultMaxIterations
	NotifyTimeout time.Duration   // per notification; default DefaultNotifyTimeout
}

// DefaultNotifyTimeout bounds each chat notification, retries included.
const DefaultNotifyTimeout = 5 * time.Second

// Orchestrator is the caller-facing entry point.
type Orchestrator struct {
	db            *gorm.DB
	oracle        oracle.Oracle
	dispatcher    *dispatch.Dispatcher
	catalog       *tools.Catalog
	memory        Memory
	audit         Auditor
	learning      Learner
	notifier      notify.Notifier
	model         string
	maxIterations int
	notifyTimeout time.Duration
}

// New creates an Orchestrator. A nil Oracle is allowed; every query then
// answers with ErrOracleUnavailable.
func New(opts Opts) (*Orchestrator, error) {
	switch {
	case opts.DB == nil:
		return nil, fmt.Errorf("assistant: db is required")
	case opts.Dispatcher == nil:
		return nil, fmt.Errorf("assistant: dispatcher is required")
	case opts.Memory == nil:
		return nil, fmt.Errorf("assistant: memory is required")
	case opts.Audit == nil:
		return nil, fmt.Errorf("assistant: audit log is required")
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = config.DefaultMaxIterations
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = DefaultNotifyTimeout
	}
	return &Orchestrator{
		db:            opts.DB,
		oracle:        opts.Oracle,
		dispatcher:    opts.Dispatcher,
		catalog:       opts.Dispatcher.Catalog(),
		memory:        opts.Memory,
		audit:         opts.Audit,
		learning:      opts.Learning,
		notifier:      opts.Notifier,
		model:         opts.Model,
		maxIterations: opts.MaxIterations,
		notifyTimeout: opts.NotifyTimeout,
	}, nil
}

// Catalog returns the tool catalog the orchestrator exposes to the oracle.
func (o *Orchestrator) Catalog() *tools.Catalog {
	return o.catalog
}

// QueryRequest is one free-text request.
type QueryRequest struct {
	Query     string `json:"query"`
	UserID    string `json:"-"`
	SessionID string `json:"session_id,omitempty"` // empty starts a new session
}

// Action is one tool call executed (or gated) while answering a query.
type Action struct {
	Function  string                 `json:"function"`
	Arguments map[string]interface{} `json:"arguments"`
	RiskTier  tools.Tier             `json:"risk_tier"`
	Success   bool                   `json:"success"`
	Result    dispatch.Result        `json:"result,omitempty"`
}

// PendingAction is the caller-facing view of an open confirmation ticket.
type PendingAction struct {
	ID           string                 `json:"id"`
	FunctionName string                 `json:"function_name"`
	Arguments    map[string]interface{} `json:"arguments"`
	Description  string                 `json:"description"`
	RiskTier     tools.Tier             `json:"risk_tier"`
}

// QueryResponse is the outcome of ProcessQuery.
type QueryResponse struct {
	Response             string          `json:"response"`
	Data                 dispatch.Result `json:"data,omitempty"`
	ActionsTaken         []Action        `json:"actions_taken"`
	SessionID            string          `json:"session_id"`
	ConfirmationRequired bool            `json:"confirmation_required,omitempty"`
	PendingAction        *PendingAction  `json:"pending_action,omitempty"`
	Error                string          `json:"error,omitempty"`
}

// ResumeRequest answers a confirmation prompt.
type ResumeRequest struct {
	FunctionName string                 `json:"function_name"`
	Arguments    map[string]interface{} `json:"arguments"`
	UserID       string                 `json:"-"`
	SessionID    string                 `json:"session_id"`
	Confirmed    bool                   `json:"-"`
}

// ActionResponse is the outcome of a confirmed or cancelled action.
type ActionResponse struct {
	Response       string          `json:"response"`
	Data           dispatch.Result `json:"data,omitempty"`
	FunctionCalled string          `json:"function_called"`
	ActionsTaken   []Action        `json:"actions_taken"`
	Error          string          `json:"error,omitempty"`
}
