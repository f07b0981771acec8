// Package audit keeps the append-only, hash-chained log of assistant
// actions.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/config"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"gorm.io/gorm"
)

// Record is one action to append.
type Record struct {
	UserID               string
	SessionID            string
	FunctionName         string
	Arguments            map[string]interface{}
	Result               map[string]interface{}
	RiskTier             string
	Status               string
	RequiresConfirmation bool
	WasConfirmed         bool
	ModelUsed            string
	TokensUsed           *int
}

// Filter narrows List results. UserID is required.
type Filter struct {
	UserID       string
	SessionID    string
	FunctionName string
	Limit        int
}

// Opts configures a Log.
type Opts struct {
	DB             *gorm.DB
	MaxResultBytes int     // default config.DefaultAuditResultMaxBytes
	Signer         *Signer // optional
}

// Log appends and verifies audit entries.
type Log struct {
	db       *gorm.DB
	maxBytes int
	signer   *Signer
	mu       sync.Mutex
	now      func() time.Time
}

// New creates an audit log.
func New(opts Opts) (*Log, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("audit: db is required")
	}
	if opts.MaxResultBytes <= 0 {
		opts.MaxResultBytes = config.DefaultAuditResultMaxBytes
	}
	return &Log{
		db:       opts.DB,
		maxBytes: opts.MaxResultBytes,
		signer:   opts.Signer,
		now:      time.Now,
	}, nil
}

// Record appends one entry to the chain.
func (l *Log) Record(ctx context.Context, r Record) (*models.AuditEntry, error) {
	if r.UserID == "" || r.FunctionName == "" {
		return nil, fmt.Errorf("audit: user and function are required")
	}
	if r.Status == "" {
		r.Status = models.AuditStatusExecuted
	}
	args := r.Arguments
	if args == nil {
		args = map[string]interface{}{}
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("audit: marshal arguments: %w", err)
	}
	result := r.Result
	if result == nil {
		result = map[string]interface{}{}
	}
	resultJSON, err := CapResult(result, l.maxBytes)
	if err != nil {
		return nil, err
	}

	entry := models.AuditEntry{
		UserID:               r.UserID,
		SessionID:            r.SessionID,
		FunctionName:         r.FunctionName,
		Arguments:            string(argsJSON),
		Result:               resultJSON,
		RiskTier:             r.RiskTier,
		Status:               r.Status,
		RequiresConfirmation: r.RequiresConfirmation,
		WasConfirmed:         r.WasConfirmed,
		ModelUsed:            r.ModelUsed,
		TokensUsed:           r.TokensUsed,
		CreatedAt:            l.now().UTC().Truncate(time.Second),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last models.AuditEntry
		err := tx.Order("sequence DESC").Limit(1).Take(&last).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry.Sequence = 1
		case err != nil:
			return fmt.Errorf("audit: read chain head: %w", err)
		default:
			entry.Sequence = last.Sequence + 1
			entry.PrevHash = last.Hash
		}
		entry.Hash = entryHash(&entry)
		if l.signer != nil {
			entry.Signature = l.signer.Sign([]byte(entry.Hash))
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("audit: insert entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns the caller's entries, newest first.
func (l *Log) List(ctx context.Context, f Filter) ([]models.AuditEntry, error) {
	if f.UserID == "" {
		return nil, fmt.Errorf("audit: user is required")
	}
	q := l.db.WithContext(ctx).Where("user_id = ?", f.UserID)
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.FunctionName != "" {
		q = q.Where("function_name = ?", f.FunctionName)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.AuditEntry
	if err := q.Order("sequence DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	return entries, nil
}

// canonicalEntry is the hashed view of an entry. Field order is fixed.
type canonicalEntry struct {
	Sequence             uint64 `json:"sequence"`
	UserID               string `json:"user_id"`
	SessionID            string `json:"session_id"`
	FunctionName         string `json:"function_name"`
	Arguments            string `json:"arguments"`
	Result               string `json:"result"`
	RiskTier             string `json:"risk_tier"`
	Status               string `json:"status"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	WasConfirmed         bool   `json:"was_confirmed"`
	ModelUsed            string `json:"model_used"`
	TokensUsed           *int   `json:"tokens_used"`
	CreatedAt            string `json:"created_at"`
}

// entryHash is sha256(prev_hash || "\n" || canonical JSON) in hex.
func entryHash(e *models.AuditEntry) string {
	c := canonicalEntry{
		Sequence:             e.Sequence,
		UserID:               e.UserID,
		SessionID:            e.SessionID,
		FunctionName:         e.FunctionName,
		Arguments:            e.Arguments,
		Result:               e.Result,
		RiskTier:             e.RiskTier,
		Status:               e.Status,
		RequiresConfirmation: e.RequiresConfirmation,
		WasConfirmed:         e.WasConfirmed,
		ModelUsed:            e.ModelUsed,
		TokensUsed:           e.TokensUsed,
		CreatedAt:            e.CreatedAt.UTC().Format(time.RFC3339),
	}
	b, _ := json.Marshal(c)
	h := sha256.New()
	h.Write([]byte(e.PrevHash))
	h.Write([]byte("\n"))
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}
