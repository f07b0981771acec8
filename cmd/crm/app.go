package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/assistant"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/audit"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/config"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/crm"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/db"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/dispatch"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/learning"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/memory"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/notify"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/oracle"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/tools"
)

// connectFromConfig loads config and opens the database with the schema
// migrated.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	setupLogging(firstNonEmpty(logLevel, cfg.Log.Level), firstNonEmpty(logFormat, cfg.Log.Format))

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

// app bundles the wired collaborators shared by serve, ask and resume.
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	assistant *assistant.Orchestrator
	memory    *memory.Manager
	audit     *audit.Log
	learning  *learning.Store
}

func newApp(cfg *config.Config, gormDB *gorm.DB) (*app, error) {
	var orc oracle.Oracle
	client, err := oracle.NewOpenAI(oracle.OpenAIOpts{
		APIKey:  cfg.Oracle.APIKey,
		Model:   cfg.Oracle.Model,
		BaseURL: cfg.Oracle.BaseURL,
	})
	switch {
	case errors.Is(err, oracle.ErrUnavailable):
		log.Warn().Msg("oracle_not_configured")
	case err != nil:
		return nil, err
	default:
		orc = client
	}

	var summarizer memory.Summarizer
	if orc != nil {
		summarizer = &memory.OracleSummarizer{Oracle: orc, Model: cfg.Oracle.SummaryModel}
	}
	mem, err := memory.New(memory.Opts{
		DB:                gormDB,
		WorkingMemorySize: cfg.Agent.WorkingMemorySize,
		Summarizer:        summarizer,
	})
	if err != nil {
		return nil, err
	}

	var signer *audit.Signer
	if cfg.Audit.SigningKey != "" {
		if signer, err = audit.NewSigner(cfg.Audit.SigningKey); err != nil {
			return nil, err
		}
	}
	auditLog, err := audit.New(audit.Opts{
		DB:             gormDB,
		MaxResultBytes: cfg.Agent.AuditResultMaxBytes,
		Signer:         signer,
	})
	if err != nil {
		return nil, err
	}

	dispatcher, err := dispatch.New(tools.Default(), crm.NewServices(gormDB))
	if err != nil {
		return nil, err
	}
	notifier, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		return nil, err
	}
	store := learning.NewStore(gormDB)

	orch, err := assistant.New(assistant.Opts{
		DB:            gormDB,
		Oracle:        orc,
		Dispatcher:    dispatcher,
		Memory:        mem,
		Audit:         auditLog,
		Learning:      store,
		Notifier:      notifier,
		Model:         cfg.Oracle.Model,
		MaxIterations: cfg.Agent.MaxIterations,
	})
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:       cfg,
		db:        gormDB,
		assistant: orch,
		memory:    mem,
		audit:     auditLog,
		learning:  store,
	}, nil
}

func appFromConfig(configPath string) (*app, error) {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, gormDB)
}
