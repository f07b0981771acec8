package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/audit"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assistant HTTP API",
		Long:  "Serves the assistant JSON API and Prometheus metrics, and schedules audit chain verification.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	a, err := appFromConfig(configPath)
	if err != nil {
		return err
	}
	if port <= 0 {
		port = a.cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if schedule := a.cfg.Audit.VerifySchedule; schedule != "" {
		if err := audit.StartVerifier(ctx, a.audit, schedule); err != nil {
			return err
		}
	}

	return server.Start(ctx, server.Opts{
		DB:        a.db,
		Assistant: a.assistant,
		Memory:    a.memory,
		Audit:     a.audit,
		Learning:  a.learning,
		Port:      port,
		Out:       cmd.OutOrStdout(),
	})
}
