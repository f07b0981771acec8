package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/assistant"
)

// newResumeCmd builds the confirm (confirmed=true) or cancel command.
func newResumeCmd(confirmed bool) *cobra.Command {
	var (
		configPath string
		userID     string
		sessionID  string
		function   string
		argsJSON   string
	)

	use, short := "cancel", "Cancel a pending action"
	if confirmed {
		use, short = "confirm", "Approve and execute a pending action"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseResumeRequest(userID, sessionID, function, argsJSON)
			if err != nil {
				return err
			}
			a, err := appFromConfig(configPath)
			if err != nil {
				return err
			}
			var resp *assistant.ActionResponse
			if confirmed {
				resp = a.assistant.ExecuteConfirmedAction(cmd.Context(), req)
			} else {
				resp = a.assistant.CancelPendingAction(cmd.Context(), req)
			}
			return printActionResponse(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id (required)")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id (required)")
	cmd.Flags().StringVarP(&function, "function", "f", "", "tool name of the pending action (required)")
	cmd.Flags().StringVar(&argsJSON, "args", "{}", "tool arguments as a JSON object, exactly as proposed")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("session")
	cmd.MarkFlagRequired("function")
	return cmd
}

func parseResumeRequest(userID, sessionID, function, argsJSON string) (assistant.ResumeRequest, error) {
	args := map[string]interface{}{}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return assistant.ResumeRequest{}, fmt.Errorf("parse --args: %w", err)
		}
	}
	return assistant.ResumeRequest{
		FunctionName: function,
		Arguments:    args,
		UserID:       userID,
		SessionID:    sessionID,
	}, nil
}
