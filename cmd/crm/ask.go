package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/assistant"
)

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func newAskCmd() *cobra.Command {
	var (
		configPath string
		userID     string
		sessionID  string
	)

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Ask the assistant a question or give it an instruction",
		Long: `Runs one assistant query. When an action needs approval and stdin is a
terminal, you are asked to confirm it; otherwise the confirm command to run
is printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromConfig(configPath)
			if err != nil {
				return err
			}
			return runAsk(cmd, a.assistant, userID, sessionID, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id to act as (required)")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id to continue (default: new session)")
	cmd.MarkFlagRequired("user")
	return cmd
}

func runAsk(cmd *cobra.Command, orch *assistant.Orchestrator, userID, sessionID, query string) error {
	out := cmd.OutOrStdout()
	resp := orch.ProcessQuery(cmd.Context(), assistant.QueryRequest{
		Query:     query,
		UserID:    userID,
		SessionID: sessionID,
	})

	fmt.Fprintln(out, resp.Response)
	printActions(out, resp.ActionsTaken)
	fmt.Fprintf(out, "\nSession: %s\n", resp.SessionID)
	if resp.Error != "" {
		return fmt.Errorf("ask: %s", resp.Error)
	}
	if !resp.ConfirmationRequired || resp.PendingAction == nil {
		return nil
	}

	pending := resp.PendingAction
	argsJSON, err := json.Marshal(pending.Arguments)
	if err != nil {
		return fmt.Errorf("ask: encode arguments: %w", err)
	}
	if !stdinIsTerminal() {
		fmt.Fprintf(out, "\nTo approve, run:\n  crm confirm --user %s --session %s --function %s --args '%s'\n",
			userID, resp.SessionID, pending.FunctionName, argsJSON)
		return nil
	}

	req := assistant.ResumeRequest{
		FunctionName: pending.FunctionName,
		Arguments:    pending.Arguments,
		UserID:       userID,
		SessionID:    resp.SessionID,
	}
	var result *assistant.ActionResponse
	if promptYesNo(cmd.InOrStdin(), out, fmt.Sprintf("\n%s\nProceed? [y/N]: ", pending.Description)) {
		result = orch.ExecuteConfirmedAction(cmd.Context(), req)
	} else {
		result = orch.CancelPendingAction(cmd.Context(), req)
	}
	return printActionResponse(out, result)
}

// promptYesNo reads one line and reports whether it starts with y.
func promptYesNo(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func printActions(out io.Writer, actions []assistant.Action) {
	if len(actions) == 0 {
		return
	}
	fmt.Fprintln(out, "\nActions:")
	for _, a := range actions {
		status := "ok"
		if !a.Success {
			status = "failed: " + a.Result.ErrorMessage()
		}
		fmt.Fprintf(out, "  - %s [%s] %s\n", a.Function, a.RiskTier, status)
	}
}

func printActionResponse(out io.Writer, resp *assistant.ActionResponse) error {
	fmt.Fprintln(out, resp.Response)
	printActions(out, resp.ActionsTaken)
	if resp.Error != "" {
		return fmt.Errorf("%s: %s", resp.FunctionCalled, resp.Error)
	}
	return nil
}
