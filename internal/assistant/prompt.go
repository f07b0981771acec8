package assistant

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/rs/zerolog/log"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/tools"
)

const promptTemplate = `You are the CRM assistant. You help sales and marketing teams work with their contacts, leads, opportunities, campaigns, quotes and payments.

## How to work
- Use the available tools to look up records before answering questions about them. Never invent ids, names or amounts.
- You may call several tools in a row. Each tool result is returned to you before you continue.
- Tools only see the records owned by the current user.
- If a tool returns an error, read it and decide whether to retry with corrected arguments or explain the problem.
- When you are done, answer in plain language and mention the records you touched by name and id.

## Actions that need approval
Status changes, stage moves and anything that sends a message or a payment request ({{ joinStrings .HighRisk ", " }}) are held for the user's explicit approval. Request them normally; the system will ask the user and report back. Do not ask for approval yourself.
{{ if .Style }}
## Communication style
Keep your answers {{ .Style }}.
{{ end }}{{ if .CustomInstructions }}
## User instructions
{{ .CustomInstructions }}
{{ end }}{{ if .LearnedContext }}
## What you know about this user
{{ .LearnedContext }}
{{ end }}`

// budgetInstruction is appended on the last oracle round.
const budgetInstruction = "You have reached the maximum number of steps for this request. Do not call any more tools. Summarize what you accomplished so far and what, if anything, is left for the user to do."

var systemPrompt = template.Must(template.New("assistant").Funcs(template.FuncMap{
	"joinStrings": strings.Join,
}).Parse(promptTemplate))

type promptData struct {
	HighRisk           []string
	Style              string
	CustomInstructions string
	LearnedContext     string
}

// renderPrompt builds the system prompt for userID. Learning failures are
// logged and leave the corresponding section out.
func (o *Orchestrator) renderPrompt(ctx context.Context, userID string) (string, error) {
	data := promptData{}
	for _, name := range o.catalog.Names() {
		if o.catalog.Classify(name) == tools.TierWriteHigh {
			data.HighRisk = append(data.HighRisk, name)
		}
	}
	if o.learning != nil {
		prefs, err := o.learning.Preferences(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Str("user", userID).Msg("preferences_unavailable")
		} else if prefs != nil {
			data.Style = prefs.CommunicationStyle
			data.CustomInstructions = strings.TrimSpace(prefs.CustomInstructions)
		}
		learned, err := o.learning.LearnedContext(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Str("user", userID).Msg("learned_context_unavailable")
		} else {
			data.LearnedContext = learned
		}
	}

	var buf bytes.Buffer
	if err := systemPrompt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("assistant: execute prompt template: %w", err)
	}
	return buf.String(), nil
}
