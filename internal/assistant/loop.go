package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/audit"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/dispatch"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/oracle"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/tools"
)

const unavailableMessage = "The AI assistant is not configured right now. Ask an administrator to set up the language model connection."

// run holds the state of one ProcessQuery call.
type run struct {
	req      QueryRequest
	messages []oracle.Message
	actions  []Action
	lastData dispatch.Result
	model    string
	tokens   int
}

// ProcessQuery answers one request. It never returns an error: failures are
// reported in the response together with any actions already taken.
func (o *Orchestrator) ProcessQuery(ctx context.Context, req QueryRequest) *QueryResponse {
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	ctx, span := tracer.Start(ctx, "assistant.process_query")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", req.SessionID))

	resp := o.processQuery(ctx, req)
	if resp.Error != "" {
		span.SetStatus(codes.Error, resp.Error)
	}
	return resp
}

func (o *Orchestrator) processQuery(ctx context.Context, req QueryRequest) *QueryResponse {
	if o.oracle == nil {
		loopTerminations.WithLabelValues(stateFailed).Inc()
		return &QueryResponse{
			Response:     unavailableMessage,
			ActionsTaken: []Action{},
			SessionID:    req.SessionID,
			Error:        ErrOracleUnavailable.Error(),
		}
	}
	query := strings.TrimSpace(req.Query)
	if query == "" || req.UserID == "" {
		return &QueryResponse{
			Response:     "Please provide a question or instruction.",
			ActionsTaken: []Action{},
			SessionID:    req.SessionID,
			Error:        "assistant: query and user are required",
		}
	}
	req.Query = query

	r := &run{req: req, model: o.model}
	if err := o.seed(ctx, r); err != nil {
		return o.fail(r, err)
	}

	for round := 1; round <= o.maxIterations; round++ {
		last := round == o.maxIterations
		completion, err := o.complete(ctx, r, round, last)
		if err != nil {
			return o.fail(r, err)
		}
		if last {
			return o.finish(ctx, r, o.budgetSummary(r, completion.Content), stateBudgetExhausted)
		}
		if len(completion.ToolCalls) == 0 {
			text := strings.TrimSpace(completion.Content)
			if text == "" {
				text = actionSummary("Done.", r.actions)
			}
			return o.finish(ctx, r, text, stateDone)
		}

		r.messages = append(r.messages, oracle.Message{
			Role:      oracle.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})
		for _, call := range completion.ToolCalls {
			if gated := o.runCall(ctx, r, call); gated != nil {
				return gated
			}
		}
	}
	// Unreachable: the last round always finishes.
	return o.finish(ctx, r, o.budgetSummary(r, ""), stateBudgetExhausted)
}

// seed builds the system prompt and working context and persists the user
// turn.
func (o *Orchestrator) seed(ctx context.Context, r *run) error {
	prompt, err := o.renderPrompt(ctx, r.req.UserID)
	if err != nil {
		return err
	}
	turns, err := o.memory.LoadContext(ctx, r.req.UserID, r.req.SessionID)
	if err != nil {
		return err
	}
	r.messages = make([]oracle.Message, 0, len(turns)+2)
	r.messages = append(r.messages, oracle.Message{Role: oracle.RoleSystem, Content: prompt})
	for _, t := range turns {
		r.messages = append(r.messages, oracle.Message{Role: t.Role, Content: t.Content})
	}
	r.messages = append(r.messages, oracle.Message{Role: oracle.RoleUser, Content: r.req.Query})
	return o.memory.SaveTurn(ctx, r.req.UserID, r.req.SessionID, models.RoleUser, r.req.Query)
}

// complete performs one oracle round trip. On the last round tools are
// disabled and the oracle is asked to wrap up.
func (o *Orchestrator) complete(ctx context.Context, r *run, round int, last bool) (*oracle.Completion, error) {
	ctx, span := tracer.Start(ctx, "assistant.oracle_round")
	defer span.End()
	span.SetAttributes(attribute.Int("round", round), attribute.Bool("final", last))

	req := oracle.Request{
		Model:      o.model,
		Messages:   r.messages,
		Tools:      o.catalog.List(),
		ToolChoice: oracle.ToolChoiceAuto,
	}
	if last {
		req.Messages = append(oracle.CloneMessages(r.messages), oracle.Message{Role: oracle.RoleSystem, Content: budgetInstruction})
		req.ToolChoice = oracle.ToolChoiceNone
	}

	start := time.Now()
	completion, err := o.oracle.Complete(ctx, req)
	status := "success"
	if err != nil {
		status = "error"
	}
	oracleCalls.WithLabelValues(status).Inc()
	oracleDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if completion.Model != "" {
		r.model = completion.Model
	}
	r.tokens += completion.TokensUsed
	log.Debug().Str("session", r.req.SessionID).Int("round", round).
		Int("tool_calls", len(completion.ToolCalls)).Msg("oracle_round")
	return completion, nil
}

// runCall handles one requested tool call. It returns a non-nil response
// when the call is gated and the loop must stop.
func (o *Orchestrator) runCall(ctx context.Context, r *run, call oracle.ToolCall) *QueryResponse {
	tier := o.catalog.Classify(call.Name)
	args, argErr := call.Args()

	var result dispatch.Result
	switch {
	case argErr != nil:
		result = dispatch.Result{
			"error": fmt.Sprintf("Invalid arguments for %s: arguments must be a JSON object", call.Name),
			"kind":  dispatch.KindValidation,
		}
		args = map[string]interface{}{}
	default:
		// Invalid arguments go back to the oracle instead of to the user.
		if result = o.dispatcher.Validate(call.Name, args); result != nil {
			log.Debug().Str("tool", call.Name).Str("error", result.ErrorMessage()).Msg("tool_args_rejected")
			break
		}
		if o.catalog.RequiresConfirmation(call.Name) {
			return o.gate(ctx, r, call.Name, args, tier)
		}
		result = o.dispatch(ctx, call.Name, args, r.req.UserID, tier)
	}

	o.record(ctx, audit.Record{
		UserID:       r.req.UserID,
		SessionID:    r.req.SessionID,
		FunctionName: call.Name,
		Arguments:    args,
		Result:       result,
		RiskTier:     string(tier),
		Status:       auditStatus(result),
		ModelUsed:    r.model,
		TokensUsed:   tokensPtr(r.tokens),
	})

	r.actions = append(r.actions, Action{
		Function:  call.Name,
		Arguments: args,
		RiskTier:  tier,
		Success:   !result.IsError(),
		Result:    result,
	})
	if !result.IsError() {
		r.lastData = result
	}
	r.messages = append(r.messages, oracle.Message{
		Role:       oracle.RoleTool,
		Content:    resultJSON(result),
		ToolCallID: call.ID,
		Name:       call.Name,
	})
	return nil
}

// dispatch executes a non-gated call.
func (o *Orchestrator) dispatch(ctx context.Context, name string, args map[string]interface{}, userID string, tier tools.Tier) dispatch.Result {
	ctx, span := tracer.Start(ctx, "assistant.dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("tool", name), attribute.String("tier", string(tier)))

	result := o.dispatcher.Execute(ctx, name, args, userID)
	outcome := "success"
	if result.IsError() {
		outcome = "error"
		span.SetStatus(codes.Error, result.ErrorMessage())
	}
	toolDispatches.WithLabelValues(name, string(tier), outcome).Inc()
	log.Info().Str("user", userID).Str("tool", name).Str("tier", string(tier)).
		Str("outcome", outcome).Msg("tool_dispatched")
	return result
}

// finish persists the assistant turn, logs the interaction and builds the
// final response.
func (o *Orchestrator) finish(ctx context.Context, r *run, text, state string) *QueryResponse {
	if err := o.memory.SaveTurn(ctx, r.req.UserID, r.req.SessionID, models.RoleAssistant, text); err != nil {
		return o.fail(r, err)
	}
	o.logInteraction(ctx, r)
	loopTerminations.WithLabelValues(state).Inc()
	log.Info().Str("session", r.req.SessionID).Str("state", state).
		Int("actions", len(r.actions)).Msg("query_completed")
	return &QueryResponse{
		Response:     text,
		Data:         r.lastData,
		ActionsTaken: r.actionsOrEmpty(),
		SessionID:    r.req.SessionID,
	}
}

// fail reports an aborted run. Actions already taken are kept in the
// response.
func (o *Orchestrator) fail(r *run, err error) *QueryResponse {
	loopTerminations.WithLabelValues(stateFailed).Inc()
	log.Error().Err(err).Str("session", r.req.SessionID).Int("actions", len(r.actions)).Msg("query_failed")
	msg := "Sorry, I ran into a problem while working on that request."
	if isUnavailable(err) {
		msg = unavailableMessage
	}
	if len(r.actions) > 0 {
		msg += fmt.Sprintf(" %d action(s) were completed before the error.", len(r.actions))
	}
	return &QueryResponse{
		Response:     msg,
		Data:         r.lastData,
		ActionsTaken: r.actionsOrEmpty(),
		SessionID:    r.req.SessionID,
		Error:        err.Error(),
	}
}

// budgetSummary is the reply used when the iteration budget runs out. The
// oracle's wrap-up text wins; otherwise the actions taken are listed.
func (o *Orchestrator) budgetSummary(r *run, content string) string {
	if text := strings.TrimSpace(content); text != "" {
		return text
	}
	return actionSummary("I reached the step limit for this request.", r.actions)
}

// actionSummary lists actions after lead, e.g.
// "Done. Actions taken: search_contacts (ok), create_lead (failed)."
func actionSummary(lead string, actions []Action) string {
	if len(actions) == 0 {
		return lead + " No actions were taken."
	}
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		status := "ok"
		if !a.Success {
			status = "failed"
		}
		names = append(names, fmt.Sprintf("%s (%s)", a.Function, status))
	}
	return lead + " Actions taken: " + strings.Join(names, ", ") + "."
}

func (o *Orchestrator) logInteraction(ctx context.Context, r *run) {
	if o.learning == nil {
		return
	}
	names := make([]string, 0, len(r.actions))
	for _, a := range r.actions {
		names = append(names, a.Function)
	}
	if err := o.learning.LogInteraction(ctx, r.req.UserID, r.req.SessionID, r.req.Query, names); err != nil {
		log.Warn().Err(err).Str("session", r.req.SessionID).Msg("interaction_log_failed")
	}
}

// record appends an audit entry. A failed append is logged; it does not undo
// the action.
func (o *Orchestrator) record(ctx context.Context, rec audit.Record) {
	if _, err := o.audit.Record(ctx, rec); err != nil {
		log.Error().Err(err).Str("tool", rec.FunctionName).Str("session", rec.SessionID).Msg("audit_record_failed")
	}
}

func (r *run) actionsOrEmpty() []Action {
	if r.actions == nil {
		return []Action{}
	}
	return r.actions
}

func auditStatus(result dispatch.Result) string {
	if result.IsError() {
		return models.AuditStatusFailed
	}
	return models.AuditStatusExecuted
}

func tokensPtr(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

func resultJSON(result dispatch.Result) string {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, "result could not be encoded: "+err.Error())
	}
	return string(data)
}

// isUnavailable reports whether err means the oracle is not configured.
func isUnavailable(err error) bool {
	return errors.Is(err, ErrOracleUnavailable) || errors.Is(err, oracle.ErrUnavailable)
}
