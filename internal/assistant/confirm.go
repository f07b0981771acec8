package assistant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/audit"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/notify"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/tools"
)

// ErrNoPendingAction is reported when a resume request matches no open
// ticket.
var ErrNoPendingAction = errors.New("assistant: no matching pending action")

// canonicalArgs returns the canonical JSON of args and the ticket hash of
// (name, args). Map keys are sorted at every level by encoding/json.
func canonicalArgs(name string, args map[string]interface{}) (string, string, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "", "", fmt.Errorf("assistant: encode arguments for %s: %w", name, err)
	}
	sum := sha256.Sum256([]byte(name + "\n" + string(data)))
	return string(data), hex.EncodeToString(sum[:]), nil
}

// gate suspends the loop on a high-risk call: it persists a ticket, audits
// the request as pending and returns the confirmation prompt.
func (o *Orchestrator) gate(ctx context.Context, r *run, name string, args map[string]interface{}, tier tools.Tier) *QueryResponse {
	ticket, err := o.openTicket(ctx, r, name, args)
	if err != nil {
		return o.fail(r, err)
	}

	o.record(ctx, audit.Record{
		UserID:       r.req.UserID,
		SessionID:    r.req.SessionID,
		FunctionName: name,
		Arguments:    args,
		Result: map[string]interface{}{
			"message":           "Awaiting user confirmation",
			"pending_action_id": ticket.ID,
		},
		RiskTier:             string(tier),
		Status:               models.AuditStatusPendingConfirmation,
		RequiresConfirmation: true,
		ModelUsed:            r.model,
		TokensUsed:           tokensPtr(r.tokens),
	})
	toolDispatches.WithLabelValues(name, string(tier), "gated").Inc()
	confirmations.WithLabelValues("requested").Inc()
	o.notify(ctx, notify.Event{
		Kind:         notify.KindPending,
		TicketID:     ticket.ID,
		UserID:       r.req.UserID,
		SessionID:    r.req.SessionID,
		FunctionName: name,
		Description:  ticket.Description,
	})

	prompt := fmt.Sprintf("This action needs your approval: %s. Confirm to proceed or cancel to leave everything unchanged.", ticket.Description)
	if err := o.memory.SaveTurn(ctx, r.req.UserID, r.req.SessionID, models.RoleAssistant, prompt); err != nil {
		return o.fail(r, err)
	}
	o.logInteraction(ctx, r)
	loopTerminations.WithLabelValues(stateConfirmationRequired).Inc()
	log.Info().Str("session", r.req.SessionID).Str("tool", name).Str("ticket", ticket.ID).Msg("confirmation_required")

	return &QueryResponse{
		Response:             prompt,
		Data:                 r.lastData,
		ActionsTaken:         r.actionsOrEmpty(),
		SessionID:            r.req.SessionID,
		ConfirmationRequired: true,
		PendingAction: &PendingAction{
			ID:           ticket.ID,
			FunctionName: name,
			Arguments:    args,
			Description:  ticket.Description,
			RiskTier:     tier,
		},
	}
}

// openTicket persists a pending ticket, reusing an identical open one.
func (o *Orchestrator) openTicket(ctx context.Context, r *run, name string, args map[string]interface{}) (*models.PendingAction, error) {
	argsJSON, hash, err := canonicalArgs(name, args)
	if err != nil {
		return nil, err
	}
	userID, sessionID := r.req.UserID, r.req.SessionID
	existing, err := o.findTicket(ctx, userID, sessionID, name, hash)
	if err != nil && !errors.Is(err, ErrNoPendingAction) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	ticket := &models.PendingAction{
		ID:            uuid.NewString(),
		UserID:        userID,
		SessionID:     sessionID,
		FunctionName:  name,
		Arguments:     argsJSON,
		ArgumentsHash: hash,
		Description:   o.catalog.DescribeForConfirmation(name, args),
		ModelUsed:     r.model,
		Status:        models.PendingStatusOpen,
	}
	if err := o.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("assistant: create pending action: %w", err)
	}
	return ticket, nil
}

func (o *Orchestrator) findTicket(ctx context.Context, userID, sessionID, name, hash string) (*models.PendingAction, error) {
	var ticket models.PendingAction
	err := o.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ? AND function_name = ? AND arguments_hash = ? AND status = ?",
			userID, sessionID, name, hash, models.PendingStatusOpen).
		Order("created_at ASC").
		First(&ticket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoPendingAction
	}
	if err != nil {
		return nil, fmt.Errorf("assistant: find pending action: %w", err)
	}
	return &ticket, nil
}

// claimTicket moves an open ticket to status. It fails with
// ErrNoPendingAction if another request resolved it first.
func (o *Orchestrator) claimTicket(ctx context.Context, ticket *models.PendingAction, status string) error {
	now := time.Now().UTC()
	res := o.db.WithContext(ctx).Model(&models.PendingAction{}).
		Where("id = ? AND status = ?", ticket.ID, models.PendingStatusOpen).
		Updates(map[string]interface{}{"status": status, "resolved_at": now})
	if res.Error != nil {
		return fmt.Errorf("assistant: resolve pending action: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoPendingAction
	}
	ticket.Status = status
	ticket.ResolvedAt = &now
	return nil
}

// ExecuteConfirmedAction runs a previously gated action the user approved.
func (o *Orchestrator) ExecuteConfirmedAction(ctx context.Context, req ResumeRequest) *ActionResponse {
	req.Confirmed = true
	return o.Resume(ctx, req)
}

// CancelPendingAction discards a previously gated action.
func (o *Orchestrator) CancelPendingAction(ctx context.Context, req ResumeRequest) *ActionResponse {
	req.Confirmed = false
	return o.Resume(ctx, req)
}

// Resume answers a confirmation prompt. The call must match an open ticket
// for the same user, session, function and arguments; otherwise nothing is
// executed.
func (o *Orchestrator) Resume(ctx context.Context, req ResumeRequest) *ActionResponse {
	ctx, span := tracer.Start(ctx, "assistant.resume")
	defer span.End()

	resp := &ActionResponse{FunctionCalled: req.FunctionName, ActionsTaken: []Action{}}
	if req.UserID == "" || req.SessionID == "" || req.FunctionName == "" {
		resp.Response = "A user, session and function name are required to resume an action."
		resp.Error = "assistant: user, session and function are required"
		return resp
	}

	_, hash, err := canonicalArgs(req.FunctionName, req.Arguments)
	if err != nil {
		return o.rejectResume(resp, err)
	}
	ticket, err := o.findTicket(ctx, req.UserID, req.SessionID, req.FunctionName, hash)
	if err != nil {
		return o.rejectResume(resp, err)
	}
	status := models.PendingStatusCancelled
	if req.Confirmed {
		status = models.PendingStatusConfirmed
	}
	if err := o.claimTicket(ctx, ticket, status); err != nil {
		return o.rejectResume(resp, err)
	}

	if !req.Confirmed {
		return o.cancelled(ctx, ticket, resp)
	}
	return o.executeTicket(ctx, ticket, resp)
}

func (o *Orchestrator) cancelled(ctx context.Context, ticket *models.PendingAction, resp *ActionResponse) *ActionResponse {
	confirmations.WithLabelValues("cancelled").Inc()
	o.notify(ctx, notify.Event{
		Kind:         notify.KindCancelled,
		TicketID:     ticket.ID,
		UserID:       ticket.UserID,
		SessionID:    ticket.SessionID,
		FunctionName: ticket.FunctionName,
		Description:  ticket.Description,
	})
	resp.Response = fmt.Sprintf("Cancelled: %s. No changes were made.", ticket.Description)
	o.saveResumeTurn(ctx, ticket, resp.Response)
	log.Info().Str("session", ticket.SessionID).Str("ticket", ticket.ID).Msg("pending_action_cancelled")
	return resp
}

// executeTicket is the only path on which a high-risk tool is dispatched.
func (o *Orchestrator) executeTicket(ctx context.Context, ticket *models.PendingAction, resp *ActionResponse) *ActionResponse {
	args := map[string]interface{}{}
	if err := json.Unmarshal([]byte(ticket.Arguments), &args); err != nil {
		resp.Response = "The stored action could not be read, so nothing was executed."
		resp.Error = fmt.Sprintf("assistant: decode pending arguments: %v", err)
		return resp
	}
	tier := o.catalog.Classify(ticket.FunctionName)
	result := o.dispatch(ctx, ticket.FunctionName, args, ticket.UserID, tier)

	o.record(ctx, audit.Record{
		UserID:               ticket.UserID,
		SessionID:            ticket.SessionID,
		FunctionName:         ticket.FunctionName,
		Arguments:            args,
		Result:               result,
		RiskTier:             string(tier),
		Status:               auditStatus(result),
		RequiresConfirmation: o.catalog.RequiresConfirmation(ticket.FunctionName),
		WasConfirmed:         true,
		ModelUsed:            ticket.ModelUsed,
	})
	confirmations.WithLabelValues("confirmed").Inc()

	action := Action{
		Function:  ticket.FunctionName,
		Arguments: args,
		RiskTier:  tier,
		Success:   !result.IsError(),
		Result:    result,
	}
	resp.ActionsTaken = []Action{action}
	resp.Data = result
	if result.IsError() {
		resp.Response = fmt.Sprintf("Could not complete: %s. %s", ticket.Description, result.ErrorMessage())
		resp.Error = result.ErrorMessage()
	} else {
		resp.Response = fmt.Sprintf("Done: %s.", ticket.Description)
	}

	outcome, _ := result["message"].(string)
	if result.IsError() {
		outcome = result.ErrorMessage()
	}
	o.notify(ctx, notify.Event{
		Kind:         notify.KindConfirmed,
		TicketID:     ticket.ID,
		UserID:       ticket.UserID,
		SessionID:    ticket.SessionID,
		FunctionName: ticket.FunctionName,
		Description:  ticket.Description,
		Outcome:      outcome,
	})
	o.saveResumeTurn(ctx, ticket, resp.Response)
	log.Info().Str("session", ticket.SessionID).Str("ticket", ticket.ID).
		Bool("success", action.Success).Msg("pending_action_executed")
	return resp
}

func (o *Orchestrator) rejectResume(resp *ActionResponse, err error) *ActionResponse {
	confirmations.WithLabelValues("rejected").Inc()
	if errors.Is(err, ErrNoPendingAction) {
		resp.Response = "There is no pending action matching this request, so nothing was executed. Ask the assistant again to prepare it."
	} else {
		resp.Response = "The action could not be resumed, so nothing was executed."
	}
	resp.Error = err.Error()
	log.Warn().Err(err).Str("tool", resp.FunctionCalled).Msg("resume_rejected")
	return resp
}

// saveResumeTurn records the outcome in the conversation. The action has
// already happened, so a failure is only logged.
func (o *Orchestrator) saveResumeTurn(ctx context.Context, ticket *models.PendingAction, text string) {
	if err := o.memory.SaveTurn(ctx, ticket.UserID, ticket.SessionID, models.RoleAssistant, text); err != nil {
		log.Warn().Err(err).Str("session", ticket.SessionID).Msg("resume_turn_save_failed")
	}
}

// notify posts e with a deadline so a slow or rate-limited channel cannot
// hold up the request.
func (o *Orchestrator) notify(ctx context.Context, e notify.Event) {
	ctx, cancel := context.WithTimeout(ctx, o.notifyTimeout)
	defer cancel()
	if err := o.notifier.Notify(ctx, e); err != nil {
		log.Warn().Err(err).Str("ticket", e.TicketID).Str("kind", e.Kind).Msg("notify_failed")
	}
}

// PendingActions lists the user's open tickets, oldest first. An empty
// sessionID lists every session.
func (o *Orchestrator) PendingActions(ctx context.Context, userID, sessionID string) ([]PendingAction, error) {
	if userID == "" {
		return nil, fmt.Errorf("assistant: user is required")
	}
	q := o.db.WithContext(ctx).Where("user_id = ? AND status = ?", userID, models.PendingStatusOpen)
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	var rows []models.PendingAction
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("assistant: list pending actions: %w", err)
	}
	out := make([]PendingAction, 0, len(rows))
	for _, row := range rows {
		args := map[string]interface{}{}
		if err := json.Unmarshal([]byte(row.Arguments), &args); err != nil {
			return nil, fmt.Errorf("assistant: decode pending action %s: %w", row.ID, err)
		}
		out = append(out, PendingAction{
			ID:           row.ID,
			FunctionName: row.FunctionName,
			Arguments:    args,
			Description:  row.Description,
			RiskTier:     o.catalog.Classify(row.FunctionName),
		})
	}
	return out, nil
}

