// Package notify posts high-risk assistant actions to chat channels so a
// human can see what is awaiting approval and what was approved.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Event kinds.
const (
	KindPending   = "pending_confirmation"
	KindConfirmed = "confirmed"
	KindCancelled = "cancelled"
)

// Event describes one high-risk action transition.
type Event struct {
	Kind         string
	TicketID     string
	UserID       string
	SessionID    string
	FunctionName string
	Description  string
	Outcome      string // result message or error for confirmed actions
}

// Notifier delivers events.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Title returns a one-line headline for e.
func (e Event) Title() string {
	switch e.Kind {
	case KindPending:
		return "Approval needed: " + e.Description
	case KindConfirmed:
		return "Approved and executed: " + e.Description
	case KindCancelled:
		return "Cancelled: " + e.Description
	}
	return e.Description
}

// Color returns the attachment color for e.
func (e Event) Color() string {
	switch e.Kind {
	case KindPending:
		return "#f2c744"
	case KindConfirmed:
		return "#36a64f"
	}
	return "#999999"
}

// fields is the ordered key/value detail block shared by every channel.
func (e Event) fields() [][2]string {
	f := [][2]string{
		{"User", e.UserID},
		{"Session", e.SessionID},
		{"Tool", e.FunctionName},
	}
	if e.TicketID != "" {
		f = append(f, [2]string{"Ticket", e.TicketID})
	}
	if e.Outcome != "" {
		f = append(f, [2]string{"Outcome", e.Outcome})
	}
	return f
}

// Multi fans an event out to every notifier. Every notifier is attempted;
// the failures are joined.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			log.Warn().Err(err).Str("kind", e.Kind).Str("tool", e.FunctionName).Msg("notify_failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event) error { return nil }

func requireChannel(service, channel string) error {
	if channel == "" {
		return fmt.Errorf("notify: %s: channel is required", service)
	}
	return nil
}
