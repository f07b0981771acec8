package dispatch

import (
	"context"
	"fmt"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/crm"
)

// crmHandlers maps every catalog tool to its CRM service call. Handlers only
// translate arguments and shape results.
func crmHandlers(svc *crm.Services) map[string]Handler {
	return map[string]Handler{
		// Read
		"search_contacts": func(_ context.Context, user string, a Args) (Result, error) {
			contacts, err := svc.Contacts.Search(user, a.String("query"), a.Int("limit"))
			if err != nil {
				return nil, err
			}
			return Result{"count": len(contacts), "contacts": contacts}, nil
		},
		"get_contact": func(_ context.Context, user string, a Args) (Result, error) {
			id, err := a.ID("contact_id")
			if err != nil {
				return nil, err
			}
			c, err := svc.Contacts.Get(user, id)
			if err != nil {
				return nil, err
			}
			return Result{"contact": c}, nil
		},
		"search_leads": func(_ context.Context, user string, a Args) (Result, error) {
			leads, err := svc.Leads.Search(user, crm.LeadFilters{
				Term:   a.String("query"),
				Status: a.String("status"),
				Limit:  a.Int("limit"),
			})
			if err != nil {
				return nil, err
			}
			return Result{"count": len(leads), "leads": leads}, nil
		},
		"get_lead": func(_ context.Context, user string, a Args) (Result, error) {
			id, err := a.ID("lead_id")
			if err != nil {
				return nil, err
			}
			l, err := svc.Leads.Get(user, id)
			if err != nil {
				return nil, err
			}
			return Result{"lead": l}, nil
		},
		"search_opportunities": func(_ context.Context, user string, a Args) (Result, error) {
			opps, err := svc.Opportunities.Search(user, crm.OpportunityFilters{
				Term:      a.String("query"),
				Stage:     a.String("stage"),
				MinAmount: a.Float("min_amount"),
				Limit:     a.Int("limit"),
			})
			if err != nil {
				return nil, err
			}
			return Result{"count": len(opps), "opportunities": opps}, nil
		},
		"get_pipeline_report": func(_ context.Context, user string, _ Args) (Result, error) {
			r, err := svc.Reports.Pipeline(user)
			if err != nil {
				return nil, err
			}
			return Result{"report_type": "pipeline", "report": r}, nil
		},
		"list_campaigns": func(_ context.Context, user string, a Args) (Result, error) {
			cs, err := svc.Campaigns.List(user, a.String("status"), a.Int("limit"))
			if err != nil {
				return nil, err
			}
			return Result{"count": len(cs), "campaigns": cs}, nil
		},
		"get_campaign_stats": func(_ context.Context, user string, a Args) (Result, error) {
			id, err := a.ID("campaign_id")
			if err != nil {
				return nil, err
			}
			st, err := svc.Campaigns.Stats(user, id)
			if err != nil {
				return nil, err
			}
			return Result{"report_type": "campaign_stats", "stats": st}, nil
		},
		"list_quotes": func(_ context.Context, user string, a Args) (Result, error) {
			qs, err := svc.Quotes.List(user, a.String("status"), a.Int("limit"))
			if err != nil {
				return nil, err
			}
			return Result{"count": len(qs), "quotes": qs}, nil
		},
		"list_payments": func(_ context.Context, user string, a Args) (Result, error) {
			ps, err := svc.Payments.List(user, a.String("status"), a.Int("limit"))
			if err != nil {
				return nil, err
			}
			return Result{"count": len(ps), "payments": ps}, nil
		},

		// Write, low risk
		"create_contact": func(_ context.Context, user string, a Args) (Result, error) {
			c, err := svc.Contacts.Create(user, crm.CreateContactOpts{
				FirstName: a.String("first_name"),
				LastName:  a.String("last_name"),
				Email:     a.String("email"),
				Phone:     a.String("phone"),
				Company:   a.String("company"),
				JobTitle:  a.String("job_title"),
			})
			if err != nil {
				return nil, err
			}
			return Result{"message": fmt.Sprintf("Created contact %s (ID %d)", c.FullName(), c.ID), "contact": c}, nil
		},
		"create_lead": func(_ context.Context, user string, a Args) (Result, error) {
			contactID, err := a.OptID("contact_id")
			if err != nil {
				return nil, err
			}
			l, err := svc.Leads.Create(user, crm.CreateLeadOpts{
				FirstName: a.String("first_name"),
				LastName:  a.String("last_name"),
				Email:     a.String("email"),
				Company:   a.String("company"),
				Source:    a.String("source"),
				ContactID: contactID,
				Score:     a.Int("score"),
			})
			if err != nil {
				return nil, err
			}
			return Result{"message": fmt.Sprintf("Created lead %s (ID %d)", l.FirstName, l.ID), "lead": l}, nil
		},
		"create_opportunity": func(_ context.Context, user string, a Args) (Result, error) {
			contactID, err := a.OptID("contact_id")
			if err != nil {
				return nil, err
			}
			closeDate, err := a.OptDate("expected_close_date")
			if err != nil {
				return nil, err
			}
			o, err := svc.Opportunities.Create(user, crm.CreateOpportunityOpts{
				Name:              a.String("name"),
				Amount:            a.Float("amount"),
				Stage:             a.String("stage"),
				ContactID:         contactID,
				ExpectedCloseDate: closeDate,
			})
			if err != nil {
				return nil, err
			}
			return Result{"message": fmt.Sprintf("Created opportunity %q (ID %d)", o.Name, o.ID), "opportunity": o}, nil
		},
		"add_note": func(_ context.Context, user string, a Args) (Result, error) {
			entityID, err := a.ID("entity_id")
			if err != nil {
				return nil, err
			}
			n, err := svc.Activities.AddNote(user, a.String("entity_type"), entityID, a.String("content"))
			if err != nil {
				return nil, err
			}
			return Result{"message": fmt.Sprintf("Added note to %s %d", n.EntityType, n.EntityID), "note": n}, nil
		},
		"create_quote": func(_ context.Context, user string, a Args) (Result, error) {
			oppID, err := a.OptID("opportunity_id")
			if err != nil {
				return nil, err
			}
			contactID, err := a.OptID("contact_id")
			if err != nil {
				return nil, err
			}
			q, err := svc.Quotes.Create(user, crm.CreateQuoteOpts{
				Title:         a.String("title"),
				Amount:        a.Float("amount"),
				OpportunityID: oppID,
				ContactID:     contactID,
			})
			if err != nil {
				return nil, err
			}
			return Result{"message": fmt.Sprintf("Created quote %s (ID %d)", q.Number, q.ID), "quote": q}, nil
		},

		// Write, high risk
		"update_lead_status": func(_ context.Context, user string, a Args) (Result, error) {
			id, err := a.ID("lead_id")
			if err != nil {
				return nil, err
			}
			l, err := svc.Leads.UpdateStatus(user, id, a.String("new_status"))
			if err != nil {
				return nil, err
			}
			return Result{"message": fmt.Sprintf("Lead %d status updated to %s", l.ID, l.Status), "lead": l}, nil
		},
		"move_opportunity_stage": func(_ context.Context, user string, a Args) (Result, error) {
			id, err := a.ID("opportunity_id")
			if err != nil {
				return nil, err
			}
			o, err := svc.Opportunities.MoveStage(user, id, a.String("new_stage"))
			if err != nil {
				return nil, err
			}
			return Result{"message": fmt.Sprintf("Opportunity %d moved to %s", o.ID, o.Stage), "opportunity": o}, nil
		},
		"send_email": func(_ context.Context, user string, a Args) (Result, error) {
			id, err := a.ID("contact_id")
			if err != nil {
				return nil, err
			}
			e, err := svc.Activities.SendEmail(user, id, a.String("subject"), a.String("body"))
			if err != nil {
				return nil, err
			}
			return Result{"message": fmt.Sprintf("Email sent to %s", e.ToAddress), "email": e}, nil
		},
		"send_quote": func(_ context.Context, user string, a Args) (Result, error) {
			id, err := a.ID("quote_id")
			if err != nil {
				return nil, err
			}
			q, err := svc.Quotes.Send(user, id)
			if err != nil {
				return nil, err
			}
			return Result{"message": fmt.Sprintf("Quote %s sent", q.Number), "quote": q}, nil
		},
		"send_payment_link": func(_ context.Context, user string, a Args) (Result, error) {
			quoteID, err := a.OptID("quote_id")
			if err != nil {
				return nil, err
			}
			contactID, err := a.OptID("contact_id")
			if err != nil {
				return nil, err
			}
			p, err := svc.Payments.SendLink(user, crm.PaymentLinkOpts{
				QuoteID:   quoteID,
				ContactID: contactID,
				Amount:    a.Float("amount"),
				Currency:  a.String("currency"),
			})
			if err != nil {
				return nil, err
			}
			return Result{"message": fmt.Sprintf("Payment link sent for %.2f %s", p.Amount, p.Currency), "payment": p}, nil
		},
		"send_campaign": func(_ context.Context, user string, a Args) (Result, error) {
			id, err := a.ID("campaign_id")
			if err != nil {
				return nil, err
			}
			c, err := svc.Campaigns.Send(user, id)
			if err != nil {
				return nil, err
			}
			return Result{"message": fmt.Sprintf("Campaign %q sent to %d recipients", c.Name, c.RecipientCount), "campaign": c}, nil
		},
		"schedule_follow_up_sequence": func(_ context.Context, user string, a Args) (Result, error) {
			id, err := a.ID("contact_id")
			if err != nil {
				return nil, err
			}
			raw, _ := a["steps"].([]interface{})
			steps := make([]crm.SequenceStepOpts, 0, len(raw))
			for _, r := range raw {
				step := Args{}
				if m, ok := r.(map[string]interface{}); ok {
					step = Args(m)
				}
				steps = append(steps, crm.SequenceStepOpts{
					DelayDays: step.Int("delay_days"),
					Subject:   step.String("subject"),
				})
			}
			seq, err := svc.Activities.ScheduleSequence(user, id, a.String("name"), steps)
			if err != nil {
				return nil, err
			}
			return Result{"message": fmt.Sprintf("Scheduled %d-step sequence %q", len(seq.Steps), seq.Name), "sequence": seq}, nil
		},
	}
}
