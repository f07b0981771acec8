package tools

import (
	"fmt"
	"strconv"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
)

var (
	quoteStatuses    = []string{models.QuoteStatusDraft, models.QuoteStatusSent, models.QuoteStatusAccepted, models.QuoteStatusRejected}
	campaignStatuses = []string{models.CampaignStatusDraft, models.CampaignStatusSent}
	paymentStatuses  = []string{models.PaymentStatusPending, models.PaymentStatusLinkSent, models.PaymentStatusPaid}
	noteEntities     = []string{"contact", "lead", "opportunity"}
)

// Default returns the deployment catalog.
func Default() *Catalog {
	c, err := New(definitions()...)
	if err != nil {
		panic(err)
	}
	return c
}

func definitions() []Descriptor {
	limit := integer("Maximum number of results (default 25, max 100)")
	return []Descriptor{
		// Read
		{
			Name:        "search_contacts",
			Description: "Search contacts by name, email or company.",
			Tier:        TierRead,
			Parameters: object(map[string]Property{
				"query": str("Search term matched against name, email and company"),
				"limit": limit,
			}),
		},
		{
			Name:        "get_contact",
			Description: "Get one contact by id.",
			Tier:        TierRead,
			Parameters:  object(map[string]Property{"contact_id": id("Contact id")}, "contact_id"),
		},
		{
			Name:        "search_leads",
			Description: "Search leads by name, email or company, optionally filtered by status.",
			Tier:        TierRead,
			Parameters: object(map[string]Property{
				"query":  str("Search term"),
				"status": enum("Lead status", models.LeadStatuses),
				"limit":  limit,
			}),
		},
		{
			Name:        "get_lead",
			Description: "Get one lead by id.",
			Tier:        TierRead,
			Parameters:  object(map[string]Property{"lead_id": id("Lead id")}, "lead_id"),
		},
		{
			Name:        "search_opportunities",
			Description: "Search pipeline opportunities by name, stage or minimum amount.",
			Tier:        TierRead,
			Parameters: object(map[string]Property{
				"query":      str("Search term matched against the opportunity name"),
				"stage":      enum("Pipeline stage", models.OpportunityStages),
				"min_amount": number("Only opportunities worth at least this amount"),
				"limit":      limit,
			}),
		},
		{
			Name:        "get_pipeline_report",
			Description: "Report opportunity counts, totals and weighted value per pipeline stage.",
			Tier:        TierRead,
			Parameters:  object(map[string]Property{}),
		},
		{
			Name:        "list_campaigns",
			Description: "List marketing campaigns, optionally filtered by status.",
			Tier:        TierRead,
			Parameters: object(map[string]Property{
				"status": enum("Campaign status", campaignStatuses),
				"limit":  limit,
			}),
		},
		{
			Name:        "get_campaign_stats",
			Description: "Get delivery statistics for one campaign.",
			Tier:        TierRead,
			Parameters:  object(map[string]Property{"campaign_id": id("Campaign id")}, "campaign_id"),
		},
		{
			Name:        "list_quotes",
			Description: "List quotes, optionally filtered by status.",
			Tier:        TierRead,
			Parameters: object(map[string]Property{
				"status": enum("Quote status", quoteStatuses),
				"limit":  limit,
			}),
		},
		{
			Name:        "list_payments",
			Description: "List payments, optionally filtered by status.",
			Tier:        TierRead,
			Parameters: object(map[string]Property{
				"status": enum("Payment status", paymentStatuses),
				"limit":  limit,
			}),
		},

		// Write, low risk
		{
			Name:        "create_contact",
			Description: "Create a new contact.",
			Tier:        TierWriteLow,
			Parameters: object(map[string]Property{
				"first_name": str("First name"),
				"last_name":  str("Last name"),
				"email":      str("Email address"),
				"phone":      str("Phone number"),
				"company":    str("Company name"),
				"job_title":  str("Job title"),
			}, "first_name"),
		},
		{
			Name:        "create_lead",
			Description: "Create a new lead with status new.",
			Tier:        TierWriteLow,
			Parameters: object(map[string]Property{
				"first_name": str("First name"),
				"last_name":  str("Last name"),
				"email":      str("Email address"),
				"company":    str("Company name"),
				"source":     str("Where the lead came from, e.g. website or referral"),
				"contact_id": id("Existing contact to link"),
				"score":      integer("Lead score from 0 to 100"),
			}, "first_name"),
		},
		{
			Name:        "create_opportunity",
			Description: "Create a pipeline opportunity.",
			Tier:        TierWriteLow,
			Parameters: object(map[string]Property{
				"name":                str("Opportunity name"),
				"amount":              number("Deal value"),
				"stage":               enum("Initial stage (default prospecting)", models.OpportunityStages),
				"contact_id":          id("Primary contact"),
				"expected_close_date": str("Expected close date, YYYY-MM-DD"),
			}, "name"),
		},
		{
			Name:        "add_note",
			Description: "Attach a note to a contact, lead or opportunity.",
			Tier:        TierWriteLow,
			Parameters: object(map[string]Property{
				"entity_type": enum("Kind of record", noteEntities),
				"entity_id":   id("Record id"),
				"content":     str("Note text"),
			}, "entity_type", "entity_id", "content"),
		},
		{
			Name:        "create_quote",
			Description: "Create a draft quote.",
			Tier:        TierWriteLow,
			Parameters: object(map[string]Property{
				"title":          str("Quote title"),
				"amount":         number("Quoted total"),
				"opportunity_id": id("Related opportunity"),
				"contact_id":     id("Recipient contact"),
			}, "title", "amount"),
		},

		// Write, high risk
		{
			Name:        "update_lead_status",
			Description: "Change a lead's status.",
			Tier:        TierWriteHigh,
			Parameters: object(map[string]Property{
				"lead_id":    id("Lead id"),
				"new_status": enum("Target status", models.LeadStatuses),
			}, "lead_id", "new_status"),
			Describe: func(a map[string]interface{}) string {
				return fmt.Sprintf("Change the status of lead #%s to '%s'", arg(a, "lead_id"), arg(a, "new_status"))
			},
		},
		{
			Name:        "move_opportunity_stage",
			Description: "Move an opportunity to another pipeline stage.",
			Tier:        TierWriteHigh,
			Parameters: object(map[string]Property{
				"opportunity_id": id("Opportunity id"),
				"new_stage":      enum("Target stage", models.OpportunityStages),
			}, "opportunity_id", "new_stage"),
			Describe: func(a map[string]interface{}) string {
				return fmt.Sprintf("Move opportunity #%s to stage '%s'", arg(a, "opportunity_id"), arg(a, "new_stage"))
			},
		},
		{
			Name:        "send_email",
			Description: "Send an email to a contact.",
			Tier:        TierWriteHigh,
			Parameters: object(map[string]Property{
				"contact_id": id("Recipient contact"),
				"subject":    str("Subject line"),
				"body":       str("Message body"),
			}, "contact_id", "subject"),
			Describe: func(a map[string]interface{}) string {
				return fmt.Sprintf("Send an email to contact #%s with subject %q", arg(a, "contact_id"), arg(a, "subject"))
			},
		},
		{
			Name:        "send_quote",
			Description: "Send a draft quote to the customer.",
			Tier:        TierWriteHigh,
			Parameters:  object(map[string]Property{"quote_id": id("Quote id")}, "quote_id"),
			Describe: func(a map[string]interface{}) string {
				return fmt.Sprintf("Send quote #%s to the customer", arg(a, "quote_id"))
			},
		},
		{
			Name:        "send_payment_link",
			Description: "Create and send a payment link, for a quote or an explicit amount.",
			Tier:        TierWriteHigh,
			Parameters: object(map[string]Property{
				"quote_id":   id("Quote to collect payment for"),
				"contact_id": id("Payer contact"),
				"amount":     number("Amount to collect; defaults to the quote total"),
				"currency":   str("ISO currency code (default USD)"),
			}),
			Describe: func(a map[string]interface{}) string {
				if _, ok := a["quote_id"]; ok {
					return fmt.Sprintf("Send a payment link for quote #%s", arg(a, "quote_id"))
				}
				cur := arg(a, "currency")
				if cur == "" {
					cur = "USD"
				}
				return fmt.Sprintf("Send a payment link for %s %s to contact #%s", arg(a, "amount"), cur, arg(a, "contact_id"))
			},
		},
		{
			Name:        "send_campaign",
			Description: "Send a draft campaign to every contact with an email address.",
			Tier:        TierWriteHigh,
			Parameters:  object(map[string]Property{"campaign_id": id("Campaign id")}, "campaign_id"),
			Describe: func(a map[string]interface{}) string {
				return fmt.Sprintf("Send campaign #%s to all eligible contacts", arg(a, "campaign_id"))
			},
		},
		{
			Name:        "schedule_follow_up_sequence",
			Description: "Schedule a multi-step follow-up email sequence for a contact.",
			Tier:        TierWriteHigh,
			Parameters: object(map[string]Property{
				"contact_id": id("Contact to follow up with"),
				"name":       str("Sequence name"),
				"steps": {
					Type:        "array",
					Description: "Ordered steps",
					Items: strictItem(map[string]Property{
						"delay_days": integer("Days after scheduling"),
						"subject":    str("Email subject"),
					}, "delay_days"),
				},
			}, "contact_id", "name", "steps"),
			Describe: func(a map[string]interface{}) string {
				n := 0
				if steps, ok := a["steps"].([]interface{}); ok {
					n = len(steps)
				}
				return fmt.Sprintf("Schedule follow-up sequence %q (%d steps) for contact #%s", arg(a, "name"), n, arg(a, "contact_id"))
			},
		},
	}
}

// arg renders one argument value for a confirmation sentence. JSON numbers
// arrive as float64; integral values print without a decimal point.
func arg(args map[string]interface{}, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
