package crm

import (
	"errors"
	"strings"
	"testing"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/db"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
)

func testServices(t *testing.T) *Services {
	t.Helper()
	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	return NewServices(gdb)
}

func mustContact(t *testing.T, s *Services, owner, first, email string) *models.Contact {
	t.Helper()
	c, err := s.Contacts.Create(owner, CreateContactOpts{FirstName: first, LastName: "Test", Email: email, Company: "Acme"})
	if err != nil {
		t.Fatalf("Create contact: %v", err)
	}
	return c
}

func assertNotFound(t *testing.T, err error, entity string) {
	t.Helper()
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
	if nf.Entity != entity {
		t.Errorf("NotFoundError.Entity = %q, want %q", nf.Entity, entity)
	}
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

// ------------------------------------------------------------------
// Errors
// ------------------------------------------------------------------

func TestNotFoundError_Message(t *testing.T) {
	err := &NotFoundError{Entity: "Contact", ID: 999}
	if got := err.Error(); got != "Contact with ID 999 not found." {
		t.Errorf("Error() = %q", got)
	}
}

func TestCheckEnum(t *testing.T) {
	if err := checkEnum("stage", "proposal", models.OpportunityStages); err != nil {
		t.Errorf("valid value rejected: %v", err)
	}
	err := checkEnum("stage", "won", models.OpportunityStages)
	assertValidation(t, err)
	if !strings.Contains(err.Error(), "prospecting") {
		t.Errorf("error %q should list allowed values", err)
	}
}

// ------------------------------------------------------------------
// Contacts
// ------------------------------------------------------------------

func TestContacts_SearchScopedToOwner(t *testing.T) {
	s := testServices(t)
	mustContact(t, s, "alice", "Jane", "jane@acme.test")
	mustContact(t, s, "alice", "John", "john@acme.test")
	mustContact(t, s, "bob", "Janet", "janet@other.test")

	got, err := s.Contacts.Search("alice", "jan", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].FirstName != "Jane" {
		t.Errorf("Search = %+v, want only Jane", got)
	}

	all, err := s.Contacts.Search("alice", "", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Search all = %d, want 2", len(all))
	}
}

func TestContacts_GetOtherOwnerIsNotFound(t *testing.T) {
	s := testServices(t)
	c := mustContact(t, s, "bob", "Bo", "")
	_, err := s.Contacts.Get("alice", c.ID)
	assertNotFound(t, err, "Contact")
}

func TestContacts_CreateRequiresFirstName(t *testing.T) {
	s := testServices(t)
	_, err := s.Contacts.Create("alice", CreateContactOpts{LastName: "Only"})
	assertValidation(t, err)
}

// ------------------------------------------------------------------
// Leads
// ------------------------------------------------------------------

func TestLeads_CreateAndSearchByStatus(t *testing.T) {
	s := testServices(t)
	l, err := s.Leads.Create("alice", CreateLeadOpts{FirstName: "Lee", Company: "Globex", Score: 40})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.Status != models.LeadStatusNew {
		t.Errorf("Status = %q, want new", l.Status)
	}

	got, err := s.Leads.Search("alice", LeadFilters{Status: "new"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Search = %d leads, want 1", len(got))
	}

	_, err = s.Leads.Search("alice", LeadFilters{Status: "hot"})
	assertValidation(t, err)
}

func TestLeads_CreateWithForeignContact(t *testing.T) {
	s := testServices(t)
	c := mustContact(t, s, "bob", "Bo", "")
	_, err := s.Leads.Create("alice", CreateLeadOpts{FirstName: "Lee", ContactID: &c.ID})
	assertNotFound(t, err, "Contact")
}

func TestLeads_UpdateStatusTransitions(t *testing.T) {
	s := testServices(t)
	l, _ := s.Leads.Create("alice", CreateLeadOpts{FirstName: "Lee"})

	tests := []struct {
		to      string
		wantErr bool
	}{
		{"qualified", false},
		{"new", true},
		{"converted", false},
		{"contacted", true},
		{"bogus", true},
	}
	for _, tt := range tests {
		_, err := s.Leads.UpdateStatus("alice", l.ID, tt.to)
		if (err != nil) != tt.wantErr {
			t.Errorf("UpdateStatus(%s) err = %v, wantErr %v", tt.to, err, tt.wantErr)
		}
	}

	got, _ := s.Leads.Get("alice", l.ID)
	if got.Status != "converted" {
		t.Errorf("final status = %q, want converted", got.Status)
	}
}

func TestLeads_UpdateStatusMissing(t *testing.T) {
	s := testServices(t)
	_, err := s.Leads.UpdateStatus("alice", 42, "qualified")
	assertNotFound(t, err, "Lead")
	if err.Error() != "Lead with ID 42 not found." {
		t.Errorf("Error() = %q", err.Error())
	}
}

// ------------------------------------------------------------------
// Opportunities
// ------------------------------------------------------------------

func TestOpportunities_MoveStage(t *testing.T) {
	s := testServices(t)
	o, err := s.Opportunities.Create("alice", CreateOpportunityOpts{Name: "Acme renewal", Amount: 12000})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.Stage != models.StageProspecting || o.Probability != 10 {
		t.Errorf("new opportunity stage=%q prob=%d", o.Stage, o.Probability)
	}

	moved, err := s.Opportunities.MoveStage("alice", o.ID, models.StageNegotiation)
	if err != nil {
		t.Fatalf("MoveStage: %v", err)
	}
	if moved.Probability != 75 {
		t.Errorf("Probability = %d, want 75", moved.Probability)
	}

	if _, err := s.Opportunities.MoveStage("alice", o.ID, models.StageClosedWon); err != nil {
		t.Fatalf("MoveStage closed_won: %v", err)
	}
	_, err = s.Opportunities.MoveStage("alice", o.ID, models.StageProposal)
	assertValidation(t, err)
}

func TestOpportunities_SearchMinAmount(t *testing.T) {
	s := testServices(t)
	s.Opportunities.Create("alice", CreateOpportunityOpts{Name: "small", Amount: 100})
	s.Opportunities.Create("alice", CreateOpportunityOpts{Name: "big", Amount: 50000})

	got, err := s.Opportunities.Search("alice", OpportunityFilters{MinAmount: 1000})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "big" {
		t.Errorf("Search = %+v, want only big", got)
	}
}

// ------------------------------------------------------------------
// Campaigns, quotes, payments
// ------------------------------------------------------------------

func TestCampaigns_SendOnce(t *testing.T) {
	s := testServices(t)
	mustContact(t, s, "alice", "A", "a@acme.test")
	mustContact(t, s, "alice", "B", "")
	mustContact(t, s, "bob", "C", "c@other.test")
	c, err := s.Campaigns.Create("alice", CreateCampaignOpts{Name: "Spring"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sent, err := s.Campaigns.Send("alice", c.ID)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent.RecipientCount != 1 {
		t.Errorf("RecipientCount = %d, want 1", sent.RecipientCount)
	}

	stats, err := s.Campaigns.Stats("alice", c.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Status != models.CampaignStatusSent || stats.SentAt == nil {
		t.Errorf("Stats = %+v", stats)
	}

	_, err = s.Campaigns.Send("alice", c.ID)
	assertValidation(t, err)
}

func TestQuotes_CreateAndSend(t *testing.T) {
	s := testServices(t)
	q, err := s.Quotes.Create("alice", CreateQuoteOpts{Title: "Annual plan", Amount: 900})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(q.Number, "Q-") || len(q.Number) != 8 {
		t.Errorf("Number = %q, want Q-XXXXXX", q.Number)
	}

	sent, err := s.Quotes.Send("alice", q.ID)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent.Status != models.QuoteStatusSent || sent.SentAt == nil {
		t.Errorf("sent quote = %+v", sent)
	}
	_, err = s.Quotes.Send("alice", q.ID)
	assertValidation(t, err)

	_, err = s.Quotes.Send("bob", q.ID)
	assertNotFound(t, err, "Quote")
}

func TestPayments_SendLinkFromQuote(t *testing.T) {
	s := testServices(t)
	c := mustContact(t, s, "alice", "Payer", "payer@acme.test")
	q, _ := s.Quotes.Create("alice", CreateQuoteOpts{Title: "Setup", Amount: 250, ContactID: &c.ID})

	p, err := s.Payments.SendLink("alice", PaymentLinkOpts{QuoteID: &q.ID})
	if err != nil {
		t.Fatalf("SendLink: %v", err)
	}
	if p.Amount != 250 || p.Currency != "USD" || p.Status != models.PaymentStatusLinkSent {
		t.Errorf("payment = %+v", p)
	}
	if p.ContactID == nil || *p.ContactID != c.ID {
		t.Errorf("ContactID = %v, want %d", p.ContactID, c.ID)
	}
	if !strings.HasPrefix(p.PaymentLink, PaymentLinkBase) {
		t.Errorf("PaymentLink = %q", p.PaymentLink)
	}

	list, _ := s.Payments.List("alice", models.PaymentStatusLinkSent, 0)
	if len(list) != 1 {
		t.Errorf("List = %d, want 1", len(list))
	}
}

func TestPayments_SendLinkRequiresAmount(t *testing.T) {
	s := testServices(t)
	_, err := s.Payments.SendLink("alice", PaymentLinkOpts{})
	assertValidation(t, err)
}

// ------------------------------------------------------------------
// Activities
// ------------------------------------------------------------------

func TestActivities_AddNote(t *testing.T) {
	s := testServices(t)
	c := mustContact(t, s, "alice", "Noted", "")

	if _, err := s.Activities.AddNote("alice", EntityContact, c.ID, "Called, left voicemail"); err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	notes, err := s.Activities.Notes("alice", EntityContact, c.ID)
	if err != nil {
		t.Fatalf("Notes: %v", err)
	}
	if len(notes) != 1 {
		t.Errorf("Notes = %d, want 1", len(notes))
	}

	_, err = s.Activities.AddNote("alice", EntityLead, 77, "x")
	assertNotFound(t, err, "Lead")
	_, err = s.Activities.AddNote("alice", "invoice", 1, "x")
	assertValidation(t, err)
}

func TestActivities_SendEmailNeedsAddress(t *testing.T) {
	s := testServices(t)
	c := mustContact(t, s, "alice", "NoMail", "")
	_, err := s.Activities.SendEmail("alice", c.ID, "Hello", "body")
	assertValidation(t, err)

	c2 := mustContact(t, s, "alice", "Mail", "mail@acme.test")
	e, err := s.Activities.SendEmail("alice", c2.ID, "Hello", "body")
	if err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if e.ToAddress != "mail@acme.test" {
		t.Errorf("ToAddress = %q", e.ToAddress)
	}
}

func TestActivities_ScheduleSequence(t *testing.T) {
	s := testServices(t)
	c := mustContact(t, s, "alice", "Seq", "seq@acme.test")
	seq, err := s.Activities.ScheduleSequence("alice", c.ID, "Onboarding", []SequenceStepOpts{
		{DelayDays: 0, Subject: "Welcome"},
		{DelayDays: 3, Subject: "Check in"},
	})
	if err != nil {
		t.Fatalf("ScheduleSequence: %v", err)
	}
	if len(seq.Steps) != 2 || seq.Steps[1].Position != 2 {
		t.Fatalf("Steps = %+v", seq.Steps)
	}
	if !seq.Steps[1].DueAt.After(seq.Steps[0].DueAt) {
		t.Error("second step should be due after the first")
	}

	_, err = s.Activities.ScheduleSequence("alice", c.ID, "Empty", nil)
	assertValidation(t, err)
}

// ------------------------------------------------------------------
// Reports
// ------------------------------------------------------------------

func TestReports_Pipeline(t *testing.T) {
	s := testServices(t)
	s.Opportunities.Create("alice", CreateOpportunityOpts{Name: "a", Amount: 1000})
	s.Opportunities.Create("alice", CreateOpportunityOpts{Name: "b", Amount: 2000, Stage: models.StageProposal})
	won, _ := s.Opportunities.Create("alice", CreateOpportunityOpts{Name: "c", Amount: 5000})
	s.Opportunities.MoveStage("alice", won.ID, models.StageClosedWon)
	s.Opportunities.Create("bob", CreateOpportunityOpts{Name: "other", Amount: 99999})

	r, err := s.Reports.Pipeline("alice")
	if err != nil {
		t.Fatalf("Pipeline: %v", err)
	}
	if len(r.Stages) != len(models.OpportunityStages) {
		t.Fatalf("Stages = %d, want %d", len(r.Stages), len(models.OpportunityStages))
	}
	if r.OpenCount != 2 || r.OpenAmount != 3000 {
		t.Errorf("open = %d / %.2f, want 2 / 3000", r.OpenCount, r.OpenAmount)
	}
	if r.WonAmount != 5000 {
		t.Errorf("WonAmount = %.2f, want 5000", r.WonAmount)
	}
	// 1000*10% + 2000*50%
	if r.WeightedAmount != 1100 {
		t.Errorf("WeightedAmount = %.2f, want 1100", r.WeightedAmount)
	}
}
