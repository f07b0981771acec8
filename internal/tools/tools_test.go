package tools

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	c := Default()
	if got := len(c.List()); got != 22 {
		t.Errorf("Default catalog has %d tools, want 22", got)
	}
}

func TestDefault_Tiers(t *testing.T) {
	c := Default()
	tests := []struct {
		name string
		tier Tier
	}{
		{"search_contacts", TierRead},
		{"get_pipeline_report", TierRead},
		{"list_payments", TierRead},
		{"create_contact", TierWriteLow},
		{"add_note", TierWriteLow},
		{"create_quote", TierWriteLow},
		{"update_lead_status", TierWriteHigh},
		{"move_opportunity_stage", TierWriteHigh},
		{"send_email", TierWriteHigh},
		{"send_quote", TierWriteHigh},
		{"send_payment_link", TierWriteHigh},
		{"send_campaign", TierWriteHigh},
		{"schedule_follow_up_sequence", TierWriteHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.name); got != tt.tier {
				t.Errorf("Classify(%s) = %s, want %s", tt.name, got, tt.tier)
			}
		})
	}
}

func TestRequiresConfirmation_MatchesTier(t *testing.T) {
	c := Default()
	for _, d := range c.List() {
		want := d.Tier == TierWriteHigh
		if got := c.RequiresConfirmation(d.Name); got != want {
			t.Errorf("RequiresConfirmation(%s) = %v, want %v", d.Name, got, want)
		}
		if !c.Classify(d.Name).Valid() {
			t.Errorf("Classify(%s) is not a valid tier", d.Name)
		}
	}
}

func TestClassify_UnknownDefaultsToRead(t *testing.T) {
	c := Default()
	if got := c.Classify("drop_all_tables"); got != TierRead {
		t.Errorf("Classify(unknown) = %s, want read", got)
	}
	if c.RequiresConfirmation("drop_all_tables") {
		t.Error("unknown tool should not require confirmation")
	}
}

func TestDefault_SchemasAreStrict(t *testing.T) {
	for _, d := range Default().List() {
		var raw map[string]interface{}
		if err := json.Unmarshal(d.ParametersJSON(), &raw); err != nil {
			t.Fatalf("%s: parameters do not marshal: %v", d.Name, err)
		}
		if raw["type"] != "object" {
			t.Errorf("%s: type = %v, want object", d.Name, raw["type"])
		}
		if raw["additionalProperties"] != false {
			t.Errorf("%s: additionalProperties = %v, want false", d.Name, raw["additionalProperties"])
		}
	}
}

func TestDefault_NestedObjectsAreStrict(t *testing.T) {
	d, ok := Default().Lookup("schedule_follow_up_sequence")
	if !ok {
		t.Fatal("schedule_follow_up_sequence missing")
	}
	var raw struct {
		Properties map[string]struct {
			Items map[string]interface{} `json:"items"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(d.ParametersJSON(), &raw); err != nil {
		t.Fatal(err)
	}
	items := raw.Properties["steps"].Items
	if items["type"] != "object" {
		t.Fatalf("steps.items.type = %v, want object", items["type"])
	}
	if items["additionalProperties"] != false {
		t.Errorf("steps.items.additionalProperties = %v, want false", items["additionalProperties"])
	}
	var top map[string]interface{}
	_ = json.Unmarshal(d.ParametersJSON(), &top)
	props := top["properties"].(map[string]interface{})
	if _, ok := props["name"].(map[string]interface{})["additionalProperties"]; ok {
		t.Error("scalar property should not carry additionalProperties")
	}
}

func TestDefault_HighRiskToolsHaveDescribers(t *testing.T) {
	for _, d := range Default().List() {
		if d.Tier == TierWriteHigh && d.Describe == nil {
			t.Errorf("%s is write_high but has no confirmation describer", d.Name)
		}
	}
}

// ------------------------------------------------------------------
// DescribeForConfirmation
// ------------------------------------------------------------------

func TestDescribeForConfirmation(t *testing.T) {
	c := Default()
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{
			"update_lead_status",
			map[string]interface{}{"lead_id": float64(42), "new_status": "qualified"},
			"Change the status of lead #42 to 'qualified'",
		},
		{
			"move_opportunity_stage",
			map[string]interface{}{"opportunity_id": float64(7), "new_stage": "negotiation"},
			"Move opportunity #7 to stage 'negotiation'",
		},
		{
			"send_payment_link",
			map[string]interface{}{"amount": 99.5, "contact_id": float64(3)},
			"Send a payment link for 99.5 USD to contact #3",
		},
		{
			"schedule_follow_up_sequence",
			map[string]interface{}{"contact_id": float64(3), "name": "Onboarding", "steps": []interface{}{map[string]interface{}{}, map[string]interface{}{}}},
			`Schedule follow-up sequence "Onboarding" (2 steps) for contact #3`,
		},
		{
			"mystery_tool",
			map[string]interface{}{"x": float64(1)},
			`mystery_tool with arguments {"x":1}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.DescribeForConfirmation(tt.name, tt.args); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// ------------------------------------------------------------------
// Validation
// ------------------------------------------------------------------

func TestNew_RejectsBadDescriptors(t *testing.T) {
	good := Descriptor{
		Name:        "ok",
		Description: "fine",
		Tier:        TierRead,
		Parameters:  object(map[string]Property{"a": str("a")}, "a"),
	}
	tests := []struct {
		name   string
		mutate func(d *Descriptor)
		want   string
	}{
		{"empty name", func(d *Descriptor) { d.Name = "" }, "empty name"},
		{"no tier", func(d *Descriptor) { d.Tier = "" }, "no risk classification"},
		{"bad tier", func(d *Descriptor) { d.Tier = "write_medium" }, "no risk classification"},
		{"not object", func(d *Descriptor) { d.Parameters.Type = "array" }, "object schema"},
		{"open schema", func(d *Descriptor) { d.Parameters.AdditionalProperties = true }, "additional properties"},
		{"required not declared", func(d *Descriptor) { d.Parameters.Required = []string{"b"} }, `undeclared parameter "b"`},
		{"untyped property", func(d *Descriptor) { d.Parameters.Properties = map[string]Property{"a": {}} }, "has no type"},
		{"open item object", func(d *Descriptor) {
			d.Parameters.Properties = map[string]Property{"a": {Type: "array", Items: &Property{Type: "object", Properties: map[string]Property{"x": str("x")}}}}
		}, "items must not allow additional properties"},
		{"item requires undeclared", func(d *Descriptor) {
			d.Parameters.Properties = map[string]Property{"a": {Type: "array", Items: strictItem(map[string]Property{"x": str("x")}, "y")}}
		}, `undeclared field "y"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := good.Clone()
			tt.mutate(&d)
			_, err := New(d)
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Fatalf("err = %v, want ErrInvalidCatalog", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %q, want to contain %q", err, tt.want)
			}
		})
	}
}

func TestNew_RejectsDuplicates(t *testing.T) {
	d := Descriptor{Name: "a", Description: "a", Tier: TierRead, Parameters: object(map[string]Property{})}
	_, err := New(d, d)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("err = %v, want duplicate error", err)
	}
}

func TestList_ReturnsDeepCopy(t *testing.T) {
	c := Default()
	first := c.List()
	first[0].Parameters.Properties["injected"] = str("x")
	first[0].Name = "renamed"

	second := c.List()
	if second[0].Name != "search_contacts" {
		t.Errorf("Name = %q, catalog was mutated", second[0].Name)
	}
	if _, ok := second[0].Parameters.Properties["injected"]; ok {
		t.Error("List() returned shared property map")
	}
}

func TestNames_Sorted(t *testing.T) {
	names := Default().Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("Names not sorted at %d: %s > %s", i, names[i-1], names[i])
		}
	}
}
