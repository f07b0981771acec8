package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidCatalog is returned when a catalog fails validation.
var ErrInvalidCatalog = errors.New("tools: invalid catalog")

// Catalog is an immutable, validated tool table.
type Catalog struct {
	order  []string
	byName map[string]Descriptor
}

// New builds a catalog from descriptors, preserving their order. It fails if
// any entry is malformed or unclassified, or if a name repeats.
func New(descs ...Descriptor) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Descriptor, len(descs))}
	var errs []string
	for _, d := range descs {
		if _, dup := c.byName[d.Name]; dup {
			errs = append(errs, fmt.Sprintf("duplicate tool %q", d.Name))
			continue
		}
		if err := validateDescriptor(d); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		c.order = append(c.order, d.Name)
		c.byName[d.Name] = d.Clone()
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(errs, "; "))
	}
	return c, nil
}

func validateDescriptor(d Descriptor) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("tool with empty name")
	}
	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("tool %q has no description", d.Name)
	}
	if !d.Tier.Valid() {
		return fmt.Errorf("tool %q has no risk classification", d.Name)
	}
	p := d.Parameters
	if p.Type != "object" || p.Properties == nil {
		return fmt.Errorf("tool %q parameters must be an object schema", d.Name)
	}
	if p.AdditionalProperties {
		return fmt.Errorf("tool %q parameters must not allow additional properties", d.Name)
	}
	for _, r := range p.Required {
		if _, ok := p.Properties[r]; !ok {
			return fmt.Errorf("tool %q requires undeclared parameter %q", d.Name, r)
		}
	}
	for name, prop := range p.Properties {
		if err := validateProperty(prop); err != nil {
			return fmt.Errorf("tool %q parameter %q %s", d.Name, name, err)
		}
	}
	return nil
}

func validateProperty(p Property) error {
	if p.Type == "" {
		return errors.New("has no type")
	}
	if p.Items != nil {
		if err := validateProperty(*p.Items); err != nil {
			return fmt.Errorf("items %s", err)
		}
	}
	if p.Type != "object" {
		return nil
	}
	if p.AdditionalProperties == nil || *p.AdditionalProperties {
		return errors.New("must not allow additional properties")
	}
	for _, r := range p.Required {
		if _, ok := p.Properties[r]; !ok {
			return fmt.Errorf("requires undeclared field %q", r)
		}
	}
	for name, sub := range p.Properties {
		if err := validateProperty(sub); err != nil {
			return fmt.Errorf("field %q %s", name, err)
		}
	}
	return nil
}

// List returns a deep copy of every descriptor in catalog order.
func (c *Catalog) List() []Descriptor {
	out := make([]Descriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name].Clone())
	}
	return out
}

// Names returns the tool names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := append([]string(nil), c.order...)
	sort.Strings(names)
	return names
}

// Lookup returns the descriptor for name.
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	d, ok := c.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return d.Clone(), true
}

// Has reports whether name is in the catalog.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Classify returns the tier of name. Unknown names classify as read; the
// dispatcher rejects them outright.
func (c *Catalog) Classify(name string) Tier {
	if d, ok := c.byName[name]; ok {
		return d.Tier
	}
	return TierRead
}

// RequiresConfirmation reports whether name must be explicitly approved by
// the user before it runs.
func (c *Catalog) RequiresConfirmation(name string) bool {
	return c.Classify(name) == TierWriteHigh
}

// DescribeForConfirmation renders a sentence a user can approve or deny
// without reading the raw call.
func (c *Catalog) DescribeForConfirmation(name string, args map[string]interface{}) string {
	if d, ok := c.byName[name]; ok && d.Describe != nil {
		return d.Describe(args)
	}
	return fmt.Sprintf("%s with arguments %s", name, compactJSON(args))
}

func compactJSON(args map[string]interface{}) string {
	if args == nil {
		args = map[string]interface{}{}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(b)
}
