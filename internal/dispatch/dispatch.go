// Package dispatch routes assistant tool calls to CRM services and shapes
// every outcome into a Result.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/crm"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/tools"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// Handler executes one tool for a user.
type Handler func(ctx context.Context, userID string, args Args) (Result, error)

// Dispatcher executes catalog tools. It never returns an error to its
// caller; failures come back as error results.
type Dispatcher struct {
	catalog  *tools.Catalog
	handlers map[string]Handler
	schemas  map[string]*gojsonschema.Schema
}

// New builds a dispatcher for the CRM handler table. Construction fails
// unless every catalog tool has a handler and every handler names a
// catalog tool.
func New(catalog *tools.Catalog, svc *crm.Services) (*Dispatcher, error) {
	if catalog == nil {
		return nil, fmt.Errorf("dispatch: catalog is required")
	}
	if svc == nil {
		return nil, fmt.Errorf("dispatch: services are required")
	}
	return NewWithHandlers(catalog, crmHandlers(svc))
}

// NewWithHandlers builds a dispatcher over an explicit handler table.
func NewWithHandlers(catalog *tools.Catalog, handlers map[string]Handler) (*Dispatcher, error) {
	var missing, extra []string
	for _, name := range catalog.Names() {
		if _, ok := handlers[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range handlers {
		if !catalog.Has(name) {
			extra = append(extra, name)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(extra)
		var parts []string
		if len(missing) > 0 {
			parts = append(parts, "no handler for "+strings.Join(missing, ", "))
		}
		if len(extra) > 0 {
			parts = append(parts, "handler without catalog entry for "+strings.Join(extra, ", "))
		}
		return nil, fmt.Errorf("dispatch: inconsistent tool table: %s", strings.Join(parts, "; "))
	}

	schemas := make(map[string]*gojsonschema.Schema, len(handlers))
	for _, d := range catalog.List() {
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(d.ParametersJSON()))
		if err != nil {
			return nil, fmt.Errorf("dispatch: compile schema for %s: %w", d.Name, err)
		}
		schemas[d.Name] = s
	}

	return &Dispatcher{catalog: catalog, handlers: handlers, schemas: schemas}, nil
}

// Catalog returns the catalog the dispatcher serves.
func (d *Dispatcher) Catalog() *tools.Catalog {
	return d.catalog
}

// Execute runs tool name with args on behalf of userID.
func (d *Dispatcher) Execute(ctx context.Context, name string, args map[string]interface{}, userID string) (res Result) {
	h, ok := d.handlers[name]
	if !ok {
		return errorResult(KindUnknownTool, fmt.Sprintf("Unknown function: %s", name))
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	if res := d.Validate(name, args); res != nil {
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("tool", name).Interface("panic", r).Msg("dispatch_handler_panic")
			res = errorResult(KindInternal, fmt.Sprintf("%s failed: internal error", name))
		}
	}()

	out, err := h(ctx, userID, Args(args))
	if err != nil {
		res = shapeError(name, err)
		log.Debug().Str("tool", name).Str("kind", res.Kind()).Err(err).Msg("dispatch_error")
		return res
	}
	if out == nil {
		out = Result{"message": "Completed"}
	}
	return out
}

// Validate checks args against the schema of tool name without running it.
// It returns nil when the arguments are acceptable or the tool has no
// schema, and a validation error result otherwise.
func (d *Dispatcher) Validate(name string, args map[string]interface{}) Result {
	if args == nil {
		args = map[string]interface{}{}
	}
	if msg := d.schemaErrors(name, args); msg != "" {
		return errorResult(KindValidation, fmt.Sprintf("Invalid arguments for %s: %s", name, msg))
	}
	return nil
}

func (d *Dispatcher) schemaErrors(name string, args map[string]interface{}) string {
	schema, ok := d.schemas[name]
	if !ok {
		return ""
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return err.Error()
	}
	if result.Valid() {
		return ""
	}
	var msgs []string
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}
