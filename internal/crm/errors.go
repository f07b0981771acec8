package crm

import (
	"fmt"
	"strings"
)

// NotFoundError reports that an entity does not exist for the calling owner.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found.", e.Entity, e.ID)
}

// ValidationError reports bad input to a CRM operation, including values
// outside an enumerated set.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func notFound(entity string, id uint) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// checkEnum returns a ValidationError when value is not one of allowed.
func checkEnum(field, value string, allowed []string) error {
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}
	return invalid(field, "invalid value %q; must be one of: %s", value, strings.Join(allowed, ", "))
}
