package dispatch

import (
	"fmt"
	"math"
	"time"
)

// Args are the decoded JSON arguments of a tool call.
type Args map[string]interface{}

type argError struct {
	key string
	msg string
}

func (e *argError) Error() string {
	return fmt.Sprintf("%s %s", e.key, e.msg)
}

// String returns a string argument, or "" when absent.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Float returns a numeric argument, or 0 when absent.
func (a Args) Float(key string) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Int returns an integer argument, or 0 when absent.
func (a Args) Int(key string) int {
	return int(a.Float(key))
}

// ID returns a required positive integer id.
func (a Args) ID(key string) (uint, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return 0, &argError{key, "is required"}
	}
	f, ok := v.(float64)
	if !ok {
		if i, isInt := v.(int); isInt {
			f = float64(i)
		} else {
			return 0, &argError{key, "must be an integer"}
		}
	}
	if f < 1 || f != math.Trunc(f) {
		return 0, &argError{key, "must be a positive integer"}
	}
	return uint(f), nil
}

// OptID returns an optional id, nil when absent.
func (a Args) OptID(key string) (*uint, error) {
	if _, ok := a[key]; !ok {
		return nil, nil
	}
	id, err := a.ID(key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// OptDate parses an optional YYYY-MM-DD argument.
func (a Args) OptDate(key string) (*time.Time, error) {
	s := a.String(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, &argError{key, "must be a date in YYYY-MM-DD format"}
	}
	return &t, nil
}
