package audit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CapResult serializes result, replacing it with a truncated summary when
// the serialized form exceeds maxBytes.
func CapResult(result map[string]interface{}, maxBytes int) (string, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("audit: marshal result: %w", err)
	}
	if maxBytes <= 0 || len(b) <= maxBytes {
		return string(b), nil
	}
	capped, err := json.Marshal(map[string]interface{}{
		"truncated": true,
		"summary":   Summarize(result),
	})
	if err != nil {
		return "", fmt.Errorf("audit: marshal summary: %w", err)
	}
	return string(capped), nil
}

// Summarize derives a one-line summary of a result, preferring an error,
// then a message, then a count, then a report type.
func Summarize(result map[string]interface{}) string {
	if s := nonEmpty(result["error"]); s != "" {
		return s
	}
	if s := nonEmpty(result["message"]); s != "" {
		return s
	}
	if n, ok := result["count"]; ok && n != nil {
		return fmt.Sprintf("Returned %v results", n)
	}
	if s := nonEmpty(result["report_type"]); s != "" {
		return fmt.Sprintf("Generated %s report", s)
	}
	return "Completed"
}

func nonEmpty(v interface{}) string {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return strings.TrimSpace(s)
}
