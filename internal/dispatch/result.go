package dispatch

import (
	"errors"
	"fmt"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/crm"
)

// Error kinds attached to failed results.
const (
	KindUnknownTool = "unknown_tool"
	KindValidation  = "validation"
	KindNotFound    = "not_found"
	KindInternal    = "internal"
)

// Result is the outcome of one dispatch: a success payload, or a payload with
// an "error" message and a "kind".
type Result map[string]interface{}

// IsError reports whether r carries an error.
func (r Result) IsError() bool {
	_, ok := r["error"]
	return ok
}

// ErrorMessage returns the error message, or "" on success.
func (r Result) ErrorMessage() string {
	msg, _ := r["error"].(string)
	return msg
}

// Kind returns the error kind, or "" on success.
func (r Result) Kind() string {
	k, _ := r["kind"].(string)
	return k
}

func errorResult(kind, msg string) Result {
	return Result{"error": msg, "kind": kind}
}

// shapeError converts a handler error into a result payload.
func shapeError(name string, err error) Result {
	var nf *crm.NotFoundError
	if errors.As(err, &nf) {
		return errorResult(KindNotFound, nf.Error())
	}
	var ve *crm.ValidationError
	if errors.As(err, &ve) {
		return errorResult(KindValidation, ve.Error())
	}
	var ae *argError
	if errors.As(err, &ae) {
		return errorResult(KindValidation, fmt.Sprintf("Invalid arguments for %s: %s", name, ae.Error()))
	}
	return errorResult(KindInternal, fmt.Sprintf("%s failed: %v", name, err))
}
