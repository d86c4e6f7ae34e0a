package upload

import (
	"errors"
	"strings"
)

// ErrUploadBlocked is the sentinel the form validator hook checks for,
// replacing the original Django validator's "dmf" error code. Wrap it with
// InspectionContext.Err() to carry the accumulated message.
var ErrUploadBlocked = errors.New("upload blocked by inspection pipeline")

// InspectionContext is the request-wide accumulator the Evaluator writes
// into, carried explicitly alongside the request instead of the source's
// thread-local (spec.md §9 — do not port the thread-local).
type InspectionContext struct {
	BlockUpload  bool
	UploadErrMsg string
}

// Append adds a message fragment and latches BlockUpload — once true it
// never reverts for the lifetime of the request (spec.md §5 ordering
// guarantees: "block_upload" is sticky).
func (c *InspectionContext) Append(msg string) {
	c.BlockUpload = true
	c.UploadErrMsg = c.UploadErrMsg + msg
}

// Err returns ErrUploadBlocked wrapping the accumulated message, or nil if
// no file in this request was blocked.
func (c *InspectionContext) Err() error {
	if !c.BlockUpload {
		return nil
	}
	msg := normalizeWhitespace(c.UploadErrMsg)
	return errors.Join(ErrUploadBlocked, errors.New(msg))
}

// normalizeWhitespace collapses the tabs/newlines the original's multi-line
// f-strings left in reason messages (spec.md §9 open question) into single
// spaces.
func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
