package command

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCommandFailed is wrapped by Result.Err for results with ERROR severity.
var ErrCommandFailed = errors.New("command failed")

// Severity ranks the outcome of an allow, execute or undo call.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Violation is a typed message attached to a Result.
type Violation struct {
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
	ElementID string   `json:"element_id,omitempty"`
}

// Result is the outcome of Allow, Execute and Undo.
type Result struct {
	Severity   Severity    `json:"severity"`
	Violations []Violation `json:"violations,omitempty"`
}

// OK returns a successful result with no violations.
func OK() Result {
	return Result{Severity: SeverityOK}
}

// Warn returns a non-fatal result carrying a single warning.
func Warn(msg string) Result {
	return Result{
		Severity:   SeverityWarning,
		Violations: []Violation{{Message: msg, Severity: SeverityWarning}},
	}
}

// Failed returns an ERROR result with a single violation.
func Failed(msg string) Result {
	return Result{
		Severity:   SeverityError,
		Violations: []Violation{{Message: msg, Severity: SeverityError}},
	}
}

// Failedf is Failed with fmt formatting.
func Failedf(format string, args ...any) Result {
	return Failed(fmt.Sprintf(format, args...))
}

// FailedOn returns an ERROR result pointing at a diagram element.
func FailedOn(elementID, msg string) Result {
	return Result{
		Severity:   SeverityError,
		Violations: []Violation{{Message: msg, Severity: SeverityError, ElementID: elementID}},
	}
}

// FromError maps a nil error to OK and anything else to an ERROR result.
func FromError(err error) Result {
	if err == nil {
		return OK()
	}
	return Failed(err.Error())
}

// IsError reports whether the result must stop further processing.
func (r Result) IsError() bool {
	return r.Severity >= SeverityError
}

// Err returns nil unless the result is an ERROR.
func (r Result) Err() error {
	if !r.IsError() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrCommandFailed, r.Message())
}

// Message joins the violation messages.
func (r Result) Message() string {
	msgs := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		msgs = append(msgs, v.Message)
	}
	return strings.Join(msgs, "; ")
}

// Merge keeps the worst severity and every violation of the given results.
func Merge(results ...Result) Result {
	merged := OK()
	for _, r := range results {
		if r.Severity > merged.Severity {
			merged.Severity = r.Severity
		}
		merged.Violations = append(merged.Violations, r.Violations...)
	}
	return merged
}
