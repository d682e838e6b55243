package query

import (
	"fmt"
	"strings"
)

// Parse failure reason codes.
const (
	ReasonNoVerb      = "no aggregation verb"
	ReasonNoChart     = "no chart type"
	ReasonNoMetric    = "metric not resolved"
	ReasonBadResponse = "unusable model response"
)

// ParseError indicates the prompt could not be turned into a
// StructuredQuery. Recoverable by rephrasing; never fatal.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse request: %s", e.Reason)
}

// ValidateError indicates a StructuredQuery references an unknown
// column or out-of-vocabulary value. Token is the offending text;
// Suggestions lists the closest known values, if any.
type ValidateError struct {
	Column      string
	Token       string
	Msg         string
	Suggestions []string
}

func (e *ValidateError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = fmt.Sprintf("unresolved %q", e.Token)
		if e.Column != "" {
			msg += fmt.Sprintf(" for column %s", e.Column)
		}
	}
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, " or "))
	}
	return msg
}

// Execution error kinds.
const (
	ExecEmptyResult  = "empty_result"
	ExecDivideByZero = "divide_by_zero"
)

// ExecError indicates the validated query could not produce a result
// table. EmptyResult is surfaced rather than charted as empty.
type ExecError struct {
	Kind string
}

func (e *ExecError) Error() string {
	switch e.Kind {
	case ExecEmptyResult:
		return "no rows match the given filters"
	case ExecDivideByZero:
		return "filtered rows have zero total for the requested metric"
	}
	return "execution failed: " + e.Kind
}
