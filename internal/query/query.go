package query

import "strings"

// Verb is an aggregation verb applied to the metric column.
type Verb string

const (
	VerbSum        Verb = "sum"
	VerbCount      Verb = "count"
	VerbMean       Verb = "mean"
	VerbPercentage Verb = "percentage"
)

// ChartKind identifies the requested chart rendering.
type ChartKind string

const (
	ChartPie  ChartKind = "pie"
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
)

// KnownChart reports whether k is a supported chart kind.
func KnownChart(k ChartKind) bool {
	switch k {
	case ChartPie, ChartBar, ChartLine:
		return true
	}
	return false
}

// Filter is a single equality predicate on a categorical column.
// Display carries the prompt phrase the predicate was matched from
// (e.g. "high altitude") and is used for chart titles only.
type Filter struct {
	Column  string `json:"column"`
	Op      string `json:"op"` // only "eq" is defined
	Value   string `json:"value"`
	Display string `json:"display,omitempty"`
}

// StructuredQuery is the parsed, validated representation of a
// natural-language chart request. Metric may be empty for verb=count,
// in which case rows are counted.
type StructuredQuery struct {
	Metric  string    `json:"metric"`
	Verb    Verb      `json:"verb"`
	GroupBy []string  `json:"group_by"`
	Filters []Filter  `json:"filters"`
	Chart   ChartKind `json:"chart"`
}

// ResultRow is one group of the aggregation output. Key holds the
// group-by column values in group-by order; Label is the key joined
// with " / ". Value retains full float precision.
type ResultRow struct {
	Key   []string `json:"key"`
	Label string   `json:"label"`
	Value float64  `json:"value"`
}

// ResultTable is the ordered aggregation output.
type ResultTable struct {
	GroupBy []string    `json:"group_by"`
	Rows    []ResultRow `json:"rows"`
}

// ChartSpec is the render-ready chart description handed to the shell.
// Values are rounded to two decimals; the underlying ResultTable keeps
// full precision.
type ChartSpec struct {
	Kind   ChartKind `json:"kind"`
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// JoinKey renders a group key the way ChartSpec labels do.
func JoinKey(key []string) string {
	return strings.Join(key, " / ")
}
