// Package validate checks structured queries against the active
// schema. It is the safety boundary for every parser, including the
// model-backed one: only queries that pass here reach the aggregation
// engine.
package validate

import (
	"fmt"
	"strings"

	"github.com/SortieWorks/sortiechart-cli/internal/dataset"
	"github.com/SortieWorks/sortiechart-cli/internal/query"
	"github.com/SortieWorks/sortiechart-cli/internal/schema"
)

const maxSuggestions = 5

// Validate checks q against sch and returns the query with column
// references canonicalized. Validating a previously validated query
// returns it unchanged.
func Validate(q query.StructuredQuery, sch schema.Schema) (query.StructuredQuery, error) {
	if !query.KnownChart(q.Chart) {
		return q, &query.ValidateError{
			Token:       string(q.Chart),
			Msg:         fmt.Sprintf("unsupported chart type %q", q.Chart),
			Suggestions: []string{"pie", "bar", "line"},
		}
	}

	switch q.Verb {
	case query.VerbSum, query.VerbCount, query.VerbMean, query.VerbPercentage:
	default:
		return q, &query.ValidateError{
			Token:       string(q.Verb),
			Msg:         fmt.Sprintf("unsupported aggregation %q", q.Verb),
			Suggestions: []string{"sum", "count", "mean", "percentage"},
		}
	}

	if q.Metric != "" {
		col, ok := sch.Lookup(q.Metric)
		if !ok {
			return q, &query.ValidateError{
				Token:       q.Metric,
				Suggestions: columnSuggestions(sch, q.Metric),
			}
		}
		if (q.Verb == query.VerbSum || q.Verb == query.VerbMean) &&
			col.Kind != dataset.Numeric && col.Kind != dataset.Duration {
			return q, &query.ValidateError{
				Column: col.Name,
				Token:  q.Metric,
				Msg:    fmt.Sprintf("cannot %s column %s: not numeric or duration", q.Verb, col.Name),
			}
		}
		q.Metric = col.Name
	} else if q.Verb == query.VerbSum || q.Verb == query.VerbMean {
		return q, &query.ValidateError{
			Token: string(q.Verb),
			Msg:   fmt.Sprintf("%s requires a metric column", q.Verb),
		}
	}

	groupBy := make([]string, len(q.GroupBy))
	for i, g := range q.GroupBy {
		col, ok := sch.Lookup(g)
		if !ok {
			return q, &query.ValidateError{
				Token:       g,
				Suggestions: columnSuggestions(sch, g),
			}
		}
		if col.Kind == dataset.Numeric || col.Kind == dataset.Duration {
			return q, &query.ValidateError{
				Column: col.Name,
				Token:  g,
				Msg:    fmt.Sprintf("cannot group by %s column %s", col.Kind, col.Name),
			}
		}
		groupBy[i] = col.Name
	}
	q.GroupBy = groupBy

	filters := make([]query.Filter, len(q.Filters))
	for i, f := range q.Filters {
		checked, err := validateFilter(f, sch)
		if err != nil {
			return q, err
		}
		filters[i] = checked
	}
	q.Filters = filters

	return q, nil
}

func validateFilter(f query.Filter, sch schema.Schema) (query.Filter, error) {
	if f.Op != "" && f.Op != "eq" {
		return f, &query.ValidateError{
			Column: f.Column,
			Token:  f.Op,
			Msg:    fmt.Sprintf("unsupported filter operator %q", f.Op),
		}
	}
	f.Op = "eq"

	col, ok := sch.Lookup(f.Column)
	if !ok {
		return f, &query.ValidateError{
			Token:       f.Column,
			Suggestions: columnSuggestions(sch, f.Column),
		}
	}
	f.Column = col.Name

	if col.Kind != dataset.Categorical && col.Kind != dataset.Identifier {
		return f, &query.ValidateError{
			Column: col.Name,
			Token:  f.Value,
			Msg:    fmt.Sprintf("cannot filter %s column %s by value", col.Kind, col.Name),
		}
	}

	// Identifier columns carry no distinct-value vocabulary; any
	// value is accepted as-is.
	if col.Kind == dataset.Identifier {
		return f, nil
	}

	normalized := schema.Normalize(f.Value)
	if col.HasValue(normalized) {
		f.Value = normalized
		return f, nil
	}

	token := f.Display
	if token == "" {
		token = f.Value
	}
	return f, &query.ValidateError{
		Column:      col.Name,
		Token:       token,
		Suggestions: valueSuggestions(col, f.Display),
	}
}

// valueSuggestions lists the column's known values as candidates,
// rendered the way the offending phrase was written: when the phrase
// ends with the column stem ("ultra altitude"), candidates keep that
// shape ("high altitude", "low altitude").
func valueSuggestions(col schema.ColumnInfo, display string) []string {
	stem := schema.Stem(col.Name)
	withStem := strings.HasSuffix(schema.Normalize(display), " "+stem)
	out := make([]string, 0, len(col.Values))
	for _, v := range col.Values {
		if len(out) >= maxSuggestions {
			break
		}
		if withStem {
			out = append(out, v+" "+stem)
		} else {
			out = append(out, v)
		}
	}
	return out
}

func columnSuggestions(sch schema.Schema, token string) []string {
	norm := schema.Normalize(token)
	var out []string
	for _, c := range sch.Columns {
		name := schema.Normalize(c.Name)
		if strings.Contains(name, norm) || strings.Contains(norm, schema.Stem(c.Name)) {
			out = append(out, c.Name)
		}
		if len(out) >= maxSuggestions {
			break
		}
	}
	return out
}
