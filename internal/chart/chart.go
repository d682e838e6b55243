// Package chart maps aggregation results into renderable chart
// descriptions for the external shell.
package chart

import (
	"math"
	"strings"

	"github.com/SortieWorks/sortiechart-cli/internal/query"
	"github.com/SortieWorks/sortiechart-cli/internal/schema"
)

// Build produces a ChartSpec from a result table and its query. Pure
// mapping: identical inputs always produce an identical spec. Values
// are rounded to two decimals here; the table keeps full precision.
func Build(table query.ResultTable, q query.StructuredQuery) query.ChartSpec {
	spec := query.ChartSpec{
		Kind:   q.Chart,
		Title:  Title(q),
		Labels: make([]string, 0, len(table.Rows)),
		Values: make([]float64, 0, len(table.Rows)),
	}
	for _, row := range table.Rows {
		spec.Labels = append(spec.Labels, row.Label)
		spec.Values = append(spec.Values, roundTo2(row.Value))
	}
	return spec
}

// Title assembles a deterministic human-readable summary from the
// metric, aggregation verb, grouping and active filters, e.g.
// "Percentage of airtime by detection method — high altitude, slow
// speed, orb".
func Title(q query.StructuredQuery) string {
	var b strings.Builder
	b.WriteString(verbTitle(q.Verb))
	b.WriteString(" of ")
	b.WriteString(metricTitle(q.Metric))
	if len(q.GroupBy) > 0 {
		parts := make([]string, len(q.GroupBy))
		for i, g := range q.GroupBy {
			parts[i] = schema.Display(g)
		}
		b.WriteString(" by ")
		b.WriteString(strings.Join(parts, " and "))
	}
	if len(q.Filters) > 0 {
		parts := make([]string, len(q.Filters))
		for i, f := range q.Filters {
			if f.Display != "" {
				parts[i] = f.Display
			} else {
				parts[i] = f.Value
			}
		}
		b.WriteString(" — ")
		b.WriteString(strings.Join(parts, ", "))
	}
	return b.String()
}

func verbTitle(v query.Verb) string {
	switch v {
	case query.VerbPercentage:
		return "Percentage"
	case query.VerbSum:
		return "Total"
	case query.VerbMean:
		return "Average"
	case query.VerbCount:
		return "Count"
	}
	return "Value"
}

func metricTitle(metric string) string {
	if metric == "" {
		return "records"
	}
	return schema.Stem(metric)
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
