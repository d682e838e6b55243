// Package aggregate executes validated structured queries against a
// dataset: filter, group, compute, order.
package aggregate

import (
	"sort"

	"github.com/SortieWorks/sortiechart-cli/internal/dataset"
	"github.com/SortieWorks/sortiechart-cli/internal/query"
	"github.com/SortieWorks/sortiechart-cli/internal/schema"
)

// Execute runs q against d and returns the result table. Values keep
// full float precision; rounding happens at presentation.
func Execute(q query.StructuredQuery, d *dataset.Dataset) (query.ResultTable, error) {
	rows := filterRows(q.Filters, d)
	if len(rows) == 0 {
		return query.ResultTable{}, &query.ExecError{Kind: query.ExecEmptyResult}
	}

	metricNumeric := false
	if q.Metric != "" {
		if col, ok := d.Column(q.Metric); ok {
			metricNumeric = col.Kind == dataset.Numeric || col.Kind == dataset.Duration
		}
	}

	groups := groupRows(rows, q.GroupBy, d)

	table := query.ResultTable{GroupBy: q.GroupBy, Rows: make([]query.ResultRow, 0, len(groups))}
	var total float64
	for _, g := range groups {
		g.sum, g.present = sumMetric(g.indices, q.Metric, metricNumeric, d)
		total += g.sum
	}
	for _, g := range groups {
		var value float64
		switch q.Verb {
		case query.VerbSum:
			value = g.sum
		case query.VerbCount:
			value = float64(len(g.indices))
		case query.VerbMean:
			// A group with no metric values has no mean and is
			// dropped, not reported as zero.
			if g.present == 0 {
				continue
			}
			value = g.sum / float64(g.present)
		case query.VerbPercentage:
			if total == 0 {
				return query.ResultTable{}, &query.ExecError{Kind: query.ExecDivideByZero}
			}
			value = g.sum / total * 100
		}
		table.Rows = append(table.Rows, query.ResultRow{
			Key:   g.key,
			Label: query.JoinKey(g.key),
			Value: value,
		})
	}

	if len(table.Rows) == 0 {
		return query.ResultTable{}, &query.ExecError{Kind: query.ExecEmptyResult}
	}

	// Pie slices read largest-first; ties keep first-seen order.
	if q.Chart == query.ChartPie {
		sort.SliceStable(table.Rows, func(i, j int) bool {
			return table.Rows[i].Value > table.Rows[j].Value
		})
	}
	return table, nil
}

// filterRows returns the indices of rows satisfying ALL predicates.
// Equality is case-insensitive on the normalized categorical value.
func filterRows(filters []query.Filter, d *dataset.Dataset) []int {
	out := make([]int, 0, d.Len())
	for i := 0; i < d.Len(); i++ {
		pass := true
		for _, f := range filters {
			if schema.Normalize(d.Text(i, f.Column)) != schema.Normalize(f.Value) {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, i)
		}
	}
	return out
}

type group struct {
	key     []string
	indices []int
	sum     float64
	present int
}

// groupRows partitions rows by the tuple of group-by column values,
// in first-seen order. Key identity is case-insensitive; the label
// keeps the first-seen original casing. With no grouping every row
// lands in a single "total" group.
func groupRows(rows []int, groupBy []string, d *dataset.Dataset) []*group {
	if len(groupBy) == 0 {
		return []*group{{key: []string{"total"}, indices: rows}}
	}
	byKey := make(map[string]*group)
	var order []*group
	for _, i := range rows {
		key := make([]string, len(groupBy))
		normParts := make([]string, len(groupBy))
		for j, col := range groupBy {
			v := d.Text(i, col)
			if v == "" {
				v = "(missing)"
			}
			key[j] = v
			normParts[j] = schema.Normalize(v)
		}
		id := query.JoinKey(normParts)
		g, ok := byKey[id]
		if !ok {
			g = &group{key: key}
			byKey[id] = g
			order = append(order, g)
		}
		g.indices = append(g.indices, i)
	}
	return order
}

// sumMetric totals the metric over the given rows. For a non-numeric
// or absent metric each row weighs 1, so percentage and count verbs
// work on any column type.
func sumMetric(rows []int, metric string, metricNumeric bool, d *dataset.Dataset) (sum float64, present int) {
	if metric == "" || !metricNumeric {
		return float64(len(rows)), len(rows)
	}
	for _, i := range rows {
		if v, ok := d.Num(i, metric); ok {
			sum += v
			present++
		}
	}
	return sum, present
}
