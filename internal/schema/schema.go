// Package schema derives a read-only catalog from a loaded dataset:
// column names, inferred kinds, and the distinct values each
// categorical column can take. The intent parser builds its vocabulary
// from this catalog and the validator checks queries against it.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SortieWorks/sortiechart-cli/internal/dataset"
)

// ColumnInfo describes one column of the active schema. Values holds
// the distinct values of a categorical column, case-normalized,
// deduplicated and sorted.
type ColumnInfo struct {
	Name   string
	Kind   dataset.Kind
	Values []string
}

// HasValue reports whether v (case-insensitive) is a known distinct
// value of this column.
func (c ColumnInfo) HasValue(v string) bool {
	v = Normalize(v)
	for _, known := range c.Values {
		if known == v {
			return true
		}
	}
	return false
}

// Schema is the derived catalog of a single dataset. Read-only after
// Build.
type Schema struct {
	Dataset string
	Columns []ColumnInfo

	byName  map[string]int
	byAlias map[string]int
}

// Build derives a Schema from a dataset. Pure function of the
// dataset's current contents.
func Build(d *dataset.Dataset) Schema {
	s := Schema{
		Dataset: d.Name(),
		byName:  make(map[string]int),
		byAlias: make(map[string]int),
	}
	for _, col := range d.Columns() {
		info := ColumnInfo{Name: col.Name, Kind: col.Kind}
		if col.Kind == dataset.Categorical {
			seen := make(map[string]bool)
			for i := 0; i < d.Len(); i++ {
				v := Normalize(d.Text(i, col.Name))
				if v != "" && !seen[v] {
					seen[v] = true
					info.Values = append(info.Values, v)
				}
			}
			sort.Strings(info.Values)
		}
		idx := len(s.Columns)
		s.Columns = append(s.Columns, info)
		s.byName[Normalize(col.Name)] = idx
		for _, alias := range aliasesFor(col.Name) {
			if _, taken := s.byAlias[alias]; !taken {
				s.byAlias[alias] = idx
			}
		}
	}
	return s
}

// Lookup resolves a column by name or alias, tolerating case and
// space/underscore differences.
func (s Schema) Lookup(name string) (ColumnInfo, bool) {
	key := Normalize(name)
	if idx, ok := s.byName[key]; ok {
		return s.Columns[idx], true
	}
	if idx, ok := s.byAlias[key]; ok {
		return s.Columns[idx], true
	}
	return ColumnInfo{}, false
}

// Categorical returns the categorical columns in declaration order.
func (s Schema) Categorical() []ColumnInfo {
	var out []ColumnInfo
	for _, c := range s.Columns {
		if c.Kind == dataset.Categorical {
			out = append(out, c)
		}
	}
	return out
}

// Stem returns the semantic stem of a column name for prompt matching
// and display: "altitude_band" → "altitude", "detection_method" →
// "detection", "airtime_seconds" → "airtime".
func Stem(column string) string {
	n := Normalize(column)
	for _, suf := range []string{" band", " class", " method", " type", " category", " seconds", " secs", " sec", " minutes", " hours", " duration"} {
		if strings.HasSuffix(n, suf) && len(n) > len(suf) {
			return strings.TrimSuffix(n, suf)
		}
	}
	return n
}

// Display renders a column name for humans: underscores become spaces.
func Display(column string) string {
	return Normalize(column)
}

// Normalize lowercases, trims, collapses runs of whitespace and maps
// underscores to single spaces. All schema and filter-value comparisons
// go through this.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

func aliasesFor(column string) []string {
	var out []string
	norm := Normalize(column)
	if stem := Stem(column); stem != norm {
		out = append(out, stem)
	}
	return out
}

// Describe renders a human-readable schema listing for the CLI.
func (s Schema) Describe() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Dataset: %s\n", s.Dataset))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(s.Columns)))
	for _, c := range s.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s", c.Name, c.Kind))
		if len(c.Values) > 0 {
			b.WriteString(" — values: ")
			b.WriteString(strings.Join(c.Values, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
