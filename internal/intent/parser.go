// Package intent maps natural-language chart requests to structured
// queries. The default parser is deterministic: it matches the prompt
// against a schema-driven vocabulary of aggregation verbs, chart
// keywords, categorical values and column aliases, longest match
// first. An optional model-backed parser sits behind the same Parser
// contract; either way the result must still pass the validator.
package intent

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/SortieWorks/sortiechart-cli/internal/query"
	"github.com/SortieWorks/sortiechart-cli/internal/schema"
)

// Parser turns a prompt into a StructuredQuery against a schema.
type Parser interface {
	Parse(ctx context.Context, prompt string, sch schema.Schema) (query.StructuredQuery, error)
}

// VocabParser is the deterministic vocabulary-and-matching parser.
type VocabParser struct{}

// NewVocabParser returns the default parser.
func NewVocabParser() *VocabParser { return &VocabParser{} }

// Parse implements the Parser contract. It never consults the dataset
// rows, only the schema.
func (p *VocabParser) Parse(_ context.Context, prompt string, sch schema.Schema) (query.StructuredQuery, error) {
	text := newPromptText(prompt)

	verb, verbOff, verbLen := findVerb(text)
	kind, kindOff, kindLen := findChart(text)
	if verbOff < 0 {
		return query.StructuredQuery{}, &query.ParseError{Reason: query.ReasonNoVerb}
	}
	if kindOff < 0 {
		return query.StructuredQuery{}, &query.ParseError{Reason: query.ReasonNoChart}
	}
	text.consume(kindOff, kindLen)
	text.consume(verbOff, verbLen)

	metric := resolveMetric(text, verbOff+verbLen, sch)
	if metric == "" && verb != query.VerbCount {
		return query.StructuredQuery{}, &query.ParseError{Reason: query.ReasonNoMetric}
	}

	q := query.StructuredQuery{Metric: metric, Verb: verb, Chart: kind}

	// "detected by <X>" is a grouping hint on the detection-method
	// column unless the prompt states another explicit grouping, in
	// which case X becomes a plain filter on that column.
	hint := resolveDetectedBy(text, sch)

	explicit := resolveExplicitGroupBy(text, sch)
	implicitGroup := false
	switch {
	case hint == nil:
		if explicit != "" {
			q.GroupBy = []string{explicit}
		}
	case !hint.resolved:
		if explicit != "" {
			q.GroupBy = []string{explicit}
		}
		q.Filters = append(q.Filters, query.Filter{
			Column: hint.column, Op: "eq", Value: hint.value, Display: hint.value,
		})
	case explicit != "" && explicit != hint.column:
		q.GroupBy = []string{explicit}
		q.Filters = append(q.Filters, query.Filter{
			Column: hint.column, Op: "eq", Value: hint.value, Display: hint.value,
		})
	default:
		q.GroupBy = []string{hint.column}
		implicitGroup = true
	}
	q.Filters = append(q.Filters, matchFilters(text, sch, q.GroupBy, implicitGroup, filteredColumns(q.Filters))...)
	q.Filters = append(q.Filters, nearMissFilters(text, sch, filteredColumns(q.Filters))...)

	return q, nil
}

func findVerb(text *promptText) (query.Verb, int, int) {
	verb, off, n := query.Verb(""), -1, 0
	for _, vp := range verbPhrases {
		i := text.find(vp.phrase)
		if i < 0 {
			continue
		}
		if off < 0 || i < off || (i == off && len(vp.phrase) > n) {
			verb, off, n = vp.verb, i, len(vp.phrase)
		}
	}
	return verb, off, n
}

func findChart(text *promptText) (query.ChartKind, int, int) {
	kind, off, n := query.ChartKind(""), -1, 0
	for _, cp := range chartPhrases {
		i := text.find(cp.phrase)
		if i < 0 {
			continue
		}
		if off < 0 || i < off || (i == off && len(cp.phrase) > n) {
			kind, off, n = cp.kind, i, len(cp.phrase)
		}
	}
	return kind, off, n
}

// resolveMetric resolves the noun phrase immediately following the
// aggregation verb against the schema, longest n-gram first. Returns
// the resolved column name, consuming the matched tokens.
func resolveMetric(text *promptText, after int, sch schema.Schema) string {
	toks := text.tokensAfter(after)
	for len(toks) > 0 && (toks[0].word == "of" || toks[0].word == "the" || toks[0].word == "a" || toks[0].word == "an") {
		toks = toks[1:]
	}
	if len(toks) == 0 {
		return ""
	}
	limit := 3
	if len(toks) < limit {
		limit = len(toks)
	}
	for n := limit; n >= 1; n-- {
		words := make([]string, n)
		for i := 0; i < n; i++ {
			words[i] = toks[i].word
		}
		if col, ok := sch.Lookup(strings.Join(words, " ")); ok {
			last := toks[n-1]
			text.consume(toks[0].off, last.off+len(last.word)-toks[0].off)
			return col.Name
		}
	}
	return ""
}

type detectedByHint struct {
	column   string
	value    string
	resolved bool
}

// resolveDetectedBy handles the "detected by <X>" phrase. When X is a
// value of the detection-method column the hint is resolved; when X
// cannot be resolved the hint still carries it so the validator can
// name the token and suggest known methods.
func resolveDetectedBy(text *promptText, sch schema.Schema) *detectedByHint {
	off := text.find("detected by")
	if off < 0 {
		return nil
	}
	toks := text.tokensAfter(off + len("detected by"))
	if len(toks) == 0 {
		text.consume(off, len("detected by"))
		return nil
	}
	limit := 2
	if len(toks) < limit {
		limit = len(toks)
	}
	for n := limit; n >= 1; n-- {
		words := make([]string, n)
		for i := 0; i < n; i++ {
			words[i] = toks[i].word
		}
		phrase := strings.Join(words, " ")
		col, ok := columnForValue(sch, phrase)
		if !ok {
			continue
		}
		last := toks[n-1]
		text.consume(off, last.off+len(last.word)-off)
		return &detectedByHint{column: col, value: phrase, resolved: true}
	}
	// X is not a known value; attribute it to the detection-like
	// column for validation, if one exists.
	if col, ok := detectionColumn(sch); ok {
		word := toks[0]
		text.consume(off, word.off+len(word.word)-off)
		return &detectedByHint{column: col, value: word.word}
	}
	text.consume(off, len("detected by"))
	return nil
}

// columnForValue finds the categorical column owning a value phrase,
// preferring a detection-like column when several match.
func columnForValue(sch schema.Schema, value string) (string, bool) {
	var owners []string
	for _, col := range sch.Categorical() {
		if col.HasValue(value) {
			owners = append(owners, col.Name)
		}
	}
	if len(owners) == 0 {
		return "", false
	}
	for _, name := range owners {
		if isDetectionName(name) {
			return name, true
		}
	}
	return owners[0], true
}

func detectionColumn(sch schema.Schema) (string, bool) {
	for _, col := range sch.Categorical() {
		if isDetectionName(col.Name) {
			return col.Name, true
		}
	}
	return "", false
}

func isDetectionName(name string) bool {
	n := schema.Normalize(name)
	return strings.Contains(n, "detection") || strings.Contains(n, "method") ||
		strings.Contains(n, "sensor") || strings.Contains(n, "uas")
}

// resolveExplicitGroupBy finds "by <column>" / "break down by
// <column>" phrases naming a schema column. "detected by" spans are
// consumed before this runs.
func resolveExplicitGroupBy(text *promptText, sch schema.Schema) string {
	for _, t := range text.tokens() {
		if t.word != "by" && t.word != "per" {
			continue
		}
		toks := text.tokensAfter(t.off + len(t.word))
		limit := 3
		if len(toks) < limit {
			limit = len(toks)
		}
		for n := limit; n >= 1; n-- {
			words := make([]string, n)
			for i := 0; i < n; i++ {
				words[i] = toks[i].word
			}
			if col, ok := sch.Lookup(strings.Join(words, " ")); ok {
				last := toks[n-1]
				text.consume(t.off, last.off+len(last.word)-t.off)
				return col.Name
			}
		}
	}
	return ""
}

// matchFilters matches the schema vocabulary against the remaining
// prompt, longest phrase first, one filter per column, in prompt
// order. A column already used for implicit grouping never also
// becomes a filter.
func matchFilters(text *promptText, sch schema.Schema, groupBy []string, implicitGroup bool, taken map[string]bool) []query.Filter {
	grouped := make(map[string]bool)
	if implicitGroup {
		for _, g := range groupBy {
			grouped[g] = true
		}
	}
	type match struct {
		filter query.Filter
		off    int
	}
	var matches []match
	for _, e := range buildVocabulary(sch) {
		if taken[e.column] || grouped[e.column] {
			continue
		}
		i := text.find(e.phrase)
		if i < 0 {
			continue
		}
		text.consume(i, len(e.phrase))
		taken[e.column] = true
		matches = append(matches, match{
			filter: query.Filter{Column: e.column, Op: "eq", Value: e.value, Display: e.phrase},
			off:    i,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].off < matches[j].off })
	out := make([]query.Filter, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.filter)
	}
	return out
}

// nearMissFilters catches phrases shaped like a value match that name
// an unknown value, e.g. "ultra altitude" when the altitude column
// only knows high and low. The unresolved predicate is emitted so the
// validator can reject it with suggestions instead of silently
// dropping it.
func nearMissFilters(text *promptText, sch schema.Schema, taken map[string]bool) []query.Filter {
	stems := make(map[string]string)
	for _, col := range sch.Categorical() {
		stems[schema.Stem(col.Name)] = col.Name
	}
	var out []query.Filter
	toks := text.tokens()
	for i := 1; i < len(toks); i++ {
		col, ok := stems[toks[i].word]
		if !ok || taken[col] {
			continue
		}
		prev := toks[i-1]
		if stopwords[prev.word] || isNumber(prev.word) {
			continue
		}
		// Words must have been adjacent in the prompt; a short blank
		// run covers punctuation ("ultra, altitude"), while a longer
		// one means a consumed span sat between them.
		gap := toks[i].off - (prev.off + len(prev.word))
		if gap < 1 || gap > 3 {
			continue
		}
		text.consume(prev.off, toks[i].off+len(toks[i].word)-prev.off)
		taken[col] = true
		out = append(out, query.Filter{
			Column:  col,
			Op:      "eq",
			Value:   prev.word,
			Display: prev.word + " " + toks[i].word,
		})
	}
	return out
}

func filteredColumns(filters []query.Filter) map[string]bool {
	out := make(map[string]bool, len(filters))
	for _, f := range filters {
		out[f.Column] = true
	}
	return out
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
