package intent

import (
	"sort"
	"strings"
	"unicode"

	"github.com/SortieWorks/sortiechart-cli/internal/query"
	"github.com/SortieWorks/sortiechart-cli/internal/schema"
)

// Aggregation-verb keywords, longest phrase first within each verb so
// "number of" wins over "number".
var verbPhrases = []struct {
	phrase string
	verb   query.Verb
}{
	{"percentage of", query.VerbPercentage},
	{"percentage", query.VerbPercentage},
	{"percent of", query.VerbPercentage},
	{"percent", query.VerbPercentage},
	{"share of", query.VerbPercentage},
	{"average", query.VerbMean},
	{"mean", query.VerbMean},
	{"total", query.VerbSum},
	{"sum of", query.VerbSum},
	{"sum", query.VerbSum},
	{"number of", query.VerbCount},
	{"count of", query.VerbCount},
	{"count", query.VerbCount},
}

// Chart-type keywords, longest first.
var chartPhrases = []struct {
	phrase string
	kind   query.ChartKind
}{
	{"pie chart", query.ChartPie},
	{"pie graph", query.ChartPie},
	{"bar chart", query.ChartBar},
	{"bar graph", query.ChartBar},
	{"line chart", query.ChartLine},
	{"line graph", query.ChartLine},
	{"pie", query.ChartPie},
	{"bar", query.ChartBar},
	{"line", query.ChartLine},
}

// Tokens never treated as a near-miss filter value.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "for": true,
	"and": true, "or": true, "with": true, "by": true, "in": true,
	"on": true, "to": true, "all": true, "draw": true, "show": true,
	"plot": true, "chart": true, "graph": true, "flights": true,
	"flight": true, "detected": true, "per": true, "each": true,
}

// vocabEntry is one schema-driven phrase the parser can match: a
// categorical value, optionally compounded with its column stem
// ("high" + altitude_band → "high altitude").
type vocabEntry struct {
	phrase string
	column string
	value  string
}

// buildVocabulary produces all matchable value phrases for a schema,
// ordered longest-phrase-first so a compound value like "high
// altitude" is preferred over "altitude" alone, and so a token
// matching values in two columns resolves to the longer full phrase.
func buildVocabulary(sch schema.Schema) []vocabEntry {
	var entries []vocabEntry
	for _, col := range sch.Categorical() {
		stem := schema.Stem(col.Name)
		for _, v := range col.Values {
			entries = append(entries, vocabEntry{phrase: v, column: col.Name, value: v})
			if stem != "" && !strings.Contains(v, stem) {
				entries = append(entries, vocabEntry{
					phrase: v + " " + stem,
					column: col.Name,
					value:  v,
				})
			}
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if len(entries[i].phrase) != len(entries[j].phrase) {
			return len(entries[i].phrase) > len(entries[j].phrase)
		}
		if entries[i].column != entries[j].column {
			return entries[i].column < entries[j].column
		}
		return entries[i].value < entries[j].value
	})
	return entries
}

// promptText is a normalized prompt with span consumption. Matched
// spans are blanked out so later, shorter matches cannot reuse them;
// blanking preserves byte offsets.
type promptText struct {
	text []byte
}

func newPromptText(prompt string) *promptText {
	var b strings.Builder
	for _, r := range strings.ToLower(prompt) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return &promptText{text: []byte(b.String())}
}

func (p *promptText) String() string { return string(p.text) }

// find locates phrase at a word boundary, returning the byte offset or
// -1.
func (p *promptText) find(phrase string) int {
	text := string(p.text)
	from := 0
	for {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return -1
		}
		i += from
		if p.bounded(i, len(phrase)) {
			return i
		}
		from = i + 1
	}
}

func (p *promptText) bounded(i, n int) bool {
	if i > 0 && p.text[i-1] != ' ' {
		return false
	}
	if end := i + n; end < len(p.text) && p.text[end] != ' ' {
		return false
	}
	return true
}

// consume blanks out n bytes starting at offset i.
func (p *promptText) consume(i, n int) {
	for j := i; j < i+n && j < len(p.text); j++ {
		p.text[j] = ' '
	}
}

// tokensAfter returns the whitespace-separated tokens starting at
// byte offset i.
func (p *promptText) tokensAfter(i int) []token {
	return tokenize(string(p.text), i)
}

// tokens returns every remaining token with its byte offset.
func (p *promptText) tokens() []token {
	return tokenize(string(p.text), 0)
}

type token struct {
	word string
	off  int
}

func tokenize(text string, from int) []token {
	var out []token
	i := from
	for i < len(text) {
		if text[i] == ' ' {
			i++
			continue
		}
		j := i
		for j < len(text) && text[j] != ' ' {
			j++
		}
		out = append(out, token{word: text[i:j], off: i})
		i = j
	}
	return out
}
