package dataset

import (
	"strconv"
	"strings"
	"time"
)

// Column-name suffixes that mark a numeric column as duration-valued.
var durationSuffixes = []string{"_seconds", "_secs", "_sec", "_minutes", "_hours", "_duration", "_airtime"}

// Column-name markers for identifier columns.
var idMarkers = []string{"_id", "id", "rid", "uuid", "guid", "track_id"}

func trim(s string) string { return strings.TrimSpace(s) }

// inferColumns classifies every column from its header name and the
// predominant parse result of its values, the same way AnalyzeCSV-style
// inspection does: count how many values parse as numbers or durations
// and decide by majority, with the header name breaking near-ties.
func inferColumns(header []string, records [][]string) []Column {
	cols := make([]Column, len(header))
	for j := range header {
		name := trim(header[j])
		var nonMissing, numCnt, durCnt int
		seen := make(map[string]bool)
		for _, rec := range records {
			if j >= len(rec) {
				continue
			}
			v := trim(rec[j])
			if v == "" {
				continue
			}
			nonMissing++
			seen[strings.ToLower(v)] = true
			if _, ok := parseNumber(v); ok {
				numCnt++
				continue
			}
			if _, ok := parseClockOrDuration(v); ok {
				durCnt++
			}
		}
		kind := Categorical
		switch {
		case nonMissing > 0 && numCnt == nonMissing:
			kind = Numeric
			if hasDurationName(name) {
				kind = Duration
			}
		case nonMissing > 0 && durCnt == nonMissing:
			kind = Duration
		case nonMissing > 1 && len(seen) == nonMissing && hasIdentifierName(name):
			kind = Identifier
		}
		cols[j] = Column{Name: name, Kind: kind}
	}
	return cols
}

func hasDurationName(name string) bool {
	n := strings.ToLower(name)
	for _, suf := range durationSuffixes {
		if strings.HasSuffix(n, suf) || n == strings.TrimPrefix(suf, "_") {
			return true
		}
	}
	return false
}

func hasIdentifierName(name string) bool {
	n := strings.ToLower(name)
	for _, m := range idMarkers {
		if n == m || strings.HasSuffix(n, m) {
			return true
		}
	}
	return false
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseSeconds converts a raw cell of a duration column to seconds.
// Accepts plain numbers (already seconds), Go duration syntax ("1h2m"),
// and clock forms ("mm:ss", "hh:mm:ss").
func parseSeconds(s string) (float64, bool) {
	if f, ok := parseNumber(s); ok {
		return f, true
	}
	return parseClockOrDuration(s)
}

func parseClockOrDuration(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d.Seconds(), true
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}
	var total float64
	for _, p := range parts {
		n, err := strconv.ParseFloat(p, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}
