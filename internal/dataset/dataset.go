package dataset

import "fmt"

// Kind is the semantic type of a column.
type Kind string

const (
	Categorical Kind = "categorical"
	Numeric     Kind = "numeric"
	Duration    Kind = "duration"
	Identifier  Kind = "identifier"
)

// Column describes one declared column of a dataset.
type Column struct {
	Name string
	Kind Kind
}

// Dataset is an immutable, named collection of typed rows loaded once
// per session. Every row has a value (or explicit missing) for every
// declared column. Duration values are normalized to seconds at load.
type Dataset struct {
	name string
	cols []Column
	rows []row
}

type row struct {
	text map[string]string
	num  map[string]float64
	miss map[string]bool
}

// Name returns the dataset name.
func (d *Dataset) Name() string { return d.name }

// Columns returns a copy of the declared columns.
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.cols))
	copy(out, d.cols)
	return out
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Text returns the string value of a categorical or identifier column
// at row i, in its original casing. Empty for missing or non-text
// columns.
func (d *Dataset) Text(i int, col string) string {
	return d.rows[i].text[col]
}

// Num returns the numeric value (seconds for duration columns) at row
// i, and whether a value is present.
func (d *Dataset) Num(i int, col string) (float64, bool) {
	v, ok := d.rows[i].num[col]
	return v, ok
}

// Missing reports whether the value at row i is explicitly missing.
func (d *Dataset) Missing(i int, col string) bool {
	return d.rows[i].miss[col]
}

// Column looks up a declared column by exact name.
func (d *Dataset) Column(name string) (Column, bool) {
	for _, c := range d.cols {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// New builds a Dataset from a header row and string records, inferring
// a Kind for every column. This is the single construction path shared
// by the CSV and SQLite loaders.
func New(name string, header []string, records [][]string) (*Dataset, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("dataset %s: no columns", name)
	}
	cols := inferColumns(header, records)
	d := &Dataset{name: name, cols: cols, rows: make([]row, 0, len(records))}
	for _, rec := range records {
		r := row{
			text: make(map[string]string),
			num:  make(map[string]float64),
			miss: make(map[string]bool),
		}
		for j, c := range cols {
			var raw string
			if j < len(rec) {
				raw = trim(rec[j])
			}
			if raw == "" {
				r.miss[c.Name] = true
				continue
			}
			switch c.Kind {
			case Numeric:
				if x, ok := parseNumber(raw); ok {
					r.num[c.Name] = x
				} else {
					r.miss[c.Name] = true
				}
			case Duration:
				if x, ok := parseSeconds(raw); ok {
					r.num[c.Name] = x
				} else {
					r.miss[c.Name] = true
				}
			default:
				r.text[c.Name] = raw
			}
		}
		d.rows = append(d.rows, r)
	}
	return d, nil
}
