package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadCSV reads a CSV or TSV file into a Dataset. The dataset name is
// the file basename without extension; the delimiter is sniffed from
// the extension unless given.
func LoadCSV(path string, delimiter rune) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ReadCSV(name, f, delimiterFor(path, delimiter))
}

// ReadCSV parses CSV content from r into a named Dataset. The first
// record is the header row.
func ReadCSV(name string, r io.Reader, delimiter rune) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if delimiter != 0 {
		cr.Comma = delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dataset %s: empty file", name)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		rowCopy := make([]string, len(rec))
		copy(rowCopy, rec)
		records = append(records, rowCopy)
	}
	return New(name, header, records)
}

func delimiterFor(path string, explicit rune) rune {
	if explicit != 0 {
		return explicit
	}
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
