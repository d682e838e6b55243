// Package engine wires the query-resolution pipeline: prompt →
// parse → validate → execute → build chart. All expected failures
// come back as typed result values; the engine never panics across
// this boundary.
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/SortieWorks/sortiechart-cli/internal/aggregate"
	"github.com/SortieWorks/sortiechart-cli/internal/chart"
	"github.com/SortieWorks/sortiechart-cli/internal/dataset"
	"github.com/SortieWorks/sortiechart-cli/internal/intent"
	"github.com/SortieWorks/sortiechart-cli/internal/query"
	"github.com/SortieWorks/sortiechart-cli/internal/schema"
	"github.com/SortieWorks/sortiechart-cli/internal/validate"
)

// Outcome is a resolved chart request: the chart spec plus the
// underlying aggregated table the shell may want to show alongside.
type Outcome struct {
	Dataset string                `json:"dataset"`
	Query   query.StructuredQuery `json:"query"`
	Table   query.ResultTable     `json:"table"`
	Spec    query.ChartSpec       `json:"spec"`
}

// Session owns the loaded datasets and their derived schemas for its
// lifetime. Datasets and schemas are read-only after construction, so
// a session is safe for concurrent resolves.
type Session struct {
	parser   intent.Parser
	names    []string
	datasets map[string]*dataset.Dataset
	schemas  map[string]schema.Schema
}

// NewSession derives a schema for every dataset and returns a ready
// session. A nil parser selects the default vocabulary parser.
func NewSession(parser intent.Parser, datasets map[string]*dataset.Dataset) *Session {
	if parser == nil {
		parser = intent.NewVocabParser()
	}
	s := &Session{
		parser:   parser,
		datasets: datasets,
		schemas:  make(map[string]schema.Schema, len(datasets)),
	}
	for name, d := range datasets {
		s.names = append(s.names, name)
		s.schemas[name] = schema.Build(d)
	}
	sort.Strings(s.names)
	return s
}

// Datasets lists the session's dataset names in sorted order.
func (s *Session) Datasets() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Schema returns the derived schema for a dataset.
func (s *Session) Schema(name string) (schema.Schema, bool) {
	sch, ok := s.schemas[name]
	return sch, ok
}

// Resolve answers a chart request against the session's datasets.
// Datasets are tried in sorted-name order; the first one whose schema
// parses and validates the prompt is used. Errors are the tagged
// kinds from the query package.
func (s *Session) Resolve(ctx context.Context, prompt string) (*Outcome, error) {
	if len(s.names) == 0 {
		return nil, fmt.Errorf("no datasets loaded")
	}
	var firstErr error
	for _, name := range s.names {
		out, err := s.ResolveIn(ctx, prompt, name)
		if err == nil {
			return out, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// ResolveIn answers a chart request against one named dataset.
func (s *Session) ResolveIn(ctx context.Context, prompt, name string) (*Outcome, error) {
	d, ok := s.datasets[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
	sch := s.schemas[name]

	q, err := s.parser.Parse(ctx, prompt, sch)
	if err != nil {
		return nil, err
	}
	q, err = validate.Validate(q, sch)
	if err != nil {
		return nil, err
	}
	table, err := aggregate.Execute(q, d)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Dataset: name,
		Query:   q,
		Table:   table,
		Spec:    chart.Build(table, q),
	}, nil
}
