package engine_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/SortieWorks/sortiechart-cli/internal/dataset"
	"github.com/SortieWorks/sortiechart-cli/internal/engine"
	"github.com/SortieWorks/sortiechart-cli/internal/query"
)

const scenarioPrompt = "Draw a pie chart for the percentage of airtime detected by pcl for high altitude slow speed orb flights"

func flightSession(t *testing.T) *engine.Session {
	t.Helper()
	header := []string{"flight_id", "detection_method", "altitude_band", "speed_band", "object_class", "airtime_seconds"}
	records := [][]string{
		{"F1", "PCL", "High", "Slow", "Orb", "120"},
		{"F2", "Gotcha", "High", "Slow", "Orb", "60"},
		{"F3", "PCL", "High", "Slow", "Orb", "20"},
		{"F4", "Stardust", "Low", "Fast", "Kairos", "300"},
		{"F5", "PCL", "Low", "Slow", "Kairos", "45"},
		{"F6", "RING_5", "High", "Slow", "Orb", "100"},
		{"F7", "Gotcha", "High", "Fast", "Orb", "30"},
		{"F8", "PCL", "Low", "Slow", "Kairos", "10"},
		{"F9", "Stardust", "Low", "Slow", "Orb", "90"},
	}
	d, err := dataset.New("flights", header, records)
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}
	return engine.NewSession(nil, map[string]*dataset.Dataset{"flights": d})
}

func TestResolveScenario(t *testing.T) {
	s := flightSession(t)
	out, err := s.Resolve(context.Background(), scenarioPrompt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Dataset != "flights" {
		t.Errorf("dataset: got %s, want flights", out.Dataset)
	}
	if out.Spec.Kind != query.ChartPie {
		t.Errorf("chart kind: got %s, want pie", out.Spec.Kind)
	}
	if out.Spec.Title != "Percentage of airtime by detection method — high altitude, slow speed, orb" {
		t.Errorf("title: got %q", out.Spec.Title)
	}
	if len(out.Spec.Labels) != 3 || out.Spec.Labels[0] != "PCL" {
		t.Errorf("labels: got %v, want PCL first", out.Spec.Labels)
	}

	var specSum float64
	for _, v := range out.Spec.Values {
		specSum += v
	}
	if math.Abs(specSum-100) > 0.02 {
		t.Errorf("rounded spec values sum to %v, want ~100", specSum)
	}
	var tableSum float64
	for _, row := range out.Table.Rows {
		tableSum += row.Value
	}
	if math.Abs(tableSum-100) > 1e-6 {
		t.Errorf("table percentages sum to %v, want 100 within 1e-6", tableSum)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	s := flightSession(t)

	first, err := s.Resolve(context.Background(), scenarioPrompt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := s.Resolve(context.Background(), scenarioPrompt)
		if err != nil {
			t.Fatalf("resolve run %d: %v", i, err)
		}
		againJSON, err := json.Marshal(again)
		if err != nil {
			t.Fatalf("marshal run %d: %v", i, err)
		}
		if !bytes.Equal(firstJSON, againJSON) {
			t.Fatalf("run %d diverged:\n%s\nvs\n%s", i, againJSON, firstJSON)
		}
	}
}

func TestResolveTaggedErrors(t *testing.T) {
	s := flightSession(t)
	ctx := context.Background()

	_, err := s.Resolve(ctx, "airtime by detection method")
	var perr *query.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}

	_, err = s.Resolve(ctx,
		"Draw a pie chart for the percentage of airtime detected by pcl for ultra altitude flights")
	var verr *query.ValidateError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidateError, got %v", err)
	}
	if verr.Token != "ultra altitude" {
		t.Errorf("token: got %q, want %q", verr.Token, "ultra altitude")
	}

	_, err = s.Resolve(ctx,
		"Draw a pie chart for the percentage of airtime detected by pcl for high altitude slow speed kairos flights")
	var eerr *query.ExecError
	if !errors.As(err, &eerr) {
		t.Fatalf("expected ExecError, got %v", err)
	}
	if eerr.Kind != query.ExecEmptyResult {
		t.Errorf("kind: got %s, want %s", eerr.Kind, query.ExecEmptyResult)
	}
}

func TestResolveInUnknownDataset(t *testing.T) {
	s := flightSession(t)
	if _, err := s.ResolveIn(context.Background(), scenarioPrompt, "nope"); err == nil {
		t.Fatalf("expected error for unknown dataset")
	}
}

func TestResolveWithoutDatasets(t *testing.T) {
	s := engine.NewSession(nil, nil)
	if _, err := s.Resolve(context.Background(), scenarioPrompt); err == nil {
		t.Fatalf("expected error with no datasets loaded")
	}
}

func TestSessionListsDatasetsSorted(t *testing.T) {
	header := []string{"band", "v"}
	records := [][]string{{"x", "1"}, {"y", "2"}}
	a, _ := dataset.New("a", header, records)
	b, _ := dataset.New("b", header, records)
	s := engine.NewSession(nil, map[string]*dataset.Dataset{"b": b, "a": a})
	names := s.Datasets()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("datasets: got %v, want [a b]", names)
	}
	if _, ok := s.Schema("a"); !ok {
		t.Errorf("schema for dataset a missing")
	}
}
