package schema_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/SortieWorks/sortiechart-cli/internal/dataset"
	"github.com/SortieWorks/sortiechart-cli/internal/schema"
)

func buildFlights(t *testing.T) *dataset.Dataset {
	t.Helper()
	header := []string{"flight_id", "detection_method", "altitude_band", "airtime_seconds"}
	records := [][]string{
		{"F1", "PCL", "High", "120"},
		{"F2", "Gotcha", "low", "60"},
		{"F3", "PCL", "HIGH", "20"},
		{"F4", "RING_5", "Low", "100"},
	}
	d, err := dataset.New("flights", header, records)
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}
	return d
}

func TestBuildCollectsNormalizedSortedValues(t *testing.T) {
	sch := schema.Build(buildFlights(t))
	if sch.Dataset != "flights" {
		t.Errorf("dataset: got %s, want flights", sch.Dataset)
	}

	col, ok := sch.Lookup("detection_method")
	if !ok {
		t.Fatalf("detection_method not found")
	}
	want := []string{"gotcha", "pcl", "ring 5"}
	if !reflect.DeepEqual(col.Values, want) {
		t.Errorf("values: got %v, want %v", col.Values, want)
	}

	alt, _ := sch.Lookup("altitude_band")
	if !reflect.DeepEqual(alt.Values, []string{"high", "low"}) {
		t.Errorf("altitude values: got %v, want [high low]", alt.Values)
	}
	if !alt.HasValue("HIGH") || !alt.HasValue("high") {
		t.Errorf("HasValue should be case-insensitive")
	}
	if alt.HasValue("ultra") {
		t.Errorf("HasValue accepted an unknown value")
	}
}

func TestLookupAliasesAndNormalization(t *testing.T) {
	sch := schema.Build(buildFlights(t))
	cases := []struct {
		in   string
		want string
	}{
		{"airtime", "airtime_seconds"},
		{"airtime seconds", "airtime_seconds"},
		{"AIRTIME_SECONDS", "airtime_seconds"},
		{"detection", "detection_method"},
		{"detection method", "detection_method"},
		{"altitude", "altitude_band"},
	}
	for _, c := range cases {
		col, ok := sch.Lookup(c.in)
		if !ok || col.Name != c.want {
			t.Errorf("Lookup(%q) = %q,%v; want %q", c.in, col.Name, ok, c.want)
		}
	}
	if _, ok := sch.Lookup("warpcoils"); ok {
		t.Errorf("Lookup resolved an unknown column")
	}
}

func TestStem(t *testing.T) {
	cases := map[string]string{
		"altitude_band":    "altitude",
		"detection_method": "detection",
		"airtime_seconds":  "airtime",
		"object_class":     "object",
		"speed_band":       "speed",
		"plain":            "plain",
	}
	for in, want := range cases {
		if got := schema.Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  High ":         "high",
		"RING_5":          "ring 5",
		"two   words":     "two words",
		"under_score_val": "under score val",
	}
	for in, want := range cases {
		if got := schema.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCategoricalExcludesOtherKinds(t *testing.T) {
	sch := schema.Build(buildFlights(t))
	for _, col := range sch.Categorical() {
		if col.Name == "flight_id" || col.Name == "airtime_seconds" {
			t.Errorf("non-categorical column %s listed", col.Name)
		}
	}
	if len(sch.Categorical()) != 2 {
		t.Errorf("categorical count: got %d, want 2", len(sch.Categorical()))
	}
}

func TestDescribeListsValues(t *testing.T) {
	out := schema.Build(buildFlights(t)).Describe()
	for _, want := range []string{"Dataset: flights", "detection_method: categorical", "gotcha, pcl, ring 5"} {
		if !strings.Contains(out, want) {
			t.Errorf("describe output missing %q:\n%s", want, out)
		}
	}
}
