package dataset

import (
	"strings"
	"testing"
)

func TestReadCSVInference(t *testing.T) {
	content := "flight_id,detection_method,altitude_band,airtime_seconds,liftoff\n" +
		"F1,PCL,High,120,00:45\n" +
		"F2,Gotcha,Low,60,01:30\n" +
		"F3,PCL,High,20,02:05\n"
	d, err := ReadCSV("flights", strings.NewReader(content), ',')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if d.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", d.Len())
	}
	want := map[string]Kind{
		"flight_id":        Identifier,
		"detection_method": Categorical,
		"altitude_band":    Categorical,
		"airtime_seconds":  Duration,
		"liftoff":          Duration,
	}
	for name, kind := range want {
		col, ok := d.Column(name)
		if !ok {
			t.Fatalf("missing column %s", name)
		}
		if col.Kind != kind {
			t.Errorf("column %s: got kind %s, want %s", name, col.Kind, kind)
		}
	}
	if v, ok := d.Num(0, "airtime_seconds"); !ok || v != 120 {
		t.Errorf("airtime row 0: got %v (%v), want 120", v, ok)
	}
	if v, ok := d.Num(1, "liftoff"); !ok || v != 90 {
		t.Errorf("liftoff row 1: got %v (%v), want 90s", v, ok)
	}
	if got := d.Text(0, "detection_method"); got != "PCL" {
		t.Errorf("detection_method row 0: got %q, want PCL", got)
	}
}

func TestReadCSVMissingValues(t *testing.T) {
	content := "band,score\nhigh,1\n,2\nlow,\n"
	d, err := ReadCSV("t", strings.NewReader(content), ',')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !d.Missing(1, "band") {
		t.Errorf("expected band missing at row 1")
	}
	if !d.Missing(2, "score") {
		t.Errorf("expected score missing at row 2")
	}
	if d.Missing(0, "band") || d.Missing(0, "score") {
		t.Errorf("row 0 should have no missing values")
	}
}

func TestReadCSVEmptyFile(t *testing.T) {
	if _, err := ReadCSV("empty", strings.NewReader(""), ','); err == nil {
		t.Fatalf("expected error for empty file")
	}
}

func TestParseSeconds(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"90", 90, true},
		{"1.5", 1.5, true},
		{"1h2m", 3720, true},
		{"01:30", 90, true},
		{"1:02:03", 3723, true},
		{"abc", 0, false},
		{"1:xx", 0, false},
	}
	for _, c := range cases {
		got, ok := parseSeconds(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("parseSeconds(%q) = %v,%v; want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestMixedColumnIsCategorical(t *testing.T) {
	content := "code\n12\nabc\n34\n"
	d, err := ReadCSV("t", strings.NewReader(content), ',')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	col, _ := d.Column("code")
	if col.Kind != Categorical {
		t.Errorf("mixed column: got %s, want categorical", col.Kind)
	}
}
