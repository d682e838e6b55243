package intent_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SortieWorks/sortiechart-cli/internal/intent"
	"github.com/SortieWorks/sortiechart-cli/internal/query"
)

func fakeRuntime(t *testing.T, content string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		resp := map[string]any{
			"message": map[string]string{"role": "assistant", "content": content},
			"done":    true,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestModelParserParsesFencedJSON(t *testing.T) {
	content := "```json\n" + `{
  "metric": "airtime_seconds",
  "verb": "percentage",
  "group_by": ["detection_method"],
  "filters": [{"column": "altitude_band", "value": "high"}],
  "chart": "pie"
}` + "\n```"
	ts := fakeRuntime(t, content)
	p := intent.NewModelParser(ts.URL, "llama3.1", time.Second, 1, time.Millisecond, time.Millisecond)

	q, err := p.Parse(context.Background(), "percentage of airtime", flightSchema(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.Metric != "airtime_seconds" || q.Verb != query.VerbPercentage || q.Chart != query.ChartPie {
		t.Errorf("query: got %+v", q)
	}
	if len(q.Filters) != 1 || q.Filters[0].Op != "eq" {
		t.Errorf("filter op not defaulted: %+v", q.Filters)
	}
}

func TestModelParserRejectsBadResponses(t *testing.T) {
	cases := []struct {
		name    string
		content string
		reason  string
	}{
		{"not json", "I cannot help with that.", query.ReasonBadResponse},
		{"missing verb", `{"chart": "pie"}`, query.ReasonNoVerb},
		{"missing chart", `{"verb": "sum", "metric": "airtime_seconds"}`, query.ReasonNoChart},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ts := fakeRuntime(t, c.content)
			p := intent.NewModelParser(ts.URL, "llama3.1", time.Second, 1, time.Millisecond, time.Millisecond)
			_, err := p.Parse(context.Background(), "whatever", flightSchema(t))
			var perr *query.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if perr.Reason != c.reason {
				t.Errorf("reason: got %q, want %q", perr.Reason, c.reason)
			}
		})
	}
}

func TestModelParserRetriesServerErrors(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "overloaded", http.StatusInternalServerError)
			return
		}
		resp := map[string]any{
			"message": map[string]string{"role": "assistant", "content": `{"verb":"count","chart":"bar"}`},
			"done":    true,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)

	p := intent.NewModelParser(ts.URL, "llama3.1", time.Second, 3, time.Millisecond, 10*time.Millisecond)
	q, err := p.Parse(context.Background(), "count of flights", flightSchema(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.Verb != query.VerbCount {
		t.Errorf("verb: got %s, want count", q.Verb)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("calls: got %d, want 2", got)
	}
}

func TestModelParserUnreachableHost(t *testing.T) {
	p := intent.NewModelParser("http://127.0.0.1:1", "llama3.1", 200*time.Millisecond, 1, time.Millisecond, time.Millisecond)
	_, err := p.Parse(context.Background(), "count of flights", flightSchema(t))
	var uerr *intent.UnreachableError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UnreachableError, got %v", err)
	}
}

func TestModelParserRequiresModelName(t *testing.T) {
	p := intent.NewModelParser("http://127.0.0.1:11434", "", time.Second, 1, time.Millisecond, time.Millisecond)
	if _, err := p.Parse(context.Background(), "count of flights", flightSchema(t)); err == nil {
		t.Fatalf("expected error for empty model name")
	}
}
