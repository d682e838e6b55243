package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SortieWorks/sortiechart-cli/internal/query"
	"github.com/SortieWorks/sortiechart-cli/internal/schema"
)

// ModelParser delegates prompt interpretation to a local Ollama
// runtime. It satisfies the same Parser contract as VocabParser; its
// output still passes through the query validator, which remains the
// safety boundary regardless of how parsing is performed.
type ModelParser struct {
	httpClient       *http.Client
	host             string
	model            string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

// UnreachableError indicates the model runtime is not reachable.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("model runtime unreachable at %s: %v", e.Host, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// NewModelParser creates a parser targeting the given Ollama host
// (e.g., http://127.0.0.1:11434).
func NewModelParser(host, model string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *ModelParser {
	if host == "" {
		host = "http://127.0.0.1:11434"
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 2
	}
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 1 * time.Second
	}
	return &ModelParser{
		httpClient:       &http.Client{Timeout: httpTimeout},
		host:             host,
		model:            model,
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
	}
}

// Structures aligned with Ollama /api/chat (non-streaming).
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}
type chatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Parse implements the Parser contract by asking the model for a
// StructuredQuery as JSON.
func (p *ModelParser) Parse(ctx context.Context, prompt string, sch schema.Schema) (query.StructuredQuery, error) {
	if p.model == "" {
		return query.StructuredQuery{}, errors.New("model cannot be empty")
	}

	req := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: buildSystemPrompt(sch)},
			{Role: "user", Content: prompt},
		},
		Stream:  false,
		Options: map[string]any{"temperature": 0},
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return query.StructuredQuery{}, fmt.Errorf("marshal request: %w", err)
	}

	content, err := p.chat(ctx, payload)
	if err != nil {
		return query.StructuredQuery{}, err
	}
	return parseModelResponse(content)
}

func (p *ModelParser) chat(ctx context.Context, payload []byte) (string, error) {
	endpoint := p.host + "/api/chat"
	backoff := p.retryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= p.retryMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := p.httpClient.Do(httpReq)
		if err != nil {
			lastErr = &UnreachableError{Host: p.host, Err: err}
		} else {
			body, rerr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case rerr != nil:
				lastErr = fmt.Errorf("read response: %w", rerr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				var cr chatResponse
				if err := json.Unmarshal(body, &cr); err != nil {
					return "", fmt.Errorf("decode response: %w", err)
				}
				return cr.Message.Content, nil
			case resp.StatusCode >= 500:
				lastErr = fmt.Errorf("runtime error %d: %s", resp.StatusCode, truncate(string(body), 200))
			default:
				return "", fmt.Errorf("runtime rejected request (%d): %s", resp.StatusCode, truncate(string(body), 200))
			}
		}
		if attempt < p.retryMaxAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > p.retryMaxDelay {
				backoff = p.retryMaxDelay
			}
		}
	}
	return "", lastErr
}

// buildSystemPrompt embeds the schema catalog so the model only ever
// sees column names and distinct values, never raw rows.
func buildSystemPrompt(sch schema.Schema) string {
	var b strings.Builder
	b.WriteString("Translate the user's chart request into JSON with fields ")
	b.WriteString(`{"metric","verb","group_by","filters":[{"column","op","value"}],"chart"}. `)
	b.WriteString(`verb is one of sum|count|mean|percentage; chart is one of pie|bar|line; op is always "eq". `)
	b.WriteString("Use only the columns and values below. Respond with JSON only.\n\nColumns:\n")
	for _, c := range sch.Columns {
		b.WriteString(fmt.Sprintf("- %s (%s)", c.Name, c.Kind))
		if len(c.Values) > 0 {
			b.WriteString(": " + strings.Join(c.Values, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// parseModelResponse extracts a StructuredQuery from the model output,
// tolerating markdown code fences around the JSON.
func parseModelResponse(content string) (query.StructuredQuery, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var q query.StructuredQuery
	if err := json.Unmarshal([]byte(content), &q); err != nil {
		return query.StructuredQuery{}, &query.ParseError{Reason: query.ReasonBadResponse}
	}
	if q.Verb == "" {
		return query.StructuredQuery{}, &query.ParseError{Reason: query.ReasonNoVerb}
	}
	if q.Chart == "" {
		return query.StructuredQuery{}, &query.ParseError{Reason: query.ReasonNoChart}
	}
	for i := range q.Filters {
		if q.Filters[i].Op == "" {
			q.Filters[i].Op = "eq"
		}
	}
	return q, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
