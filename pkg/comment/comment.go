// Package comment requests AI-written comments on diary entries.
package comment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request is the input to a comment generation.
type Request struct {
	DiaryID string `json:"diaryId"`
	Content string `json:"content"`
}

// Generator produces a comment for a diary entry.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to a Generator.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Generate(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// ErrEmpty is returned when the service answers without a comment.
var ErrEmpty = errors.New("comment: empty response")

// APIError is returned for a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("comment: HTTP %d: %s", e.StatusCode, e.Message)
}

// HTTPGenerator calls a comment endpoint with a JSON Request and expects
// {"aiComment": "..."} back.
type HTTPGenerator struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPGenerator returns a generator posting to endpoint.
func NewHTTPGenerator(endpoint string) *HTTPGenerator {
	return &HTTPGenerator{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("comment: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("comment: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("comment: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("comment: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	var out struct {
		AIComment string `json:"aiComment"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("comment: decode response: %w", err)
	}
	if out.AIComment == "" {
		return "", ErrEmpty
	}
	return out.AIComment, nil
}
