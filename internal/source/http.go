package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSource calls a report server over JSON-RPC-style HTTP: every call is a
// POST of {auth, method, params} and the response is {result} or {error}.
type HTTPSource struct {
	url    string
	client *http.Client
}

// callEnvelope is the wire request shape.
type callEnvelope struct {
	Auth   Auth   `json:"auth"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// callResult is the wire response shape.
type callResult struct {
	Result json.RawMessage `json:"result"`
	Error  *APIError       `json:"error"`
}

// NewHTTPSource creates a client for the report server at url. The timeout
// bounds the whole call; a hung server surfaces as an error instead of
// stalling the caller indefinitely.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Call(ctx context.Context, method string, auth Auth, params any) (json.RawMessage, error) {
	body, err := json.Marshal(callEnvelope{Auth: auth, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}

	var res callResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", method, err)
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return res.Result, nil
}
