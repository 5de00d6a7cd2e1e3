// Package source is the boundary to the remote account API. A Source is an
// opaque request/response call keyed by method name; retry and backoff
// policy, if any, belongs to the transport behind it, never to callers.
package source

import (
	"context"
	"encoding/json"
	"fmt"
)

// Auth carries the account API credentials.
type Auth struct {
	APIKey    string `json:"apiKey"`
	APISecret string `json:"apiSecret"`
}

// Source performs one remote call. The result is the raw JSON of the
// server's result field; a server-side error is returned as *APIError.
type Source interface {
	Call(ctx context.Context, method string, auth Auth, params any) (json.RawMessage, error)
}

// APIError is an error returned by the remote API itself, as opposed to a
// transport failure.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// PageParams are the query parameters for one history page fetch. Symbol
// holds the formatted target filters; empty means unscoped.
type PageParams struct {
	Start  int64    `json:"start,omitempty"`
	End    int64    `json:"end,omitempty"`
	Limit  int      `json:"limit,omitempty"`
	Symbol []string `json:"symbol,omitempty"`
	ID     []int64  `json:"id,omitempty"`
}
