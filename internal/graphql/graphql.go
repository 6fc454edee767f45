package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the response body is empty or not JSON.
var ErrEmptyResponse = errors.New("empty graphql response")

type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// Error is one entry of the "errors" array of a GraphQL response.
type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// HTTPError is returned for a non-2xx transport status.
type HTTPError struct {
	StatusCode int
	Payload    json.RawMessage
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("graphql http error: %d", e.StatusCode)
}

// QueryError is returned when the response carries an "errors" array, even
// alongside partial data. Raw keeps the entries as sent; Errors is a
// best-effort reading of them.
type QueryError struct {
	Errors []Error
	Raw    []json.RawMessage
	Data   json.RawMessage
}

func (e *QueryError) Error() string {
	var b []byte
	if len(e.Raw) > 0 {
		b, _ = json.Marshal(e.Raw)
	} else {
		b, _ = json.Marshal(e.Errors)
	}
	return "graphql errors: " + string(b)
}

// ParseErrors reads raw "errors" entries. Entries that are not shaped like a
// GraphQL error keep their message, or their JSON text when there is none.
func ParseErrors(raw []json.RawMessage) []Error {
	out := make([]Error, 0, len(raw))
	for _, entry := range raw {
		var e Error
		if err := json.Unmarshal(entry, &e); err == nil {
			out = append(out, e)
			continue
		}

		var s string
		if err := json.Unmarshal(entry, &s); err == nil {
			out = append(out, Error{Message: s})
			continue
		}

		var loose struct {
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal(entry, &loose); err == nil && len(loose.Message) > 0 {
			if err := json.Unmarshal(loose.Message, &s); err == nil {
				out = append(out, Error{Message: s})
			} else {
				out = append(out, Error{Message: string(loose.Message)})
			}
			continue
		}
		out = append(out, Error{Message: string(entry)})
	}
	return out
}

//go:generate go run go.uber.org/mock/mockgen -source=graphql.go -destination=mocks/mock.go
type Client interface {
	// Do sends one query and decodes the "data" member into out.
	// out may be nil.
	Do(ctx context.Context, req Request, out any) error
}
