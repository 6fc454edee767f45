package graphqlimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/orgball2608/deso-feed/internal/graphql"
	"github.com/orgball2608/deso-feed/pkg/config"
	"github.com/orgball2608/deso-feed/pkg/errors"
	"github.com/orgball2608/deso-feed/pkg/logger"
	"go.uber.org/fx"
)

const queryPreviewLength = 200

type Opts struct {
	fx.In

	Config     *config.Config
	Logger     logger.Logger
	HTTPClient *http.Client `optional:"true"`
}

type GraphQLImpl struct {
	endpoint string
	http     *http.Client
	logger   logger.Logger
}

func New(opts Opts) *GraphQLImpl {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Config.Deso.HTTPTimeout}
	}

	return &GraphQLImpl{
		endpoint: opts.Config.Deso.GraphQLURL,
		http:     client,
		logger:   opts.Logger.WithComponent("GraphQLClient"),
	}
}

var _ graphql.Client = (*GraphQLImpl)(nil)

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

// errorEntries splits the "errors" member into entries. A null or empty
// array yields none; a non-array value counts as one entry.
func (e *envelope) errorEntries() []json.RawMessage {
	trimmed := bytes.TrimSpace(e.Errors)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return []json.RawMessage{trimmed}
	}
	return entries
}

func (g *GraphQLImpl) Do(ctx context.Context, req graphql.Request, out any) error {
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}

	preview := req.Query
	if len(preview) > queryPreviewLength {
		preview = preview[:queryPreviewLength]
	}
	g.logger.Debug("graphqlRequest", "queryPreview", preview)

	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "failed to encode graphql request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build graphql request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(err, "graphql request cancelled")
		}
		return errors.WrapWithCode(err, errors.CodeTransport, "graphql request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(err, "graphql response cancelled")
		}
		return errors.WrapWithCode(err, errors.CodeTransport, "failed to read graphql response")
	}

	var payload *envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			payload = nil
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &graphql.HTTPError{StatusCode: resp.StatusCode}
		if payload != nil {
			httpErr.Payload = raw
		}
		return errors.WrapWithCode(httpErr, errors.CodeTransport, "graphql request failed")
	}

	if payload == nil {
		return errors.WrapWithCode(graphql.ErrEmptyResponse, errors.CodeMalformed, "graphql request failed")
	}

	if entries := payload.errorEntries(); len(entries) > 0 {
		return errors.WrapWithCode(
			&graphql.QueryError{Errors: graphql.ParseErrors(entries), Raw: entries, Data: payload.Data},
			errors.CodeQuery,
			"graphql request failed",
		)
	}

	if out == nil || len(payload.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload.Data, out); err != nil {
		return errors.WrapWithCode(
			fmt.Errorf("%w: %v", graphql.ErrEmptyResponse, err),
			errors.CodeMalformed,
			"failed to decode graphql data",
		)
	}
	return nil
}
