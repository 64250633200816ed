package gql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"blogcms/framework/requestid"
	genqlientgraphql "github.com/Khan/genqlient/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Link sends one operation to the GraphQL server.
type Link interface {
	Execute(ctx context.Context, req *genqlientgraphql.Request) (*LinkResult, error)
}

// LinkResult is the undecoded payload of one GraphQL response.
type LinkResult struct {
	Data       json.RawMessage
	Errors     gqlerror.List
	Extensions map[string]interface{}
}

func (r *LinkResult) hasData() bool {
	return r != nil && len(r.Data) > 0 && string(r.Data) != "null"
}

type HTTPLinkConfig struct {
	Endpoint string
	// Timeout bounds one round trip; zero leaves requests unbounded.
	Timeout   time.Duration
	UserAgent string
	Transport http.RoundTripper
}

// HTTPLink posts operations to a fixed absolute endpoint.
type HTTPLink struct {
	endpoint string
	client   genqlientgraphql.Client
}

func NewHTTPLink(cfg HTTPLinkConfig) (*HTTPLink, error) {
	endpoint, err := ValidateEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &headerTransport{
			base:      base,
			userAgent: strings.TrimSpace(cfg.UserAgent),
		},
	}

	return &HTTPLink{
		endpoint: endpoint,
		client:   genqlientgraphql.NewClient(endpoint, httpClient),
	}, nil
}

// ValidateEndpoint requires an absolute http(s) URL.
func ValidateEndpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse graphql endpoint %q: %w", raw, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("graphql endpoint %q must be an absolute http(s) URL", raw)
	}
	return raw, nil
}

func (l *HTTPLink) Endpoint() string {
	return l.endpoint
}

func (l *HTTPLink) Execute(ctx context.Context, req *genqlientgraphql.Request) (*LinkResult, error) {
	var data json.RawMessage
	resp := &genqlientgraphql.Response{Data: &data}

	err := l.client.MakeRequest(ctx, req, resp)
	if err != nil {
		var graphQLErrors gqlerror.List
		if !errors.As(err, &graphQLErrors) {
			return nil, err
		}
	}

	return &LinkResult{
		Data:       data,
		Errors:     resp.Errors,
		Extensions: resp.Extensions,
	}, nil
}

type headerTransport struct {
	base      http.RoundTripper
	userAgent string
}

// RoundTrip forwards the request id and trace context of the calling request.
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if id := requestid.FromContext(req.Context()); id != "" {
		clone.Header.Set(requestid.Header, id)
	}
	if t.userAgent != "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}
	otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(clone.Header))
	return t.base.RoundTrip(clone)
}
