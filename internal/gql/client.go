package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	genqlientgraphql "github.com/Khan/genqlient/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const tracerName = "blogcms/internal/gql"

type ClientConfig struct {
	Link     Link
	Cache    *Cache
	Defaults DefaultOptions

	// DisableDeduplication sends every query even when an identical one is in flight.
	DisableDeduplication bool

	Logger  *zap.Logger
	Metrics *Metrics
	Tracer  trace.Tracer
}

// Client issues GraphQL operations through a link and keeps their results in a normalized cache.
// It implements genqlient's graphql.Client, so generated operations run through it.
type Client struct {
	link     Link
	cache    *Cache
	defaults DefaultOptions
	dedupe   bool
	docs     *documentStore
	flight   *singleflight.Group

	logger  *zap.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

var _ genqlientgraphql.Client = (*Client)(nil)

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Link == nil {
		return nil, errors.New("graphql link is required")
	}

	cache := cfg.Cache
	if cache == nil {
		cache = NewCache(CacheConfig{})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &Client{
		link:     cfg.Link,
		cache:    cache,
		defaults: cfg.Defaults,
		dedupe:   !cfg.DisableDeduplication,
		docs:     newDocumentStore(),
		flight:   &singleflight.Group{},
		logger:   logger,
		metrics:  cfg.Metrics,
		tracer:   tracer,
	}, nil
}

func (c *Client) Cache() *Cache {
	return c.cache
}

func (c *Client) Defaults() DefaultOptions {
	return c.defaults
}

// Fork returns a client with an empty cache of the same configuration. The fork shares the
// link, defaults and in-flight deduplication with c, so identical queries from both still
// reach the network once.
func (c *Client) Fork() *Client {
	return &Client{
		link:     c.link,
		cache:    c.cache.empty(),
		defaults: c.defaults,
		dedupe:   c.dedupe,
		docs:     c.docs,
		flight:   c.flight,
		logger:   c.logger,
		metrics:  c.metrics.forFork(),
		tracer:   c.tracer,
	}
}

// MakeRequest runs a query or mutation with the client defaults for its kind, overridden by
// any Options attached with WithOptions.
func (c *Client) MakeRequest(
	ctx context.Context,
	req *genqlientgraphql.Request,
	resp *genqlientgraphql.Response,
) error {
	op, err := c.prepare(req)
	if err != nil {
		return err
	}

	var fallback Options
	switch op.doc.kind {
	case operationQuery:
		fallback = c.defaults.Query
	case operationMutation:
		fallback = c.defaults.Mutate
	default:
		return fmt.Errorf("graphql operation %q: %s operations are not supported", op.name(), op.doc.kind)
	}
	opts := optionsFromContext(ctx).Merge(fallback).withBuiltinDefaults()
	if op.doc.kind == operationMutation && opts.FetchPolicy != FetchPolicyNoCache {
		opts.FetchPolicy = FetchPolicyNetworkOnly
	}

	ctx, span := c.tracer.Start(ctx, "graphql."+string(op.doc.kind), trace.WithAttributes(
		attribute.String("graphql.operation.name", op.name()),
		attribute.String("graphql.fetch_policy", string(opts.FetchPolicy)),
		attribute.String("graphql.error_policy", string(opts.ErrorPolicy)),
	))
	defer span.End()

	result, err := c.execute(ctx, op, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("graphql.source", string(result.source)))

	if decodeErr := decodeInto(resp, result); decodeErr != nil {
		return fmt.Errorf("decode graphql operation %q: %w", op.name(), decodeErr)
	}
	return err
}

type resultSource string

const (
	sourceNone    resultSource = "none"
	sourceCache   resultSource = "cache"
	sourceNetwork resultSource = "network"
)

type operationResult struct {
	data       json.RawMessage
	errors     gqlerror.List
	extensions map[string]interface{}
	source     resultSource
}

type preparedOperation struct {
	request   *genqlientgraphql.Request
	doc       *document
	variables map[string]any
	key       string
}

func (op *preparedOperation) name() string {
	if op.doc.name != "" {
		return op.doc.name
	}
	return op.request.OpName
}

func (c *Client) prepare(req *genqlientgraphql.Request) (*preparedOperation, error) {
	if req == nil {
		return nil, errors.New("graphql request is nil")
	}

	doc, err := c.docs.get(req.OpName, req.Query)
	if err != nil {
		return nil, err
	}

	encodedVariables := []byte("null")
	variables := map[string]any{}
	if req.Variables != nil {
		encodedVariables, err = json.Marshal(req.Variables)
		if err != nil {
			return nil, fmt.Errorf("encode variables of %q: %w", req.OpName, err)
		}
		if err := decodeJSON(encodedVariables, &variables); err != nil {
			return nil, fmt.Errorf("normalize variables of %q: %w", req.OpName, err)
		}
	}

	return &preparedOperation{
		request:   req,
		doc:       doc,
		variables: variables,
		key:       req.OpName + "\x00" + doc.query + "\x00" + string(encodedVariables),
	}, nil
}

func (c *Client) execute(ctx context.Context, op *preparedOperation, opts Options) (operationResult, error) {
	if opts.FetchPolicy.readsCache() {
		if data, ok := c.readCache(op); ok {
			c.metrics.recordOperation(op.name(), op.doc.kind, "cache")
			return operationResult{data: data, source: sourceCache}, nil
		}
		if opts.FetchPolicy == FetchPolicyCacheOnly {
			c.metrics.recordOperation(op.name(), op.doc.kind, "cache_miss")
			return operationResult{source: sourceNone}, ErrCacheMiss
		}
	}

	linkResult, err := c.fetch(ctx, op)
	if err != nil {
		c.metrics.recordOperation(op.name(), op.doc.kind, "transport_error")
		c.logger.Warn("graphql request failed",
			zap.String("operation", op.name()),
			zap.Error(err),
		)
		return operationResult{source: sourceNone}, fmt.Errorf("graphql operation %q: %w", op.name(), err)
	}

	return c.applyResult(op, opts, linkResult)
}

// applyResult enforces the error policy and writes accepted data to the cache.
func (c *Client) applyResult(op *preparedOperation, opts Options, linkResult *LinkResult) (operationResult, error) {
	result := operationResult{
		data:       linkResult.Data,
		extensions: linkResult.Extensions,
		source:     sourceNetwork,
	}

	var resultErr error
	if len(linkResult.Errors) > 0 {
		switch opts.ErrorPolicy {
		case ErrorPolicyIgnore:
			c.logger.Debug("graphql errors ignored",
				zap.String("operation", op.name()),
				zap.Int("errors", len(linkResult.Errors)),
			)
		case ErrorPolicyAll:
			result.errors = linkResult.Errors
			resultErr = &PartialResultError{OpName: op.name(), Errors: linkResult.Errors}
		default:
			c.metrics.recordOperation(op.name(), op.doc.kind, "graphql_error")
			return operationResult{source: sourceNetwork}, &OperationError{OpName: op.name(), Errors: linkResult.Errors}
		}
	}

	if opts.FetchPolicy.writesCache() && linkResult.hasData() {
		c.writeCache(op, linkResult.Data)
	}

	outcome := "network"
	if resultErr != nil {
		outcome = "partial"
	}
	c.metrics.recordOperation(op.name(), op.doc.kind, outcome)
	return result, resultErr
}

func (c *Client) fetch(ctx context.Context, op *preparedOperation) (*LinkResult, error) {
	linkRequest := &genqlientgraphql.Request{
		OpName:    op.request.OpName,
		Query:     op.doc.query,
		Variables: op.request.Variables,
	}

	send := func(ctx context.Context) (*LinkResult, error) {
		started := time.Now()
		result, err := c.link.Execute(ctx, linkRequest)
		c.metrics.recordNetwork(op.name(), time.Since(started))
		return result, err
	}

	if !c.dedupe || op.doc.kind != operationQuery {
		return send(ctx)
	}

	// A shared request is not bound to any one waiter. Each waiter gives up on its own context
	// and the link timeout bounds the request itself.
	detached := context.WithoutCancel(ctx)
	results := c.flight.DoChan(op.key, func() (interface{}, error) {
		return send(detached)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Shared {
			c.metrics.recordDeduplicated(op.name())
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*LinkResult), nil
	}
}

func (c *Client) readCache(op *preparedOperation) (json.RawMessage, bool) {
	data, ok := c.cache.read(op.doc, op.variables)
	c.metrics.recordCacheRead(op.name(), ok)
	if !ok {
		return nil, false
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		c.logger.Warn("encode cached graphql result", zap.String("operation", op.name()), zap.Error(err))
		return nil, false
	}
	return encoded, true
}

func (c *Client) writeCache(op *preparedOperation, data json.RawMessage) {
	var decoded map[string]any
	if err := decodeJSON(data, &decoded); err != nil {
		c.logger.Warn("graphql result not cacheable", zap.String("operation", op.name()), zap.Error(err))
		return
	}

	c.cache.write(op.doc, op.variables, decoded)
	c.metrics.setCacheEntities(c.cache.Size())
}

func decodeInto(resp *genqlientgraphql.Response, result operationResult) error {
	if resp == nil {
		return nil
	}
	resp.Extensions = result.extensions
	resp.Errors = result.errors
	if len(result.data) == 0 || string(result.data) == "null" || resp.Data == nil {
		return nil
	}
	return json.Unmarshal(result.data, resp.Data)
}

func decodeJSON(data []byte, target any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(target)
}
