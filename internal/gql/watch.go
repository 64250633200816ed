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
	"go.uber.org/zap"
)

type WatchOptions struct {
	Options
	// PollInterval refetches from the network on this period when positive.
	PollInterval time.Duration
}

// WatchEvent is one result delivered to a watcher.
type WatchEvent struct {
	Data json.RawMessage
	// Errors is set under the "all" error policy.
	Errors gqlerror.List
	// Err is a transport failure, a cache miss for cache-only watches or an *OperationError.
	Err       error
	FromCache bool
}

// Decode unmarshals the event data into target.
func (e WatchEvent) Decode(target any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, target)
}

// Watch runs a query with the WatchQuery defaults and keeps delivering its result whenever the
// cache changes it or a poll returns. The channel closes once ctx is done.
func (c *Client) Watch(
	ctx context.Context,
	req *genqlientgraphql.Request,
	watchOpts WatchOptions,
) (<-chan WatchEvent, error) {
	op, err := c.prepare(req)
	if err != nil {
		return nil, err
	}
	if op.doc.kind != operationQuery {
		return nil, fmt.Errorf("graphql operation %q: only queries can be watched", op.name())
	}

	opts := watchOpts.Options.
		Merge(optionsFromContext(ctx)).
		Merge(c.defaults.WatchQuery).
		withBuiltinDefaults()

	events := make(chan WatchEvent, 1)
	w := &watcher{
		client:       c,
		op:           op,
		opts:         opts,
		pollInterval: watchOpts.PollInterval,
		events:       events,
	}
	go w.run(ctx)
	return events, nil
}

type watcher struct {
	client       *Client
	op           *preparedOperation
	opts         Options
	pollInterval time.Duration
	events       chan<- WatchEvent
	last         json.RawMessage
}

func (w *watcher) run(ctx context.Context) {
	defer close(w.events)

	w.client.metrics.watchStarted()
	defer w.client.metrics.watchStopped()

	var changed <-chan struct{}
	followCache := w.opts.FetchPolicy.writesCache()
	if followCache {
		changed = w.client.cache.Changed()
	}

	if !w.initial(ctx) {
		return
	}

	var tick <-chan time.Time
	if w.pollInterval > 0 {
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
			changed = w.client.cache.Changed()
			if data, ok := w.client.readCache(w.op); ok {
				if !w.emit(ctx, WatchEvent{Data: data, FromCache: true}) {
					return
				}
			}
		case <-tick:
			if !w.emit(ctx, w.fetch(ctx, w.pollPolicy())) {
				return
			}
		}
	}
}

func (w *watcher) initial(ctx context.Context) bool {
	policy := w.opts.FetchPolicy
	if policy.readsCache() {
		if data, ok := w.client.readCache(w.op); ok {
			if !w.emit(ctx, WatchEvent{Data: data, FromCache: true}) {
				return false
			}
			if policy != FetchPolicyCacheAndNetwork {
				return true
			}
		} else if policy == FetchPolicyCacheOnly {
			return w.emit(ctx, WatchEvent{Err: ErrCacheMiss})
		}
	}

	return w.emit(ctx, w.fetch(ctx, policy))
}

// pollPolicy forces the network on every poll while keeping no-cache out of the cache.
func (w *watcher) pollPolicy() FetchPolicy {
	if w.opts.FetchPolicy == FetchPolicyNoCache {
		return FetchPolicyNoCache
	}
	return FetchPolicyNetworkOnly
}

func (w *watcher) fetch(ctx context.Context, policy FetchPolicy) WatchEvent {
	linkResult, err := w.client.fetch(ctx, w.op)
	if err != nil {
		if ctx.Err() == nil {
			w.client.logger.Warn("graphql watch fetch failed",
				zap.String("operation", w.op.name()),
				zap.Error(err),
			)
		}
		return WatchEvent{Err: fmt.Errorf("graphql operation %q: %w", w.op.name(), err)}
	}

	opts := w.opts
	opts.FetchPolicy = policy
	result, err := w.client.applyResult(w.op, opts, linkResult)

	var operationErr *OperationError
	if errors.As(err, &operationErr) {
		return WatchEvent{Err: err}
	}
	return WatchEvent{Data: result.data, Errors: result.errors}
}

// emit skips results identical to the last one delivered.
func (w *watcher) emit(ctx context.Context, event WatchEvent) bool {
	if event.Err == nil && len(event.Errors) == 0 {
		canonical := canonicalJSON(event.Data)
		if w.last != nil && bytes.Equal(canonical, w.last) {
			return true
		}
		w.last = canonical
	}

	select {
	case w.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// canonicalJSON re-encodes data with sorted keys so cache and network payloads compare equal.
func canonicalJSON(data json.RawMessage) json.RawMessage {
	var decoded any
	if err := decodeJSON(data, &decoded); err != nil {
		return data
	}
	encoded, err := json.Marshal(decoded)
	if err != nil {
		return data
	}
	return encoded
}
