package gql

import (
	"context"
	"fmt"
	"strings"
)

// FetchPolicy decides whether an operation may be answered from the cache.
type FetchPolicy string

const (
	FetchPolicyUnset           FetchPolicy = ""
	FetchPolicyCacheFirst      FetchPolicy = "cache-first"
	FetchPolicyCacheAndNetwork FetchPolicy = "cache-and-network"
	FetchPolicyNetworkOnly     FetchPolicy = "network-only"
	FetchPolicyCacheOnly       FetchPolicy = "cache-only"
	FetchPolicyNoCache         FetchPolicy = "no-cache"
)

// ErrorPolicy decides how GraphQL errors in an otherwise successful response reach the caller.
type ErrorPolicy string

const (
	ErrorPolicyUnset  ErrorPolicy = ""
	ErrorPolicyNone   ErrorPolicy = "none"
	ErrorPolicyIgnore ErrorPolicy = "ignore"
	ErrorPolicyAll    ErrorPolicy = "all"
)

func ParseFetchPolicy(raw string) (FetchPolicy, error) {
	switch policy := FetchPolicy(strings.ToLower(strings.TrimSpace(raw))); policy {
	case FetchPolicyUnset,
		FetchPolicyCacheFirst,
		FetchPolicyCacheAndNetwork,
		FetchPolicyNetworkOnly,
		FetchPolicyCacheOnly,
		FetchPolicyNoCache:
		return policy, nil
	default:
		return FetchPolicyUnset, fmt.Errorf("unknown fetch policy %q", raw)
	}
}

func ParseErrorPolicy(raw string) (ErrorPolicy, error) {
	switch policy := ErrorPolicy(strings.ToLower(strings.TrimSpace(raw))); policy {
	case ErrorPolicyUnset, ErrorPolicyNone, ErrorPolicyIgnore, ErrorPolicyAll:
		return policy, nil
	default:
		return ErrorPolicyUnset, fmt.Errorf("unknown error policy %q", raw)
	}
}

// readsCache reports whether the policy may satisfy a request without the network.
func (p FetchPolicy) readsCache() bool {
	switch p {
	case FetchPolicyCacheFirst, FetchPolicyCacheAndNetwork, FetchPolicyCacheOnly:
		return true
	default:
		return false
	}
}

func (p FetchPolicy) writesCache() bool {
	return p != FetchPolicyNoCache
}

// Options are the request policies applied to one operation.
type Options struct {
	FetchPolicy FetchPolicy
	ErrorPolicy ErrorPolicy
}

// Merge returns o with every unset field taken from fallback.
func (o Options) Merge(fallback Options) Options {
	if o.FetchPolicy == FetchPolicyUnset {
		o.FetchPolicy = fallback.FetchPolicy
	}
	if o.ErrorPolicy == ErrorPolicyUnset {
		o.ErrorPolicy = fallback.ErrorPolicy
	}
	return o
}

func (o Options) withBuiltinDefaults() Options {
	return o.Merge(Options{
		FetchPolicy: FetchPolicyCacheFirst,
		ErrorPolicy: ErrorPolicyNone,
	})
}

// DefaultOptions holds the client-wide defaults per operation kind.
type DefaultOptions struct {
	WatchQuery Options
	Query      Options
	Mutate     Options
}

type optionsContextKey struct{}

// WithOptions attaches per-call overrides to ctx. Unset fields fall back to the client defaults.
func WithOptions(ctx context.Context, opts Options) context.Context {
	return context.WithValue(ctx, optionsContextKey{}, opts)
}

func optionsFromContext(ctx context.Context) Options {
	if ctx == nil {
		return Options{}
	}
	opts, _ := ctx.Value(optionsContextKey{}).(Options)
	return opts
}
