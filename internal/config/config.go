package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"blogcms/internal/gql"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Deployment selects the endpoint, default policies and route table: "api" or "library".
	Deployment string `env:"BLOG_DEPLOYMENT" envDefault:"api"`
	ListenAddr string `env:"BLOG_LISTEN_ADDR" envDefault:":8080"`
	BasePath   string `env:"BLOG_BASE_PATH"`
	StaticDir  string `env:"BLOG_STATIC_DIR"`

	RootURL string `env:"BLOG_ROOT_URL"`

	// GraphQLEndpoint overrides the endpoint of the selected deployment.
	GraphQLEndpoint string        `env:"BLOG_GRAPHQL_ENDPOINT"`
	GraphQLTimeout  time.Duration `env:"BLOG_GRAPHQL_TIMEOUT" envDefault:"0s"`

	LivePollInterval time.Duration `env:"BLOG_LIVE_POLL_INTERVAL" envDefault:"0s"`

	LogLevel string `env:"BLOG_LOG_LEVEL" envDefault:"info"`

	OTelEndpoint string `env:"BLOG_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"BLOG_OTEL_ENABLED" envDefault:"true"`

	CacheHTML           string `env:"BLOG_CACHE_HTML"`
	CacheLiveNavigation string `env:"BLOG_CACHE_LIVE_NAV"`

	// VisitorIdleTimeout drops a visitor's GraphQL cache after this long without requests.
	VisitorIdleTimeout time.Duration `env:"BLOG_VISITOR_IDLE_TIMEOUT" envDefault:"30m"`
	VisitorLimit       int           `env:"BLOG_VISITOR_LIMIT" envDefault:"1000"`

	// Policy overrides replace the matching deployment default when set.
	WatchFetchPolicy  gql.FetchPolicy `env:"BLOG_WATCH_FETCH_POLICY"`
	WatchErrorPolicy  gql.ErrorPolicy `env:"BLOG_WATCH_ERROR_POLICY"`
	QueryFetchPolicy  gql.FetchPolicy `env:"BLOG_QUERY_FETCH_POLICY"`
	QueryErrorPolicy  gql.ErrorPolicy `env:"BLOG_QUERY_ERROR_POLICY"`
	MutateErrorPolicy gql.ErrorPolicy `env:"BLOG_MUTATE_ERROR_POLICY"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{FuncMap: policyParsers()}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalize()
}

// LoadFrom parses an explicit environment instead of the process one.
func LoadFrom(environment map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{
		Environment: environment,
		FuncMap:     policyParsers(),
	}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalize()
}

// PolicyOverrides returns the configured policies. Unset fields keep the deployment defaults.
func (c Config) PolicyOverrides() gql.DefaultOptions {
	return gql.DefaultOptions{
		WatchQuery: gql.Options{FetchPolicy: c.WatchFetchPolicy, ErrorPolicy: c.WatchErrorPolicy},
		Query:      gql.Options{FetchPolicy: c.QueryFetchPolicy, ErrorPolicy: c.QueryErrorPolicy},
		Mutate:     gql.Options{ErrorPolicy: c.MutateErrorPolicy},
	}
}

func policyParsers() map[reflect.Type]env.ParserFunc {
	return map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(gql.FetchPolicyUnset): func(raw string) (interface{}, error) {
			return gql.ParseFetchPolicy(raw)
		},
		reflect.TypeOf(gql.ErrorPolicyUnset): func(raw string) (interface{}, error) {
			return gql.ParseErrorPolicy(raw)
		},
	}
}

func (c Config) normalize() (Config, error) {
	c.Deployment = strings.ToLower(strings.TrimSpace(c.Deployment))
	c.BasePath = strings.TrimSpace(c.BasePath)
	c.StaticDir = strings.TrimSpace(c.StaticDir)
	c.RootURL = strings.TrimSpace(c.RootURL)
	c.GraphQLEndpoint = strings.TrimSpace(c.GraphQLEndpoint)
	c.CacheHTML = strings.TrimSpace(c.CacheHTML)
	c.CacheLiveNavigation = strings.TrimSpace(c.CacheLiveNavigation)

	if c.GraphQLTimeout < 0 {
		return Config{}, fmt.Errorf("BLOG_GRAPHQL_TIMEOUT must not be negative, got %s", c.GraphQLTimeout)
	}
	if c.LivePollInterval < 0 {
		return Config{}, fmt.Errorf("BLOG_LIVE_POLL_INTERVAL must not be negative, got %s", c.LivePollInterval)
	}
	if c.VisitorIdleTimeout <= 0 {
		return Config{}, fmt.Errorf("BLOG_VISITOR_IDLE_TIMEOUT must be positive, got %s", c.VisitorIdleTimeout)
	}
	if c.VisitorLimit <= 0 {
		return Config{}, fmt.Errorf("BLOG_VISITOR_LIMIT must be positive, got %d", c.VisitorLimit)
	}

	return c, nil
}
