package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogcms/framework/httpserver"
	"blogcms/internal/config"
	"blogcms/internal/deployment"
	"blogcms/internal/gql"
	"blogcms/internal/logging"
	"blogcms/internal/telemetry"
	"blogcms/internal/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const (
	serviceName     = "blogcms"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "blogcms: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: serviceName,
		Endpoint:    cfg.OTelEndpoint,
		Enabled:     cfg.OTelEnabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	profile, err := deployment.Lookup(cfg.Deployment)
	if err != nil {
		return err
	}
	profile, err = profile.WithEndpoint(cfg.GraphQLEndpoint)
	if err != nil {
		return err
	}
	profile = profile.WithPolicies(cfg.PolicyOverrides())

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	link, err := gql.NewHTTPLink(gql.HTTPLinkConfig{
		Endpoint:  profile.Endpoint,
		Timeout:   cfg.GraphQLTimeout,
		UserAgent: serviceName,
	})
	if err != nil {
		return err
	}

	client, err := gql.NewClient(gql.ClientConfig{
		Link:     link,
		Cache:    gql.NewCache(gql.CacheConfig{}),
		Defaults: profile.Defaults,
		Logger:   logging.WithModule(logger, "gql"),
		Metrics:  gql.NewMetrics(registry),
	})
	if err != nil {
		return fmt.Errorf("create graphql client: %w", err)
	}
	defaults := client.Defaults()
	logger.Info("graphql client ready",
		zap.String("endpoint", link.Endpoint()),
		zap.String("watch_fetch_policy", string(defaults.WatchQuery.FetchPolicy)),
		zap.String("watch_error_policy", string(defaults.WatchQuery.ErrorPolicy)),
		zap.String("query_fetch_policy", string(defaults.Query.FetchPolicy)),
		zap.String("query_error_policy", string(defaults.Query.ErrorPolicy)),
		zap.String("mutate_error_policy", string(defaults.Mutate.ErrorPolicy)),
	)

	cachePolicies := httpserver.DefaultCachePolicies()
	if cfg.CacheHTML != "" {
		cachePolicies.HTML = cfg.CacheHTML
	}
	if cfg.CacheLiveNavigation != "" {
		cachePolicies.LiveNavigation = cfg.CacheLiveNavigation
	}

	liveDone := make(chan struct{})
	visitors := web.VisitorConfig{
		IdleTimeout: cfg.VisitorIdleTimeout,
		Limit:       cfg.VisitorLimit,
	}
	app, err := web.Mount(web.MountConfig{
		Profile:       profile,
		Client:        client,
		Visitors:      visitors,
		BasePath:      cfg.BasePath,
		RootURL:       cfg.RootURL,
		StaticDir:     cfg.StaticDir,
		PollInterval:  cfg.LivePollInterval,
		CachePolicies: cachePolicies,
		Logger:        logging.WithModule(logger, "http"),
		Metrics:       registry,
		LiveDone:      liveDone,
	})
	if err != nil {
		return fmt.Errorf("handler setup failed: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown waits for idle connections, so open live streams are told to finish.
	server.RegisterOnShutdown(func() { close(liveDone) })

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("blog server listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("deployment", profile.Name),
			zap.Int("routes", len(app.Routes().Routes())),
		)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
