package httpserver

import (
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"blogcms/framework"
	"blogcms/framework/engine"
	"blogcms/framework/requestid"
	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"
)

const (
	defaultHTMLCachePolicy    = "private, no-cache"
	defaultNoStorePolicy      = "no-store"
	defaultStaticCachePolicy  = "public, max-age=3600"
	defaultHealthPath         = "/healthz"
	defaultHealthBody         = "ok"
	defaultMetricsPath        = "/metrics"
	defaultStaticPrefix       = "/static/"
	partialRequestHeader      = "Datastar-Request"
	liveNavigationMarkerKey   = "__live"
	liveNavigationMarkerValue = "navigation"
)

type StaticMount struct {
	URLPrefix string
	Dir       string
}

type CachePolicies struct {
	HTML           string
	Live           string
	LiveNavigation string
	Static         string
	Health         string
	Error          string
}

func DefaultCachePolicies() CachePolicies {
	return CachePolicies{
		HTML:   defaultHTMLCachePolicy,
		Live:   defaultNoStorePolicy,
		Static: defaultStaticCachePolicy,
		Health: defaultNoStorePolicy,
		Error:  defaultNoStorePolicy,
	}
}

type Config[C interface{}] struct {
	AppContext C
	Handlers   []framework.RouteHandler[C]

	// BasePath is stripped from request paths before routing, e.g. "/cms".
	BasePath string
	Static   StaticMount

	CachePolicies CachePolicies

	IsNotFoundError func(err error) bool
	NotFoundPage    func(notFoundContext framework.NotFoundContext) templ.Component

	// LiveDone ends open live streams when closed, typically from http.Server.RegisterOnShutdown.
	LiveDone <-chan struct{}

	Logger *zap.Logger
	// Metrics is served on MetricsPath and receives the HTTP request collectors when set.
	Metrics     *prometheus.Registry
	MetricsPath string

	HealthPath string
	HealthBody string
}

type server[C interface{}] struct {
	cachePolicies CachePolicies
	notFoundPage  func(notFoundContext framework.NotFoundContext) templ.Component
	logger        *zap.Logger
	healthPath    string
	healthBody    string

	routeEngine *engine.Engine[C]
}

func New[C interface{}](cfg Config[C]) (http.Handler, error) {
	cachePolicies := withDefaultPolicies(cfg.CachePolicies)
	healthBody := strings.TrimSpace(cfg.HealthBody)
	if healthBody == "" {
		healthBody = defaultHealthBody
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &server[C]{
		cachePolicies: cachePolicies,
		notFoundPage:  cfg.NotFoundPage,
		logger:        logger,
		healthPath:    normalizePath(cfg.HealthPath, defaultHealthPath),
		healthBody:    healthBody,
	}

	routeEngine, err := engine.New(engine.Config[C]{
		AppContext:             cfg.AppContext,
		Handlers:               cfg.Handlers,
		RenderPage:             srv.renderPage,
		StreamLive:             srv.streamLive,
		IsPartialRequest:       isPartialRequest,
		IsNotFoundError:        cfg.IsNotFoundError,
		HandleNotFound:         srv.handleNotFound,
		HandleMethodNotAllowed: srv.handleMethodNotAllowed,
		HandleServerError:      srv.handleServerError,
		ReportError:            srv.reportError,
		LiveDone:               cfg.LiveDone,
	})
	if err != nil {
		return nil, fmt.Errorf("create route engine: %w", err)
	}
	srv.routeEngine = routeEngine

	mux := http.NewServeMux()
	if strings.TrimSpace(cfg.Static.Dir) != "" {
		prefix := normalizeStaticPrefix(cfg.Static.URLPrefix)
		fs := http.FileServer(http.Dir(cfg.Static.Dir))
		mux.Handle(prefix, withCachePolicy(cachePolicies.Static, http.StripPrefix(prefix, fs)))
	}

	var metrics *httpMetrics
	if cfg.Metrics != nil {
		metrics, err = newHTTPMetrics(cfg.Metrics)
		if err != nil {
			return nil, err
		}
		mux.Handle(normalizePath(cfg.MetricsPath, defaultMetricsPath), withCachePolicy(
			cachePolicies.Health,
			promhttp.HandlerFor(cfg.Metrics, promhttp.HandlerOpts{Registry: cfg.Metrics}),
		))
	}

	mux.HandleFunc("/", srv.handleRoute)

	var handler http.Handler = mux
	if basePath := normalizeBasePath(cfg.BasePath); basePath != "" {
		handler = stripBasePath(basePath, handler, srv)
	}
	return withRequestLogging(logger, metrics, handler), nil
}

func (s *server[C]) handleRoute(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == s.healthPath {
		s.handleHealth(w)
		return
	}

	if s.routeEngine.ServeRoute(w, r) {
		return
	}

	s.handleNotFound(w, r, framework.NotFoundContext{
		RequestPath: r.URL.Path,
		Source:      framework.NotFoundSourceUnmatchedRoute,
	})
}

func isPartialRequest(r *http.Request) bool {
	return r != nil && strings.EqualFold(strings.TrimSpace(r.Header.Get(partialRequestHeader)), "true")
}

func (s *server[C]) renderPage(r *http.Request, w http.ResponseWriter, component templ.Component, statusCode int) error {
	policy := s.cachePolicies.HTML
	if isPartialRequest(r) {
		policy = s.liveCachePolicyFor(r)
	}
	w.Header().Add("Vary", partialRequestHeader)
	return s.renderPageWithStatus(r, w, component, statusCode, policy)
}

func (s *server[C]) renderPageWithStatus(
	r *http.Request,
	w http.ResponseWriter,
	component templ.Component,
	statusCode int,
	cachePolicy string,
) error {
	setCachePolicy(w, cachePolicy)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if statusCode > 0 {
		w.WriteHeader(statusCode)
	}
	return component.Render(r.Context(), w)
}

// streamLive keeps one SSE response open and patches selectorID with every component.
func (s *server[C]) streamLive(
	w http.ResponseWriter,
	r *http.Request,
	selectorID string,
	patches iter.Seq[templ.Component],
) error {
	setCachePolicy(w, s.liveCachePolicyFor(r))
	sse := datastar.NewSSE(w, r)
	for component := range patches {
		if err := sse.PatchElementTempl(component, datastar.WithSelectorID(selectorID)); err != nil {
			return err
		}
	}
	return nil
}

func (s *server[C]) liveCachePolicyFor(r *http.Request) string {
	if r != nil &&
		strings.TrimSpace(r.URL.Query().Get(liveNavigationMarkerKey)) == liveNavigationMarkerValue &&
		strings.TrimSpace(s.cachePolicies.LiveNavigation) != "" {
		return s.cachePolicies.LiveNavigation
	}

	return s.cachePolicies.Live
}

func (s *server[C]) handleNotFound(
	w http.ResponseWriter,
	r *http.Request,
	notFoundContext framework.NotFoundContext,
) {
	s.logger.Debug("not found",
		zap.String("path", notFoundContext.RequestPath),
		zap.String("route", notFoundContext.MatchedRoutePattern),
		zap.String("source", string(notFoundContext.Source)),
	)

	if s.notFoundPage == nil {
		setCachePolicy(w, s.cachePolicies.Error)
		http.NotFound(w, r)
		return
	}

	component := s.notFoundPage(notFoundContext)
	if component == nil {
		setCachePolicy(w, s.cachePolicies.Error)
		http.NotFound(w, r)
		return
	}
	if err := s.renderPageWithStatus(r, w, component, http.StatusNotFound, s.cachePolicies.Error); err != nil {
		s.reportError(fmt.Errorf("render not found page: %w", err))
	}
}

func (s *server[C]) handleMethodNotAllowed(w http.ResponseWriter, allowed []string) {
	setCachePolicy(w, s.cachePolicies.Error)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (s *server[C]) handleServerError(w http.ResponseWriter, err error) {
	setCachePolicy(w, s.cachePolicies.Error)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	s.reportError(err)
}

func (s *server[C]) reportError(err error) {
	s.logger.Error("request failed", zap.Error(err))
}

func (s *server[C]) handleHealth(w http.ResponseWriter) {
	setCachePolicy(w, s.cachePolicies.Health)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.healthBody))
}

// stripBasePath routes only paths under basePath; anything else gets the not-found page.
func stripBasePath[C interface{}](basePath string, next http.Handler, srv *server[C]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest, ok := strings.CutPrefix(r.URL.Path, basePath)
		if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
			srv.handleNotFound(w, r, framework.NotFoundContext{
				RequestPath: r.URL.Path,
				Source:      framework.NotFoundSourceUnmatchedRoute,
			})
			return
		}
		if rest == "" {
			rest = "/"
		}

		stripped := r.Clone(r.Context())
		stripped.URL.Path = rest
		stripped.URL.RawPath = ""
		next.ServeHTTP(w, stripped)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withRequestLogging assigns a request id, logs one access line and records HTTP metrics.
func withRequestLogging(logger *zap.Logger, metrics *httpMetrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		id := requestid.Sanitize(r.Header.Get(requestid.Header))
		if id == "" {
			id = requestid.New()
		}
		w.Header().Set(requestid.Header, id)
		r = r.WithContext(requestid.WithID(r.Context(), id))

		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(started)
		metrics.observe(r.Method, status, elapsed)

		logger.Info("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", recorder.bytes),
			zap.Duration("duration", elapsed),
		)
	})
}

func normalizeStaticPrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return defaultStaticPrefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

func normalizePath(path string, fallback string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return fallback
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// normalizeBasePath returns "" for the root, otherwise a path with a leading and no trailing slash.
func normalizeBasePath(basePath string) string {
	basePath = strings.Trim(strings.TrimSpace(basePath), "/")
	if basePath == "" {
		return ""
	}
	return "/" + basePath
}

func withDefaultPolicies(policies CachePolicies) CachePolicies {
	defaults := DefaultCachePolicies()
	if strings.TrimSpace(policies.HTML) == "" {
		policies.HTML = defaults.HTML
	}
	if strings.TrimSpace(policies.Live) == "" {
		policies.Live = defaults.Live
	}
	if strings.TrimSpace(policies.Static) == "" {
		policies.Static = defaults.Static
	}
	if strings.TrimSpace(policies.Health) == "" {
		policies.Health = defaults.Health
	}
	if strings.TrimSpace(policies.Error) == "" {
		policies.Error = defaults.Error
	}
	return policies
}

func setCachePolicy(w http.ResponseWriter, policy string) {
	policy = strings.TrimSpace(policy)
	if policy == "" {
		return
	}
	w.Header().Set("Cache-Control", policy)
}

func withCachePolicy(policy string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCachePolicy(w, policy)
		next.ServeHTTP(w, r)
	})
}
