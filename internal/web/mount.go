package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"blogcms/framework"
	"blogcms/framework/httpserver"
	"blogcms/framework/router"
	"blogcms/internal/blogs"
	"blogcms/internal/deployment"
	"blogcms/internal/gql"
	"blogcms/internal/web/appcore"
	"blogcms/internal/web/components"
	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type MountConfig struct {
	Profile deployment.Profile
	// Client is the root client of the application context. Each visitor gets a fork of it
	// with its own cache.
	Client   *gql.Client
	Visitors VisitorConfig

	BasePath      string
	RootURL       string
	StaticDir     string
	PollInterval  time.Duration
	CachePolicies httpserver.CachePolicies
	// LiveDone ends open live streams when closed.
	LiveDone <-chan struct{}

	Logger  *zap.Logger
	Metrics *prometheus.Registry
}

// App is one mounted deployment: the application root plus its HTTP surface.
type App struct {
	handler  http.Handler
	appCtx   *appcore.Context
	routes   *router.Table
	handlers map[string]*lazyHandler
	visitors *visitorCaches
}

// Mount builds the application root once and wires every route of the profile to it.
func Mount(cfg MountConfig) (*App, error) {
	if cfg.Client == nil {
		return nil, errors.New("mount: graphql client is required")
	}

	table, err := cfg.Profile.Table()
	if err != nil {
		return nil, err
	}

	appCtx := appcore.NewContext(appcore.ContextConfig{
		Deployment: cfg.Profile.Name,
		Client:     cfg.Client,
		Routes:     table,
		BasePath:   cfg.BasePath,
		Blogs: blogs.Options{
			RootURL:      cfg.RootURL,
			PollInterval: cfg.PollInterval,
		},
	})

	handlers, lazy, err := routeHandlers(table)
	if err != nil {
		return nil, fmt.Errorf("mount %q: %w", cfg.Profile.Name, err)
	}

	handler, err := httpserver.New(httpserver.Config[*appcore.Context]{
		AppContext: appCtx,
		Handlers:   handlers,
		BasePath:   cfg.BasePath,
		Static: httpserver.StaticMount{
			Dir: cfg.StaticDir,
		},
		CachePolicies:   cfg.CachePolicies,
		IsNotFoundError: appcore.IsNotFoundError,
		NotFoundPage:    notFoundPage(appCtx),
		LiveDone:        cfg.LiveDone,
		Logger:          cfg.Logger,
		Metrics:         cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("mount %q: %w", cfg.Profile.Name, err)
	}

	var registerer prometheus.Registerer
	if cfg.Metrics != nil {
		registerer = cfg.Metrics
	}
	visitors, err := newVisitorCaches(cfg.Client, cfg.Visitors, cfg.BasePath, registerer)
	if err != nil {
		return nil, fmt.Errorf("mount %q: %w", cfg.Profile.Name, err)
	}

	byName := make(map[string]*lazyHandler, len(lazy))
	for _, item := range lazy {
		byName[item.binding.Route.Name] = item
	}

	return &App{
		handler:  visitors.wrap(handler),
		appCtx:   appCtx,
		routes:   table,
		handlers: byName,
		visitors: visitors,
	}, nil
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) Context() *appcore.Context {
	return a.appCtx
}

func (a *App) Routes() *router.Table {
	return a.routes
}

// Loaded reports whether the component of the named route has been constructed.
func (a *App) Loaded(routeName string) bool {
	handler, ok := a.handlers[routeName]
	return ok && handler.loaded()
}

func notFoundPage(appCtx *appcore.Context) func(notFoundContext framework.NotFoundContext) templ.Component {
	layout := components.RootLayout[appcore.NotFoundView]()
	return func(notFoundContext framework.NotFoundContext) templ.Component {
		view := appCtx.NotFoundPage(notFoundContext.RequestPath)
		return layout(view, components.NotFound(view))
	}
}
