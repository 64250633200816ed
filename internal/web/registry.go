package web

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"blogcms/framework"
	"blogcms/framework/router"
	"blogcms/internal/deployment"
	"blogcms/internal/web/appcore"
	"blogcms/internal/web/resolvers"
)

type paramShape int

const (
	noParams paramShape = iota
	oneParam
	noneOrOneParam
)

type componentFactory struct {
	shape paramShape
	build func(binding resolvers.Binding) (framework.RouteHandler[*appcore.Context], error)
}

var componentRegistry = map[string]componentFactory{
	deployment.HomeView:         {shape: noParams, build: resolvers.Home},
	deployment.BlogDetail:       {shape: oneParam, build: resolvers.BlogDetail},
	deployment.BlogCreateUpdate: {shape: noneOrOneParam, build: resolvers.BlogCreateUpdate},
	deployment.BlogCreate:       {shape: noParams, build: resolvers.BlogCreate},
	deployment.BlogUpdate:       {shape: oneParam, build: resolvers.BlogUpdate},
}

func (f componentFactory) accepts(params int) bool {
	switch f.shape {
	case noParams:
		return params == 0
	case oneParam:
		return params == 1
	default:
		return params <= 1
	}
}

// routeHandlers builds one handler per route. Lazy routes construct their component on the
// first request that matches them.
func routeHandlers(table *router.Table) ([]framework.RouteHandler[*appcore.Context], []*lazyHandler, error) {
	routes := table.Routes()
	handlers := make([]framework.RouteHandler[*appcore.Context], 0, len(routes))
	lazy := make([]*lazyHandler, 0, len(routes))

	for _, route := range routes {
		factory, ok := componentRegistry[route.Component]
		if !ok {
			return nil, nil, fmt.Errorf("route %q: unknown component %q", route.Name, route.Component)
		}
		if params := len(table.ParamNames(route.Name)); !factory.accepts(params) {
			return nil, nil, fmt.Errorf("route %q: component %q cannot be mounted on %q", route.Name, route.Component, route.Path)
		}

		handler := &lazyHandler{
			binding: resolvers.Binding{Route: route, Table: table},
			build:   factory.build,
		}
		if !route.Lazy {
			if err := handler.load(); err != nil {
				return nil, nil, fmt.Errorf("route %q: %w", route.Name, err)
			}
		}

		handlers = append(handlers, handler)
		lazy = append(lazy, handler)
	}

	return handlers, lazy, nil
}

type lazyHandler struct {
	binding resolvers.Binding
	build   func(binding resolvers.Binding) (framework.RouteHandler[*appcore.Context], error)

	once    sync.Once
	built   atomic.Bool
	handler framework.RouteHandler[*appcore.Context]
	err     error
}

func (h *lazyHandler) load() error {
	h.once.Do(func() {
		h.handler, h.err = h.build(h.binding)
		if h.err == nil && h.handler == nil {
			h.err = fmt.Errorf("component %q built no handler", h.binding.Route.Component)
		}
		h.built.Store(h.err == nil)
	})
	return h.err
}

func (h *lazyHandler) loaded() bool {
	return h.built.Load()
}

// claims reports whether path addresses this route, directly or through its live stream.
func (h *lazyHandler) claims(path string) bool {
	if h.owns(path) {
		return true
	}
	page, ok := strings.CutSuffix(path, "/live")
	return ok && h.owns(page)
}

func (h *lazyHandler) owns(path string) bool {
	match, ok := h.binding.Table.Match(path)
	return ok && match.Route.Name == h.binding.Route.Name
}

// handlerFor returns the built component, or reports whether a build failure was answered.
func (h *lazyHandler) handlerFor(
	runtime framework.RuntimeContext[*appcore.Context],
	w http.ResponseWriter,
	r *http.Request,
) (framework.RouteHandler[*appcore.Context], bool) {
	if !h.claims(r.URL.Path) {
		return nil, false
	}
	if err := h.load(); err != nil {
		runtime.RespondServerError(w, fmt.Errorf("load component %q: %w", h.binding.Route.Component, err))
		return nil, true
	}
	return h.handler, false
}

func (h *lazyHandler) TryServeLive(
	runtime framework.RuntimeContext[*appcore.Context],
	w http.ResponseWriter,
	r *http.Request,
) bool {
	handler, served := h.handlerFor(runtime, w, r)
	if handler == nil {
		return served
	}
	return handler.TryServeLive(runtime, w, r)
}

func (h *lazyHandler) TryServePage(
	runtime framework.RuntimeContext[*appcore.Context],
	w http.ResponseWriter,
	r *http.Request,
) bool {
	handler, served := h.handlerFor(runtime, w, r)
	if handler == nil {
		return served
	}
	return handler.TryServePage(runtime, w, r)
}
