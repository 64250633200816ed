package framework

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"github.com/a-h/templ"
)

type EmptyParams struct{}

// IDParams carries the single entity identifier bound by a route, whatever the parameter is named.
type IDParams struct {
	Name string
	ID   string
}

type ParamsParser[P interface{}] func(path string) (P, bool)

type PageLoader[C interface{}, P interface{}, VM interface{}] func(
	ctx context.Context,
	appCtx C,
	r *http.Request,
	params P,
) (VM, error)

// ActionResult is the outcome of a form submission. A non-empty RedirectURL answers with
// 303 See Other; otherwise View is rendered with StatusCode.
type ActionResult[VM interface{}] struct {
	RedirectURL string
	View        VM
	StatusCode  int
}

type PageAction[C interface{}, P interface{}, VM interface{}] func(
	ctx context.Context,
	appCtx C,
	r *http.Request,
	params P,
) (ActionResult[VM], error)

type PageRenderer[VM interface{}] func(view VM) templ.Component

type LayoutRenderer[VM interface{}] func(view VM, child templ.Component) templ.Component

type PageModule[C interface{}, P interface{}, VM interface{}] struct {
	Pattern     string
	ParseParams ParamsParser[P]
	Load        PageLoader[C, P, VM]
	// Action handles POST. Pages without one answer POST with 405.
	Action  PageAction[C, P, VM]
	Render  PageRenderer[VM]
	Layouts []LayoutRenderer[VM]
}

type LiveSubscriber[C interface{}, P interface{}, VM interface{}] func(
	ctx context.Context,
	appCtx C,
	r *http.Request,
	params P,
) (<-chan VM, error)

// LiveModule streams re-rendered fragments over server-sent events until the channel closes.
type LiveModule[C interface{}, P interface{}, VM interface{}] struct {
	Pattern     string
	ParseParams ParamsParser[P]
	Subscribe   LiveSubscriber[C, P, VM]
	SelectorID  string
	Render      PageRenderer[VM]
}

type RuntimeContext[C interface{}] interface {
	AppContext() C
	IsPartialRequest(r *http.Request) bool
	RenderPage(r *http.Request, w http.ResponseWriter, component templ.Component, statusCode int) error
	StreamLive(w http.ResponseWriter, r *http.Request, selectorID string, patches iter.Seq[templ.Component]) error
	// LiveContext bounds one live subscription. It may end before the request does.
	LiveContext(r *http.Request) (context.Context, context.CancelFunc)
	Redirect(w http.ResponseWriter, r *http.Request, location string)
	IsNotFound(err error) bool
	RespondNotFound(w http.ResponseWriter, r *http.Request, notFoundContext NotFoundContext)
	RespondMethodNotAllowed(w http.ResponseWriter, allowed ...string)
	RespondServerError(w http.ResponseWriter, err error)
	// ReportError logs err when a response is already underway.
	ReportError(err error)
}

type NotFoundSource string

const (
	NotFoundSourcePageLoad       NotFoundSource = "page_load"
	NotFoundSourceLive           NotFoundSource = "live"
	NotFoundSourceUnmatchedRoute NotFoundSource = "unmatched_route"
)

type NotFoundContext struct {
	RequestPath         string
	MatchedRoutePattern string
	Source              NotFoundSource
}

type RouteHandler[C interface{}] interface {
	TryServeLive(runtime RuntimeContext[C], w http.ResponseWriter, r *http.Request) bool
	TryServePage(runtime RuntimeContext[C], w http.ResponseWriter, r *http.Request) bool
}

type PageOnlyRouteHandler[C interface{}, P interface{}, VM interface{}] struct {
	Page PageModule[C, P, VM]
}

func (h PageOnlyRouteHandler[C, P, VM]) TryServeLive(RuntimeContext[C], http.ResponseWriter, *http.Request) bool {
	return false
}

func (h PageOnlyRouteHandler[C, P, VM]) TryServePage(
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
) bool {
	return servePageModule(runtime, w, r, h.Page)
}

type LiveRouteHandler[C interface{}, P interface{}, VM interface{}, LVM interface{}] struct {
	Page PageModule[C, P, VM]
	Live LiveModule[C, P, LVM]
}

func (h LiveRouteHandler[C, P, VM, LVM]) TryServeLive(
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
) bool {
	return serveLiveModule(runtime, w, r, h.Live)
}

func (h LiveRouteHandler[C, P, VM, LVM]) TryServePage(
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
) bool {
	return servePageModule(runtime, w, r, h.Page)
}

func applyLayouts[VM interface{}](
	layouts []LayoutRenderer[VM],
	view VM,
	child templ.Component,
) templ.Component {
	wrapped := child
	for idx := len(layouts) - 1; idx >= 0; idx-- {
		wrapped = layouts[idx](view, wrapped)
	}
	return wrapped
}

func servePageModule[C interface{}, P interface{}, VM interface{}](
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	module PageModule[C, P, VM],
) bool {
	params, ok := module.ParseParams(r.URL.Path)
	if !ok {
		return false
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		view, err := module.Load(r.Context(), runtime.AppContext(), r, params)
		if err != nil {
			handleLoadError(runtime, w, r, err, module.Pattern, NotFoundSourcePageLoad)
			return true
		}
		renderView(runtime, w, r, module, view, 0)
	case http.MethodPost:
		if module.Action == nil {
			runtime.RespondMethodNotAllowed(w, http.MethodGet, http.MethodHead)
			return true
		}

		result, err := module.Action(r.Context(), runtime.AppContext(), r, params)
		if err != nil {
			handleLoadError(runtime, w, r, err, module.Pattern, NotFoundSourcePageLoad)
			return true
		}
		if result.RedirectURL != "" {
			runtime.Redirect(w, r, result.RedirectURL)
			return true
		}
		renderView(runtime, w, r, module, result.View, result.StatusCode)
	default:
		allowed := []string{http.MethodGet, http.MethodHead}
		if module.Action != nil {
			allowed = append(allowed, http.MethodPost)
		}
		runtime.RespondMethodNotAllowed(w, allowed...)
	}

	return true
}

func renderView[C interface{}, P interface{}, VM interface{}](
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	module PageModule[C, P, VM],
	view VM,
	statusCode int,
) {
	component := module.Render(view)
	if !runtime.IsPartialRequest(r) {
		component = applyLayouts(module.Layouts, view, component)
	}
	if err := runtime.RenderPage(r, w, component, statusCode); err != nil {
		runtime.RespondServerError(w, fmt.Errorf("render route %q: %w", module.Pattern, err))
	}
}

func serveLiveModule[C interface{}, P interface{}, VM interface{}](
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	module LiveModule[C, P, VM],
) bool {
	if module.ParseParams == nil || module.Subscribe == nil {
		return false
	}

	params, ok := module.ParseParams(r.URL.Path)
	if !ok {
		return false
	}
	if r.Method != http.MethodGet {
		runtime.RespondMethodNotAllowed(w, http.MethodGet)
		return true
	}

	ctx, cancel := runtime.LiveContext(r)
	defer cancel()

	updates, err := module.Subscribe(ctx, runtime.AppContext(), r, params)
	if err != nil {
		handleLoadError(runtime, w, r, err, module.Pattern, NotFoundSourceLive)
		return true
	}

	patches := func(yield func(templ.Component) bool) {
		for view := range updates {
			if !yield(module.Render(view)) {
				return
			}
		}
	}

	if err := runtime.StreamLive(w, r, module.SelectorID, patches); err != nil && ctx.Err() == nil {
		runtime.ReportError(fmt.Errorf("stream live route %q: %w", module.Pattern, err))
	}
	return true
}

func handleLoadError[C interface{}](
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	err error,
	routePattern string,
	source NotFoundSource,
) {
	if runtime.IsNotFound(err) {
		runtime.RespondNotFound(w, r, NotFoundContext{
			RequestPath:         r.URL.Path,
			MatchedRoutePattern: routePattern,
			Source:              source,
		})
		return
	}

	runtime.RespondServerError(w, fmt.Errorf("load route %q: %w", routePattern, err))
}
