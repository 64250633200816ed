package engine

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"strings"

	"blogcms/framework"
	"github.com/a-h/templ"
)

type Config[C interface{}] struct {
	AppContext C
	Handlers   []framework.RouteHandler[C]

	RenderPage func(r *http.Request, w http.ResponseWriter, component templ.Component, statusCode int) error
	StreamLive func(w http.ResponseWriter, r *http.Request, selectorID string, patches iter.Seq[templ.Component]) error

	IsPartialRequest func(r *http.Request) bool
	IsNotFoundError  func(err error) bool

	HandleNotFound         func(w http.ResponseWriter, r *http.Request, notFoundContext framework.NotFoundContext)
	HandleMethodNotAllowed func(w http.ResponseWriter, allowed []string)
	HandleServerError      func(w http.ResponseWriter, err error)
	ReportError            func(err error)

	// LiveDone ends every open live stream when closed. Page requests are not affected.
	LiveDone <-chan struct{}
}

// Engine dispatches requests to route handlers, live streams first.
type Engine[C interface{}] struct {
	appContext C
	handlers   []framework.RouteHandler[C]

	renderPage func(r *http.Request, w http.ResponseWriter, component templ.Component, statusCode int) error
	streamLive func(w http.ResponseWriter, r *http.Request, selectorID string, patches iter.Seq[templ.Component]) error

	isPartial        func(r *http.Request) bool
	isNotFound       func(err error) bool
	notFound         func(w http.ResponseWriter, r *http.Request, notFoundContext framework.NotFoundContext)
	methodNotAllowed func(w http.ResponseWriter, allowed []string)
	serverError      func(w http.ResponseWriter, err error)
	reportError      func(err error)
	liveDone         <-chan struct{}
}

func New[C interface{}](cfg Config[C]) (*Engine[C], error) {
	if cfg.RenderPage == nil {
		return nil, errors.New("render page callback is required")
	}

	streamLive := cfg.StreamLive
	if streamLive == nil {
		streamLive = func(w http.ResponseWriter, _ *http.Request, _ string, _ iter.Seq[templ.Component]) error {
			http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
			return nil
		}
	}

	isPartial := cfg.IsPartialRequest
	if isPartial == nil {
		isPartial = func(*http.Request) bool { return false }
	}

	isNotFound := cfg.IsNotFoundError
	if isNotFound == nil {
		isNotFound = func(error) bool { return false }
	}

	notFound := cfg.HandleNotFound
	if notFound == nil {
		notFound = func(w http.ResponseWriter, r *http.Request, _ framework.NotFoundContext) {
			http.NotFound(w, r)
		}
	}

	methodNotAllowed := cfg.HandleMethodNotAllowed
	if methodNotAllowed == nil {
		methodNotAllowed = func(w http.ResponseWriter, allowed []string) {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	}

	serverError := cfg.HandleServerError
	if serverError == nil {
		serverError = func(w http.ResponseWriter, _ error) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}

	reportError := cfg.ReportError
	if reportError == nil {
		reportError = func(error) {}
	}

	return &Engine[C]{
		appContext:       cfg.AppContext,
		handlers:         cfg.Handlers,
		renderPage:       cfg.RenderPage,
		streamLive:       streamLive,
		isPartial:        isPartial,
		isNotFound:       isNotFound,
		notFound:         notFound,
		methodNotAllowed: methodNotAllowed,
		serverError:      serverError,
		reportError:      reportError,
		liveDone:         cfg.LiveDone,
	}, nil
}

func (engine *Engine[C]) ServeRoute(w http.ResponseWriter, r *http.Request) bool {
	for _, handler := range engine.handlers {
		if handler.TryServeLive(engine, w, r) {
			return true
		}
	}

	for _, handler := range engine.handlers {
		if handler.TryServePage(engine, w, r) {
			return true
		}
	}

	return false
}

func (engine *Engine[C]) AppContext() C {
	return engine.appContext
}

func (engine *Engine[C]) IsPartialRequest(r *http.Request) bool {
	return engine.isPartial(r)
}

func (engine *Engine[C]) RenderPage(
	r *http.Request,
	w http.ResponseWriter,
	component templ.Component,
	statusCode int,
) error {
	return engine.renderPage(r, w, component, statusCode)
}

func (engine *Engine[C]) StreamLive(
	w http.ResponseWriter,
	r *http.Request,
	selectorID string,
	patches iter.Seq[templ.Component],
) error {
	return engine.streamLive(w, r, selectorID, patches)
}

// LiveContext is the context of one live stream: it ends with the request or with LiveDone.
func (engine *Engine[C]) LiveContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(r.Context())
	if engine.liveDone == nil {
		return ctx, cancel
	}

	go func() {
		select {
		case <-engine.liveDone:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func (engine *Engine[C]) Redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (engine *Engine[C]) IsNotFound(err error) bool {
	return engine.isNotFound(err)
}

func (engine *Engine[C]) RespondNotFound(
	w http.ResponseWriter,
	r *http.Request,
	notFoundContext framework.NotFoundContext,
) {
	engine.notFound(w, r, notFoundContext)
}

func (engine *Engine[C]) RespondMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	engine.methodNotAllowed(w, allowed)
}

func (engine *Engine[C]) RespondServerError(w http.ResponseWriter, err error) {
	engine.serverError(w, err)
}

func (engine *Engine[C]) ReportError(err error) {
	engine.reportError(err)
}
