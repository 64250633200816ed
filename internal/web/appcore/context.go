package appcore

import (
	"context"
	"errors"
	"strings"

	"blogcms/framework/router"
	"blogcms/internal/blogs"
	"blogcms/internal/deployment"
)

var errBlogServiceUnavailable = errors.New("blog service unavailable")

// Context is the application root shared by every page of one mounted deployment.
type Context struct {
	deployment string
	service    *blogs.Service
	client     blogs.Client
	blogOpts   blogs.Options
	routes     *router.Table
	basePath   string
}

type ContextConfig struct {
	Deployment string
	Client     blogs.Client
	Routes     *router.Table
	BasePath   string
	Blogs      blogs.Options
}

// NewContext builds the blog service around the one shared client. Blog links inside content
// resolve through the route table, so BlogLink in cfg.Blogs is replaced.
func NewContext(cfg ContextConfig) *Context {
	appCtx := &Context{
		deployment: cfg.Deployment,
		client:     cfg.Client,
		routes:     cfg.Routes,
		basePath:   normalizeBasePath(cfg.BasePath),
	}

	appCtx.blogOpts = cfg.Blogs
	appCtx.blogOpts.BlogLink = appCtx.blogLink
	if cfg.Client != nil {
		appCtx.service = blogs.NewService(cfg.Client, appCtx.blogOpts)
	}
	return appCtx
}

type clientSourceKey struct{}

// WithClientSource scopes a request to the client source returns, typically the visitor's own
// fork of the root client. source may be called more than once per request.
func WithClientSource(ctx context.Context, source func() blogs.Client) context.Context {
	return context.WithValue(ctx, clientSourceKey{}, source)
}

func (c *Context) Deployment() string {
	return c.deployment
}

// Client is the root GraphQL client. Pages reach it, or the visitor fork scoped by
// WithClientSource, through Blogs.
func (c *Context) Client() blogs.Client {
	return c.client
}

// Blogs returns the blog service of the client scoped to ctx, or of the root client.
func (c *Context) Blogs(ctx context.Context) (*blogs.Service, error) {
	if c == nil {
		return nil, errBlogServiceUnavailable
	}
	if source, ok := ctx.Value(clientSourceKey{}).(func() blogs.Client); ok {
		if client := source(); client != nil {
			return blogs.NewService(client, c.blogOpts), nil
		}
	}
	if c.service == nil {
		return nil, errBlogServiceUnavailable
	}
	return c.service, nil
}

// URL builds the public path of a named route, including the base path.
func (c *Context) URL(routeName string, values ...string) (string, bool) {
	if c == nil || c.routes == nil {
		return "", false
	}

	path, err := c.routes.Path(routeName, values...)
	if err != nil {
		return "", false
	}
	return c.basePath + path, true
}

// Href is URL for templates, falling back to an inert "#".
func (c *Context) Href(routeName string, values ...string) string {
	if path, ok := c.URL(routeName, values...); ok {
		return path
	}
	return "#"
}

func (c *Context) blogLink(id string) (string, bool) {
	return c.URL(deployment.RouteBlogDetail, id)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, blogs.ErrNotFound)
}

func normalizeBasePath(basePath string) string {
	basePath = strings.Trim(strings.TrimSpace(basePath), "/")
	if basePath == "" {
		return ""
	}
	return "/" + basePath
}
