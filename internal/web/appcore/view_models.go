package appcore

import (
	"blogcms/internal/blogs"
)

// LayoutView is what the root layout needs from every page view.
type LayoutView interface {
	LayoutPageTitle() string
	LayoutHomeURL() string
	LayoutCreateURL() string
	LayoutDeployment() string
}

type PageMeta struct {
	PageTitle  string
	HomeURL    string
	CreateURL  string
	Deployment string
}

func (m PageMeta) LayoutPageTitle() string  { return m.PageTitle }
func (m PageMeta) LayoutHomeURL() string    { return m.HomeURL }
func (m PageMeta) LayoutCreateURL() string  { return m.CreateURL }
func (m PageMeta) LayoutDeployment() string { return m.Deployment }

type BlogCard struct {
	blogs.BlogSummary
	DetailURL string
	UpdateURL string
}

type HomeView struct {
	PageMeta
	Blogs    []BlogCard
	Warnings []string
}

type DetailView struct {
	PageMeta
	Blog      blogs.BlogDetail
	UpdateURL string
	LiveURL   string
	// LiveAction opens the stream of LiveURL once the page is loaded.
	LiveAction string
	Warnings   []string
	// Gone is set by live updates once the blog no longer exists.
	Gone bool
}

type FormMode string

const (
	FormModeCreate FormMode = "create"
	FormModeUpdate FormMode = "update"
)

type FormView struct {
	PageMeta
	Mode      FormMode
	BlogID    string
	Input     blogs.Input
	ActionURL string
	CancelURL string
	Errors    []string
	Warnings  []string
}

func (v FormView) SubmitLabel() string {
	if v.Mode == FormModeUpdate {
		return "Save changes"
	}
	return "Create blog"
}

type NotFoundView struct {
	PageMeta
	Path string
}

func (c *Context) pageMeta(title string) PageMeta {
	return PageMeta{
		PageTitle:  title,
		HomeURL:    c.Href(homeRoute),
		CreateURL:  c.Href(createRoute),
		Deployment: c.Deployment(),
	}
}

// NotFoundPage is the view for paths that match no route or name a missing blog.
func (c *Context) NotFoundPage(path string) NotFoundView {
	return NotFoundView{
		PageMeta: c.pageMeta("404 Not Found"),
		Path:     path,
	}
}
