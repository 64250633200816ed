package components

import (
	"context"
	"io"

	"blogcms/framework"
	"blogcms/internal/markdown"
	"blogcms/internal/web/appcore"
	"github.com/a-h/templ"
)

// BlogDetailID is the element live updates of a detail page patch.
const BlogDetailID = "blog-detail"

const datastarBundle = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// markup writes one component and keeps the first error, so components read top to bottom.
type markup struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (m *markup) raw(s string) {
	if m.err == nil {
		_, m.err = io.WriteString(m.w, s)
	}
}

func (m *markup) text(s string) {
	m.raw(templ.EscapeString(s))
}

func (m *markup) attr(name string, value string) {
	m.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// href sanitizes url the way templ does for href attributes.
func (m *markup) href(url string) {
	m.attr("href", string(templ.URL(url)))
}

func (m *markup) render(component templ.Component) {
	if m.err == nil && component != nil {
		m.err = component.Render(m.ctx, m.w)
	}
}

func component(write func(m *markup)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := &markup{ctx: ctx, w: w}
		write(m)
		return m.err
	})
}

// Layout is the root document. The page is rendered from the context children inside #app.
func Layout(view appcore.LayoutView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		m := &markup{ctx: templ.ClearChildren(ctx), w: w}

		m.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		m.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		m.text(view.LayoutPageTitle())
		m.raw(`</title><script type="module"`)
		m.attr("src", datastarBundle)
		m.raw(`></script><style>`)
		m.render(templ.Raw(string(markdown.HighlightCSS(markdown.DefaultTheme))))
		m.raw(`</style></head><body`)
		m.attr("data-deployment", view.LayoutDeployment())
		m.raw(`><div id="app"><header><nav><a`)
		m.href(view.LayoutHomeURL())
		m.raw(`>Blogs</a> <a`)
		m.href(view.LayoutCreateURL())
		m.raw(`>New blog</a></nav></header><main>`)
		m.render(children)
		m.raw(`</main></div></body></html>`)
		return m.err
	})
}

// RootLayout wraps every full page response in Layout.
func RootLayout[VM appcore.LayoutView]() framework.LayoutRenderer[VM] {
	return func(view VM, child templ.Component) templ.Component {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			return Layout(view).Render(templ.WithChildren(ctx, child), w)
		})
	}
}

func Warnings(items []string) templ.Component {
	return messageList("warnings", "status", items)
}

func messageList(class string, role string, items []string) templ.Component {
	if len(items) == 0 {
		return templ.NopComponent
	}

	return component(func(m *markup) {
		m.raw("<ul")
		m.attr("class", class)
		m.attr("role", role)
		m.raw(">")
		for _, item := range items {
			m.raw("<li>")
			m.text(item)
			m.raw("</li>")
		}
		m.raw("</ul>")
	})
}
