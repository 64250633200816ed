package components

import (
	"blogcms/internal/web/appcore"
	"github.com/a-h/templ"
)

func Home(view appcore.HomeView) templ.Component {
	cards := make([]templ.Component, 0, len(view.Blogs))
	for _, card := range view.Blogs {
		cards = append(cards, blogCard(card))
	}

	return component(func(m *markup) {
		m.raw(`<section id="blog-list"><h1>Blogs</h1>`)
		m.render(Warnings(view.Warnings))
		if len(cards) == 0 {
			m.raw(`<p class="empty">No blogs yet. <a`)
			m.href(view.CreateURL)
			m.raw(`>Write the first one.</a></p>`)
		} else {
			m.raw("<ul>")
			m.render(templ.Join(cards...))
			m.raw("</ul>")
		}
		m.raw("</section>")
	})
}

func blogCard(card appcore.BlogCard) templ.Component {
	return component(func(m *markup) {
		m.raw(`<li class="blog-card"><a`)
		m.href(card.DetailURL)
		m.raw("><h2>")
		m.text(card.Title)
		m.raw("</h2></a>")
		if card.Excerpt != "" {
			m.raw("<p>")
			m.text(card.Excerpt)
			m.raw("</p>")
		}
		if card.CreatedAt != "" {
			m.raw("<time>")
			m.text(card.CreatedAt)
			m.raw("</time>")
		}
		m.raw(`<a class="edit"`)
		m.href(card.UpdateURL)
		m.raw(">Edit</a></li>")
	})
}

// Detail is the full detail page. Once loaded it opens the live stream that patches BlogDetail.
func Detail(view appcore.DetailView) templ.Component {
	return component(func(m *markup) {
		m.raw("<div")
		if view.LiveAction != "" {
			m.attr("data-init", view.LiveAction)
		}
		m.raw(">")
		m.render(BlogDetail(view))
		m.raw("</div>")
	})
}

func BlogDetail(view appcore.DetailView) templ.Component {
	return component(func(m *markup) {
		m.raw("<article")
		m.attr("id", BlogDetailID)
		m.raw(">")
		if view.Gone {
			m.raw(`<p class="gone">This blog was removed.</p></article>`)
			return
		}

		m.raw("<h1>")
		m.text(view.Blog.Title)
		m.raw("</h1>")
		m.render(Warnings(view.Warnings))
		if view.Blog.Description != "" {
			m.raw(`<p class="description">`)
			m.text(view.Blog.Description)
			m.raw("</p>")
		}
		m.raw(`<p class="dates">`)
		if view.Blog.CreatedAt != "" {
			m.raw("<time>")
			m.text(view.Blog.CreatedAt)
			m.raw("</time>")
		}
		if view.Blog.UpdatedAt != "" {
			m.raw(" updated <time>")
			m.text(view.Blog.UpdatedAt)
			m.raw("</time>")
		}
		m.raw(`</p><div class="content">`)
		// BodyHTML is sanitized by the markdown renderer.
		m.render(templ.Raw(string(view.Blog.BodyHTML)))
		m.raw(`</div><a class="edit"`)
		m.href(view.UpdateURL)
		m.raw(">Edit</a></article>")
	})
}

func Form(view appcore.FormView) templ.Component {
	return component(func(m *markup) {
		m.raw(`<section id="blog-form"><h1>`)
		m.text(view.PageTitle)
		m.raw("</h1>")
		m.render(Warnings(view.Warnings))
		m.render(messageList("errors", "alert", view.Errors))

		m.raw(`<form method="post"`)
		m.attr("action", string(templ.URL(view.ActionURL)))
		m.raw(`><label>Title <input name="title"`)
		m.attr("value", view.Input.Title)
		m.raw(`></label><label>Description <textarea name="description">`)
		m.text(view.Input.Description)
		m.raw(`</textarea></label><label>Content <textarea name="content" rows="20">`)
		m.text(view.Input.Content)
		m.raw(`</textarea></label><button type="submit">`)
		m.text(view.SubmitLabel())
		m.raw("</button> <a")
		m.href(view.CancelURL)
		m.raw(">Cancel</a></form></section>")
	})
}

func NotFound(view appcore.NotFoundView) templ.Component {
	return component(func(m *markup) {
		m.raw(`<section id="not-found"><h1>404 Not Found</h1><p>Nothing lives at <code>`)
		m.text(view.Path)
		m.raw("</code>.</p><a")
		m.href(view.HomeURL)
		m.raw(">Back to all blogs</a></section>")
	})
}
