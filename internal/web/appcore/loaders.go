package appcore

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"blogcms/framework"
	"blogcms/internal/blogs"
	"blogcms/internal/deployment"
)

const (
	homeRoute   = deployment.RouteHome
	detailRoute = deployment.RouteBlogDetail
	createRoute = deployment.RouteBlogCreate
	updateRoute = deployment.RouteBlogUpdate

	liveSuffix = "/live"
)

// LiveURL is the SSE endpoint that streams updates of one detail page.
func (c *Context) LiveURL(blogID string) string {
	detail, ok := c.URL(detailRoute, blogID)
	if !ok {
		return ""
	}
	return detail + liveSuffix
}

func LoadHomePage(
	ctx context.Context,
	appCtx *Context,
	_ *http.Request,
	_ framework.EmptyParams,
) (HomeView, error) {
	service, err := appCtx.Blogs(ctx)
	if err != nil {
		return HomeView{}, err
	}

	result, err := service.ListBlogs(ctx)
	if err != nil {
		return HomeView{}, err
	}

	cards := make([]BlogCard, 0, len(result.Blogs))
	for _, blog := range result.Blogs {
		cards = append(cards, BlogCard{
			BlogSummary: blog,
			DetailURL:   appCtx.Href(detailRoute, blog.ID),
			UpdateURL:   appCtx.Href(updateRoute, blog.ID),
		})
	}

	return HomeView{
		PageMeta: appCtx.pageMeta("Blogs"),
		Blogs:    cards,
		Warnings: result.Warnings,
	}, nil
}

func LoadBlogDetailPage(
	ctx context.Context,
	appCtx *Context,
	_ *http.Request,
	params framework.IDParams,
) (DetailView, error) {
	service, err := appCtx.Blogs(ctx)
	if err != nil {
		return DetailView{}, err
	}

	result, err := service.GetBlog(ctx, params.ID)
	if err != nil {
		return DetailView{}, err
	}

	return appCtx.detailView(result.Blog, result.Warnings), nil
}

// SubscribeBlogDetail follows one blog and yields a fresh detail view per change.
func SubscribeBlogDetail(
	ctx context.Context,
	appCtx *Context,
	_ *http.Request,
	params framework.IDParams,
) (<-chan DetailView, error) {
	service, err := appCtx.Blogs(ctx)
	if err != nil {
		return nil, err
	}

	updates, err := service.WatchBlog(ctx, params.ID)
	if err != nil {
		return nil, err
	}

	views := make(chan DetailView)
	go func() {
		defer close(views)

		last := appCtx.detailView(blogs.BlogDetail{ID: params.ID, Title: params.ID}, nil)
		for update := range updates {
			view, keep := appCtx.liveDetailView(last, update)
			select {
			case views <- view:
			case <-ctx.Done():
				return
			}
			if !keep {
				return
			}
			last = view
		}
	}()

	return views, nil
}

// liveDetailView turns one watch update into a view. Failed refreshes keep the last content and
// show the failure as a warning; a deleted blog ends the stream.
func (c *Context) liveDetailView(last DetailView, update blogs.Update) (DetailView, bool) {
	switch {
	case update.Err == nil && update.Blog != nil:
		return c.detailView(*update.Blog, update.Warnings), true
	case errors.Is(update.Err, blogs.ErrNotFound):
		last.Gone = true
		last.Warnings = nil
		return last, false
	default:
		last.Warnings = blogs.ErrorMessages(update.Err)
		if len(last.Warnings) == 0 && update.Err != nil {
			last.Warnings = []string{"refresh failed"}
		}
		return last, true
	}
}

func (c *Context) detailView(blog blogs.BlogDetail, warnings []string) DetailView {
	liveURL := c.LiveURL(blog.ID)
	return DetailView{
		PageMeta:   c.pageMeta(blog.Title),
		Blog:       blog,
		UpdateURL:  c.Href(updateRoute, blog.ID),
		LiveURL:    liveURL,
		LiveAction: liveAction(liveURL),
		Warnings:   warnings,
	}
}

func LoadBlogCreatePage(
	_ context.Context,
	appCtx *Context,
	_ *http.Request,
	_ framework.EmptyParams,
) (FormView, error) {
	return appCtx.createForm(blogs.Input{}), nil
}

func SubmitBlogCreate(
	ctx context.Context,
	appCtx *Context,
	r *http.Request,
	_ framework.EmptyParams,
) (framework.ActionResult[FormView], error) {
	service, err := appCtx.Blogs(ctx)
	if err != nil {
		return framework.ActionResult[FormView]{}, err
	}

	input, err := parseInput(r)
	if err != nil {
		view := appCtx.createForm(blogs.Input{})
		view.Errors = []string{"could not read the submitted form"}
		return framework.ActionResult[FormView]{View: view, StatusCode: http.StatusBadRequest}, nil
	}

	result, err := service.CreateBlog(ctx, input)
	if err != nil {
		return rejected(appCtx.createForm(input), err)
	}

	return framework.ActionResult[FormView]{RedirectURL: appCtx.Href(detailRoute, result.ID)}, nil
}

func LoadBlogUpdatePage(
	ctx context.Context,
	appCtx *Context,
	_ *http.Request,
	params framework.IDParams,
) (FormView, error) {
	service, err := appCtx.Blogs(ctx)
	if err != nil {
		return FormView{}, err
	}

	result, err := service.GetBlog(ctx, params.ID)
	if err != nil {
		return FormView{}, err
	}

	view := appCtx.updateForm(result.Blog.ID, blogs.Input{
		Title:       result.Blog.Title,
		Description: result.Blog.Description,
		Content:     result.Blog.Content,
	})
	view.Warnings = result.Warnings
	return view, nil
}

func SubmitBlogUpdate(
	ctx context.Context,
	appCtx *Context,
	r *http.Request,
	params framework.IDParams,
) (framework.ActionResult[FormView], error) {
	service, err := appCtx.Blogs(ctx)
	if err != nil {
		return framework.ActionResult[FormView]{}, err
	}

	input, err := parseInput(r)
	if err != nil {
		view := appCtx.updateForm(params.ID, blogs.Input{})
		view.Errors = []string{"could not read the submitted form"}
		return framework.ActionResult[FormView]{View: view, StatusCode: http.StatusBadRequest}, nil
	}

	result, err := service.UpdateBlog(ctx, params.ID, input)
	if err != nil {
		return rejected(appCtx.updateForm(params.ID, input), err)
	}

	return framework.ActionResult[FormView]{RedirectURL: appCtx.Href(detailRoute, result.ID)}, nil
}

// rejected re-renders the form with the API's messages. Errors without GraphQL messages, such as
// transport failures, still fail the request.
func rejected(view FormView, err error) (framework.ActionResult[FormView], error) {
	if errors.Is(err, blogs.ErrNotFound) {
		return framework.ActionResult[FormView]{}, err
	}

	messages := blogs.ErrorMessages(err)
	if len(messages) == 0 {
		return framework.ActionResult[FormView]{}, err
	}

	view.Errors = messages
	return framework.ActionResult[FormView]{View: view, StatusCode: http.StatusUnprocessableEntity}, nil
}

func (c *Context) createForm(input blogs.Input) FormView {
	return FormView{
		PageMeta:  c.pageMeta("New blog"),
		Mode:      FormModeCreate,
		Input:     input,
		ActionURL: c.Href(createRoute),
		CancelURL: c.Href(homeRoute),
	}
}

func (c *Context) updateForm(id string, input blogs.Input) FormView {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = id
	}
	return FormView{
		PageMeta:  c.pageMeta("Edit " + title),
		Mode:      FormModeUpdate,
		BlogID:    id,
		Input:     input,
		ActionURL: c.Href(updateRoute, id),
		CancelURL: c.Href(detailRoute, id),
	}
}

func parseInput(r *http.Request) (blogs.Input, error) {
	if err := r.ParseForm(); err != nil {
		return blogs.Input{}, err
	}

	return blogs.Input{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Content:     r.PostForm.Get("content"),
	}, nil
}
