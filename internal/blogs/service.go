package blogs

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"blogcms/internal/gql"
	md "blogcms/internal/markdown"
	genqlientgraphql "github.com/Khan/genqlient/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

var ErrNotFound = errors.New("not found")

const excerptChars = 180

// Client runs generated operations and watches queries. *gql.Client satisfies it.
type Client interface {
	genqlientgraphql.Client
	Watch(ctx context.Context, req *genqlientgraphql.Request, opts gql.WatchOptions) (<-chan gql.WatchEvent, error)
	Cache() *gql.Cache
}

// listField is the root query field ListBlogs reads.
const listField = "blogs"

type Options struct {
	RootURL string
	// BlogLink resolves blog:// links inside content to detail page paths.
	BlogLink func(id string) (string, bool)
	// PollInterval refetches watched blogs periodically when positive.
	PollInterval time.Duration
}

type Service struct {
	client       Client
	rootURL      string
	blogLink     func(id string) (string, bool)
	pollInterval time.Duration
}

type BlogSummary struct {
	ID        string
	Title     string
	Excerpt   string
	CreatedAt string
	UpdatedAt string
}

type BlogDetail struct {
	ID          string
	Title       string
	Description string
	Content     string
	BodyHTML    template.HTML
	CreatedAt   string
	UpdatedAt   string
}

type ListResult struct {
	Blogs []BlogSummary
	// Warnings holds GraphQL errors returned next to usable data.
	Warnings []string
}

type DetailResult struct {
	Blog     BlogDetail
	Warnings []string
}

type Input struct {
	Title       string
	Description string
	Content     string
}

type MutationResult struct {
	ID       string
	Warnings []string
}

// Update is one live result of a watched blog. Err is ErrNotFound once the blog disappears.
type Update struct {
	Blog     *BlogDetail
	Warnings []string
	Err      error
}

func NewService(client Client, opts Options) *Service {
	return &Service{
		client:       client,
		rootURL:      strings.TrimSpace(opts.RootURL),
		blogLink:     opts.BlogLink,
		pollInterval: opts.PollInterval,
	}
}

func (s *Service) ListBlogs(ctx context.Context) (ListResult, error) {
	response, err := gql.ListBlogs(ctx, s.client)
	warnings, err := splitWarnings(err)
	if err != nil {
		return ListResult{}, err
	}

	result := ListResult{Blogs: []BlogSummary{}, Warnings: warnings}
	if response == nil {
		return result, nil
	}

	for _, blog := range response.Blogs {
		result.Blogs = append(result.Blogs, BlogSummary{
			ID:        blog.Id,
			Title:     pickTitle(blog.Title, blog.Id),
			Excerpt:   md.Excerpt(strOr(blog.Description, ""), excerptChars),
			CreatedAt: formatDate(blog.CreatedAt),
			UpdatedAt: formatDate(blog.UpdatedAt),
		})
	}

	return result, nil
}

func (s *Service) GetBlog(ctx context.Context, id string) (DetailResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return DetailResult{}, ErrNotFound
	}

	response, err := gql.BlogByID(ctx, s.client, id)
	warnings, err := splitWarnings(err)
	if err != nil {
		return DetailResult{}, err
	}
	if response == nil || response.Blog == nil {
		return DetailResult{}, ErrNotFound
	}

	return DetailResult{
		Blog:     s.detail(*response.Blog),
		Warnings: warnings,
	}, nil
}

func (s *Service) CreateBlog(ctx context.Context, input Input) (MutationResult, error) {
	response, err := gql.CreateBlog(ctx, s.client, input.toGraphQL())
	warnings, err := splitWarnings(err)
	if err != nil {
		return MutationResult{}, err
	}
	if response == nil || response.CreateBlog == nil || response.CreateBlog.Blog == nil {
		return MutationResult{}, errors.New("create blog: server returned no blog")
	}

	// The cached list cannot know where the new blog belongs, so the next read refetches it.
	s.client.Cache().EvictField(gql.RootQueryID, listField)

	return MutationResult{ID: response.CreateBlog.Blog.Id, Warnings: warnings}, nil
}

func (s *Service) UpdateBlog(ctx context.Context, id string, input Input) (MutationResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return MutationResult{}, ErrNotFound
	}

	response, err := gql.UpdateBlog(ctx, s.client, id, input.toGraphQL())
	warnings, err := splitWarnings(err)
	if err != nil {
		return MutationResult{}, err
	}
	if response == nil || response.UpdateBlog == nil || response.UpdateBlog.Blog == nil {
		return MutationResult{}, ErrNotFound
	}

	return MutationResult{ID: response.UpdateBlog.Blog.Id, Warnings: warnings}, nil
}

// WatchBlog streams the blog until ctx is done, following cache changes and optional polling.
func (s *Service) WatchBlog(ctx context.Context, id string) (<-chan Update, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	events, err := s.client.Watch(ctx, gql.BlogByIDRequest(id), gql.WatchOptions{PollInterval: s.pollInterval})
	if err != nil {
		return nil, fmt.Errorf("watch blog %q: %w", id, err)
	}

	updates := make(chan Update)
	go func() {
		defer close(updates)
		for event := range events {
			select {
			case updates <- s.update(event):
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates, nil
}

func (s *Service) update(event gql.WatchEvent) Update {
	if event.Err != nil {
		return Update{Err: event.Err}
	}

	var response gql.BlogByIDResponse
	if err := event.Decode(&response); err != nil {
		return Update{Err: fmt.Errorf("decode watched blog: %w", err)}
	}
	if response.Blog == nil {
		return Update{Err: ErrNotFound}
	}

	detail := s.detail(*response.Blog)
	return Update{Blog: &detail, Warnings: messages(event.Errors)}
}

func (s *Service) detail(blog gql.BlogByIDBlog) BlogDetail {
	content := strOr(blog.Content, "")
	return BlogDetail{
		ID:          blog.Id,
		Title:       pickTitle(blog.Title, blog.Id),
		Description: strOr(blog.Description, ""),
		Content:     content,
		BodyHTML: md.ToHTML(content, md.Options{
			RootURL:  s.rootURL,
			BlogLink: s.blogLink,
		}),
		CreatedAt: formatDate(blog.CreatedAt),
		UpdatedAt: formatDate(blog.UpdatedAt),
	}
}

// ErrorMessages lists the GraphQL error messages carried by err, if any.
func ErrorMessages(err error) []string {
	var list gqlerror.List
	if !errors.As(err, &list) {
		return nil
	}
	return messages(list)
}

// splitWarnings keeps partial-result errors as warnings and passes every other error through.
func splitWarnings(err error) ([]string, error) {
	if err == nil {
		return nil, nil
	}
	if warnings, ok := gql.Messages(err); ok {
		return warnings, nil
	}
	return nil, err
}

func messages(list gqlerror.List) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != nil {
			out = append(out, item.Message)
		}
	}
	return out
}

func (in Input) toGraphQL() gql.BlogInput {
	return gql.BlogInput{
		Title:       strings.TrimSpace(in.Title),
		Description: optional(in.Description, true),
		Content:     optional(in.Content, false),
	}
}

func optional(value string, trim bool) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if trim {
		value = strings.TrimSpace(value)
	}
	return &value
}

func pickTitle(title string, fallback string) string {
	if v := strings.TrimSpace(title); v != "" {
		return v
	}
	return fallback
}

func formatDate(raw *string) string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return ""
	}

	parsed, err := time.Parse(time.RFC3339Nano, *raw)
	if err != nil {
		return *raw
	}

	return parsed.Format("2006-01-02")
}

func strOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}

	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return fallback
	}

	return trimmed
}
