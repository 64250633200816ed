package web

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"blogcms/internal/deployment"
	"blogcms/internal/gql"
	"github.com/Khan/genqlient/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// fakeBackend answers the blog operations from an in-memory map and counts every request.
type fakeBackend struct {
	mu      sync.Mutex
	blogs   map[string]string
	calls   map[string]int
	partial bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		blogs: map[string]string{"1": "Hello World", "42": "Answer"},
		calls: map[string]int{},
	}
}

func (b *fakeBackend) Execute(_ context.Context, req *graphql.Request) (*gql.LinkResult, error) {
	vars := requestVars(req)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[req.OpName]++

	var result *gql.LinkResult
	switch req.OpName {
	case "ListBlogs":
		items := make([]string, 0, len(b.blogs))
		for _, id := range []string{"1", "42", "9"} {
			if title, ok := b.blogs[id]; ok {
				items = append(items, blogJSON(id, title))
			}
		}
		result = graphQLData(`{"blogs":[` + strings.Join(items, ",") + `]}`)
	case "BlogByID":
		id, _ := vars["id"].(string)
		title, ok := b.blogs[id]
		if !ok {
			return graphQLData(`{"blog":null}`), nil
		}
		result = graphQLData(`{"blog":` + blogJSON(id, title) + `}`)
	case "CreateBlog", "UpdateBlog":
		input, _ := vars["input"].(map[string]any)
		title, _ := input["title"].(string)
		if title == "" {
			return &gql.LinkResult{
				Data:   json.RawMessage(`{"` + mutationField(req.OpName) + `":null}`),
				Errors: gqlerror.List{{Message: "title must not be blank"}},
			}, nil
		}
		id, _ := vars["id"].(string)
		if req.OpName == "CreateBlog" {
			id = "9"
		}
		if _, ok := b.blogs[id]; !ok && req.OpName == "UpdateBlog" {
			return graphQLData(`{"updateBlog":null}`), nil
		}
		b.blogs[id] = title
		result = graphQLData(`{"` + mutationField(req.OpName) + `":{"__typename":"BlogPayload","blog":` + blogJSON(id, title) + `}}`)
	default:
		return nil, fmt.Errorf("unexpected operation %q", req.OpName)
	}

	if b.partial {
		result.Errors = gqlerror.List{{Message: "description service degraded"}}
	}
	return result, nil
}

func (b *fakeBackend) count(opName string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[opName]
}

func mutationField(opName string) string {
	if opName == "CreateBlog" {
		return "createBlog"
	}
	return "updateBlog"
}

func blogJSON(id string, title string) string {
	return `{"__typename":"Blog","id":"` + id + `","title":"` + title + `","description":"About ` + title +
		`","content":"Body of **` + title + `**","createdAt":"2024-01-02T00:00:00Z","updatedAt":null}`
}

func graphQLData(payload string) *gql.LinkResult {
	return &gql.LinkResult{Data: json.RawMessage(payload)}
}

func requestVars(req *graphql.Request) map[string]any {
	raw, err := json.Marshal(req.Variables)
	if err != nil {
		return nil
	}
	vars := map[string]any{}
	_ = json.Unmarshal(raw, &vars)
	return vars
}

func mountDeployment(t *testing.T, name string, backend *fakeBackend, basePath string) (*App, *gql.Client) {
	t.Helper()

	profile, err := deployment.Lookup(name)
	if err != nil {
		t.Fatalf("lookup deployment: %v", err)
	}
	client, err := gql.NewClient(gql.ClientConfig{Link: backend, Defaults: profile.Defaults})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	app, err := Mount(MountConfig{Profile: profile, Client: client, BasePath: basePath})
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	return app, client
}

func performRequest(handler http.Handler, method string, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func postForm(handler http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRoutesRenderPerDeployment(t *testing.T) {
	tests := []struct {
		deployment  string
		path        string
		mustContain string
	}{
		{deployment: deployment.API, path: "/", mustContain: `href="/blog/42/detail"`},
		{deployment: deployment.API, path: "/blog/42/detail", mustContain: "<h1>Answer</h1>"},
		{deployment: deployment.API, path: "/blog/create", mustContain: `action="/blog/create"`},
		{deployment: deployment.API, path: "/blog/42/update", mustContain: `value="Answer"`},
		{deployment: deployment.Library, path: "/", mustContain: `href="/blog/42/update"`},
		{deployment: deployment.Library, path: "/blog/42/detail", mustContain: "<strong>Answer</strong>"},
		{deployment: deployment.Library, path: "/blog/create", mustContain: "Create blog"},
		{deployment: deployment.Library, path: "/blog/42/update", mustContain: `action="/blog/42/update"`},
	}

	for _, tc := range tests {
		t.Run(tc.deployment+tc.path, func(t *testing.T) {
			app, _ := mountDeployment(t, tc.deployment, newFakeBackend(), "")

			rec := performRequest(app, http.MethodGet, tc.path)
			if rec.Code != http.StatusOK {
				t.Fatalf("%s status: expected %d, got %d", tc.path, http.StatusOK, rec.Code)
			}
			if contentType := rec.Header().Get("Content-Type"); !strings.Contains(contentType, "text/html") {
				t.Fatalf("%s content-type: expected html, got %q", tc.path, contentType)
			}
			body := rec.Body.String()
			if !strings.Contains(body, `<div id="app">`) {
				t.Fatalf("%s body missing the app mount point", tc.path)
			}
			if !strings.Contains(body, tc.mustContain) {
				t.Fatalf("%s body missing %q:\n%s", tc.path, tc.mustContain, body)
			}
		})
	}
}

func TestUnlistedPathsRenderNotFound(t *testing.T) {
	app, _ := mountDeployment(t, deployment.API, newFakeBackend(), "")

	for _, path := range []string{"/nope", "/blog/42", "/blog/42/detail/extra", "/blog/7/detail", "/blog/7/update"} {
		rec := performRequest(app, http.MethodGet, path)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s status: expected %d, got %d", path, http.StatusNotFound, rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "404 Not Found") || !strings.Contains(body, `<div id="app">`) {
			t.Fatalf("%s: expected the not found page inside the layout, got %q", path, body)
		}
	}

	rec := performRequest(app, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status: expected %d, got %d", http.StatusOK, rec.Code)
	}
}

// browser replays the visitor cookie between requests.
type browser struct {
	handler http.Handler
	cookies []*http.Cookie
}

func newBrowser(handler http.Handler) *browser {
	return &browser{handler: handler}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, cookie := range b.cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		b.cookies = set
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) reload(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Cache-Control", "max-age=0")
	return b.do(req)
}

func (b *browser) post(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func TestNoCacheDeploymentHitsNetworkEveryTime(t *testing.T) {
	backend := newFakeBackend()
	app, client := mountDeployment(t, deployment.API, backend, "")

	for range 3 {
		if rec := performRequest(app, http.MethodGet, "/"); rec.Code != http.StatusOK {
			t.Fatalf("home status: expected %d, got %d", http.StatusOK, rec.Code)
		}
	}

	if got := backend.count("ListBlogs"); got != 3 {
		t.Fatalf("ListBlogs calls: expected 3, got %d", got)
	}
	if size := client.Cache().Size(); size != 0 {
		t.Fatalf("cache size: expected no-cache queries to leave it empty, got %d", size)
	}
}

func TestDefaultPoliciesReuseCache(t *testing.T) {
	backend := newFakeBackend()
	app, _ := mountDeployment(t, deployment.Library, backend, "")
	visitor := newBrowser(app)

	for range 3 {
		visitor.get("/")
		visitor.get("/blog/1/detail")
	}

	if got := backend.count("ListBlogs"); got != 1 {
		t.Fatalf("ListBlogs calls: expected 1, got %d", got)
	}
	if got := backend.count("BlogByID"); got != 1 {
		t.Fatalf("BlogByID calls: expected 1, got %d", got)
	}
}

func TestMountSharesOneClientAcrossPages(t *testing.T) {
	backend := newFakeBackend()
	app, client := mountDeployment(t, deployment.Library, backend, "")

	if app.Context().Client() != client {
		t.Fatalf("application context does not carry the mounted client")
	}

	visitor := newBrowser(app)
	visitor.get("/blog/42/detail")
	rec := visitor.post("/blog/42/update", url.Values{"title": {"Renamed"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("update status: expected %d, got %d", http.StatusSeeOther, rec.Code)
	}

	// The update page and the detail page read the same cache, so no refetch is needed.
	detail := visitor.get("/blog/42/detail")
	if !strings.Contains(detail.Body.String(), "<h1>Renamed</h1>") {
		t.Fatalf("detail page does not show the updated title: %q", detail.Body.String())
	}
	if got := backend.count("BlogByID"); got != 1 {
		t.Fatalf("BlogByID calls: expected 1, got %d", got)
	}
}

func TestCreatedBlogAppearsOnHome(t *testing.T) {
	backend := newFakeBackend()
	app, _ := mountDeployment(t, deployment.Library, backend, "")
	visitor := newBrowser(app)

	if home := visitor.get("/"); strings.Contains(home.Body.String(), "Fresh") {
		t.Fatalf("home lists a blog that does not exist yet: %q", home.Body.String())
	}
	rec := visitor.post("/blog/create", url.Values{"title": {"Fresh"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create status: expected %d, got %d", http.StatusSeeOther, rec.Code)
	}

	home := visitor.get("/")
	if !strings.Contains(home.Body.String(), "<h2>Fresh</h2>") {
		t.Fatalf("home does not list the created blog: %q", home.Body.String())
	}
	if got := backend.count("ListBlogs"); got != 2 {
		t.Fatalf("ListBlogs calls: expected 2, got %d", got)
	}
}

func TestVisitorsKeepSeparateCaches(t *testing.T) {
	backend := newFakeBackend()
	app, client := mountDeployment(t, deployment.Library, backend, "")
	first := newBrowser(app)
	second := newBrowser(app)

	first.get("/")
	first.get("/")
	second.get("/")

	if got := backend.count("ListBlogs"); got != 2 {
		t.Fatalf("ListBlogs calls: expected one per visitor, got %d", got)
	}
	if got := app.visitors.count(); got != 2 {
		t.Fatalf("visitor caches: expected 2, got %d", got)
	}
	if size := client.Cache().Size(); size != 0 {
		t.Fatalf("root cache should stay empty, got %d entities", size)
	}

	performRequest(app, http.MethodGet, "/healthz")
	if got := app.visitors.count(); got != 2 {
		t.Fatalf("health checks must not create visitor caches, got %d", got)
	}
}

func TestReloadStartsWithEmptyCache(t *testing.T) {
	backend := newFakeBackend()
	app, _ := mountDeployment(t, deployment.Library, backend, "")
	visitor := newBrowser(app)

	visitor.get("/")
	visitor.get("/")
	visitor.reload("/")

	if got := backend.count("ListBlogs"); got != 2 {
		t.Fatalf("ListBlogs calls: expected a refetch after reload only, got %d", got)
	}
}

func TestVisitorCachesAreBounded(t *testing.T) {
	profile, err := deployment.Lookup(deployment.Library)
	if err != nil {
		t.Fatalf("lookup deployment: %v", err)
	}
	client, err := gql.NewClient(gql.ClientConfig{Link: newFakeBackend(), Defaults: profile.Defaults})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	app, err := Mount(MountConfig{Profile: profile, Client: client, Visitors: VisitorConfig{Limit: 2}})
	if err != nil {
		t.Fatalf("mount: %v", err)
	}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	app.visitors.now = func() time.Time { return now }

	oldest := newBrowser(app)
	oldest.get("/")
	for range 3 {
		now = now.Add(time.Second)
		newBrowser(app).get("/")
	}
	if got := app.visitors.count(); got != 2 {
		t.Fatalf("visitor caches: expected the limit of 2, got %d", got)
	}

	now = now.Add(time.Second)
	oldest.get("/")
	if len(oldest.cookies) != 1 || oldest.cookies[0].Name != visitorCookie {
		t.Fatalf("evicted visitor should get a new cookie, got %v", oldest.cookies)
	}

	now = now.Add(defaultVisitorIdleTimeout + time.Second)
	newBrowser(app).get("/")
	if got := app.visitors.count(); got != 1 {
		t.Fatalf("idle visitors should be dropped, got %d caches", got)
	}
}

func TestCreateRedirectsToDetail(t *testing.T) {
	app, _ := mountDeployment(t, deployment.API, newFakeBackend(), "")

	rec := postForm(app, "/blog/create", url.Values{
		"title":       {"Fresh"},
		"description": {"new one"},
		"content":     {"# Fresh"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create status: expected %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if location := rec.Header().Get("Location"); location != "/blog/9/detail" {
		t.Fatalf("create location: expected %q, got %q", "/blog/9/detail", location)
	}
}

func TestRejectedMutationRerendersForm(t *testing.T) {
	app, _ := mountDeployment(t, deployment.Library, newFakeBackend(), "")

	rec := postForm(app, "/blog/create", url.Values{"title": {"  "}, "content": {"kept body"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("create status: expected %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "title must not be blank") {
		t.Fatalf("form missing the API error: %q", body)
	}
	if !strings.Contains(body, "kept body") {
		t.Fatalf("form lost the submitted content: %q", body)
	}
}

func TestUpdateOfMissingBlogIsNotFound(t *testing.T) {
	app, _ := mountDeployment(t, deployment.API, newFakeBackend(), "")

	rec := postForm(app, "/blog/7/update", url.Values{"title": {"Ghost"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("update status: expected %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestPartialErrorsShownAsWarnings(t *testing.T) {
	backend := newFakeBackend()
	backend.partial = true
	app, _ := mountDeployment(t, deployment.API, backend, "")

	rec := performRequest(app, http.MethodGet, "/blog/1/detail")
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status: expected %d, got %d", http.StatusOK, rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "description service degraded") || !strings.Contains(body, "<h1>Hello World</h1>") {
		t.Fatalf("detail page should render data and warnings: %q", body)
	}
}

func TestLazyComponentsBuildOnFirstMatch(t *testing.T) {
	app, _ := mountDeployment(t, deployment.API, newFakeBackend(), "")

	if !app.Loaded(deployment.RouteHome) {
		t.Fatalf("home component should be built at mount")
	}
	if app.Loaded(deployment.RouteBlogDetail) {
		t.Fatalf("detail component should not be built before its first request")
	}

	performRequest(app, http.MethodGet, "/nope")
	if app.Loaded(deployment.RouteBlogDetail) {
		t.Fatalf("unmatched paths must not build lazy components")
	}

	performRequest(app, http.MethodGet, "/blog/1/detail")
	if !app.Loaded(deployment.RouteBlogDetail) {
		t.Fatalf("detail component should be built after its first request")
	}
	if app.Loaded(deployment.RouteBlogUpdate) {
		t.Fatalf("update component should still be unbuilt")
	}
}

func TestBasePathPrefixesRoutesAndLinks(t *testing.T) {
	app, _ := mountDeployment(t, deployment.Library, newFakeBackend(), "/cms/")

	rec := performRequest(app, http.MethodGet, "/cms/")
	if rec.Code != http.StatusOK {
		t.Fatalf("home status: expected %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `href="/cms/blog/1/detail"`) {
		t.Fatalf("home links should include the base path: %q", rec.Body.String())
	}

	if rec := performRequest(app, http.MethodGet, "/blog/1/detail"); rec.Code != http.StatusNotFound {
		t.Fatalf("path outside base: expected %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestPartialRequestSkipsLayout(t *testing.T) {
	app, _ := mountDeployment(t, deployment.Library, newFakeBackend(), "")

	req := httptest.NewRequest(http.MethodGet, "/blog/1/detail", nil)
	req.Header.Set("Datastar-Request", "true")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	body := rec.Body.String()
	if strings.Contains(body, "<html") {
		t.Fatalf("partial response should not include the layout: %q", body)
	}
	if !strings.Contains(body, `id="blog-detail"`) {
		t.Fatalf("partial response missing the detail fragment: %q", body)
	}
}

func TestLiveDetailStreamsUpdates(t *testing.T) {
	backend := newFakeBackend()
	app, _ := mountDeployment(t, deployment.Library, backend, "")
	server := httptest.NewServer(app)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	httpClient := server.Client()
	httpClient.Jar = jar

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/blog/1/detail/live", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("open live stream: %v", err)
	}
	defer resp.Body.Close()

	if contentType := resp.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "text/event-stream") {
		t.Fatalf("live content-type: expected event stream, got %q", contentType)
	}

	reader := bufio.NewReader(resp.Body)
	first := readEvent(t, reader)
	if !strings.Contains(first, "datastar-patch-elements") || !strings.Contains(first, "#blog-detail") {
		t.Fatalf("first event is not a detail patch: %q", first)
	}
	if !strings.Contains(first, "Hello World") {
		t.Fatalf("first event missing current title: %q", first)
	}

	// The same visitor saves the blog, so the mutation lands in the cache the stream watches.
	update, err := httpClient.PostForm(server.URL+"/blog/1/update", url.Values{"title": {"Live Title"}})
	if err != nil {
		t.Fatalf("update blog: %v", err)
	}
	update.Body.Close()

	second := readEvent(t, reader)
	if !strings.Contains(second, "Live Title") {
		t.Fatalf("second event missing updated title: %q", second)
	}
}

func TestLiveStreamsEndWhenServerDrains(t *testing.T) {
	profile, err := deployment.Lookup(deployment.Library)
	if err != nil {
		t.Fatalf("lookup deployment: %v", err)
	}
	client, err := gql.NewClient(gql.ClientConfig{Link: newFakeBackend(), Defaults: profile.Defaults})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	liveDone := make(chan struct{})
	app, err := Mount(MountConfig{Profile: profile, Client: client, LiveDone: liveDone})
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	server := httptest.NewServer(app)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/blog/1/detail/live", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("open live stream: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader)

	close(liveDone)
	if _, err := io.ReadAll(reader); err != nil {
		t.Fatalf("live stream should end cleanly after drain: %v", err)
	}

	page := performRequest(app, http.MethodGet, "/blog/1/detail")
	if page.Code != http.StatusOK {
		t.Fatalf("pages must keep working while streams drain, got %d", page.Code)
	}
}

func TestLiveDetailOfMissingBlog(t *testing.T) {
	app, _ := mountDeployment(t, deployment.Library, newFakeBackend(), "")

	rec := performRequest(app, http.MethodPost, "/blog/1/detail/live")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("live POST status: expected %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}

	rec = performRequest(app, http.MethodGet, "/blog/7/detail/live")
	body := rec.Body.String()
	if !strings.Contains(body, "This blog was removed.") {
		t.Fatalf("live stream of a missing blog should report removal: %q", body)
	}
}

func readEvent(t *testing.T, reader *bufio.Reader) string {
	t.Helper()

	var event strings.Builder
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && event.Len() > 0 {
				return event.String()
			}
			t.Fatalf("read event: %v", err)
		}
		if strings.TrimSpace(line) == "" {
			if event.Len() > 0 {
				return event.String()
			}
			continue
		}
		event.WriteString(line)
	}
}
