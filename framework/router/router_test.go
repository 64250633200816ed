package router

import (
	"testing"
)

func blogRoutes() []Route {
	return []Route{
		{Path: "/", Name: "home", Component: "HomeView"},
		{Path: "/blog/:blogId/detail", Name: "blog-detail", Component: "BlogDetail", Lazy: true},
		{Path: "/blog/create", Name: "blog-create", Component: "BlogCreateUpdate", Lazy: true},
		{Path: "/blog/:blogId/update", Name: "blog-update", Component: "BlogCreateUpdate", Lazy: true},
		{Path: "/blog/[blogId]", Name: "blog-short", Component: "BlogDetail", Lazy: true},
	}
}

func TestTableMatch(t *testing.T) {
	table, err := NewTable(blogRoutes())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	tests := []struct {
		name          string
		path          string
		expectedRoute string
		expectedKey   string
		expectedVal   string
	}{
		{name: "root", path: "/", expectedRoute: "home"},
		{name: "empty path", path: "", expectedRoute: "home"},
		{
			name:          "detail binds parameter",
			path:          "/blog/42/detail",
			expectedRoute: "blog-detail",
			expectedKey:   "blogId",
			expectedVal:   "42",
		},
		{name: "trailing slash", path: "/blog/create/", expectedRoute: "blog-create"},
		{name: "static outranks parameter", path: "/blog/create", expectedRoute: "blog-create"},
		{
			name:          "bracket parameter",
			path:          "/blog/7",
			expectedRoute: "blog-short",
			expectedKey:   "blogId",
			expectedVal:   "7",
		},
		{
			name:          "update binds parameter",
			path:          "/blog/abc-1/update",
			expectedRoute: "blog-update",
			expectedKey:   "blogId",
			expectedVal:   "abc-1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			match, ok := table.Match(tc.path)
			if !ok {
				t.Fatalf("expected a match for %q", tc.path)
			}
			if match.Route.Name != tc.expectedRoute {
				t.Fatalf("expected route %q, got %q", tc.expectedRoute, match.Route.Name)
			}
			if tc.expectedKey == "" {
				if len(match.Values) != 0 {
					t.Fatalf("expected no parameters, got %v", match.Values)
				}
				return
			}

			value, ok := match.Param(tc.expectedKey)
			if !ok {
				t.Fatalf("expected param %q", tc.expectedKey)
			}
			if value != tc.expectedVal {
				t.Fatalf("expected param %q=%q, got %q", tc.expectedKey, tc.expectedVal, value)
			}
			if len(match.Values) != 1 || match.Values[0] != tc.expectedVal {
				t.Fatalf("expected positional value %q, got %v", tc.expectedVal, match.Values)
			}
		})
	}
}

func TestTableUnlistedPaths(t *testing.T) {
	table, err := NewTable(blogRoutes())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	for _, path := range []string{"/blog", "/blog/42/delete", "/nope", "/blog/42/detail/extra"} {
		if match, ok := table.Match(path); ok {
			t.Fatalf("did not expect %q to match, got %q", path, match.Route.Name)
		}
	}
}

func TestTableRejectsInvalidRoutes(t *testing.T) {
	tests := map[string][]Route{
		"empty": nil,
		"conflicting patterns": {
			{Path: "/blog/:id", Name: "a", Component: "A"},
			{Path: "/blog/:blogId", Name: "b", Component: "B"},
		},
		"duplicate names": {
			{Path: "/a", Name: "same", Component: "A"},
			{Path: "/b", Name: "same", Component: "B"},
		},
		"missing component": {{Path: "/", Name: "home"}},
		"missing name":      {{Path: "/", Component: "HomeView"}},
		"relative path":     {{Path: "blog", Name: "blog", Component: "B"}},
		"bad param name":    {{Path: "/blog/:1d", Name: "blog", Component: "B"}},
		"repeated param":    {{Path: "/:id/:id", Name: "blog", Component: "B"}},
		"broken bracket":    {{Path: "/blog/[id", Name: "blog", Component: "B"}},
	}

	for name, routes := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewTable(routes); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestTablePath(t *testing.T) {
	table, err := NewTable(blogRoutes())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	got, err := table.Path("blog-detail", "42")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if got != "/blog/42/detail" {
		t.Fatalf("expected /blog/42/detail, got %q", got)
	}

	got, err = table.Path("home")
	if err != nil || got != "/" {
		t.Fatalf("expected / for home, got %q (%v)", got, err)
	}

	if _, err := table.Path("blog-detail"); err == nil {
		t.Fatal("expected missing parameter error")
	}
	if _, err := table.Path("blog-detail", "a/b"); err == nil {
		t.Fatal("expected invalid value error")
	}
	if _, err := table.Path("missing"); err == nil {
		t.Fatal("expected unknown route error")
	}
}

func TestTableRoutesKeepDeclarationOrder(t *testing.T) {
	table, err := NewTable(blogRoutes())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	routes := table.Routes()
	if routes[0].Name != "home" || routes[len(routes)-1].Name != "blog-short" {
		t.Fatalf("unexpected order: %v", routes)
	}
	if names := table.ParamNames("blog-update"); len(names) != 1 || names[0] != "blogId" {
		t.Fatalf("unexpected param names %v", names)
	}
}

func TestMatchPathPattern(t *testing.T) {
	params, ok := MatchPathPattern("/blog/:id/detail/live", "/blog/9/detail/live")
	if !ok {
		t.Fatal("expected pattern to match")
	}
	if params["id"] != "9" {
		t.Fatalf("expected id to be %q, got %q", "9", params["id"])
	}

	if _, ok = MatchPathPattern("/blog/[id]/detail", "/blog/9"); ok {
		t.Fatal("expected mismatch for shorter path")
	}
}

func TestIsValidSegmentValue(t *testing.T) {
	if !IsValidSegmentValue("blog-42") {
		t.Fatal("expected blog-42 to be valid")
	}
	for _, value := range []string{"", "bad value", "a/b", ".."} {
		if IsValidSegmentValue(value) {
			t.Fatalf("expected %q to be invalid", value)
		}
	}
}
