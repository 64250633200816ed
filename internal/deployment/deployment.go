package deployment

import (
	"fmt"
	"sort"
	"strings"

	"blogcms/framework/router"
	"blogcms/internal/gql"
)

const (
	API     = "api"
	Library = "library"
)

// Page component names referenced by route tables.
const (
	HomeView         = "HomeView"
	BlogDetail       = "BlogDetail"
	BlogCreateUpdate = "BlogCreateUpdate"
	BlogCreate       = "BlogCreate"
	BlogUpdate       = "BlogUpdate"
)

// Route names shared by both deployments so pages can link to each other.
const (
	RouteHome       = "dashboard"
	RouteBlogDetail = "blog-detail"
	RouteBlogCreate = "blog-create"
	RouteBlogUpdate = "blog-update"
)

// Profile is everything that differs between deployments of the blog front end.
type Profile struct {
	Name     string
	Endpoint string
	Defaults gql.DefaultOptions
	Routes   []router.Route
}

var profiles = map[string]Profile{
	API: {
		Name:     API,
		Endpoint: "https://itsc-api.alab.in/graphql/",
		Defaults: gql.DefaultOptions{
			WatchQuery: gql.Options{FetchPolicy: gql.FetchPolicyNoCache, ErrorPolicy: gql.ErrorPolicyIgnore},
			Query:      gql.Options{FetchPolicy: gql.FetchPolicyNoCache, ErrorPolicy: gql.ErrorPolicyAll},
		},
		Routes: []router.Route{
			{Path: "/", Name: RouteHome, Component: HomeView},
			{Path: "/blog/:blogId/detail", Name: RouteBlogDetail, Component: BlogDetail, Lazy: true},
			{Path: "/blog/create", Name: RouteBlogCreate, Component: BlogCreateUpdate, Lazy: true},
			{Path: "/blog/:blogId/update", Name: RouteBlogUpdate, Component: BlogCreateUpdate, Lazy: true},
		},
	},
	Library: {
		Name:     Library,
		Endpoint: "https://library-api.alab.in/graphql",
		Routes: []router.Route{
			{Path: "/", Name: RouteHome, Component: HomeView},
			{Path: "/blog/:id/detail", Name: RouteBlogDetail, Component: BlogDetail, Lazy: true},
			{Path: "/blog/create", Name: RouteBlogCreate, Component: BlogCreate, Lazy: true},
			{Path: "/blog/:id/update", Name: RouteBlogUpdate, Component: BlogUpdate, Lazy: true},
		},
	},
}

// Lookup returns a copy of the named profile.
func Lookup(name string) (Profile, error) {
	profile, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown deployment %q (known: %s)", name, strings.Join(Names(), ", "))
	}

	routes := make([]router.Route, len(profile.Routes))
	copy(routes, profile.Routes)
	profile.Routes = routes
	return profile, nil
}

func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithEndpoint replaces the endpoint when override is set.
func (p Profile) WithEndpoint(override string) (Profile, error) {
	endpoint := p.Endpoint
	if strings.TrimSpace(override) != "" {
		endpoint = override
	}

	validated, err := gql.ValidateEndpoint(endpoint)
	if err != nil {
		return Profile{}, fmt.Errorf("deployment %q: %w", p.Name, err)
	}
	p.Endpoint = validated
	return p, nil
}

// WithPolicies applies every policy set in overrides on top of the profile defaults.
func (p Profile) WithPolicies(overrides gql.DefaultOptions) Profile {
	p.Defaults = gql.DefaultOptions{
		WatchQuery: overrides.WatchQuery.Merge(p.Defaults.WatchQuery),
		Query:      overrides.Query.Merge(p.Defaults.Query),
		Mutate:     overrides.Mutate.Merge(p.Defaults.Mutate),
	}
	return p
}

func (p Profile) Table() (*router.Table, error) {
	table, err := router.NewTable(p.Routes)
	if err != nil {
		return nil, fmt.Errorf("deployment %q routes: %w", p.Name, err)
	}
	return table, nil
}
