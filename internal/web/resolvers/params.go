package resolvers

import (
	"strings"

	"blogcms/framework"
	"blogcms/framework/router"
)

const liveSuffix = "/live"

// Binding is the route a component is mounted on, plus the table that decides precedence.
type Binding struct {
	Route router.Route
	Table *router.Table
}

func (b Binding) pattern() string {
	return b.Route.Path
}

func (b Binding) match(path string) (router.Match, bool) {
	if b.Table == nil {
		return router.Match{}, false
	}
	match, ok := b.Table.Match(path)
	if !ok || match.Route.Name != b.Route.Name {
		return router.Match{}, false
	}
	return match, true
}

func (b Binding) emptyParams() framework.ParamsParser[framework.EmptyParams] {
	return func(path string) (framework.EmptyParams, bool) {
		match, ok := b.match(path)
		if !ok || len(match.Values) != 0 {
			return framework.EmptyParams{}, false
		}
		return framework.EmptyParams{}, true
	}
}

// idParams reads the identifier positionally, so ":id" and ":blogId" bind the same way.
func (b Binding) idParams() framework.ParamsParser[framework.IDParams] {
	return func(path string) (framework.IDParams, bool) {
		match, ok := b.match(path)
		if !ok || len(match.Values) != 1 {
			return framework.IDParams{}, false
		}

		names := b.Table.ParamNames(b.Route.Name)
		name := ""
		if len(names) == 1 {
			name = names[0]
		}
		return framework.IDParams{Name: name, ID: match.Values[0]}, true
	}
}

// liveIDParams matches "<page pattern>/live" and binds the identifier of the page it streams.
func (b Binding) liveIDParams() framework.ParamsParser[framework.IDParams] {
	livePattern := b.pattern() + liveSuffix
	parse := b.idParams()
	return func(path string) (framework.IDParams, bool) {
		if _, ok := router.MatchPathPattern(livePattern, path); !ok {
			return framework.IDParams{}, false
		}
		return parse(strings.TrimSuffix(strings.TrimSuffix(path, "/"), liveSuffix))
	}
}
