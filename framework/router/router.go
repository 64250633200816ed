package router

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var paramNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

const maxSegmentValueLength = 200

// Route binds a path pattern to a named page component. Patterns use ":name" or "[name]"
// for dynamic segments, e.g. "/blog/:blogId/detail".
type Route struct {
	Path      string
	Name      string
	Component string
	// Lazy defers building the component until the first request it serves.
	Lazy bool
}

type pathSegment struct {
	name    string
	isParam bool
}

type compiledRoute struct {
	route       Route
	order       int
	segments    []pathSegment
	staticCount int
	patternKey  string
}

func (r compiledRoute) paramNames() []string {
	names := make([]string, 0, len(r.segments))
	for _, segment := range r.segments {
		if segment.isParam {
			names = append(names, segment.name)
		}
	}
	return names
}

type Match struct {
	Route  Route
	Params map[string]string
	// Values holds the parameter values in pattern order.
	Values []string
}

func (m Match) Param(name string) (string, bool) {
	if m.Params == nil {
		return "", false
	}

	value, ok := m.Params[name]
	return value, ok
}

// Table is an immutable route table. Static segments outrank parameters when patterns overlap.
type Table struct {
	routes  []compiledRoute
	ordered []Route
	byName  map[string]compiledRoute
}

func NewTable(routes []Route) (*Table, error) {
	if len(routes) == 0 {
		return nil, errors.New("route table is empty")
	}

	compiled := make([]compiledRoute, 0, len(routes))
	byName := make(map[string]compiledRoute, len(routes))
	seenPattern := make(map[string]string, len(routes))

	for idx, route := range routes {
		route.Name = strings.TrimSpace(route.Name)
		route.Component = strings.TrimSpace(route.Component)
		if route.Name == "" {
			return nil, fmt.Errorf("route %q has no name", route.Path)
		}
		if route.Component == "" {
			return nil, fmt.Errorf("route %q has no component", route.Name)
		}
		if _, ok := byName[route.Name]; ok {
			return nil, fmt.Errorf("duplicate route name %q", route.Name)
		}

		entry, err := compileRoute(route)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", route.Name, err)
		}
		entry.order = idx

		if existing, ok := seenPattern[entry.patternKey]; ok {
			return nil, fmt.Errorf("route pattern conflict: %q and %q", existing, route.Name)
		}
		seenPattern[entry.patternKey] = route.Name

		compiled = append(compiled, entry)
		byName[route.Name] = entry
	}

	ordered := make([]Route, len(compiled))
	for idx, entry := range compiled {
		ordered[idx] = entry.route
	}

	sort.SliceStable(compiled, func(i int, j int) bool {
		left := compiled[i]
		right := compiled[j]

		if left.staticCount != right.staticCount {
			return left.staticCount > right.staticCount
		}
		if len(left.segments) != len(right.segments) {
			return len(left.segments) > len(right.segments)
		}
		return left.order < right.order
	})

	return &Table{routes: compiled, ordered: ordered, byName: byName}, nil
}

func compileRoute(route Route) (compiledRoute, error) {
	raw := strings.TrimSpace(route.Path)
	if !strings.HasPrefix(raw, "/") {
		return compiledRoute{}, fmt.Errorf("path %q must start with /", route.Path)
	}

	parts := splitPathSegments(raw)
	segments := make([]pathSegment, 0, len(parts))
	patternParts := make([]string, 0, len(parts))
	seenParams := make(map[string]struct{}, 2)
	staticCount := 0

	for _, part := range parts {
		name, isParam, err := parseSegment(part)
		if err != nil {
			return compiledRoute{}, err
		}

		if isParam {
			if _, ok := seenParams[name]; ok {
				return compiledRoute{}, fmt.Errorf("duplicate parameter %q", name)
			}
			seenParams[name] = struct{}{}
			segments = append(segments, pathSegment{name: name, isParam: true})
			patternParts = append(patternParts, ":")
			continue
		}

		segments = append(segments, pathSegment{name: part})
		patternParts = append(patternParts, part)
		staticCount++
	}

	route.Path = "/" + strings.Join(parts, "/")
	return compiledRoute{
		route:       route,
		segments:    segments,
		staticCount: staticCount,
		patternKey:  "/" + strings.Join(patternParts, "/"),
	}, nil
}

func parseSegment(segment string) (string, bool, error) {
	if name, ok := strings.CutPrefix(segment, ":"); ok {
		if !paramNamePattern.MatchString(name) {
			return "", false, fmt.Errorf("invalid parameter name %q", name)
		}
		return name, true, nil
	}

	if strings.HasPrefix(segment, "[") || strings.HasSuffix(segment, "]") {
		if !strings.HasPrefix(segment, "[") || !strings.HasSuffix(segment, "]") {
			return "", false, fmt.Errorf("invalid parameter segment %q", segment)
		}

		name := strings.TrimSpace(segment[1 : len(segment)-1])
		if !paramNamePattern.MatchString(name) {
			return "", false, fmt.Errorf("invalid parameter name %q", name)
		}
		return name, true, nil
	}

	if strings.ContainsAny(segment, "[]:") {
		return "", false, fmt.Errorf("invalid static segment %q", segment)
	}

	return "", false, nil
}

// Routes returns the table in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// ParamNames lists the parameters of the named route in pattern order.
func (t *Table) ParamNames(name string) []string {
	entry, ok := t.byName[name]
	if !ok {
		return nil
	}
	return entry.paramNames()
}

func (t *Table) Match(requestPath string) (Match, bool) {
	requestSegments := splitPathSegments(requestPath)

	for _, entry := range t.routes {
		if len(entry.segments) != len(requestSegments) {
			continue
		}

		var params map[string]string
		var values []string
		matched := true

		for idx, segment := range entry.segments {
			requestValue := requestSegments[idx]
			if segment.isParam {
				if params == nil {
					params = make(map[string]string, 2)
				}
				params[segment.name] = requestValue
				values = append(values, requestValue)
				continue
			}
			if segment.name != requestValue {
				matched = false
				break
			}
		}

		if matched {
			return Match{Route: entry.route, Params: params, Values: values}, true
		}
	}

	return Match{}, false
}

// Path builds the URL path of the named route from positional parameter values.
func (t *Table) Path(name string, values ...string) (string, error) {
	entry, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("unknown route %q", name)
	}

	names := entry.paramNames()
	if len(values) != len(names) {
		return "", fmt.Errorf("route %q takes %d parameters, got %d", name, len(names), len(values))
	}

	parts := make([]string, 0, len(entry.segments))
	next := 0
	for _, segment := range entry.segments {
		if !segment.isParam {
			parts = append(parts, segment.name)
			continue
		}

		value := values[next]
		next++
		if !IsValidSegmentValue(value) {
			return "", fmt.Errorf("route %q: invalid value %q for parameter %q", name, value, segment.name)
		}
		parts = append(parts, url.PathEscape(value))
	}

	return "/" + strings.Join(parts, "/"), nil
}

// MatchPathPattern matches a single pattern without building a table.
func MatchPathPattern(pattern string, requestPath string) (map[string]string, bool) {
	patternSegments := splitPathSegments(pattern)
	requestSegments := splitPathSegments(requestPath)
	if len(patternSegments) != len(requestSegments) {
		return nil, false
	}

	params := make(map[string]string, 2)
	for idx, patternSegment := range patternSegments {
		name, isParam, err := parseSegment(patternSegment)
		if err != nil {
			return nil, false
		}

		requestSegment := requestSegments[idx]
		if !isParam {
			if patternSegment != requestSegment {
				return nil, false
			}
			continue
		}

		params[name] = requestSegment
	}

	return params, true
}

// IsValidSegmentValue reports whether value can fill a dynamic segment.
func IsValidSegmentValue(value string) bool {
	if value == "" || len(value) > maxSegmentValueLength || value == "." || value == ".." {
		return false
	}

	for _, r := range value {
		if r == '/' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func splitPathSegments(raw string) []string {
	cleaned := path.Clean("/" + strings.TrimSpace(raw))
	trimmed := strings.Trim(cleaned, "/")
	if trimmed == "" {
		return []string{}
	}

	return strings.Split(trimmed, "/")
}
