package gql

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/vektah/gqlparser/v2/ast"
)

// RootQueryID is the cache key of the object holding top-level query fields.
const RootQueryID = "ROOT_QUERY"

const (
	rootQueryID    = RootQueryID
	rootMutationID = "ROOT_MUTATION"

	rootQueryType    = "Query"
	rootMutationType = "Mutation"

	refKey = "__ref"
)

// DataIDFunc derives the normalized cache key of a response object.
type DataIDFunc func(object map[string]any) (string, bool)

type CacheConfig struct {
	// DataID overrides DefaultDataID.
	DataID DataIDFunc
	// PossibleTypes maps an interface or union name to its concrete type names so that
	// fragments on abstract types can be read back from the cache.
	PossibleTypes map[string][]string
}

// Cache is a normalized store of GraphQL response objects keyed by entity identity.
// It is safe for concurrent use.
type Cache struct {
	mu            sync.RWMutex
	entities      map[string]map[string]any
	dataID        DataIDFunc
	possibleTypes map[string]map[string]struct{}
	changed       chan struct{}
}

type reference struct {
	key string
}

func NewCache(cfg CacheConfig) *Cache {
	dataID := cfg.DataID
	if dataID == nil {
		dataID = DefaultDataID
	}

	possible := make(map[string]map[string]struct{}, len(cfg.PossibleTypes))
	for supertype, subtypes := range cfg.PossibleTypes {
		set := make(map[string]struct{}, len(subtypes))
		for _, subtype := range subtypes {
			set[subtype] = struct{}{}
		}
		possible[supertype] = set
	}

	return &Cache{
		entities:      make(map[string]map[string]any),
		dataID:        dataID,
		possibleTypes: possible,
		changed:       make(chan struct{}),
	}
}

// empty returns a new cache with the identity rules of c and no entities.
func (c *Cache) empty() *Cache {
	return &Cache{
		entities:      make(map[string]map[string]any),
		dataID:        c.dataID,
		possibleTypes: c.possibleTypes,
		changed:       make(chan struct{}),
	}
}

// DefaultDataID keys objects by __typename plus id or _id.
func DefaultDataID(object map[string]any) (string, bool) {
	typename, _ := object[typenameField].(string)
	if typename == "" {
		return "", false
	}

	for _, field := range []string{"id", "_id"} {
		switch id := object[field].(type) {
		case string:
			if id != "" {
				return typename + ":" + id, true
			}
		case json.Number:
			return typename + ":" + id.String(), true
		case float64:
			return fmt.Sprintf("%s:%v", typename, id), true
		}
	}

	return "", false
}

// Identify returns the cache key object would be stored under.
func (c *Cache) Identify(object map[string]any) (string, bool) {
	return c.dataID(object)
}

// Changed returns a channel that is closed on the next write, eviction or reset.
func (c *Cache) Changed() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.changed
}

func (c *Cache) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// Evict removes one entity. Results that referenced it become incomplete and are refetched.
func (c *Cache) Evict(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entities[id]; !ok {
		return false
	}
	delete(c.entities, id)
	c.notifyLocked()
	return true
}

// EvictField drops every stored variant of fieldName from entity id, whatever its arguments.
// Queries selecting the field miss the cache afterwards and are fetched again.
func (c *Cache) EvictField(id string, fieldName string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields, ok := c.entities[id]
	if !ok {
		return false
	}

	removed := false
	for name := range fields {
		if name == fieldName || strings.HasPrefix(name, fieldName+"(") {
			delete(fields, name)
			removed = true
		}
	}
	if removed {
		c.notifyLocked()
	}
	return removed
}

func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entities = make(map[string]map[string]any)
	c.notifyLocked()
}

func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entities)
}

// Extract returns a copy of the store with references rendered as {"__ref": key}.
func (c *Cache) Extract() map[string]map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]map[string]any, len(c.entities))
	for id, fields := range c.entities {
		copied := make(map[string]any, len(fields))
		for name, value := range fields {
			copied[name] = extractValue(value)
		}
		out[id] = copied
	}
	return out
}

func extractValue(value any) any {
	switch v := value.(type) {
	case reference:
		return map[string]any{refKey: v.key}
	case []any:
		items := make([]any, len(v))
		for idx, item := range v {
			items[idx] = extractValue(item)
		}
		return items
	case map[string]any:
		object := make(map[string]any, len(v))
		for name, item := range v {
			object[name] = extractValue(item)
		}
		return object
	default:
		return v
	}
}

func (c *Cache) write(doc *document, variables map[string]any, data map[string]any) {
	rootID, rootType := rootQueryID, rootQueryType
	if doc.kind == operationMutation {
		rootID, rootType = rootMutationID, rootMutationType
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	w := selectionWalker{cache: c, fragments: doc.fragments, variables: variables}
	fields := w.writeSelection(doc.operation.SelectionSet, data, rootType)
	c.mergeLocked(rootID, fields)
	c.notifyLocked()
}

// read returns the operation result when every selected field is present.
func (c *Cache) read(doc *document, variables map[string]any) (map[string]any, bool) {
	if doc.kind != operationQuery {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	root, ok := c.entities[rootQueryID]
	if !ok {
		return nil, false
	}

	w := selectionWalker{cache: c, fragments: doc.fragments, variables: variables}
	return w.readSelection(doc.operation.SelectionSet, root, rootQueryType)
}

func (c *Cache) mergeLocked(id string, fields map[string]any) {
	existing, ok := c.entities[id]
	if !ok {
		existing = make(map[string]any, len(fields))
		c.entities[id] = existing
	}
	for name, value := range fields {
		existing[name] = value
	}
}

type selectionWalker struct {
	cache     *Cache
	fragments ast.FragmentDefinitionList
	variables map[string]any
}

func (w selectionWalker) writeSelection(set ast.SelectionSet, object map[string]any, typename string) map[string]any {
	fields := w.collectFields(set, typename, nil)
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		value, present := object[responseKey(field)]
		if !present {
			continue
		}
		out[w.storeFieldName(field)] = w.writeValue(field, value)
	}
	return out
}

func (w selectionWalker) writeValue(field *ast.Field, value any) any {
	if len(field.SelectionSet) == 0 {
		return value
	}

	switch v := value.(type) {
	case []any:
		items := make([]any, len(v))
		for idx, item := range v {
			items[idx] = w.writeValue(field, item)
		}
		return items
	case map[string]any:
		typename, _ := v[typenameField].(string)
		fields := w.writeSelection(field.SelectionSet, v, typename)
		if id, ok := w.cache.dataID(v); ok {
			w.cache.mergeLocked(id, fields)
			return reference{key: id}
		}
		return fields
	default:
		return v
	}
}

func (w selectionWalker) readSelection(set ast.SelectionSet, stored map[string]any, typename string) (map[string]any, bool) {
	fields := w.collectFields(set, typename, nil)
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		value, ok := stored[w.storeFieldName(field)]
		if !ok {
			if field.Name == typenameField && typename != "" {
				out[responseKey(field)] = typename
				continue
			}
			return nil, false
		}

		resolved, ok := w.readValue(field, value)
		if !ok {
			return nil, false
		}
		out[responseKey(field)] = resolved
	}
	return out, true
}

func (w selectionWalker) readValue(field *ast.Field, value any) (any, bool) {
	if len(field.SelectionSet) == 0 {
		return value, true
	}

	switch v := value.(type) {
	case nil:
		return nil, true
	case reference:
		entity, ok := w.cache.entities[v.key]
		if !ok {
			return nil, false
		}
		typename, _ := entity[typenameField].(string)
		return w.readSelection(field.SelectionSet, entity, typename)
	case map[string]any:
		typename, _ := v[typenameField].(string)
		return w.readSelection(field.SelectionSet, v, typename)
	case []any:
		items := make([]any, len(v))
		for idx, item := range v {
			resolved, ok := w.readValue(field, item)
			if !ok {
				return nil, false
			}
			items[idx] = resolved
		}
		return items, true
	default:
		return nil, false
	}
}

// collectFields flattens fragments that apply to typename into their fields.
func (w selectionWalker) collectFields(set ast.SelectionSet, typename string, out []*ast.Field) []*ast.Field {
	for _, selection := range set {
		switch node := selection.(type) {
		case *ast.Field:
			out = append(out, node)
		case *ast.InlineFragment:
			if w.typeMatches(node.TypeCondition, typename) {
				out = w.collectFields(node.SelectionSet, typename, out)
			}
		case *ast.FragmentSpread:
			definition := w.fragments.ForName(node.Name)
			if definition != nil && w.typeMatches(definition.TypeCondition, typename) {
				out = w.collectFields(definition.SelectionSet, typename, out)
			}
		}
	}
	return out
}

func (w selectionWalker) typeMatches(condition string, typename string) bool {
	if condition == "" || typename == "" || condition == typename {
		return true
	}
	_, ok := w.cache.possibleTypes[condition][typename]
	return ok
}

// storeFieldName keys a field by name and resolved arguments, so aliases share storage.
func (w selectionWalker) storeFieldName(field *ast.Field) string {
	if len(field.Arguments) == 0 {
		return field.Name
	}

	args := make(map[string]any, len(field.Arguments))
	for _, argument := range field.Arguments {
		value, err := argument.Value.Value(w.variables)
		if err != nil {
			args[argument.Name] = argument.Value.String()
			continue
		}
		args[argument.Name] = value
	}

	encoded, err := json.Marshal(args)
	if err != nil {
		var b strings.Builder
		for _, argument := range field.Arguments {
			b.WriteString(argument.Name + ":" + argument.Value.String() + ",")
		}
		return field.Name + "(" + b.String() + ")"
	}
	return field.Name + "(" + string(encoded) + ")"
}
