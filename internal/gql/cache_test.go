package gql

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustDocument(t *testing.T, query string) *document {
	t.Helper()

	doc, err := parseDocument("", query)
	require.NoError(t, err)
	return doc
}

func decodeMap(t *testing.T, payload string) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, decodeJSON([]byte(payload), &out))
	return out
}

func encode(t *testing.T, value any) string {
	t.Helper()

	raw, err := json.Marshal(value)
	require.NoError(t, err)
	return string(raw)
}

func TestCacheNormalizesNestedEntities(t *testing.T) {
	cache := NewCache(CacheConfig{})
	doc := mustDocument(t, `query { blog(id: 1) { id title author { id name } } }`)

	cache.write(doc, nil, decodeMap(t, `{
		"blog": {
			"__typename": "Blog", "id": "1", "title": "Hello",
			"author": {"__typename": "Author", "id": "a1", "name": "Ada"}
		}
	}`))

	extracted := cache.Extract()
	require.Equal(t, map[string]any{refKey: "Blog:1"}, extracted[rootQueryID][`blog({"id":1})`])
	require.Equal(t, map[string]any{refKey: "Author:a1"}, extracted["Blog:1"]["author"])
	require.Equal(t, "Ada", extracted["Author:a1"]["name"])

	result, ok := cache.read(doc, nil)
	require.True(t, ok)
	require.JSONEq(t, `{
		"blog": {
			"__typename": "Blog", "id": "1", "title": "Hello",
			"author": {"__typename": "Author", "id": "a1", "name": "Ada"}
		}
	}`, encode(t, result))
}

func TestCacheSharesEntitiesAcrossQueries(t *testing.T) {
	cache := NewCache(CacheConfig{})
	list := mustDocument(t, `query { blogs { id title } }`)
	detail := mustDocument(t, `query ($id: ID!) { blog(id: $id) { id title } }`)
	vars := map[string]any{"id": "2"}

	cache.write(list, nil, decodeMap(t, `{"blogs": [
		{"__typename": "Blog", "id": "1", "title": "One"},
		{"__typename": "Blog", "id": "2", "title": "Two"}
	]}`))
	cache.write(detail, vars, decodeMap(t, `{"blog": {"__typename": "Blog", "id": "2", "title": "Two, edited"}}`))

	result, ok := cache.read(list, nil)
	require.True(t, ok)
	require.JSONEq(t, `{"blogs": [
		{"__typename": "Blog", "id": "1", "title": "One"},
		{"__typename": "Blog", "id": "2", "title": "Two, edited"}
	]}`, encode(t, result))
}

func TestCacheReadMissesOnAbsentField(t *testing.T) {
	cache := NewCache(CacheConfig{})
	narrow := mustDocument(t, `query { blogs { id title } }`)
	wide := mustDocument(t, `query { blogs { id title content } }`)

	cache.write(narrow, nil, decodeMap(t, `{"blogs": [{"__typename": "Blog", "id": "1", "title": "One"}]}`))

	_, ok := cache.read(wide, nil)
	require.False(t, ok)

	_, ok = cache.read(mustDocument(t, `query { blog(id: "1") { id } }`), nil)
	require.False(t, ok)
}

func TestCacheAliasesShareStorage(t *testing.T) {
	cache := NewCache(CacheConfig{})
	aliased := mustDocument(t, `query { first: blog(id: "1") { id headline: title } }`)
	plain := mustDocument(t, `query { blog(id: "1") { id title } }`)

	cache.write(aliased, nil, decodeMap(t, `{"first": {"__typename": "Blog", "id": "1", "headline": "Hi"}}`))

	result, ok := cache.read(plain, nil)
	require.True(t, ok)
	require.JSONEq(t, `{"blog": {"__typename": "Blog", "id": "1", "title": "Hi"}}`, encode(t, result))
}

func TestCacheKeepsUnidentifiedObjectsInline(t *testing.T) {
	cache := NewCache(CacheConfig{})
	doc := mustDocument(t, `query { stats { total drafts } }`)

	cache.write(doc, nil, decodeMap(t, `{"stats": {"__typename": "Stats", "total": 3, "drafts": 1}}`))

	extracted := cache.Extract()
	require.Len(t, extracted, 1)

	result, ok := cache.read(doc, nil)
	require.True(t, ok)
	require.JSONEq(t, `{"stats": {"__typename": "Stats", "total": 3, "drafts": 1}}`, encode(t, result))
}

func TestCacheFragments(t *testing.T) {
	cache := NewCache(CacheConfig{
		PossibleTypes: map[string][]string{"Content": {"Blog", "Page"}},
	})
	doc := mustDocument(t, `
		query {
			feed {
				id
				... on Blog { title }
				...PageFields
				... on Content { slug }
			}
		}
		fragment PageFields on Page { path }
	`)

	cache.write(doc, nil, decodeMap(t, `{"feed": [
		{"__typename": "Blog", "id": "1", "title": "Post", "slug": "post"},
		{"__typename": "Page", "id": "2", "path": "/about", "slug": "about"}
	]}`))

	result, ok := cache.read(doc, nil)
	require.True(t, ok)
	require.JSONEq(t, `{"feed": [
		{"__typename": "Blog", "id": "1", "title": "Post", "slug": "post"},
		{"__typename": "Page", "id": "2", "path": "/about", "slug": "about"}
	]}`, encode(t, result))
}

func TestCacheEvictInvalidatesDependentResults(t *testing.T) {
	cache := NewCache(CacheConfig{})
	doc := mustDocument(t, `query { blogs { id title } }`)
	cache.write(doc, nil, decodeMap(t, `{"blogs": [{"__typename": "Blog", "id": "1", "title": "One"}]}`))

	changed := cache.Changed()
	require.True(t, cache.Evict("Blog:1"))
	require.False(t, cache.Evict("Blog:1"))

	select {
	case <-changed:
	default:
		t.Fatal("expected eviction to signal a change")
	}

	_, ok := cache.read(doc, nil)
	require.False(t, ok)
}

func TestCacheEvictFieldDropsEveryArgumentVariant(t *testing.T) {
	cache := NewCache(CacheConfig{})
	list := mustDocument(t, `query { blogs { id title } }`)
	one := mustDocument(t, `query { blog(id: 1) { id title } }`)
	cache.write(list, nil, decodeMap(t, `{"blogs": [{"__typename": "Blog", "id": "1", "title": "One"}]}`))
	cache.write(one, nil, decodeMap(t, `{"blog": {"__typename": "Blog", "id": "1", "title": "One"}}`))

	changed := cache.Changed()
	require.True(t, cache.EvictField(RootQueryID, "blogs"))
	require.False(t, cache.EvictField(RootQueryID, "blogs"))
	require.False(t, cache.EvictField("Blog:404", "title"))

	select {
	case <-changed:
	default:
		t.Fatal("expected field eviction to signal a change")
	}

	_, ok := cache.read(list, nil)
	require.False(t, ok)
	_, ok = cache.read(one, nil)
	require.True(t, ok, "blog(id:1) shares no store name with blogs")
	require.Contains(t, cache.Extract(), "Blog:1")
}

func TestCacheResetClearsEverything(t *testing.T) {
	cache := NewCache(CacheConfig{})
	doc := mustDocument(t, `query { blogs { id } }`)
	cache.write(doc, nil, decodeMap(t, `{"blogs": [{"__typename": "Blog", "id": "1"}]}`))
	require.Equal(t, 2, cache.Size())

	cache.Reset()
	require.Zero(t, cache.Size())
}

func TestCacheDoesNotAnswerMutations(t *testing.T) {
	cache := NewCache(CacheConfig{})
	doc := mustDocument(t, `mutation { touch { id } }`)
	cache.write(doc, nil, decodeMap(t, `{"touch": {"__typename": "Blog", "id": "1"}}`))

	_, ok := cache.read(doc, nil)
	require.False(t, ok)
	require.Contains(t, cache.Extract(), rootMutationID)
	require.Contains(t, cache.Extract(), "Blog:1")
}

func TestDefaultDataID(t *testing.T) {
	tests := []struct {
		name     string
		object   map[string]any
		expected string
		ok       bool
	}{
		{name: "string id", object: map[string]any{"__typename": "Blog", "id": "7"}, expected: "Blog:7", ok: true},
		{name: "numeric id", object: map[string]any{"__typename": "Blog", "id": json.Number("7")}, expected: "Blog:7", ok: true},
		{name: "underscore id", object: map[string]any{"__typename": "Book", "_id": "b"}, expected: "Book:b", ok: true},
		{name: "no typename", object: map[string]any{"id": "7"}},
		{name: "no id", object: map[string]any{"__typename": "Stats"}},
		{name: "empty id", object: map[string]any{"__typename": "Blog", "id": ""}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DefaultDataID(tc.object)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestCacheCustomDataID(t *testing.T) {
	cache := NewCache(CacheConfig{
		DataID: func(object map[string]any) (string, bool) {
			slug, ok := object["slug"].(string)
			return "slug:" + slug, ok
		},
	})

	id, ok := cache.Identify(map[string]any{"slug": "hello"})
	require.True(t, ok)
	require.Equal(t, "slug:hello", id)
}
