package gql

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

const typenameField = "__typename"

type operationKind string

const (
	operationQuery        operationKind = "query"
	operationMutation     operationKind = "mutation"
	operationSubscription operationKind = "subscription"
)

// document is a parsed operation with __typename added to every nested selection set.
type document struct {
	name      string
	kind      operationKind
	query     string
	operation *ast.OperationDefinition
	fragments ast.FragmentDefinitionList
}

type documentStore struct {
	mu   sync.RWMutex
	docs map[string]*document
}

func newDocumentStore() *documentStore {
	return &documentStore{docs: make(map[string]*document)}
}

func (s *documentStore) get(opName string, query string) (*document, error) {
	key := opName + "\x00" + query

	s.mu.RLock()
	doc, ok := s.docs[key]
	s.mu.RUnlock()
	if ok {
		return doc, nil
	}

	doc, err := parseDocument(opName, query)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.docs[key] = doc
	s.mu.Unlock()
	return doc, nil
}

func parseDocument(opName string, query string) (*document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("empty graphql document")
	}

	parsed, err := parser.ParseQuery(&ast.Source{Name: opName, Input: query})
	if err != nil {
		return nil, fmt.Errorf("parse graphql document %q: %w", opName, err)
	}

	op, err := selectOperation(parsed, opName)
	if err != nil {
		return nil, err
	}

	for _, fragment := range parsed.Fragments {
		fragment.SelectionSet = addTypename(fragment.SelectionSet)
	}
	for _, definition := range parsed.Operations {
		definition.SelectionSet = addTypenameBelowRoot(definition.SelectionSet)
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(parsed)

	return &document{
		name:      op.Name,
		kind:      operationKind(op.Operation),
		query:     buf.String(),
		operation: op,
		fragments: parsed.Fragments,
	}, nil
}

func selectOperation(doc *ast.QueryDocument, opName string) (*ast.OperationDefinition, error) {
	if len(doc.Operations) == 0 {
		return nil, errors.New("graphql document has no operation")
	}
	if opName == "" {
		if len(doc.Operations) > 1 {
			return nil, errors.New("graphql document has several operations and no operation name")
		}
		return doc.Operations[0], nil
	}

	op := doc.Operations.ForName(opName)
	if op == nil {
		return nil, fmt.Errorf("graphql document has no operation %q", opName)
	}
	return op, nil
}

// addTypenameBelowRoot leaves the root selection set alone, like the operation root types
// themselves are never normalized.
func addTypenameBelowRoot(set ast.SelectionSet) ast.SelectionSet {
	for _, selection := range set {
		addTypenameToSelection(selection)
	}
	return set
}

func addTypename(set ast.SelectionSet) ast.SelectionSet {
	if len(set) == 0 {
		return set
	}

	hasTypename := false
	for _, selection := range set {
		if field, ok := selection.(*ast.Field); ok && field.Name == typenameField && field.Alias == typenameField {
			hasTypename = true
		}
		addTypenameToSelection(selection)
	}
	if hasTypename {
		return set
	}

	return append(set, &ast.Field{Name: typenameField, Alias: typenameField})
}

func addTypenameToSelection(selection ast.Selection) {
	switch node := selection.(type) {
	case *ast.Field:
		node.SelectionSet = addTypename(node.SelectionSet)
	case *ast.InlineFragment:
		node.SelectionSet = addTypenameBelowRoot(node.SelectionSet)
	}
}

// responseKey is the key a field occupies in the response object.
func responseKey(field *ast.Field) string {
	if field.Alias != "" {
		return field.Alias
	}
	return field.Name
}
