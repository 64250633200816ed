package gql

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// ErrCacheMiss is returned for cache-only reads the cache cannot answer.
var ErrCacheMiss = errors.New("graphql result not in cache")

// OperationError carries GraphQL errors of an operation run with the "none" error policy.
// No data accompanies it.
type OperationError struct {
	OpName string
	Errors gqlerror.List
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("graphql operation %q: %s", e.OpName, e.Errors.Error())
}

func (e *OperationError) Unwrap() error {
	return e.Errors
}

// PartialResultError accompanies data decoded under the "all" error policy.
type PartialResultError struct {
	OpName string
	Errors gqlerror.List
}

func (e *PartialResultError) Error() string {
	return fmt.Sprintf("graphql operation %q returned partial data: %s", e.OpName, e.Errors.Error())
}

func (e *PartialResultError) Unwrap() error {
	return e.Errors
}

// Messages lists the messages of the GraphQL errors attached to err, if it is a partial result.
func Messages(err error) ([]string, bool) {
	var partial *PartialResultError
	if !errors.As(err, &partial) {
		return nil, false
	}

	messages := make([]string, 0, len(partial.Errors))
	for _, item := range partial.Errors {
		if item == nil {
			continue
		}
		messages = append(messages, item.Message)
	}
	return messages, true
}
