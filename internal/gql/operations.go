package gql

import "github.com/Khan/genqlient/graphql"

//go:generate go tool genqlient genqlient.yaml

// BlogByIDRequest builds the BlogByID request for callers that watch it rather than run it once.
func BlogByIDRequest(id string) *graphql.Request {
	return &graphql.Request{
		OpName:    "BlogByID",
		Query:     BlogByID_Operation,
		Variables: &__BlogByIDInput{Id: id},
	}
}
