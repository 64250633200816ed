package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"blogcms/internal/deployment"
	"github.com/suessflorian/gqlfetch"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

func main() {
	var name string
	var endpoint string
	var out string
	var queries string
	var timeout time.Duration

	flag.StringVar(&name, "deployment", deployment.API, "deployment whose endpoint is introspected")
	flag.StringVar(&endpoint, "endpoint", "", "endpoint to introspect instead of the deployment's")
	flag.StringVar(&out, "out", "internal/gql/schema.graphql", "file the SDL schema is written to")
	flag.StringVar(&queries, "queries", "internal/gql/queries.graphql", "operations validated against the fetched schema")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "introspection timeout")
	flag.Parse()

	if err := run(name, endpoint, out, queries, timeout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "schemafetch: %v\n", err)
		os.Exit(1)
	}
}

func run(name string, endpoint string, out string, queries string, timeout time.Duration) error {
	profile, err := deployment.Lookup(name)
	if err != nil {
		return err
	}
	profile, err = profile.WithEndpoint(endpoint)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sdl, err := gqlfetch.BuildClientSchema(ctx, profile.Endpoint, true)
	if err != nil {
		return fmt.Errorf("introspect %s: %w", profile.Endpoint, err)
	}

	if queries != "" {
		if err := validate(sdl, queries); err != nil {
			return err
		}
	}

	if err := os.WriteFile(out, []byte(sdl), 0o644); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stdout, "wrote %s from %s\n", out, profile.Endpoint)
	return nil
}

// validate checks that the client operations still type-check against the fetched schema.
func validate(sdl string, queriesPath string) error {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: sdl})
	if err != nil {
		return fmt.Errorf("parse fetched schema: %w", err)
	}

	raw, err := os.ReadFile(queriesPath)
	if err != nil {
		return fmt.Errorf("read operations: %w", err)
	}

	if _, errs := gqlparser.LoadQuery(schema, string(raw)); len(errs) > 0 {
		return errors.Join(fmt.Errorf("operations in %s do not match the schema", queriesPath), errs)
	}
	return nil
}
