package github

import (
	"context"
	"fmt"
	"strings"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

type graphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []graphQLError `json:"errors,omitempty"`
}

// GraphQLError is returned when the endpoint answers with an errors array.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// graphql posts query through the go-github transport so auth, user agent and
// base URL match the REST calls.
func graphql[T any](ctx context.Context, c *Client, op string, retryable bool, query string, vars map[string]any) (*T, error) {
	return call(ctx, c, op, retryable, func(ctx context.Context) (*T, error) {
		req, err := c.gh.NewRequest("POST", "graphql", graphQLRequest{Query: query, Variables: vars})
		if err != nil {
			return nil, fmt.Errorf("failed to build graphql request: %w", err)
		}

		var out graphQLResponse[T]
		if _, err := c.gh.Do(ctx, req, &out); err != nil {
			return nil, err
		}
		if len(out.Errors) > 0 {
			gqlErr := &GraphQLError{}
			for _, e := range out.Errors {
				gqlErr.Messages = append(gqlErr.Messages, e.Message)
			}
			return nil, gqlErr
		}
		return &out.Data, nil
	})
}
