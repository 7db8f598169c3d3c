// Package graphql serves a read-only graphql-go schema over HTTP.
package graphql

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/farmlink/pkg/logger"
	"github.com/shashiranjanraj/farmlink/pkg/response"
)

// maxQueryBytes caps the request body.
const maxQueryBytes = 64 << 10

// NewSchema creates a new GraphQL schema from a provided RootQuery
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}

// Request is the standard GraphQL-over-HTTP body.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Execute runs req against schema.
func Execute(ctx context.Context, schema graphql.Schema, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        ctx,
	})
}

// Handler answers POST requests with the raw GraphQL result. Query errors
// are reported in the result's errors list with status 200; only an
// unreadable body is a 400.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			response.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST required"})
			return
		}

		var req Request
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBytes)).Decode(&req); err != nil || req.Query == "" {
			response.JSON(w, http.StatusBadRequest, map[string]string{"error": "body must be {\"query\": ...}"})
			return
		}

		result := Execute(r.Context(), schema, req)
		if result.HasErrors() {
			logger.WithCtx(r.Context()).Warn("graphql query failed", "errors", len(result.Errors))
		}
		response.JSON(w, http.StatusOK, result)
	}
}
