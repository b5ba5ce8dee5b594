package graph

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"
)

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler executes GraphQL requests against the schema. The HTTP status is
// taken from the first domain error raised during execution, falling back
// to 200.
type Handler struct {
	schema graphql.Schema
	logger *zerolog.Logger
}

// NewHandler creates a Handler serving the given schema.
func NewHandler(schema graphql.Schema, logger *zerolog.Logger) *Handler {
	return &Handler{
		schema: schema,
		logger: logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx, recorder := withRecorder(r.Context())

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        ctx,
	})

	status := http.StatusOK
	if first := recorder.first(); first != nil {
		status = first.Status
	}

	// Backfill machine codes the library did not carry through on its own.
	for i := range result.Errors {
		if len(result.Errors[i].Extensions) == 0 {
			if domainErr := recorder.find(result.Errors[i].Message); domainErr != nil {
				result.Errors[i].Extensions = domainErr.Extensions()
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode GraphQL response")
	}
}
