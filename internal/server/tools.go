package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"github.com/cognicore/ingredients/pkg/ingredients"
)

type ParseIngredientParams struct {
	Line string `json:"line" description:"One free-text ingredient line"`
}

type ParseIngredientsParams struct {
	Lines []string `json:"lines" description:"Ingredient lines, parsed independently"`
}

// BatchResult is the parse_ingredients payload. Results[i] is nil when
// line i failed; its message is in Errors.
type BatchResult struct {
	Results []*ingredients.Ingredient `json:"results"`
	Errors  []string                  `json:"errors,omitempty"`
}

// extractParams converts the request arguments into target
func extractParams(req *protocol.CallToolRequest, target any) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func (s *Server) handleParseIngredient(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ParseIngredientParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Line) == "" {
		return nil, fmt.Errorf("%w: line is required", errInvalidParams)
	}

	ing, err := s.parser.Parse(ctx, params.Line)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(ing)
}

func (s *Server) handleParseIngredients(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ParseIngredientsParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if len(params.Lines) == 0 {
		return nil, fmt.Errorf("%w: lines is required", errInvalidParams)
	}

	results, err := s.parser.ParseAll(ctx, params.Lines)
	batch := BatchResult{Results: results}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				batch.Errors = append(batch.Errors, e.Error())
			}
		} else {
			batch.Errors = []string{err.Error()}
		}
	}
	if len(batch.Errors) == len(params.Lines) {
		return nil, err
	}
	return createJSONResponse(batch)
}
