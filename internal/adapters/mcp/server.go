// Package mcp exposes the matchup controller as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/okian/matchup/internal/adapters/http/api"
	"github.com/okian/matchup/internal/domain/matchup"
	model "github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/pkg/logger"
)

// Tool names.
const (
	ToolListTeams    = "list_teams"
	ToolPredictMatch = "predict_match"

	// DefaultPath is where the streamable HTTP endpoint is mounted.
	DefaultPath = "/mcp"
)

// ErrMissingTeam is returned when a predict_match argument is blank.
var ErrMissingTeam = errors.New("home_team and away_team are required")

// Dependencies are the controller operations the tools call.
type Dependencies interface {
	Teams(ctx context.Context) ([]model.Team, error)
	PredictMatchup(ctx context.Context, home, away string) matchup.PredictResult
}

// ListTeamsArgs takes no arguments.
type ListTeamsArgs struct{}

// PredictMatchArgs names the two teams of the matchup.
type PredictMatchArgs struct {
	HomeTeam string `json:"home_team" jsonschema:"Home team name as listed by list_teams (required)"`
	AwayTeam string `json:"away_team" jsonschema:"Away team name, different from the home team (required)"`
}

// NewServer builds an MCP server with the matchup tools registered.
func NewServer(deps Dependencies, version string) *mcpsdk.Server {
	log := logger.Get().Named("mcp")
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "matchup-predictor",
		Version: version,
	}, nil)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolListTeams,
		Description: "List the teams the prediction backend knows, with id, name and shortName",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, _ ListTeamsArgs) (*mcpsdk.CallToolResult, any, error) {
		teams, err := deps.Teams(ctx)
		if err != nil {
			log.Warn(ctx, "list_teams failed", logger.Error(err))
			return toolError(err), nil, nil
		}
		if teams == nil {
			teams = []model.Team{}
		}
		return toolJSON(json.MarshalIndent(map[string]any{"teams": teams}, "", "  "))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolPredictMatch,
		Description: "Predict a matchup between two distinct teams from the roster",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, args PredictMatchArgs) (*mcpsdk.CallToolResult, any, error) {
		home := strings.TrimSpace(args.HomeTeam)
		away := strings.TrimSpace(args.AwayTeam)
		if home == "" || away == "" {
			return toolError(ErrMissingTeam), nil, nil
		}
		res := deps.PredictMatchup(ctx, home, away)
		if !res.OK() {
			log.Warn(ctx, "predict_match failed",
				logger.String("home", home),
				logger.String("away", away),
				logger.Error(res.Err),
			)
			return toolError(res.Err), nil, nil
		}
		return toolJSONBytes([]byte(res.Prediction.Pretty())), nil, nil
	})

	return server
}

// NewHandler serves server over streamable HTTP with plain JSON responses.
func NewHandler(server *mcpsdk.Server) http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return server
	}, &mcpsdk.StreamableHTTPOptions{JSONResponse: true})
}

// Register mounts the MCP endpoint at path on mux.
func Register(_ context.Context, mux *http.ServeMux, path string, deps Dependencies, version string) {
	if mux == nil {
		panic("mux is nil")
	}
	if path == "" {
		path = DefaultPath
	}
	h := NewHandler(NewServer(deps, version))
	mux.HandleFunc(path, api.MetricsMiddleware(h.ServeHTTP, "mcp"))
}

func toolJSON(res []byte, err error) (*mcpsdk.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSONBytes(res), nil, nil
}

func toolJSONBytes(res []byte) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(res)},
		},
	}
}

func toolError(err error) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
