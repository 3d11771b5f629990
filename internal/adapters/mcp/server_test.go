package mcp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/matchup/internal/domain/matchup"
	model "github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/pkg/logger"
)

func init() {
	if err := logger.InitWithOptions(logger.Options{Writer: io.Discard}); err != nil {
		panic(err)
	}
}

type fakeDeps struct {
	teams    []model.Team
	teamsErr error
	home     string
	away     string
	result   matchup.PredictResult
}

func (f *fakeDeps) Teams(context.Context) ([]model.Team, error) {
	return f.teams, f.teamsErr
}

func (f *fakeDeps) PredictMatchup(_ context.Context, home, away string) matchup.PredictResult {
	f.home, f.away = home, away
	return f.result
}

func connect(ctx context.Context, deps Dependencies) (*mcpsdk.ClientSession, error) {
	clientT, serverT := mcpsdk.NewInMemoryTransports()
	if _, err := NewServer(deps, "test").Connect(ctx, serverT, nil); err != nil {
		return nil, err
	}
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "v0"}, nil)
	return client.Connect(ctx, clientT, nil)
}

func text(res *mcpsdk.CallToolResult) string {
	var b strings.Builder
	for _, c := range res.Content {
		if t, ok := c.(*mcpsdk.TextContent); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

func TestTools(t *testing.T) {
	convey.Convey("Given an MCP session on the matchup tools", t, func() {
		ctx := context.Background()
		deps := &fakeDeps{
			teams: []model.Team{
				{ID: "1", Name: "Arsenal", ShortName: "ARS"},
				{ID: "2", Name: "Chelsea", ShortName: "CHE"},
			},
			result: matchup.Ok(1, model.MustParsePrediction(`{"home_team":"Arsenal","away_team":"Chelsea","prediction":"Coming soon!"}`)),
		}
		session, err := connect(ctx, deps)
		convey.So(err, convey.ShouldBeNil)
		convey.Reset(func() { _ = session.Close() })

		convey.Convey("When listing tools", func() {
			list, err := session.ListTools(ctx, nil)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then both tools should be advertised", func() {
				names := make([]string, 0, len(list.Tools))
				for _, tool := range list.Tools {
					names = append(names, tool.Name)
				}
				convey.So(names, convey.ShouldContain, ToolListTeams)
				convey.So(names, convey.ShouldContain, ToolPredictMatch)
			})
		})

		convey.Convey("When calling list_teams", func() {
			res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: ToolListTeams, Arguments: map[string]any{}})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the roster should be returned as JSON", func() {
				convey.So(res.IsError, convey.ShouldBeFalse)
				convey.So(text(res), convey.ShouldContainSubstring, `"shortName": "ARS"`)
			})
		})

		convey.Convey("When the backend is down", func() {
			deps.teamsErr = errors.New("connection refused")
			res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: ToolListTeams, Arguments: map[string]any{}})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the tool should report an error result", func() {
				convey.So(res.IsError, convey.ShouldBeTrue)
				convey.So(text(res), convey.ShouldContainSubstring, "connection refused")
			})
		})

		convey.Convey("When calling predict_match", func() {
			res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
				Name:      ToolPredictMatch,
				Arguments: map[string]any{"home_team": " Arsenal ", "away_team": "Chelsea"},
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the backend body should be returned", func() {
				convey.So(res.IsError, convey.ShouldBeFalse)
				convey.So(deps.home, convey.ShouldEqual, "Arsenal")
				convey.So(deps.away, convey.ShouldEqual, "Chelsea")
				convey.So(text(res), convey.ShouldContainSubstring, `"prediction": "Coming soon!"`)
			})
		})

		convey.Convey("When predict_match is given the same team twice", func() {
			deps.result = matchup.Fail(0, matchup.ErrSameTeam)
			res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
				Name:      ToolPredictMatch,
				Arguments: map[string]any{"home_team": "Arsenal", "away_team": "Arsenal"},
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the validation error should be surfaced", func() {
				convey.So(res.IsError, convey.ShouldBeTrue)
				convey.So(text(res), convey.ShouldContainSubstring, matchup.ErrSameTeam.Error())
			})
		})

		convey.Convey("When predict_match is missing a team", func() {
			res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
				Name:      ToolPredictMatch,
				Arguments: map[string]any{"home_team": "Arsenal", "away_team": ""},
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then no prediction should be attempted", func() {
				convey.So(res.IsError, convey.ShouldBeTrue)
				convey.So(deps.home, convey.ShouldBeEmpty)
			})
		})
	})
}

func TestRegister(t *testing.T) {
	convey.Convey("Given the MCP endpoint on a mux", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		convey.Reset(cancel)
		mux := http.NewServeMux()
		Register(ctx, mux, "", &fakeDeps{teams: []model.Team{{ID: "1", Name: "Arsenal", ShortName: "ARS"}}}, "test")
		srv := httptest.NewServer(mux)
		convey.Reset(srv.Close)

		convey.Convey("When a streamable HTTP client connects", func() {
			client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "http-client", Version: "v0"}, nil)
			session, err := client.Connect(ctx, &mcpsdk.StreamableClientTransport{Endpoint: srv.URL + DefaultPath}, nil)
			convey.So(err, convey.ShouldBeNil)
			defer session.Close()

			convey.Convey("Then tools should be callable", func() {
				res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: ToolListTeams, Arguments: map[string]any{}})
				convey.So(err, convey.ShouldBeNil)
				convey.So(text(res), convey.ShouldContainSubstring, "Arsenal")
			})
		})

		convey.Convey("When registering on a nil mux", func() {
			convey.Convey("Then it should panic", func() {
				convey.So(func() { Register(ctx, nil, "", &fakeDeps{}, "test") }, convey.ShouldPanic)
			})
		})
	})
}
