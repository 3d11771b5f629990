package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	app "github.com/okian/matchup/internal/app"
	"github.com/okian/matchup/internal/config"
	"github.com/okian/matchup/internal/domain/matchup"
	"github.com/okian/matchup/pkg/logger"
)

func init() {
	if err := logger.InitWithOptions(logger.Options{Writer: io.Discard}); err != nil {
		panic(err)
	}
}

// fakeBackend answers like the prediction service.
func fakeBackend() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/teams", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"teams":[{"id":1,"name":"Arsenal","shortName":"ARS"},{"id":2,"name":"Chelsea","shortName":"CHE"}]}`)
	})
	mux.HandleFunc("POST /api/predict", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"home_team":  body["homeTeam"],
			"away_team":  body["awayTeam"],
			"prediction": "Coming soon!",
		})
	})
	return httptest.NewServer(mux)
}

func testConfig(backendURL string) *config.Config {
	cfg := config.New()
	cfg.Addr = "127.0.0.1:0"
	cfg.PredictorBaseURL = backendURL
	cfg.PredictorTimeout = 2 * time.Second
	cfg.WorkerCount = 2
	cfg.QueueSize = 8
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("MATCHUP_ADDR", ":8081")
			_ = os.Setenv("MATCHUP_QUEUE_SIZE", "1000")
			_ = os.Setenv("MATCHUP_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("MATCHUP_ADDR")
				_ = os.Unsetenv("MATCHUP_QUEUE_SIZE")
				_ = os.Unsetenv("MATCHUP_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("MATCHUP_ADDR", "")
			defer func() { _ = os.Unsetenv("MATCHUP_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given a wired service against a fake backend", t, func() {
		backend := fakeBackend()
		convey.Reset(backend.Close)

		ctx := context.Background()
		cfg := testConfig(backend.URL)
		svc := newService(cfg, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		convey.Reset(svc.Stop)

		srv := httptest.NewServer(newMux(ctx, cfg, svc))
		convey.Reset(srv.Close)

		convey.Convey("When the JSON API drives a session to a prediction", func() {
			resp, err := http.Post(srv.URL+"/api/sessions", "application/json", nil)
			convey.So(err, convey.ShouldBeNil)
			var view matchup.View
			convey.So(json.NewDecoder(resp.Body).Decode(&view), convey.ShouldBeNil)
			resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)

			put := func(slot, name string) int {
				req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/sessions/"+view.ID+"/"+slot, strings.NewReader(`{"name":"`+name+`"}`))
				resp, err := http.DefaultClient.Do(req)
				convey.So(err, convey.ShouldBeNil)
				resp.Body.Close()
				return resp.StatusCode
			}
			convey.So(put("home", "Arsenal"), convey.ShouldEqual, http.StatusOK)
			convey.So(put("away", "Chelsea"), convey.ShouldEqual, http.StatusOK)

			resp, err = http.Post(srv.URL+"/api/sessions/"+view.ID+"/predict", "application/json", nil)
			convey.So(err, convey.ShouldBeNil)
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			convey.Convey("Then the backend prediction should come back", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(string(body), convey.ShouldContainSubstring, "Coming soon!")
			})
		})

		convey.Convey("When the other surfaces are requested", func() {
			get := func(path string) int {
				resp, err := http.Get(srv.URL + path)
				convey.So(err, convey.ShouldBeNil)
				resp.Body.Close()
				return resp.StatusCode
			}

			convey.Convey("Then each should be served", func() {
				convey.So(get("/"), convey.ShouldEqual, http.StatusOK)
				convey.So(get("/static/app.css"), convey.ShouldEqual, http.StatusOK)
				convey.So(get("/api/teams"), convey.ShouldEqual, http.StatusOK)
				convey.So(get("/openapi.yaml"), convey.ShouldEqual, http.StatusOK)
				convey.So(get("/api-docs"), convey.ShouldEqual, http.StatusOK)
				convey.So(get("/healthz"), convey.ShouldEqual, http.StatusOK)
				convey.So(get("/stats"), convey.ShouldEqual, http.StatusOK)
			})
		})
	})

	convey.Convey("Given MCP is disabled", t, func() {
		cfg := testConfig("http://localhost:5000")
		cfg.MCPEnabled = false
		svc := app.New(app.WithPredictor(nil))
		mux := newMux(context.Background(), cfg, svc)

		convey.Convey("Then the MCP path should not be mounted", func() {
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a configured server", t, func() {
		backend := fakeBackend()
		convey.Reset(backend.Close)
		cfg := testConfig(backend.URL)

		convey.Convey("When its context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg, logger.Get()) }()
			time.Sleep(50 * time.Millisecond)
			cancel()

			convey.Convey("Then it should shut down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					convey.So("run did not return", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When the address is already taken", func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			convey.So(err, convey.ShouldBeNil)
			defer ln.Close()
			cfg.Addr = ln.Addr().String()
			err = run(context.Background(), cfg, logger.Get())

			convey.Convey("Then the listen error should be returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		convey.Convey("When the context expires", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.Convey("Then both loops should return", func() {
				convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
				convey.So(func() { startServiceMetricsUpdater(ctx, app.New()) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When updating once", func() {
			convey.Convey("Then nothing should panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
				convey.So(func() { updateServiceMetrics(app.New()) }, convey.ShouldNotPanic)
			})
		})
	})
}
