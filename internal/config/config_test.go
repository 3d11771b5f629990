package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/matchup/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.PredictorBaseURL, convey.ShouldEqual, "http://localhost:5000")
			convey.So(cfg.PredictorTimeout, convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.QueueSize, convey.ShouldEqual, 256)
			convey.So(cfg.SessionTTL, convey.ShouldEqual, 30*time.Minute)
			convey.So(cfg.MCPPath, convey.ShouldEqual, "/mcp")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad setting", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":           func(c *config.Config) { c.Addr = " " },
			"zero workers":         func(c *config.Config) { c.WorkerCount = 0 },
			"zero queue":           func(c *config.Config) { c.QueueSize = 0 },
			"negative dedupe":      func(c *config.Config) { c.DedupeSize = -1 },
			"zero sessions":        func(c *config.Config) { c.MaxSessions = 0 },
			"zero timeout":         func(c *config.Config) { c.PredictorTimeout = 0 },
			"zero ttl":             func(c *config.Config) { c.SessionTTL = 0 },
			"relative mcp path":    func(c *config.Config) { c.MCPPath = "mcp" },
			"unknown log format":   func(c *config.Config) { c.LogFormat = "xml" },
			"non http backend":     func(c *config.Config) { c.PredictorBaseURL = "ftp://backend" },
			"backend without host": func(c *config.Config) { c.PredictorBaseURL = "http://" },
		}

		convey.Convey("Then each should fail validation with ErrInvalidConfig", func() {
			for _, mutate := range cases {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})

		convey.Convey("Then a relative mcp path is fine when MCP is off", func() {
			cfg := config.New()
			cfg.MCPEnabled = false
			cfg.MCPPath = ""
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
