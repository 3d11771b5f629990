package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register under the matchup namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.rosterLoads.WithLabelValues(OutcomeOK).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "matchup_form_roster_loads_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 10, 100})
			})
		})

		Convey("When passing empty option values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(nil),
			)

			Convey("Then the defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "matchup")
				So(manager.subsystem, ShouldEqual, "form")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
				So(manager.registry, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics helpers", t, func() {
		Convey("When recording controller outcomes", func() {
			before := testutil.ToFloat64(globalManager.predictions.WithLabelValues(OutcomeStale))
			RecordPrediction(OutcomeStale)
			RecordRosterLoad(OutcomeFailed)
			RecordSelection("away", OutcomeRejected)

			Convey("Then counters should advance", func() {
				So(testutil.ToFloat64(globalManager.predictions.WithLabelValues(OutcomeStale)), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.rosterLoads.WithLabelValues(OutcomeFailed)), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.selections.WithLabelValues("away", OutcomeRejected)), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateActiveSessions(7)
			UpdateQueueSize(3)
			UpdateQueueCapacity(64)
			UpdateWorkerCount(4)

			Convey("Then the gauges should hold the last value", func() {
				So(testutil.ToFloat64(globalManager.activeSess), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 64)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
			})
		})

		Convey("When recording expired sessions", func() {
			before := testutil.ToFloat64(globalManager.expiredSess)
			RecordSessionsExpired(0)
			RecordSessionsExpired(2)

			Convey("Then only positive counts should be added", func() {
				So(testutil.ToFloat64(globalManager.expiredSess), ShouldEqual, before+2)
			})
		})

		Convey("When recording remaining metrics", func() {
			Convey("Then none of them should panic", func() {
				So(func() {
					RecordUpstreamCall("teams", OutcomeOK, 12.5)
					RecordHTTPRequest("/api/teams", "GET", "200")
					RecordHTTPRequestDuration("/api/teams", "GET", "200", 3)
					RecordQueueEnqueue()
					RecordQueueEnqueueError()
					RecordWorkerProcessingLatency(40)
					RecordErrorByComponent("predictor", "status")
					RecordErrorByType("status", "error")
					RecordErrorByEndpoint("/api/predict", "POST", "upstream")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(12)
				}, ShouldNotPanic)
			})
		})

		Convey("When reading the registry", func() {
			Convey("Then it should be the shared custom registry", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
			})
		})
	})
}
