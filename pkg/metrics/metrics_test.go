package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then defaults are applied", func() {
				So(manager, ShouldNotBeNil)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(5*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metric names carry the namespace and subsystem", func() {
				manager.activeSessions.Set(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_namespace_test_subsystem_active_sessions")
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
			})
		})

		Convey("When invalid option values are given", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(-time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then they are ignored", func() {
				So(manager.namespace, ShouldEqual, "scoutlab")
				So(manager.subsystem, ShouldEqual, "analytics")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		m := GetManager()

		Convey("When recording training runs", func() {
			before := testutil.ToFloat64(m.trainingRuns.WithLabelValues("classification", "ok"))
			RecordTrainingRun("classification", "ok")
			RecordTrainingLatency("classification", 12)
			RecordTrainingRows(100)

			Convey("Then the labelled counter grows", func() {
				So(testutil.ToFloat64(m.trainingRuns.WithLabelValues("classification", "ok")), ShouldEqual, before+1)
			})
		})

		Convey("When recording memo lookups", func() {
			hits := testutil.ToFloat64(m.memoHits.WithLabelValues("dataset"))
			misses := testutil.ToFloat64(m.memoMisses.WithLabelValues("dataset"))
			RecordMemoHit("dataset")
			RecordMemoMiss("dataset")
			RecordMemoMiss("dataset")

			Convey("Then hits and misses are kept apart", func() {
				So(testutil.ToFloat64(m.memoHits.WithLabelValues("dataset")), ShouldEqual, hits+1)
				So(testutil.ToFloat64(m.memoMisses.WithLabelValues("dataset")), ShouldEqual, misses+2)
			})
		})

		Convey("When setting gauges", func() {
			UpdateActiveSessions(4)
			RecordCatalogLoad(250, 40)
			UpdateBreakerState("player-db", 2)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(m.activeSessions), ShouldEqual, 4)
				So(testutil.ToFloat64(m.catalogPlayers), ShouldEqual, 250)
				So(testutil.ToFloat64(m.breakerState.WithLabelValues("player-db")), ShouldEqual, 2)
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordPrediction(10, 3)
				RecordRecommendation(1.5)
				RecordBreakerTransition("player-db", "closed", "open")
				RecordHTTPRequest("/players", "GET", "200")
				RecordHTTPRequestDuration("/players", "GET", "200", 2)
				RecordErrorByComponent("trainer", "schema")
				RecordErrorByEndpoint("/sessions/{id}/train", "POST", "schema")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(8)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		done := make(chan struct{}, 10)
		before := testutil.ToFloat64(GetManager().recommendations)
		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					RecordRecommendation(float64(j))
					RecordHTTPRequest("/stats", "GET", "200")
				}
				done <- struct{}{}
			}()
		}
		for i := 0; i < 10; i++ {
			<-done
		}

		Convey("Then no increment is lost", func() {
			So(testutil.ToFloat64(GetManager().recommendations), ShouldEqual, before+1000)
		})
	})
}
