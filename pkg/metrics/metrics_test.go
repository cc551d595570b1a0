package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			bucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			enabledOpt := WithMetricsEnabled(true)
			labelsOpt := WithConstLabels(map[string]string{"env": "test"})
			registryOpt := WithRegistry(prometheus.NewRegistry())

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(bucketsOpt, ShouldNotBeNil)
				So(enabledOpt, ShouldNotBeNil)
				So(labelsOpt, ShouldNotBeNil)
				So(registryOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager()

			Convey("Then it should own a registry", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Registry(), ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithRegistry(registry),
			)

			Convey("Then it should use the given registry", func() {
				So(manager.Registry(), ShouldEqual, registry)
			})
		})

		Convey("When two managers are created", func() {
			Convey("Then registering twice should not panic", func() {
				So(func() {
					NewManager()
					NewManager()
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given an enabled manager", t, func() {
		m := NewManager(WithRegistry(prometheus.NewRegistry()))

		Convey("When recording HTTP requests", func() {
			m.RecordHTTPRequest("/api/global", "GET", 200, 5*time.Millisecond)
			m.RecordHTTPRequest("/api/global", "GET", 200, 7*time.Millisecond)
			m.RecordHTTPRequest("/api/country/{name}", "GET", 404, time.Millisecond)

			Convey("Then counters are labelled by route and status", func() {
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/global", "GET", "200")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/country/{name}", "GET", "404")), ShouldEqual, 1)
			})
		})

		Convey("When recording upstream calls", func() {
			m.RecordUpstream("countries", nil, time.Second)
			m.RecordUpstream("countries", errors.New("boom"), time.Second)

			Convey("Then success and failure are split", func() {
				So(testutil.ToFloat64(m.upstreamRequests.WithLabelValues("countries", OutcomeSuccess)), ShouldEqual, 1)
				So(testutil.ToFloat64(m.upstreamRequests.WithLabelValues("countries", OutcomeFailure)), ShouldEqual, 1)
			})
		})

		Convey("When recording cache lookups", func() {
			m.RecordCacheHit("countries")
			m.RecordCacheHit("countries")
			m.RecordCacheMiss("historical")

			Convey("Then hits and misses are counted per cache", func() {
				So(testutil.ToFloat64(m.cacheHits.WithLabelValues("countries")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.cacheMisses.WithLabelValues("historical")), ShouldEqual, 1)
			})
		})

		Convey("When recording refresh runs", func() {
			at := time.Unix(1700000000, 0)
			m.RecordRefresh(OutcomeSuccess, at)
			m.RecordRefresh(OutcomeFallback, at.Add(time.Hour))
			m.RecordSnapshotFallback()

			Convey("Then the last success time only moves on success", func() {
				So(testutil.ToFloat64(m.lastRefreshUnix), ShouldEqual, 1700000000)
				So(testutil.ToFloat64(m.refreshRuns.WithLabelValues(OutcomeFallback)), ShouldEqual, 1)
				So(testutil.ToFloat64(m.snapshotFallbacks), ShouldEqual, 1)
			})
		})

		Convey("When setting gauges", func() {
			m.SetTrackedCountries(231)
			m.SetWebsocketClients(3)

			Convey("Then they hold the latest value", func() {
				So(testutil.ToFloat64(m.trackedCountries), ShouldEqual, 231)
				So(testutil.ToFloat64(m.websocketClients), ShouldEqual, 3)
			})
		})
	})
}

func TestDisabledAndNilManager(t *testing.T) {
	Convey("Given a disabled manager", t, func() {
		m := NewManager(WithRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))

		Convey("Then recording is a no-op", func() {
			m.RecordCacheHit("countries")
			So(testutil.ToFloat64(m.cacheHits.WithLabelValues("countries")), ShouldEqual, 0)
		})
	})

	Convey("Given a nil manager", t, func() {
		var m *Manager

		Convey("Then every method is safe to call", func() {
			So(func() {
				m.RecordHTTPRequest("/", "GET", 200, time.Millisecond)
				m.RecordUpstream("all", nil, time.Millisecond)
				m.RecordCacheHit("x")
				m.RecordCacheMiss("x")
				m.RecordRefresh(OutcomeSuccess, time.Now())
				m.RecordSnapshotFallback()
				m.SetTrackedCountries(1)
				m.SetWebsocketClients(1)
			}, ShouldNotPanic)
			So(m.Enabled(), ShouldBeFalse)
			So(m.Registry(), ShouldBeNil)
		})
	})
}

func TestHandler(t *testing.T) {
	Convey("Given a manager with recorded data", t, func() {
		m := NewManager(WithRegistry(prometheus.NewRegistry()))
		m.RecordCacheHit("global")

		Convey("When scraping the handler", func() {
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Convey("Then the exposition contains the metric", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(strings.Contains(rec.Body.String(), `covidwatch_cache_hits_total{cache="global"} 1`), ShouldBeTrue)
			})
		})
	})
}
