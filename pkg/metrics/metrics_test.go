package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

// withManager installs a manager on a private registry for the duration of fn.
func withManager(opts []Option, fn func(m *Manager)) {
	prev := globalManager.Load()
	m := NewManager(append([]Option{WithPrometheusRegistry(prometheus.NewRegistry())}, opts...)...)
	_ = Use(m)
	defer globalManager.Store(prev)
	fn(m)
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors should be registered on that registry", func() {
				So(m, ShouldNotBeNil)
				RecordBalanceRun(OutcomeMatched, 1) // global manager, must not touch registry
				m.balanceRuns.WithLabelValues(OutcomeMatched).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				So(families[0].GetName(), ShouldStartWith, "test_")
			})
		})

		Convey("When installing a nil manager", func() {
			So(errors.Is(Use(nil), ErrNotRegistered), ShouldBeTrue)
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given an isolated manager", t, func() {
		withManager(nil, func(m *Manager) {
			Convey("Balance runs should be counted by outcome", func() {
				RecordBalanceRun(OutcomeMatched, 3)
				RecordBalanceRun(OutcomeMatched, 4)
				RecordBalanceRun(OutcomeNoMatch, 9)
				So(testutil.ToFloat64(m.balanceRuns.WithLabelValues(OutcomeMatched)), ShouldEqual, 2)
				So(testutil.ToFloat64(m.balanceRuns.WithLabelValues(OutcomeNoMatch)), ShouldEqual, 1)
			})

			Convey("Cache hits and misses should be split by op", func() {
				RecordCacheHit("overall_score")
				RecordCacheMiss("overall_score")
				RecordCacheMiss("rating_samples")
				UpdateCacheEntries(7)
				So(testutil.ToFloat64(m.cacheHits.WithLabelValues("overall_score")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.cacheMisses.WithLabelValues("rating_samples")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.cacheEntries), ShouldEqual, 7)
			})

			Convey("Vote fetch errors should only count failures", func() {
				RecordVoteFetch(1.5, nil)
				RecordVoteFetch(2.5, errors.New("down"))
				So(testutil.ToFloat64(m.voteFetchErrors), ShouldEqual, 1)
			})

			Convey("Event publish errors should not count as published", func() {
				RecordEventPublished("lineup.vote.recorded", nil)
				RecordEventPublished("lineup.vote.recorded", errors.New("closed"))
				So(testutil.ToFloat64(m.eventsPublished.WithLabelValues("lineup.vote.recorded")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.eventPublishErrors), ShouldEqual, 1)
			})

			Convey("Ingestion gauges and counters should be settable", func() {
				So(func() {
					RecordSearch(70, 12, 2)
					RecordMatchGap(0.25)
					RecordParticipantWithoutVotes()
					RecordVoteRecorded()
					RecordVoteDuplicate()
					UpdateQueueSize(3)
					UpdateQueueCapacity(10)
					RecordQueueEnqueueError()
					UpdateWorkerCount(4)
					RecordWorkerVote(2, nil)
					RecordWorkerVote(2, errors.New("db"))
					RecordHTTPRequest("balance", "POST", "200", 12)
					RecordErrorByComponent("worker", "store_error")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(12)
				}, ShouldNotPanic)
				So(testutil.ToFloat64(m.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(m.workerErrors), ShouldEqual, 1)
				So(testutil.ToFloat64(m.participantsNoVotes), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a disabled manager", t, func() {
		withManager([]Option{WithMetricsEnabled(false)}, func(m *Manager) {
			RecordVoteRecorded()
			So(testutil.ToFloat64(m.votesRecorded), ShouldEqual, 0)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("The custom registry should expose the default manager", t, func() {
		So(GetRegistry(), ShouldNotBeNil)
		_, err := GetRegistry().Gather()
		So(err, ShouldBeNil)
	})
}
