package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mr1hm/resqlink/internal/fetch"
	"github.com/mr1hm/resqlink/internal/gdacs"
	"github.com/mr1hm/resqlink/internal/metrics"
	"github.com/mr1hm/resqlink/internal/models"
	"github.com/mr1hm/resqlink/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fetcherFunc func(ctx context.Context) ([]gdacs.Feature, error)

func (f fetcherFunc) FetchEvents(ctx context.Context) ([]gdacs.Feature, error) {
	return f(ctx)
}

func staticFetcher(features ...gdacs.Feature) fetcherFunc {
	return func(ctx context.Context) ([]gdacs.Feature, error) {
		return features, nil
	}
}

type recordingSubmitter struct {
	mu     sync.Mutex
	events []models.DisasterEvent
}

func (r *recordingSubmitter) Submit(ctx context.Context, e models.DisasterEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return true
}

func (r *recordingSubmitter) IDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ids(r.events)
}

func newTestRepo(t *testing.T) *repository.SQLiteDB {
	t.Helper()
	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestService_RefreshStoresSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	m := metrics.NewMetricsForTesting()
	repo := newTestRepo(t)

	svc := NewService(staticFetcher(
		feature(1, "EQ", "Green", "2024-10-20T10:00:00"),
		feature(2, "FL", "Red", "2024-10-19T10:00:00"),
		feature(1, "EQ", "Red", "2024-10-20T10:00:00"),
	), repo, clock, m, nil)

	require.NoError(t, svc.Refresh(context.Background()))

	n, err := svc.Total(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	st := svc.Status()
	assert.Equal(t, testNow, st.LastUpdated)
	assert.Empty(t, st.Error)
	assert.False(t, st.Loading)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedFetches.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FeedEvents))
}

func TestService_RefreshFailureKeepsSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	m := metrics.NewMetricsForTesting()
	repo := newTestRepo(t)

	var fail atomic.Bool
	fetcher := fetcherFunc(func(ctx context.Context) ([]gdacs.Feature, error) {
		if fail.Load() {
			return nil, &fetch.FetchError{URL: gdacs.DefaultURL, StatusCode: 503}
		}
		return []gdacs.Feature{feature(1, "EQ", "Green", "2024-10-20")}, nil
	})
	svc := NewService(fetcher, repo, clock, m, nil)

	require.NoError(t, svc.Refresh(context.Background()))
	firstUpdate := svc.Status().LastUpdated

	clock.Advance(time.Minute)
	fail.Store(true)
	err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, 503, fetch.StatusCode(err))

	st := svc.Status()
	assert.Contains(t, st.Error, "status 503")
	assert.Equal(t, firstUpdate, st.LastUpdated, "failed fetch must not bump last updated")

	n, _ := svc.Total(context.Background())
	assert.Equal(t, 1, n, "previous snapshot survives a failed fetch")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedFetches.WithLabelValues("http_error")))

	// A successful retry clears the error.
	fail.Store(false)
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Empty(t, svc.Status().Error)
}

func TestService_LatestRequestWins(t *testing.T) {
	m := metrics.NewMetricsForTesting()
	repo := newTestRepo(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fetcher := fetcherFunc(func(ctx context.Context) ([]gdacs.Feature, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return []gdacs.Feature{feature(100, "EQ", "Green", "2024-10-20")}, nil
		}
		return []gdacs.Feature{feature(200, "FL", "Green", "2024-10-20")}, nil
	})
	svc := NewService(fetcher, repo, clockwork.NewFakeClockAt(testNow), m, nil)

	slowErr := make(chan error, 1)
	go func() {
		slowErr <- svc.Refresh(context.Background())
	}()
	<-started

	require.NoError(t, svc.Refresh(context.Background()))
	close(release)

	assert.ErrorIs(t, <-slowErr, ErrStaleResponse)

	events, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{200}, ids(events))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedStaleResponses))
	assert.False(t, svc.Status().Loading)
}

func TestService_NotifiesOnlyNewEvents(t *testing.T) {
	repo := newTestRepo(t)
	sub := &recordingSubmitter{}

	var round atomic.Int32
	fetcher := fetcherFunc(func(ctx context.Context) ([]gdacs.Feature, error) {
		if round.Load() == 0 {
			return []gdacs.Feature{feature(1, "EQ", "Green", ""), feature(2, "FL", "Green", "")}, nil
		}
		return []gdacs.Feature{feature(2, "FL", "Green", ""), feature(3, "TC", "Red", ""), feature(1, "EQ", "Green", "")}, nil
	})
	svc := NewService(fetcher, repo, clockwork.NewFakeClockAt(testNow), nil, sub)

	require.NoError(t, svc.Refresh(context.Background()))
	assert.Empty(t, sub.IDs(), "the first snapshot is a baseline")

	round.Store(1)
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, []int64{3}, sub.IDs())
}

// gatedSubmitter blocks its first Submit until release is closed.
type gatedSubmitter struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedSubmitter) Submit(ctx context.Context, e models.DisasterEvent) bool {
	if g.calls.Add(1) == 1 {
		close(g.entered)
		<-g.release
	}
	return true
}

func TestService_BlockedNotifyDoesNotStallRefresh(t *testing.T) {
	repo := newTestRepo(t)
	sub := &gatedSubmitter{entered: make(chan struct{}), release: make(chan struct{})}

	var round atomic.Int32
	fetcher := fetcherFunc(func(ctx context.Context) ([]gdacs.Feature, error) {
		out := []gdacs.Feature{feature(1, "EQ", "Green", "")}
		for id := int64(2); id <= int64(round.Load())+1; id++ {
			out = append(out, feature(id, "FL", "Green", ""))
		}
		return out, nil
	})
	svc := NewService(fetcher, repo, clockwork.NewFakeClockAt(testNow), nil, sub)

	require.NoError(t, svc.Refresh(context.Background()))

	round.Store(1)
	blocked := make(chan error, 1)
	go func() {
		blocked <- svc.Refresh(context.Background())
	}()
	<-sub.entered

	round.Store(2)
	done := make(chan error, 1)
	go func() {
		done <- svc.Refresh(context.Background())
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		close(sub.release)
		<-blocked
		<-done
		t.Fatal("refresh stalled behind a blocked notification")
	}

	n, err := svc.Total(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	close(sub.release)
	require.NoError(t, <-blocked)
	assert.Equal(t, int32(2), sub.calls.Load())
}

func TestService_QueryUsesClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	repo := newTestRepo(t)

	svc := NewService(staticFetcher(
		feature(1, "EQ", "Green", "2024-10-20T06:00:00"),
		feature(2, "FL", "Green", "2024-10-15T06:00:00"),
		feature(3, "EQ", "Green", "not a date"),
	), repo, clock, nil, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	got, err := svc.Query(context.Background(), WindowDay, TypeAll)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(got))

	got, err = svc.Query(context.Background(), WindowWeek, "Earthquake")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(got))

	// Moving the clock re-evaluates the window without a refetch.
	clock.Advance(2 * 24 * time.Hour)
	got, err = svc.Query(context.Background(), WindowDay, TypeAll)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_RunRefreshesOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	repo := newTestRepo(t)

	var calls atomic.Int32
	fetched := make(chan struct{}, 10)
	fetcher := fetcherFunc(func(ctx context.Context) ([]gdacs.Feature, error) {
		calls.Add(1)
		fetched <- struct{}{}
		return []gdacs.Feature{feature(1, "EQ", "Green", "")}, nil
	})
	svc := NewService(fetcher, repo, clock, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx, 10*time.Minute)
	}()

	<-fetched
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(10 * time.Minute)

	select {
	case <-fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a scheduled refresh")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(2), calls.Load())
}

func TestService_RunWithoutIntervalReturns(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewService(fetcherFunc(func(ctx context.Context) ([]gdacs.Feature, error) {
		return nil, errors.New("boom")
	}), repo, clockwork.NewFakeClockAt(testNow), nil, nil)

	require.NoError(t, svc.Run(context.Background(), 0))
	assert.Equal(t, "boom", svc.Status().Error)
}
