package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/resqlink/internal/fetch"
	"github.com/mr1hm/resqlink/internal/gdacs"
	"github.com/mr1hm/resqlink/internal/metrics"
	"github.com/mr1hm/resqlink/internal/models"
	"github.com/mr1hm/resqlink/internal/repository"
)

// ErrStaleResponse is returned by Refresh when a newer refresh was issued
// while this one was in flight. Its result has been discarded.
var ErrStaleResponse = errors.New("feed response superseded by a newer request")

type Fetcher interface {
	FetchEvents(ctx context.Context) ([]gdacs.Feature, error)
}

// Submitter accepts events that were not part of the previous snapshot.
// *worker.Pool[models.DisasterEvent] satisfies it.
type Submitter interface {
	Submit(ctx context.Context, event models.DisasterEvent) bool
}

// Status is the visible state of the feed.
type Status struct {
	LastUpdated time.Time `json:"last_updated"`
	Error       string    `json:"error,omitempty"`
	Loading     bool      `json:"loading"`
}

// Service aggregates the GDACS feed into the snapshot store and answers
// filtered queries against it.
type Service struct {
	fetcher Fetcher
	repo    repository.SnapshotRepository
	clock   clockwork.Clock
	metrics *metrics.Metrics
	notify  Submitter

	// Every Refresh takes a token; only the holder of the latest one may
	// apply its response.
	token   atomic.Uint64
	applyMu sync.Mutex
	seeded  bool

	mu     sync.RWMutex
	status Status
}

func NewService(fetcher Fetcher, repo repository.SnapshotRepository, clock clockwork.Clock, m *metrics.Metrics, notify Submitter) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		fetcher: fetcher,
		repo:    repo,
		clock:   clock,
		metrics: m,
		notify:  notify,
	}
}

// Run refreshes once and then, when interval is positive, again on every
// tick until ctx is cancelled. Failures are recorded in Status and never
// end the loop.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrStaleResponse) {
		slog.Error("initial feed refresh failed", "error", err)
	}
	if interval <= 0 {
		return nil
	}

	slog.Info("starting feed refresher", "interval", interval)
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("feed refresher shutting down")
			return nil
		case <-ticker.Chan():
			if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrStaleResponse) {
				slog.Error("feed refresh failed", "error", err)
			}
		}
	}
}

// Refresh fetches the feed, deduplicates it and replaces the snapshot. On
// failure the previous snapshot stays in place and the error is exposed
// through Status.
func (s *Service) Refresh(ctx context.Context) error {
	token := s.token.Add(1)
	start := s.clock.Now()

	s.mu.Lock()
	s.status.Loading = true
	s.status.Error = ""
	s.mu.Unlock()

	features, fetchErr := s.fetcher.FetchEvents(ctx)

	fresh, err := s.settle(ctx, token, start, features, fetchErr)
	if err != nil {
		return err
	}

	// Submit may block on a full queue; it runs outside applyMu.
	if s.notify != nil {
		for _, e := range fresh {
			if !s.notify.Submit(ctx, e) {
				slog.Warn("dropped new event notification", "id", e.ID)
			}
		}
	}
	return nil
}

// settle applies a fetch result under applyMu when token is still the
// latest one, and records metrics and status. It returns the new events.
func (s *Service) settle(ctx context.Context, token uint64, start time.Time, features []gdacs.Feature, fetchErr error) ([]models.DisasterEvent, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	if token != s.token.Load() {
		slog.Debug("discarding stale feed response", "token", token)
		if s.metrics != nil {
			s.metrics.FeedStaleResponses.Inc()
		}
		return nil, ErrStaleResponse
	}

	err := fetchErr
	var fresh []models.DisasterEvent
	if err == nil {
		fresh, err = s.apply(ctx, features)
	}

	if s.metrics != nil {
		s.metrics.FeedFetches.WithLabelValues(fetch.Outcome(err)).Inc()
		s.metrics.FeedFetchDuration.Observe(s.clock.Since(start).Seconds())
	}

	s.mu.Lock()
	s.status.Loading = false
	if err != nil {
		s.status.Error = err.Error()
	} else {
		s.status.LastUpdated = s.clock.Now()
	}
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return fresh, nil
}

// apply stores the deduplicated snapshot and returns the events whose id was
// absent from the previous one. The first snapshot is a baseline and
// reports nothing new.
func (s *Service) apply(ctx context.Context, features []gdacs.Feature) ([]models.DisasterEvent, error) {
	warnUnknownAlertLevels(features)

	events := Dedupe(features)

	var fresh []models.DisasterEvent
	if s.seeded {
		for _, e := range events {
			exists, err := s.repo.Exists(ctx, e.ID)
			if err != nil {
				return nil, fmt.Errorf("error checking existence of event %d: %w", e.ID, err)
			}
			if !exists {
				fresh = append(fresh, e)
			}
		}
	}

	if err := s.repo.ReplaceAll(ctx, events); err != nil {
		return nil, fmt.Errorf("error storing snapshot: %w", err)
	}
	s.seeded = true

	if s.metrics != nil {
		s.metrics.FeedEvents.Set(float64(len(events)))
	}
	slog.Info("feed refreshed", "features", len(features), "events", len(events), "new", len(fresh))
	return fresh, nil
}

func warnUnknownAlertLevels(features []gdacs.Feature) {
	unknown := map[string]int{}
	for _, f := range features {
		if _, ok := lookupAlertLevel(f.Properties.AlertLevel); !ok {
			unknown[f.Properties.AlertLevel]++
		}
	}
	if len(unknown) == 0 {
		return
	}
	levels := make([]string, 0, len(unknown))
	total := 0
	for l, n := range unknown {
		levels = append(levels, l)
		total += n
	}
	sort.Strings(levels)
	slog.Warn("unrecognized alert levels mapped to critical", "levels", levels, "count", total)
}

// Query filters the current snapshot. It is evaluated against the clock on
// every call; nothing is cached.
func (s *Service) Query(ctx context.Context, w TimeWindow, typ string) ([]models.DisasterEvent, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing snapshot: %w", err)
	}
	return Filter(events, w, typ, s.clock.Now()), nil
}

// Get returns the event with id from the current snapshot, or nil.
func (s *Service) Get(ctx context.Context, id int64) (*models.DisasterEvent, error) {
	return s.repo.GetByID(ctx, id)
}

// Total returns the size of the unfiltered snapshot.
func (s *Service) Total(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
