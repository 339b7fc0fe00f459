package livefeed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/resqlink/internal/fetch"
	"github.com/mr1hm/resqlink/internal/metrics"
	"github.com/mr1hm/resqlink/internal/models"
)

const (
	DefaultInterval = 30 * time.Second

	// ErrorMessage is the visible error state after a failed poll.
	ErrorMessage = "Failed to load updates. Please try again later."
)

// ErrStopped is returned for polls attempted or resolved after Stop.
var ErrStopped = errors.New("live feed poller stopped")

type Source interface {
	ListSOSMessages(ctx context.Context) ([]RawUpdate, error)
}

// Snapshot is a copy of the poller's visible state.
type Snapshot struct {
	Updates     []models.DisasterUpdate `json:"updates"`
	Error       string                  `json:"error,omitempty"`
	Loading     bool                    `json:"loading"`
	LastUpdated time.Time               `json:"last_updated"`
}

// Poller fetches the SOS list immediately on Start and then every interval,
// replacing the whole list on each success. A failure sets the error state
// and leaves the schedule running.
type Poller struct {
	source   Source
	clock    clockwork.Clock
	interval time.Duration
	metrics  *metrics.Metrics

	pollMu sync.Mutex // one fetch at a time

	mu          sync.RWMutex
	updates     []models.DisasterUpdate
	errMsg      string
	loading     bool
	lastUpdated time.Time
	started     bool
	stopped     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewPoller(source Source, clock clockwork.Clock, interval time.Duration, m *metrics.Metrics) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		source:   source,
		clock:    clock,
		interval: interval,
		metrics:  m,
		updates:  []models.DisasterUpdate{},
	}
}

// Start begins polling. It is a no-op when the poller was already started
// or stopped.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(loopCtx)
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()
	slog.Info("starting live feed poller", "interval", p.interval)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("live feed poller shutting down")
			return
		case <-ticker.Chan():
			p.poll(ctx)
		}
	}
}

// Retry fetches immediately, outside the schedule.
func (p *Poller) Retry(ctx context.Context) error {
	return p.poll(ctx)
}

// Stop cancels the schedule and waits for the loop to exit. Responses that
// resolve afterwards are discarded. Stop is idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

func (p *Poller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	updates := make([]models.DisasterUpdate, len(p.updates))
	copy(updates, p.updates)
	return Snapshot{
		Updates:     updates,
		Error:       p.errMsg,
		Loading:     p.loading,
		LastUpdated: p.lastUpdated,
	}
}

func (p *Poller) poll(ctx context.Context) error {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	p.loading = true
	p.mu.Unlock()

	raws, err := p.source.ListSOSMessages(ctx)
	now := p.clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		slog.Debug("discarding live feed response after stop")
		return ErrStopped
	}
	p.loading = false

	if p.metrics != nil {
		p.metrics.LivePolls.WithLabelValues(fetch.Outcome(err)).Inc()
	}

	if err != nil {
		slog.Error("error fetching disaster updates", "error", err)
		p.errMsg = ErrorMessage
		return err
	}

	p.updates = ValidateAll(raws, now)
	p.errMsg = ""
	p.lastUpdated = now
	if p.metrics != nil {
		p.metrics.LiveUpdates.Set(float64(len(p.updates)))
	}
	slog.Debug("live feed updated", "count", len(p.updates))
	return nil
}
