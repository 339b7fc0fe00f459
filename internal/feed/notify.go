package feed

import (
	"context"
	"log/slog"

	"github.com/mr1hm/resqlink/internal/metrics"
	"github.com/mr1hm/resqlink/internal/models"
	"github.com/mr1hm/resqlink/internal/sink"
	"github.com/mr1hm/resqlink/internal/stream"
)

// Notifier announces newly seen events: it publishes them to the sink and
// hands them to live stream subscribers. Process is a worker.ProcessFunc.
type Notifier struct {
	sink        sink.Sink
	broadcaster *stream.Broadcaster
	metrics     *metrics.Metrics
}

func NewNotifier(s sink.Sink, b *stream.Broadcaster, m *metrics.Metrics) *Notifier {
	if s == nil {
		s = sink.Nop{}
	}
	return &Notifier{sink: s, broadcaster: b, metrics: m}
}

func (n *Notifier) Process(ctx context.Context, e models.DisasterEvent) error {
	// Stream subscribers get the event even when the sink is down.
	if n.broadcaster != nil {
		n.broadcaster.Broadcast(&e)
	}

	err := n.sink.Publish(ctx, e)
	if n.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		n.metrics.SinkPublished.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		slog.Error("error publishing event", "id", e.ID, "error", err)
		return err
	}

	slog.Info("announced new event", "id", e.ID, "type", e.Type, "severity", e.Severity)
	return nil
}
