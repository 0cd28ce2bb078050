// Package dataset retrieves the casualty datasets and keeps them cached on
// disk. [Aggregate] serves the daily series with a CSV-primary, JSON-fallback
// retrieval and a dated archive; [Registry] serves the victims registry with
// a time-to-live cache and column aliasing.
package dataset

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/casualty-data-service/internal/domain"
	"github.com/couchcryptid/casualty-data-service/internal/observability"
)

// Fetcher performs one bounded GET against a remote source.
type Fetcher interface {
	Get(ctx context.Context, url, source string) ([]byte, error)
}

// Notifier announces freshly fetched snapshots. Failures are logged and never
// fail the fetch.
type Notifier interface {
	Notify(ctx context.Context, event domain.SnapshotEvent) error
}

// Option customizes an Aggregate or Registry.
type Option func(*options)

type options struct {
	clock    clockwork.Clock
	notifier Notifier
}

// WithClock sets the time source used for day boundaries and cache age.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithNotifier publishes a SnapshotEvent after every successful remote fetch.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func buildOptions(opts []Option) options {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func notify(ctx context.Context, n Notifier, event domain.SnapshotEvent, metrics *observability.Metrics, logger *slog.Logger) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, event); err != nil {
		metrics.NotifyErrors.Inc()
		logger.Warn("snapshot notification failed", "dataset", event.Dataset, "error", err)
	}
}
