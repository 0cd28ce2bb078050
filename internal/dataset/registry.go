package dataset

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/casualty-data-service/internal/cache"
	"github.com/couchcryptid/casualty-data-service/internal/domain"
	"github.com/couchcryptid/casualty-data-service/internal/observability"
)

// Registry owns the victims registry cache: one raw CSV file on disk with a
// time-to-live, plus the table parsed from it.
type Registry struct {
	fetcher  Fetcher
	store    *cache.Store
	url      string
	aliases  domain.Aliases
	ttl      time.Duration
	clock    clockwork.Clock
	notifier Notifier
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu       sync.Mutex
	victims  []domain.Victim
	report   domain.ParseReport
	loadedAt time.Time // modification time of the file victims came from
}

// NewRegistry creates a Registry downloading from url and resolving columns
// through aliases.
func NewRegistry(fetcher Fetcher, store *cache.Store, url string, aliases domain.Aliases, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Registry {
	o := buildOptions(opts)
	return &Registry{
		fetcher:  fetcher,
		store:    store,
		url:      url,
		aliases:  aliases,
		ttl:      ttl,
		clock:    o.clock,
		notifier: o.notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// GetNames returns the registry indexed by position.
//
// While the cache file is younger than the TTL and refresh is false, no
// network call is made: the in-memory table is reused when it came from the
// same file, otherwise the file is parsed again. Past the TTL, or when
// refresh is set, the registry is downloaded and the cache file replaced.
// A failed download returns a *domain.DataUnavailable and leaves the cache
// file untouched.
func (r *Registry) GetNames(ctx context.Context, refresh bool) ([]domain.Victim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.store.PointerPath(domain.DatasetNames)
	if !refresh && r.store.Fresh(path, r.ttl, r.clock.Now()) {
		victims, err := r.loadLocked(path)
		if err == nil {
			r.metrics.CacheLookups.WithLabelValues(domain.DatasetNames, "hit").Inc()
			return victims, nil
		}
		r.logger.Warn("cached registry unreadable, refetching", "path", path, "error", err)
	}
	r.metrics.CacheLookups.WithLabelValues(domain.DatasetNames, "miss").Inc()

	return r.refreshLocked(ctx, path)
}

// Load returns the registry, downloading it only when the cache is missing
// or expired.
func (r *Registry) Load(ctx context.Context) ([]domain.Victim, error) {
	return r.GetNames(ctx, false)
}

// Refresh downloads the registry regardless of cache age.
func (r *Registry) Refresh(ctx context.Context) ([]domain.Victim, error) {
	return r.GetNames(ctx, true)
}

// LoadedAt is the modification time of the cache file behind the current
// in-memory table, or the zero time before the first load.
func (r *Registry) LoadedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadedAt
}

// Report describes the most recent parse: resolved columns and skipped lines.
func (r *Registry) Report() domain.ParseReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report
}

func (r *Registry) loadLocked(path string) ([]domain.Victim, error) {
	mod, err := r.store.ModTime(path)
	if err != nil {
		return nil, err
	}
	if r.victims != nil && mod.Equal(r.loadedAt) {
		return slices.Clone(r.victims), nil
	}

	data, err := r.store.Read(path)
	if err != nil {
		return nil, err
	}
	victims, report, err := domain.ParseVictims(bytes.NewReader(data), r.aliases)
	if err != nil {
		return nil, err
	}
	r.setLocked(victims, report, mod)
	r.logger.Info("registry loaded from cache", "path", path, "rows", len(r.victims), "skipped", r.report.Skipped)
	return slices.Clone(r.victims), nil
}

func (r *Registry) refreshLocked(ctx context.Context, path string) ([]domain.Victim, error) {
	var (
		victims []domain.Victim
		report  domain.ParseReport
	)
	body, err := r.fetcher.Get(ctx, r.url, domain.SourceRegistry)
	if err == nil {
		victims, report, err = domain.ParseVictims(bytes.NewReader(body), r.aliases)
	}
	if err != nil {
		r.metrics.FetchRequests.WithLabelValues(domain.DatasetNames, domain.SourceRegistry, "error").Inc()
		err = &domain.DataUnavailable{
			Dataset:  domain.DatasetNames,
			Attempts: []domain.Attempt{{Source: domain.SourceRegistry, URL: r.url, Err: err}},
		}
		r.logger.Error("registry data unavailable", "error", err)
		return nil, err
	}
	r.metrics.FetchRequests.WithLabelValues(domain.DatasetNames, domain.SourceRegistry, "success").Inc()

	if err := r.store.WriteFile(path, body); err != nil {
		return nil, fmt.Errorf("write registry cache: %w", err)
	}
	mod, err := r.store.ModTime(path)
	if err != nil {
		return nil, fmt.Errorf("stat registry cache: %w", err)
	}
	r.setLocked(victims, report, mod)

	now := r.clock.Now()
	r.metrics.LastSuccess.WithLabelValues(domain.DatasetNames).Set(float64(now.Unix()))
	r.logger.Info("registry fetched", "rows", len(r.victims), "skipped", r.report.Skipped, "columns", r.report.Columns)

	notify(ctx, r.notifier, domain.SnapshotEvent{
		Dataset:   domain.DatasetNames,
		Source:    domain.SourceRegistry,
		Rows:      len(r.victims),
		Skipped:   r.report.Skipped,
		Path:      path,
		FetchedAt: now,
	}, r.metrics, r.logger)

	return slices.Clone(r.victims), nil
}

func (r *Registry) setLocked(victims []domain.Victim, report domain.ParseReport, mod time.Time) {
	if report.Skipped > 0 {
		r.metrics.MalformedRows.Add(float64(report.Skipped))
		r.logger.Warn("registry lines skipped", "count", report.Skipped)
	}
	if victims == nil {
		victims = []domain.Victim{}
	}
	r.victims = victims
	r.report = report
	r.loadedAt = mod
	r.metrics.RowsLoaded.WithLabelValues(domain.DatasetNames).Set(float64(len(victims)))
}
