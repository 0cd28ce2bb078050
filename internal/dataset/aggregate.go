package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/casualty-data-service/internal/cache"
	"github.com/couchcryptid/casualty-data-service/internal/domain"
	"github.com/couchcryptid/casualty-data-service/internal/observability"
)

// Aggregate fetches the daily casualty series. Calls are serialized so
// concurrent callers on a cold cache trigger a single fetch.
type Aggregate struct {
	mu sync.Mutex

	fetcher  Fetcher
	store    *cache.Store
	csvURL   string
	jsonURL  string
	clock    clockwork.Clock
	notifier Notifier
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewAggregate creates an Aggregate reading csvURL first and jsonURL as the
// fallback, caching under store.
func NewAggregate(fetcher Fetcher, store *cache.Store, csvURL, jsonURL string, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Aggregate {
	o := buildOptions(opts)
	return &Aggregate{
		fetcher:  fetcher,
		store:    store,
		csvURL:   csvURL,
		jsonURL:  jsonURL,
		clock:    o.clock,
		notifier: o.notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// GetData returns the daily series sorted ascending by report date with no
// duplicate dates.
//
// Unless refresh is set, today's archived snapshot is returned without any
// network call when it exists. Otherwise the CSV source is tried, then the
// JSON source; a successful result is written to today's archive and to the
// latest-pointer file in canonical CSV form. When both sources fail the
// error is a *domain.DataUnavailable carrying both attempts.
func (a *Aggregate) GetData(ctx context.Context, refresh bool) ([]domain.DailyRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	today := domain.DateOf(a.clock.Now())
	archive := a.store.ArchivePath(domain.DatasetDaily, today)

	if !refresh && a.store.Exists(archive) {
		records, err := a.readSnapshot(archive)
		if err == nil {
			a.metrics.CacheLookups.WithLabelValues(domain.DatasetDaily, "hit").Inc()
			a.metrics.RowsLoaded.WithLabelValues(domain.DatasetDaily).Set(float64(len(records)))
			a.logger.Debug("daily snapshot served from cache", "path", archive, "rows", len(records))
			return records, nil
		}
		a.logger.Warn("cached daily snapshot unreadable, refetching", "path", archive, "error", err)
	}
	a.metrics.CacheLookups.WithLabelValues(domain.DatasetDaily, "miss").Inc()

	records, source, err := a.fetch(ctx)
	if err != nil {
		a.logger.Error("daily data unavailable", "error", err)
		return nil, err
	}
	records = domain.NormalizeDaily(records)

	var buf bytes.Buffer
	if err := domain.EncodeDaily(&buf, records); err != nil {
		return nil, err
	}
	if err := a.store.WriteFile(archive, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("write daily archive: %w", err)
	}
	pointer := a.store.PointerPath(domain.DatasetDaily)
	if err := a.store.WriteFile(pointer, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("write daily pointer: %w", err)
	}

	now := a.clock.Now()
	a.metrics.RowsLoaded.WithLabelValues(domain.DatasetDaily).Set(float64(len(records)))
	a.metrics.LastSuccess.WithLabelValues(domain.DatasetDaily).Set(float64(now.Unix()))
	a.logger.Info("daily data fetched", "source", source, "rows", len(records), "archive", archive)

	event := domain.SnapshotEvent{
		Dataset:   domain.DatasetDaily,
		Source:    source,
		Rows:      len(records),
		Path:      pointer,
		FetchedAt: now,
	}
	if len(records) > 0 {
		latest := records[len(records)-1].ReportDate
		event.LatestDate = &latest
	}
	notify(ctx, a.notifier, event, a.metrics, a.logger)

	return records, nil
}

// fetch tries the CSV source, then the JSON source, returning the records
// and the name of the source that produced them.
func (a *Aggregate) fetch(ctx context.Context) ([]domain.DailyRecord, string, error) {
	records, csvErr := a.fetchCSV(ctx)
	if csvErr == nil {
		a.metrics.FetchRequests.WithLabelValues(domain.DatasetDaily, domain.SourceCSV, "success").Inc()
		return records, domain.SourceCSV, nil
	}
	a.metrics.FetchRequests.WithLabelValues(domain.DatasetDaily, domain.SourceCSV, "error").Inc()
	a.logger.Warn("csv fetch failed, trying json fallback",
		"url", a.csvURL, "timeout", domain.IsTimeout(csvErr), "error", csvErr)

	records, jsonErr := a.fetchJSON(ctx)
	if jsonErr == nil {
		a.metrics.FetchRequests.WithLabelValues(domain.DatasetDaily, domain.SourceJSON, "success").Inc()
		return records, domain.SourceJSON, nil
	}
	a.metrics.FetchRequests.WithLabelValues(domain.DatasetDaily, domain.SourceJSON, "error").Inc()

	return nil, "", &domain.DataUnavailable{
		Dataset: domain.DatasetDaily,
		Attempts: []domain.Attempt{
			{Source: domain.SourceCSV, URL: a.csvURL, Err: csvErr},
			{Source: domain.SourceJSON, URL: a.jsonURL, Err: jsonErr},
		},
	}
}

func (a *Aggregate) fetchCSV(ctx context.Context) ([]domain.DailyRecord, error) {
	body, err := a.fetcher.Get(ctx, a.csvURL, domain.SourceCSV)
	if err != nil {
		return nil, err
	}
	records, err := domain.DecodeDaily(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return nonEmpty(records, domain.SourceCSV)
}

func (a *Aggregate) fetchJSON(ctx context.Context) ([]domain.DailyRecord, error) {
	body, err := a.fetcher.Get(ctx, a.jsonURL, domain.SourceJSON)
	if err != nil {
		return nil, err
	}
	records, err := domain.DecodeDailyJSON(body)
	if err != nil {
		return nil, err
	}
	return nonEmpty(records, domain.SourceJSON)
}

func nonEmpty(records []domain.DailyRecord, format string) ([]domain.DailyRecord, error) {
	if len(records) == 0 {
		return nil, &domain.ParseError{Format: format, Err: errors.New("no rows")}
	}
	return records, nil
}

func (a *Aggregate) readSnapshot(path string) ([]domain.DailyRecord, error) {
	data, err := a.store.Read(path)
	if err != nil {
		return nil, err
	}
	records, err := domain.DecodeDaily(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return domain.NormalizeDaily(records), nil
}
