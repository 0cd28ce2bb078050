package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/couchcryptid/casualty-data-service/internal/domain"
)

// DailySource returns the daily aggregate series.
type DailySource interface {
	GetData(ctx context.Context, refresh bool) ([]domain.DailyRecord, error)
}

// NamesSource returns the victims registry.
type NamesSource interface {
	GetNames(ctx context.Context, refresh bool) ([]domain.Victim, error)
}

// Datasets are the fetchers behind the /api routes. Handlers never force a
// refresh; the fetchers' cache policies decide when the network is used.
type Datasets struct {
	Daily DailySource
	Names NamesSource
}

const (
	defaultTopNames = 10
	defaultAgeBins  = 30
)

type api struct {
	data   Datasets
	logger *slog.Logger
}

type errorBody struct {
	Error   string `json:"error"`
	Dataset string `json:"dataset,omitempty"`
}

type namesResponse struct {
	Total   int             `json:"total"`
	Victims []domain.Victim `json:"victims"`
}

func (a *api) handleDaily(w http.ResponseWriter, r *http.Request) {
	records, err := a.data.Daily.GetData(r.Context(), false)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *api) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	records, err := a.data.Daily.GetData(r.Context(), false)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	summary, ok := domain.LatestSummary(records)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no daily reports", Dataset: domain.DatasetDaily})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleNames serves the registry filtered by ?sex=m|f and ?q=, truncated to
// ?limit= rows. Total is the number of matches before truncation.
func (a *api) handleNames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.VictimFilter{Query: q.Get("q")}
	if raw := q.Get("sex"); raw != "" && raw != "all" {
		filter.Sex = domain.ParseSex(raw)
		if filter.Sex == domain.SexUnknown {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid sex %q", raw)})
			return
		}
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	victims, err := a.data.Names.GetNames(r.Context(), false)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	matched := domain.FilterVictims(victims, filter)
	resp := namesResponse{Total: len(matched), Victims: matched}
	if limit > 0 && len(matched) > limit {
		resp.Victims = matched[:limit]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) handleFirstNames(w http.ResponseWriter, r *http.Request) {
	top, err := intParam(r, "top", defaultTopNames)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	victims, err := a.data.Names.GetNames(r.Context(), false)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.TopFirstNames(victims, top))
}

func (a *api) handleAges(w http.ResponseWriter, r *http.Request) {
	bins, err := intParam(r, "bins", defaultAgeBins)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	victims, err := a.data.Names.GetNames(r.Context(), false)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	hist := domain.AgeHistogram(victims, bins)
	if hist == nil {
		hist = []domain.AgeBin{}
	}
	writeJSON(w, http.StatusOK, hist)
}

// writeError maps fetcher failures to 503 so clients can render a
// placeholder, and anything else to 500.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var du *domain.DataUnavailable
	if errors.As(err, &du) {
		a.logger.Warn("dataset unavailable", "path", r.URL.Path, "dataset", du.Dataset, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error(), Dataset: du.Dataset})
		return
	}
	a.logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}
