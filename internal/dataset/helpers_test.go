package dataset

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/casualty-data-service/internal/adapter/source"
	"github.com/couchcryptid/casualty-data-service/internal/domain"
	"github.com/couchcryptid/casualty-data-service/internal/observability"
)

// countingServer serves handler and counts the requests it receives.
type countingServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newCountingServer(t *testing.T, handler http.HandlerFunc) *countingServer {
	t.Helper()
	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *countingServer) Calls() int { return int(cs.calls.Load()) }

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.SnapshotEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event domain.SnapshotEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) Events() []domain.SnapshotEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.SnapshotEvent(nil), n.events...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFetcher(timeout time.Duration, metrics *observability.Metrics) *source.Client {
	return source.NewClient(timeout, "casualtyd/test", metrics, discardLogger())
}
