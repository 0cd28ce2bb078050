//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/casualty-data-service/internal/adapter/kafka"
	"github.com/couchcryptid/casualty-data-service/internal/adapter/source"
	"github.com/couchcryptid/casualty-data-service/internal/cache"
	"github.com/couchcryptid/casualty-data-service/internal/config"
	"github.com/couchcryptid/casualty-data-service/internal/dataset"
	"github.com/couchcryptid/casualty-data-service/internal/domain"
	"github.com/couchcryptid/casualty-data-service/internal/observability"
)

const testTopic = "test-snapshots"

// snapshotMessage holds a deserialized message read from the snapshot topic.
type snapshotMessage struct {
	Event   domain.SnapshotEvent
	Key     string
	Headers map[string]string
}

func readSnapshot(ctx context.Context, t *testing.T, consumer *kafkago.Reader) snapshotMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from snapshot topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event domain.SnapshotEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal snapshot message")

	return snapshotMessage{Event: event, Key: string(msg.Key), Headers: headers}
}

// TestFetchPublishesSnapshots runs both fetchers against local upstreams with
// the Kafka writer as notifier and reads the resulting events back.
func TestFetchPublishesSnapshots(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	upstream := http.NewServeMux()
	upstream.HandleFunc("/daily.csv", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	upstream.HandleFunc("/daily.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"date":"2023-10-08","killed_cum":413},{"date":"2023-10-07","killed_cum":232}]`))
	})
	upstream.HandleFunc("/names.csv", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ID,en_name,Age\n1,John Doe,abc\n2,Jane Roe,31\n3,Broken,40,extra\n"))
	})
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	client := source.NewClient(5*time.Second, "casualtyd/integration", metrics, discardLogger())
	store := cache.NewStore(t.TempDir())

	daily := dataset.NewAggregate(client, store, srv.URL+"/daily.csv", srv.URL+"/daily.json",
		metrics, discardLogger(), dataset.WithNotifier(writer))
	names := dataset.NewRegistry(client, store, srv.URL+"/names.csv", domain.DefaultAliases, time.Hour,
		metrics, discardLogger(), dataset.WithNotifier(writer))

	records, err := daily.GetData(ctx, false)
	require.NoError(t, err)
	require.Len(t, records, 2)

	victims, err := names.GetNames(ctx, false)
	require.NoError(t, err)
	require.Len(t, victims, 2)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	first := readSnapshot(ctx, t, consumer)
	assert.Equal(t, domain.DatasetDaily, first.Key)
	assert.Equal(t, domain.SourceJSON, first.Headers["source"])
	assert.Equal(t, 2, first.Event.Rows)
	require.NotNil(t, first.Event.LatestDate)
	assert.Equal(t, "2023-10-08", first.Event.LatestDate.String())
	assert.Equal(t, store.PointerPath(domain.DatasetDaily), first.Event.Path)

	second := readSnapshot(ctx, t, consumer)
	assert.Equal(t, domain.DatasetNames, second.Key)
	assert.Equal(t, domain.SourceRegistry, second.Headers["source"])
	assert.Equal(t, 2, second.Event.Rows)
	assert.Equal(t, 1, second.Event.Skipped)

	assert.Zero(t, testutil.ToFloat64(metrics.NotifyErrors))
}
