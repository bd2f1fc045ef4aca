//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/radon-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/radon-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/radon-data-etl/internal/config"
	"github.com/couchcryptid/radon-data-etl/internal/domain"
	"github.com/couchcryptid/radon-data-etl/internal/observability"
	"github.com/couchcryptid/radon-data-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSinkTopic = "radon-clean"

const (
	sitesCSV = `idnum, state, county, cntyfips, stfips, floor, activity
5081,MN,AITKIN              ,1,27,1,2.2
5082,MN,AITKIN              ,1,27,0,2.2
5082,MN,AITKIN              ,1,27,1,9.9
5090,MN,ST. LOUIS           ,137,27,0,3.6
5095,MN,NOWHERE             ,999,27,0,7.7
`
	countiesCSV = `stfips,ctfips,st,cty,lon,lat,Uppm
27,1,MN,AITKIN,-93.415,46.608,0.502054
27,137,MN,ST LOUIS,-92.5,47.6,0.622088
`
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("radon-etl-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func writeInputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	sites := filepath.Join(dir, "srrs2.dat")
	counties := filepath.Join(dir, "cty.dat")
	require.NoError(t, os.WriteFile(sites, []byte(sitesCSV), 0o600))
	require.NoError(t, os.WriteFile(counties, []byte(countiesCSV), 0o600))
	return sites, counties
}

type publishedRow struct {
	Key     string
	Headers map[string]string
	Record  map[string]any
}

func readRows(ctx context.Context, t *testing.T, broker string, n int) []publishedRow {
	t.Helper()
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		Partition:   0,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
	t.Cleanup(func() { _ = reader.Close() })

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make([]publishedRow, 0, n)
	for len(out) < n {
		msg, err := reader.ReadMessage(readCtx)
		require.NoError(t, err, "read from sink topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &rec), "unmarshal sink message")
		out = append(out, publishedRow{Key: string(msg.Key), Headers: headers, Record: rec})
	}
	return out
}

// TestPipelineToKafka runs the whole clean against real files and a real
// broker, then reads the sink topic back in partition order.
func TestPipelineToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
		KafkaEnabled:   true,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	sites, counties := writeInputs(t)
	metrics := observability.NewMetrics()
	p := pipeline.New(
		csvfile.NewLoader(sites, counties, "MN", discardLogger()),
		pipeline.NewTransformer(domain.VariantCountyIndex, discardLogger()),
		[]pipeline.Loader{writer},
		discardLogger(),
		metrics,
		nil,
	)

	res, err := p.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, res.Stats.Emitted)

	rows := readRows(ctx, t, broker, 3)

	assert.Equal(t, []string{"5081", "5082", "5090"}, []string{rows[0].Key, rows[1].Key, rows[2].Key})
	for _, r := range rows {
		assert.Equal(t, "county-idx", r.Headers["variant"])
		assert.Equal(t, "MN", r.Headers["state"])
	}

	second := rows[1].Record
	assert.Equal(t, "AITKIN", second["county"])
	assert.InDelta(t, 0, second["county_idx"], 0)
	assert.Equal(t, true, second["is_basement"])
	assert.InDelta(t, 0.502054, second["county_uranium"], 1e-9)
	assert.InDelta(t, 2.2, second["radon"], 1e-9)

	third := rows[2].Record
	assert.Equal(t, "STLOUIS", third["county"])
	assert.InDelta(t, 1, third["county_idx"], 0)
	assert.NotContains(t, third, "state_county")
}

// TestPipelineToKafka_UnreachableBroker checks that a publish failure aborts
// the run and is counted.
func TestPipelineToKafka_UnreachableBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := &config.Config{
		KafkaBrokers:   []string{"127.0.0.1:1"},
		KafkaSinkTopic: testSinkTopic,
		KafkaEnabled:   true,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	sites, counties := writeInputs(t)
	metrics := observability.NewMetrics()
	p := pipeline.New(
		csvfile.NewLoader(sites, counties, "MN", discardLogger()),
		pipeline.NewTransformer(domain.VariantStateCounty, discardLogger()),
		[]pipeline.Loader{writer},
		discardLogger(),
		metrics,
		nil,
	)

	_, err := p.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load kafka")
}
