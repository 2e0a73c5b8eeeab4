package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumInt(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: data is %T, want Sum[int64]", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecordFrame(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordFrame(ctx, "solo", 2*time.Millisecond)
	m.RecordFrame(ctx, "solo", 4*time.Millisecond)
	m.RecordFrame(ctx, "versus", time.Millisecond)

	rm := collect(t, reader)

	frames := findMetric(rm, "tonguetug.frames.processed")
	if frames == nil {
		t.Fatal("frames.processed not found")
	}
	if got := sumInt(t, frames); got != 3 {
		t.Errorf("frames.processed = %d, want 3", got)
	}

	dur := findMetric(rm, "tonguetug.frame.duration")
	if dur == nil {
		t.Fatal("frame.duration not found")
	}
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("frame.duration data is %T", dur.Data)
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 3 {
		t.Errorf("frame.duration count = %d, want 3", count)
	}
}

func TestRecordPointAttributes(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordPoint(ctx, "player1", "LEFT_TO_RIGHT")
	m.RecordPoint(ctx, "player2", "RIGHT_TO_LEFT")
	m.RecordPoint(ctx, "player1", "RIGHT_TO_LEFT")

	points := findMetric(collect(t, reader), "tonguetug.points.scored")
	if points == nil {
		t.Fatal("points.scored not found")
	}
	sum := points.Data.(metricdata.Sum[int64])

	byPlayer := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("player"))
		byPlayer[v.AsString()] += dp.Value
	}
	if byPlayer["player1"] != 2 || byPlayer["player2"] != 1 {
		t.Errorf("points by player = %v, want player1=2 player2=1", byPlayer)
	}
}

func TestGauges(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActiveSessions.Add(ctx, 1)
	m.ClientConnected(ctx, "state", 1)
	m.ClientConnected(ctx, "state", 1)
	m.ClientConnected(ctx, "state", -1)
	m.RecordFrameError(ctx, "invalid_frame")

	rm := collect(t, reader)
	tests := []struct {
		name string
		want int64
	}{
		{"tonguetug.active_sessions", 1},
		{"tonguetug.connected_clients", 1},
		{"tonguetug.frames.errors", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metric := findMetric(rm, tt.name)
			if metric == nil {
				t.Fatalf("%s not found", tt.name)
			}
			if got := sumInt(t, metric); got != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}
