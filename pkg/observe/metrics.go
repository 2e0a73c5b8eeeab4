// Package observe holds the game's OpenTelemetry metrics and the Prometheus
// exporter that serves them on /metrics.
//
// Tests should build their own [Metrics] with [NewMetrics] and a
// ManualReader-backed provider instead of touching the global one.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all tonguetug metrics.
const meterName = "github.com/teslashibe/go-tonguetug"

// Metrics holds the metric instruments. The OTel types are safe for concurrent use.
type Metrics struct {
	// FramesProcessed counts landmark frames run through a session.
	// Attribute: mode.
	FramesProcessed metric.Int64Counter

	// FrameErrors counts frames that failed and were skipped.
	// Attribute: reason.
	FrameErrors metric.Int64Counter

	// PointsScored counts scoring sweeps. Attributes: player, transition.
	PointsScored metric.Int64Counter

	// FrameDuration tracks per-frame pipeline latency.
	FrameDuration metric.Float64Histogram

	// ActiveSessions tracks running frame loops.
	ActiveSessions metric.Int64UpDownCounter

	// ConnectedClients tracks open websocket connections. Attribute: endpoint.
	ConnectedClients metric.Int64UpDownCounter
}

// frameBuckets are histogram boundaries in seconds, sized for a 60fps budget.
var frameBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.0166, 0.025, 0.05, 0.1,
}

// NewMetrics creates all instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FramesProcessed, err = m.Int64Counter("tonguetug.frames.processed",
		metric.WithDescription("Landmark frames processed by mode."),
	); err != nil {
		return nil, err
	}
	if met.FrameErrors, err = m.Int64Counter("tonguetug.frames.errors",
		metric.WithDescription("Frames skipped because of an error, by reason."),
	); err != nil {
		return nil, err
	}
	if met.PointsScored, err = m.Int64Counter("tonguetug.points.scored",
		metric.WithDescription("Scoring sweeps by player and direction."),
	); err != nil {
		return nil, err
	}
	if met.FrameDuration, err = m.Float64Histogram("tonguetug.frame.duration",
		metric.WithDescription("Per-frame pipeline latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(frameBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("tonguetug.active_sessions",
		metric.WithDescription("Number of running frame loops."),
	); err != nil {
		return nil, err
	}
	if met.ConnectedClients, err = m.Int64UpDownCounter("tonguetug.connected_clients",
		metric.WithDescription("Open websocket connections by endpoint."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a package-level instance built on the global provider.
// Call it after InitProvider so the instruments reach the exporter.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordFrame records one processed frame and its latency.
func (m *Metrics) RecordFrame(ctx context.Context, mode string, took time.Duration) {
	m.FramesProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
	m.FrameDuration.Record(ctx, took.Seconds(), metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordFrameError records a skipped frame.
func (m *Metrics) RecordFrameError(ctx context.Context, reason string) {
	m.FrameErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordPoint records one scoring sweep.
func (m *Metrics) RecordPoint(ctx context.Context, player, transition string) {
	m.PointsScored.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("player", player),
			attribute.String("transition", transition),
		),
	)
}

// ClientConnected adjusts the open connection gauge for an endpoint by delta.
func (m *Metrics) ClientConnected(ctx context.Context, endpoint string, delta int64) {
	m.ConnectedClients.Add(ctx, delta, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}
