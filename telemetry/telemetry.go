// Package telemetry instruments the pattern-detection engine with
// OpenTelemetry counters and histograms: sweep counts, notify fan-out
// depth, and clock-violation counts. The core (§1) scopes visualization
// out, but ambient observability is carried regardless (SPEC_FULL.md Part
// B/C) — this is metrics plumbing, not a report.
//
// Unlike the richer OTLP-exporting provider elsewhere in the retrieval
// pack, this analyzer is a one-shot batch job with no collector endpoint
// to ship spans to, so the provider here wires only otel/sdk/metric's
// in-process reader: callers that want an export pipeline attach their
// own sdkmetric.Reader via NewProvider.
package telemetry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Provider bundles the meter and the instruments a single analyzer run
// records into. One Provider is created per run, tagged with the run's
// uuid so metrics from concurrent runs in the same process are
// distinguishable.
type Provider struct {
	RunID string

	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter

	sweepCounter      metric.Int64Counter
	notifyDepthHist   metric.Int64Histogram
	clockViolations   metric.Int64Counter
	eventsDispatched  metric.Int64Counter
}

// NewProvider creates a Provider with a fresh run id and, unless reader is
// nil, a meter provider wired to it. Passing a nil reader (the default for
// a run with no export pipeline configured) still returns instruments;
// they simply accumulate into an otherwise-unread in-process aggregation.
func NewProvider(reader sdkmetric.Reader) (*Provider, error) {
	var opts []sdkmetric.Option
	if reader != nil {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(opts...)
	meter := mp.Meter("waitscope/engine")

	p := &Provider{RunID: uuid.NewString(), meterProvider: mp, meter: meter}

	var err error
	p.sweepCounter, err = meter.Int64Counter("waitscope.sweeps.total",
		metric.WithDescription("Number of dispatcher sweeps run"),
		metric.WithUnit("{sweep}"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating sweep counter: %w", err)
	}
	p.notifyDepthHist, err = meter.Int64Histogram("waitscope.notify.depth",
		metric.WithDescription("Depth of in-callback notify fan-out"),
		metric.WithUnit("{level}"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating notify-depth histogram: %w", err)
	}
	p.clockViolations, err = meter.Int64Counter("waitscope.clock_violations.total",
		metric.WithDescription("Clock-condition violations observed (§3 invariant 2)"),
		metric.WithUnit("{violation}"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating clock-violation counter: %w", err)
	}
	p.eventsDispatched, err = meter.Int64Counter("waitscope.events.dispatched",
		metric.WithDescription("Events fired through the dispatcher across every sweep"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating event counter: %w", err)
	}
	return p, nil
}

// runAttr tags every recorded measurement with this provider's run id.
func (p *Provider) runAttr() attribute.KeyValue { return attribute.String("run_id", p.RunID) }

// RecordSweep records one completed dispatcher sweep, named by sweep.
func (p *Provider) RecordSweep(ctx context.Context, sweep string) {
	p.sweepCounter.Add(ctx, 1, metric.WithAttributes(p.runAttr(), attribute.String("sweep", sweep)))
}

// RecordEvent records one event fired through the dispatcher, tagged by its
// user-event tag.
func (p *Provider) RecordEvent(ctx context.Context, tag string) {
	p.eventsDispatched.Add(ctx, 1, metric.WithAttributes(p.runAttr(), attribute.String("tag", tag)))
}

// RecordNotifyDepth records the recursion depth of an in-callback notify
// fan-out (§4.1 "Re-entrant notifications are processed depth-first").
func (p *Provider) RecordNotifyDepth(ctx context.Context, depth int) {
	p.notifyDepthHist.Record(ctx, int64(depth), metric.WithAttributes(p.runAttr()))
}

// RecordClockViolation records one clock-condition violation (§7 kind 1).
func (p *Provider) RecordClockViolation(ctx context.Context, kind string) {
	p.clockViolations.Add(ctx, 1, metric.WithAttributes(p.runAttr(), attribute.String("kind", kind)))
}

// Shutdown flushes and releases the underlying meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}
