package telemetry

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewProviderAssignsDistinctRunIDs(t *testing.T) {
	a, err := NewProvider(nil)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	b, err := NewProvider(nil)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if a.RunID == b.RunID {
		t.Error("two providers should not share a run id")
	}
}

func TestRecordSweepExportsThroughManualReader(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	p, err := NewProvider(reader)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	ctx := context.Background()
	p.RecordSweep(ctx, "SWEEP_MAIN")
	p.RecordEvent(ctx, "TAG_X")
	p.RecordClockViolation(ctx, "CCV_P2P")
	p.RecordNotifyDepth(ctx, 3)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected at least one scope of recorded metrics")
	}
	var names []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}
	want := []string{
		"waitscope.sweeps.total",
		"waitscope.events.dispatched",
		"waitscope.clock_violations.total",
		"waitscope.notify.depth",
	}
	for _, w := range want {
		found := false
		for _, n := range names {
			if n == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("metric %q not exported, got %v", w, names)
		}
	}

	if err := p.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestShutdownIsSafeOnBareProvider(t *testing.T) {
	p := &Provider{}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown on a zero-value Provider should be a no-op, got %v", err)
	}
}
