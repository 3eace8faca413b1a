package engine

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"

	"github.com/ftahirops/waitscope/model"
	"github.com/ftahirops/waitscope/telemetry"
)

// watchdogCooldown bounds how often the same pattern can re-trigger the
// statistics watchdog across runs sharing one Engine.
const watchdogCooldown = time.Minute

// Options selects which analyses a run attaches, mirroring the five
// configuration options from §6: enableAsynchronous, enableStatistics,
// enableCriticalPath, enableDelayAnalysis, and the archive directory. A
// non-empty ArchiveDirectory is where NewEngine opens the Badger-backed
// time-map cache; no statistics side-file is written there or anywhere else.
type Options struct {
	EnableAsynchronous  bool
	EnableStatistics    bool
	EnableCriticalPath  bool
	EnableDelayAnalysis bool
	ArchiveDirectory    string
}

// Result is everything one analysis run hands back to the caller on normal
// completion (§6 "Exit behavior"): the severity cube, the statistics
// collector if attached, the critical-path map if attached, and any
// non-fatal diagnostics collected along the way.
type Result struct {
	RunID        string
	Dispatcher   *Dispatcher
	Statistics   *StatisticsPattern
	CriticalPath map[int]float64
	Errors       []error
	Telemetry    *telemetry.Provider

	// HotPatterns lists the pattern ids the statistics watchdog found newly
	// crossing its severity threshold this run (SPEC_FULL.md's statistics
	// collector is expensive to sketch for every pattern; this flags which
	// ones actually warrant the caller pulling StatisticsPattern.TopK).
	HotPatterns []string
}

// Engine runs one complete analysis over a full trace: it registers a fresh
// pattern set per location, fans three sweeps out in two phases across every
// location concurrently (§5 "per-process axis"), reduces the per-location
// pattern sets into one via merge, then runs the single-pass critical-path
// walk if enabled. One Engine may run several traces in turn; its caches and
// statistics watchdog are kept across those runs.
type Engine struct {
	opts   Options
	caches *Caches

	// telemetryReader backs the per-run telemetry.Provider; nil (the
	// default) still gets working instruments, just with nowhere to export
	// their aggregation to. Set via WithTelemetryReader before Run.
	telemetryReader sdkmetric.Reader

	// watchdog persists across runs sharing this Engine so its cooldown is
	// meaningful; a fresh Engine gets a fresh watchdog.
	watchdog *StatisticsWatchdog
}

// Close releases the engine's caches if they hold a resource that needs
// releasing (e.g. a Badger store opened by NewPersistentCaches); it is a
// no-op for the default in-memory trio. Safe to call even if Run was never
// invoked.
func (e *Engine) Close() error {
	if closer, ok := e.caches.TimeMap.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// WithTelemetryReader attaches an OTel metric reader every subsequent Run
// exports its sweep/event/clock-violation counters through. Returns e for
// chaining.
func (e *Engine) WithTelemetryReader(reader sdkmetric.Reader) *Engine {
	e.telemetryReader = reader
	return e
}

// NewEngine creates an engine over caches configured by opts. A nil caches
// defaults to a fresh in-memory trio, unless opts.ArchiveDirectory is set,
// in which case the time-map cache is Badger-backed under that directory
// (NewPersistentCaches) so a large run's memoized Between results spill to
// disk instead of growing an unbounded in-memory map; if the Badger store
// fails to open, NewEngine falls back to the in-memory trio and logs why.
func NewEngine(opts Options, caches *Caches) *Engine {
	if caches == nil {
		if opts.ArchiveDirectory != "" {
			persistent, err := NewPersistentCaches(opts.ArchiveDirectory)
			if err != nil {
				log.Printf("waitscope: warning: opening persistent time-map cache under %s: %v; falling back to in-memory", opts.ArchiveDirectory, err)
			} else {
				caches = persistent
			}
		}
		if caches == nil {
			caches = NewMemoryCaches()
		}
	}
	// enableDelayAnalysis without enableStatistics still needs synchpoint
	// wait-time distributions to size DelayCostMap (PART D, watchdog
	// auto-attach supplement): force statistics on in that combination.
	if opts.EnableDelayAnalysis && !opts.EnableStatistics {
		opts.EnableStatistics = true
	}
	return &Engine{opts: opts, caches: caches, watchdog: NewStatisticsWatchdog(watchdogCooldown)}
}

// registerPatterns builds a fresh dispatcher with its own pattern instances,
// attaching the families opts calls for. Called once per location per run
// (§5: "severity maps are private per pattern instance and per thread") so
// that no detector's mutable state — LateSenderPattern.pending, the fifo
// behind LateSenderWOPattern, basePattern.severity, or any other
// per-pattern field — is ever touched by more than one location's
// goroutine; Engine.Run reduces the per-location sets together afterward.
// Delay analysis reuses the wait-state patterns' own notifications
// (delayLateSenderPattern/delayBarrierPattern subscribe to the same tags
// LateSenderPattern/collectiveWaitPattern already notify) rather than a
// sweep of its own (§4.4 has no sweep/tag of its own).
func (e *Engine) registerPatterns() *Dispatcher {
	d := NewDispatcher()
	d.Register(NewVisitsPattern())
	d.Register(NewTimePattern())

	d.Register(NewLateSenderPattern())
	d.Register(NewLateSenderWrongOrder(0))
	d.Register(NewLateReceiverPattern())

	d.Register(NewBarrierWaitPattern())
	d.Register(NewLateBroadcastPattern())
	d.Register(NewEarlyReducePattern())
	d.Register(NewEarlyScanPattern())
	d.Register(NewWaitAtNxNPattern())
	d.Register(NewBarrierCompletionPattern())
	d.Register(NewNxNCompletionPattern())
	d.Register(NewInitCompletionPattern())
	d.Register(NewFinalizeCompletionPattern())

	d.Register(NewRMAWaitAtCreatePattern())
	d.Register(NewRMAWaitAtFreePattern())
	d.Register(NewRMAWaitAtFencePattern())
	d.Register(NewRMAEarlyWaitPattern())
	d.Register(NewRMALatePostPattern())
	d.Register(NewRMALateCompletePattern())
	d.Register(NewRMALockContentionPattern())

	d.Register(NewOMPForkPattern())
	d.Register(NewOMPJoinPattern())
	d.Register(NewOMPBarrierWaitPattern())
	d.Register(NewOMPCriticalContentionPattern())
	d.Register(NewOMPLockAPIContentionPattern())
	d.Register(NewPthreadMutexContentionPattern())
	d.Register(NewPthreadConditionContentionPattern())

	if e.opts.EnableStatistics {
		d.Register(NewStatisticsPattern())
	}
	if e.opts.EnableDelayAnalysis {
		d.Register(NewDelayLateSenderPattern())
		d.Register(NewDelayBarrierPattern())
		d.Register(NewDelayOMPForkPattern())
		d.Register(NewDelayLongTermPattern())
	}
	return d
}

// Run executes the analysis over every location in global concurrently,
// joining with errgroup.Group, then reduces the per-location results into
// one, then — if enabled — the single-pass critical-path walk over the
// whole trace.
//
// Each location gets its own Dispatcher/pattern set/CbData (§5's "private
// per pattern instance and per thread"), so the two phases below never
// share mutable pattern state across goroutines:
//
//   - Phase 1 runs the forward counting sweep (SweepForwardCount) and feeds
//     StatisticsPattern.Prepare, discovering each location's own per-tag
//     upper bound. A reduction barrier then folds every location's bounds
//     together and republishes the combined bounds (§4.5's "reduced across
//     all locations and threads and published before the real accumulation
//     sweep starts").
//   - Phase 2 runs the main accumulation sweep (SweepMain) and the backward
//     wait-state sweep (SweepBackwardWaitState) LateReceiverPattern needs,
//     reusing each location's own Dispatcher/CbData from phase 1.
//
// After both phases join, mergePatterns folds every location's pattern set
// into one representative set (§5's "cross-thread aggregation happens only
// ... through critical sections followed by a reduction"), and the delay
// module's long-term pattern absorbs the merged short-term patterns' costs.
//
// The asynchronous option only affects whether the per-location PeerChannel
// is shared across the errgroup's goroutines (true, the default replay
// assumption) or given a private instance per location (false,
// approximating a synchronous driver that never advances another
// location's active messages concurrently).
func (e *Engine) Run(ctx context.Context, global *model.Trace) (*Result, error) {
	provider, err := telemetry.NewProvider(e.telemetryReader)
	if err != nil {
		return nil, err
	}

	locations := global.Locations()
	perLocation := make([]*Dispatcher, len(locations))
	perLocationCb := make([]*CbData, len(locations))
	channel := NewPeerChannel()

	result := &Result{RunID: uuid.NewString(), Telemetry: provider}
	var errsMu sync.Mutex

	g1, _ := errgroup.WithContext(ctx)
	for i, loc := range locations {
		i, loc := i, loc
		g1.Go(func() error {
			d := e.registerPatterns()
			d.WithTelemetry(provider)
			local := global.ForLocation(loc)
			peer := channel
			if !e.opts.EnableAsynchronous {
				peer = NewPeerChannel()
			}
			cb := NewCbData(global.Defs, local, global, e.caches, peer)
			if builder, ok := e.caches.TimeMap.(timeMapBuilder); ok {
				builder.Build(local)
			}
			d.Sweep(SweepForwardCount, local, cb)
			for _, p := range d.Patterns() {
				if sp, ok := p.(*StatisticsPattern); ok {
					sp.Prepare(local)
				}
			}
			perLocation[i] = d
			perLocationCb[i] = cb
			return nil
		})
	}
	if err := g1.Wait(); err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	// Reduction barrier: every location's prepare-sweep bounds are folded
	// together, then broadcast back out so phase 2's accumulation sweep
	// sees the same published bounds everywhere (§4.5).
	globalBounds := make(map[Tag]float64)
	for _, d := range perLocation {
		for _, p := range d.Patterns() {
			if sp, ok := p.(*StatisticsPattern); ok {
				for tag, bound := range sp.upperBounds {
					if bound > globalBounds[tag] {
						globalBounds[tag] = bound
					}
				}
			}
		}
	}
	for _, d := range perLocation {
		for _, p := range d.Patterns() {
			if sp, ok := p.(*StatisticsPattern); ok {
				sp.SetBounds(globalBounds)
			}
		}
	}

	g2, _ := errgroup.WithContext(ctx)
	for i, loc := range locations {
		i, loc := i, loc
		g2.Go(func() error {
			d := perLocation[i]
			cb := perLocationCb[i]
			local := global.ForLocation(loc)
			d.Sweep(SweepMain, local, cb)
			d.Sweep(SweepBackwardWaitState, local, cb)
			if errs := cb.Errors(); len(errs) > 0 {
				errsMu.Lock()
				result.Errors = append(result.Errors, errs...)
				errsMu.Unlock()
			}
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	final := NewDispatcher()
	final.WithTelemetry(provider)
	merged := mergePatterns(perLocation)
	final.patterns = merged
	result.Dispatcher = final

	for _, p := range merged {
		if sp, ok := p.(*StatisticsPattern); ok {
			result.Statistics = sp
		}
	}

	if e.opts.EnableDelayAnalysis {
		var longTerm *delayLongTermPattern
		var lateSenderCosts, barrierCosts, ompForkCosts *DelayCostMap
		for _, p := range merged {
			switch v := p.(type) {
			case *delayLongTermPattern:
				longTerm = v
			case *delayLateSenderPattern:
				lateSenderCosts = v.costs
			case *delayBarrierPattern:
				barrierCosts = v.costs
			case *delayOMPForkPattern:
				ompForkCosts = v.costs
			}
		}
		if longTerm != nil {
			if lateSenderCosts != nil {
				longTerm.absorb(global.Defs, lateSenderCosts)
			}
			if barrierCosts != nil {
				longTerm.absorb(global.Defs, barrierCosts)
			}
			if ompForkCosts != nil {
				longTerm.absorb(global.Defs, ompForkCosts)
			}
		}
	}

	if e.opts.EnableCriticalPath {
		gcpath := TraceCriticalPath(global)
		result.CriticalPath = gcpath

		localTime := make(map[int]float64)
		for _, p := range merged {
			if p.Identity().ID == PatTime {
				for cp, v := range p.Severity().Entries() {
					localTime[cp] = v
				}
			}
		}
		derived := NewDerivedCriticalPathPatterns(gcpath, localTime)
		for _, p := range derived.Patterns(gcpath) {
			final.Register(p)
		}
	}

	result.HotPatterns = e.watchdog.Check(final.Patterns(), global.Makespan(), time.Now())

	return result, nil
}

// timeMapBuilder is satisfied by cache.MemoryTimeMapCache and
// cache.BadgerTimeMapCache: Run populates it per location before the delay
// patterns' applyDelay ever reads it, since unlike cache.TimeMapCache's
// Between, building the cache is not part of the interface every
// implementation supports; a TimeMapCache without Build is used as is.
type timeMapBuilder interface {
	Build(trace model.LocalTrace)
}

// mergePatterns reduces every location's independently-built pattern set
// into one representative set, keyed by Identity().ID: the first location
// to produce a given id supplies the accumulator instance, and every later
// location's same-id pattern is folded into it by summing severity-map
// entries; patterns whose per-location state is richer than a plain
// severity sum (e.g. StatisticsPattern's sketches or the delay patterns'
// DelayCostMaps) additionally fold that state through Merger.MergeFrom
// (§5's "cross-thread aggregation happens only ... through critical
// sections followed by a reduction").
func mergePatterns(perLocation []*Dispatcher) []Pattern {
	var order []string
	byID := make(map[string]Pattern)
	for _, d := range perLocation {
		for _, p := range d.Patterns() {
			id := p.Identity().ID
			existing, ok := byID[id]
			if !ok {
				byID[id] = p
				order = append(order, id)
				continue
			}
			if m, ok := existing.(Merger); ok {
				m.MergeFrom(p)
			}
			for cp, v := range p.Severity().Entries() {
				existing.Severity().AddByID(cp, v)
			}
		}
	}
	out := make([]Pattern, len(order))
	for i, id := range order {
		out[i] = byID[id]
	}
	return out
}
