package engine

import (
	"container/heap"
	"sort"

	"github.com/ftahirops/waitscope/model"
)

// maxSketchSize bounds the per-(pattern, call path) quantile sketch. Values
// beyond this count are folded pairwise rather than dropped, so the sketch
// stays a fair approximation instead of a truncated prefix (§4.5).
const maxSketchSize = 60

// topKSize bounds the most-severe-instance list kept per pattern.
const topKSize = 10

// Instance is a single wait-state occurrence recorded for the top-K list.
type Instance struct {
	Location model.LocationID
	Callpath *Callpath
	Time     float64
	Severity float64
}

// Callpath aliases model.Callpath so Instance doesn't need the model import
// spelled out twice; kept local to this file.
type Callpath = model.Callpath

// quantileSketch holds a bounded, order-preserving sample of severities for
// one call path, compressed by merging its two closest neighbors whenever
// a new value would push it over maxSketchSize.
type quantileSketch struct {
	values []float64
}

func (s *quantileSketch) add(v float64) {
	s.values = append(s.values, v)
	sort.Float64s(s.values)
	for len(s.values) > maxSketchSize {
		s.compress()
	}
}

// compress merges the pair of adjacent values with the smallest gap into
// their average, preserving the sketch's overall shape better than evicting
// an endpoint would.
func (s *quantileSketch) compress() {
	best := 0
	bestGap := -1.0
	for i := 0; i+1 < len(s.values); i++ {
		gap := s.values[i+1] - s.values[i]
		if bestGap < 0 || gap < bestGap {
			bestGap, best = gap, i
		}
	}
	merged := (s.values[best] + s.values[best+1]) / 2
	s.values = append(s.values[:best], s.values[best+1:]...)
	s.values[best] = merged
	sort.Float64s(s.values)
}

// Quantile returns the value at fraction q (0..1) of the sketch, linearly
// interpolated between the two bracketing samples.
func (s *quantileSketch) Quantile(q float64) float64 {
	n := len(s.values)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return s.values[0]
	}
	pos := q * float64(n-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= n {
		return s.values[n-1]
	}
	frac := pos - float64(lo)
	return s.values[lo]*(1-frac) + s.values[hi]*frac
}

// instanceHeap is a min-heap on Severity, the container/heap boilerplate
// behind topKList's bounded retention.
type instanceHeap []Instance

func (h instanceHeap) Len() int            { return len(h) }
func (h instanceHeap) Less(i, j int) bool  { return h[i].Severity < h[j].Severity }
func (h instanceHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *instanceHeap) Push(x interface{}) { *h = append(*h, x.(Instance)) }
func (h *instanceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// topKList retains the topKSize most severe instances seen, via a bounded
// min-heap: a new Instance only survives if it beats the current weakest
// member once the list is full.
type topKList struct {
	h instanceHeap
}

func (t *topKList) add(inst Instance) {
	if len(t.h) < topKSize {
		heap.Push(&t.h, inst)
		return
	}
	if inst.Severity > t.h[0].Severity {
		heap.Pop(&t.h)
		heap.Push(&t.h, inst)
	}
}

// Sorted returns the retained instances ordered most severe first.
func (t *topKList) Sorted() []Instance {
	out := append([]Instance(nil), t.h...)
	sort.Slice(out, func(i, j int) bool { return out[i].Severity > out[j].Severity })
	return out
}

// patternStats is the per-wait-state-pattern accumulator: one quantile
// sketch and one top-K list per call path that ever produced an instance.
type patternStats struct {
	sketches map[int]*quantileSketch
	topK     map[int]*topKList
}

func newPatternStats() *patternStats {
	return &patternStats{sketches: make(map[int]*quantileSketch), topK: make(map[int]*topKList)}
}

func (p *patternStats) record(inst Instance) {
	id := inst.Callpath.ID
	sk := p.sketches[id]
	if sk == nil {
		sk = &quantileSketch{}
		p.sketches[id] = sk
	}
	sk.add(inst.Severity)

	tk := p.topK[id]
	if tk == nil {
		tk = &topKList{}
		p.topK[id] = tk
	}
	tk.add(inst)
}

// StatisticsPattern is the one-shot statistics collector (§4.5): it listens
// on every synthetic wait-state tag fired during the main sweep and records
// each instance's severity into a bounded quantile sketch and a bounded
// top-K list, grouped by the tag that produced it and the call path it
// landed on. It never itself accumulates a severity map the report writer
// reads directly, and its Finalize is the inherited no-op, so nothing is
// written to the archive directory; it stays a silent passenger pattern
// (Identity Hidden).
type StatisticsPattern struct {
	basePattern
	byTag map[Tag]*patternStats

	// upperBounds holds, per wait-state tag, the largest duration the
	// one-shot prepare sweep discovered before the accumulation sweep ran
	// (§4.5 "a single-pass prepare sweep... to discover per-kind
	// upper-bound durations, which are then reduced across all locations
	// and threads and published before the real accumulation sweep
	// starts"). No single instance on a location can exceed that
	// location's own elapsed span, so Prepare uses the span as a
	// conservative, cheap-to-compute bound per tag; MergeFrom reduces it
	// across locations by taking the max.
	upperBounds map[Tag]float64
}

// NewStatisticsPattern creates the collector.
func NewStatisticsPattern() *StatisticsPattern {
	return &StatisticsPattern{
		basePattern: newBasePattern(Identity{
			ID: PatStatistics, Name: "Statistics", UniqueName: "statistics",
			Description: "Quantile and most-severe-instance summaries of every wait-state pattern",
			Unit:        "seconds", Mode: Exclusive, Hidden: true,
		}),
		byTag:       make(map[Tag]*patternStats),
		upperBounds: make(map[Tag]float64),
	}
}

// Prepare is the one-shot prepare pass (§4.5): called once per location
// against that location's trace before the main accumulation sweep, it
// records a conservative per-tag upper bound from the location's own
// elapsed span. Engine.Run invokes it alongside SweepForwardCount, then
// takes the per-tag maximum over every location's bounds and publishes it
// to each location through SetBounds before the main sweep starts, so every
// location's accumulation sees the same published bounds.
func (p *StatisticsPattern) Prepare(trace model.LocalTrace) {
	events := trace.Events()
	if len(events) == 0 {
		return
	}
	span := clamp(events[len(events)-1].Timestamp - events[0].Timestamp)
	for _, tag := range statisticsTags {
		if span > p.upperBounds[tag] {
			p.upperBounds[tag] = span
		}
	}
}

// Bound returns the published upper bound for tag, or 0 if Prepare/
// MergeFrom never recorded one.
func (p *StatisticsPattern) Bound(tag Tag) float64 { return p.upperBounds[tag] }

// SetBounds overwrites the published bounds wholesale, used by Engine.Run
// to broadcast the cross-location reduction back into each location's
// StatisticsPattern before its main sweep runs.
func (p *StatisticsPattern) SetBounds(bounds map[Tag]float64) {
	p.upperBounds = bounds
}

// MergeFrom implements Merger: it folds another location's sketches,
// top-K lists, and prepare-sweep bounds into p (§5's "reduction" step for
// the one pattern whose per-location state is richer than a plain
// severity sum).
func (p *StatisticsPattern) MergeFrom(other Pattern) {
	o, ok := other.(*StatisticsPattern)
	if !ok {
		return
	}
	for tag, bound := range o.upperBounds {
		if bound > p.upperBounds[tag] {
			p.upperBounds[tag] = bound
		}
	}
	for tag, stats := range o.byTag {
		dst := p.byTag[tag]
		if dst == nil {
			dst = newPatternStats()
			p.byTag[tag] = dst
		}
		for cpID, sk := range stats.sketches {
			dstSk := dst.sketches[cpID]
			if dstSk == nil {
				dstSk = &quantileSketch{}
				dst.sketches[cpID] = dstSk
			}
			for _, v := range sk.values {
				dstSk.add(v)
			}
		}
		for _, tk := range stats.topK {
			for _, inst := range tk.h {
				t := dst.topK[inst.Callpath.ID]
				if t == nil {
					t = &topKList{}
					dst.topK[inst.Callpath.ID] = t
				}
				t.add(inst)
			}
		}
	}
}

// statisticsTags lists every synthetic tag a wait-state pattern notifies,
// the full set StatisticsPattern observes (§4.5 "subscribes to every
// wait-state notify tag").
var statisticsTags = []Tag{
	TagLateSender, TagLateSenderWO, TagLateReceiver,
	TagWaitBarrier, TagBarrierCompletion, TagWaitNxN, TagNxNCompletion,
	TagLateBroadcast, TagEarlyReduce, TagEarlyScan,
	TagInitCompletion, TagFinalizeCompletion,
	TagRMAWaitAtCreate, TagRMAWaitAtFree, TagRMAWaitAtFence,
	TagRMAEarlyWait, TagRMALatePost, TagRMALateComplete, TagRMALockContention,
	TagOMPFork, TagOMPJoin, TagOMPEBarrier, TagOMPIBarrier,
	TagOMPLockContention, TagPthreadLockContention,
}

// StatisticsTags returns every wait-state tag the statistics collector
// subscribes to, in subscription order, for callers that need to iterate a
// StatisticsPattern's tags without reaching into package internals.
func StatisticsTags() []Tag {
	out := make([]Tag, len(statisticsTags))
	copy(out, statisticsTags)
	return out
}

func (p *StatisticsPattern) RegisterCallbacks(d *Dispatcher) {
	for _, tag := range statisticsTags {
		tag := tag
		stats := newPatternStats()
		p.byTag[tag] = stats
		d.Subscribe(p.identity.ID, SweepMain, tag, func(ev *model.Event, cb *CbData) {
			if ev.Callpath == nil {
				return
			}
			stats.record(Instance{
				Location: ev.Location,
				Callpath: ev.Callpath,
				Time:     ev.Timestamp,
				Severity: cb.mIdle,
			})
		})
	}
}

// Quantile returns the q-quantile of tag's severity sketch for callpath id,
// or 0 if nothing was ever recorded there.
func (p *StatisticsPattern) Quantile(tag Tag, callpathID int, q float64) float64 {
	stats := p.byTag[tag]
	if stats == nil {
		return 0
	}
	sk := stats.sketches[callpathID]
	if sk == nil {
		return 0
	}
	return sk.Quantile(q)
}

// TopK returns tag's most severe instances across every call path, most
// severe first, capped at topKSize.
func (p *StatisticsPattern) TopK(tag Tag) []Instance {
	stats := p.byTag[tag]
	if stats == nil {
		return nil
	}
	var all []Instance
	for _, tk := range stats.topK {
		all = append(all, tk.Sorted()...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Severity > all[j].Severity })
	if len(all) > topKSize {
		all = all[:topKSize]
	}
	return all
}
