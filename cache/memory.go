package cache

import (
	"sort"
	"sync"

	"github.com/ftahirops/waitscope/model"
)

// MemoryTimeMapCache is the default in-memory TimeMapCache, built once per
// location from a full trace and answering Between queries by summing
// per-callpath dwell time recorded at construction. Engine.Run calls Build
// for every location during its forward counting phase; unlike
// MemorySynchpointHandler (whose IsSynchpoint/PrevSynchpoint/Between are
// pure functions of event type and stream order, nothing to build), Build
// itself writes into the shared samples map, so — since one
// MemoryTimeMapCache instance is shared across every location's goroutine,
// the same cross-location sharing MemoryLockCache has — it is guarded by a
// mutex rather than assuming a single builder thread.
type MemoryTimeMapCache struct {
	mu sync.Mutex
	// samples maps a location to its ordered (timestamp, callpath-id) dwell
	// samples, built by Build from ENTER/LEAVE pairs.
	samples map[model.LocationID][]dwellSample
}

type dwellSample struct {
	start, end float64
	cnode      int
}

// NewMemoryTimeMapCache creates an empty cache; call Build per location
// before querying it.
func NewMemoryTimeMapCache() *MemoryTimeMapCache {
	return &MemoryTimeMapCache{samples: make(map[model.LocationID][]dwellSample)}
}

// Build records every ENTER/LEAVE dwell interval on trace's location.
func (c *MemoryTimeMapCache) Build(trace model.LocalTrace) {
	var stack []*model.Event
	var out []dwellSample
	for _, ev := range trace.Events() {
		switch ev.Type {
		case model.EventEnter:
			stack = append(stack, ev)
		case model.EventLeave:
			if n := len(stack); n > 0 {
				enter := stack[n-1]
				stack = stack[:n-1]
				if enter.Callpath != nil {
					out = append(out, dwellSample{start: enter.Timestamp, end: ev.Timestamp, cnode: enter.Callpath.ID})
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	loc := trace.Location()
	c.mu.Lock()
	c.samples[loc] = out
	c.mu.Unlock()
}

// Between implements TimeMapCache by intersecting every recorded dwell
// interval with (from, to].
func (c *MemoryTimeMapCache) Between(from, to *model.Event) TimeMap {
	tm := make(TimeMap)
	if from == nil || to == nil {
		return tm
	}
	loc := to.Location
	c.mu.Lock()
	samples := c.samples[loc]
	c.mu.Unlock()
	lo, hi := from.Timestamp, to.Timestamp
	for _, s := range samples {
		start := max(s.start, lo)
		end := min(s.end, hi)
		if end > start {
			tm[s.cnode] += end - start
		}
	}
	return tm
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// MemorySynchpointHandler is the default in-memory SynchpointHandler: any
// event type the engine treats as a communication/synchronization boundary
// (sends, receives, collective ends, RMA sync ops, lock acquire/release)
// is a synchpoint, with wait time attached by the detector that classified
// it.
type MemorySynchpointHandler struct {
	waitTimes map[int]float64 // keyed by event id
}

// NewMemorySynchpointHandler creates an empty handler.
func NewMemorySynchpointHandler() *MemorySynchpointHandler {
	return &MemorySynchpointHandler{waitTimes: make(map[int]float64)}
}

// MarkWaitTime records the wait time a detector computed for a synchpoint,
// to be returned by WaitTime.
func (h *MemorySynchpointHandler) MarkWaitTime(ev *model.Event, wait float64) {
	h.waitTimes[ev.ID] = wait
}

func (h *MemorySynchpointHandler) IsSynchpoint(ev *model.Event) bool {
	switch ev.Type {
	case model.EventSendComplete, model.EventRecvComplete, model.EventCollectiveEnd,
		model.EventRMAFence, model.EventRMAWait, model.EventRMAComplete,
		model.EventThreadAcquireLock, model.EventThreadReleaseLock:
		return true
	default:
		return false
	}
}

func (h *MemorySynchpointHandler) WaitTime(ev *model.Event) float64 { return h.waitTimes[ev.ID] }

func (h *MemorySynchpointHandler) PrevSynchpoint(ev *model.Event, peer int) *model.Event {
	for cur := ev.Prev(); cur != nil; cur = cur.Prev() {
		if h.IsSynchpoint(cur) && cur.Peer == peer {
			return cur
		}
	}
	return nil
}

func (h *MemorySynchpointHandler) Between(from, to *model.Event) []*model.Event {
	if from == nil || to == nil {
		return nil
	}
	var out []*model.Event
	for cur := from.Next(); cur != nil && cur != to; cur = cur.Next() {
		if h.IsSynchpoint(cur) {
			out = append(out, cur)
		}
	}
	return out
}

// MemoryLockCache is the default in-memory LockTrackingCache. Like
// MemoryTimeMapCache and MemorySynchpointHandler, a single MemoryLockCache
// instance is shared across every location's goroutine for the run; unlike
// them it is written throughout the sweep, since lock contention is inherently a
// cross-location resource (§4.2's RMA/OMP/Pthread lock families need to see
// acquire/release events other locations recorded). Acquire/Release/
// OverlappingEpochs/LastRelease are therefore guarded by mu rather than
// relying on §5's "single thread handling the corresponding acquire/release
// event" assumption, which concurrent per-location sweeps violate.
type MemoryLockCache struct {
	mu     sync.Mutex
	epochs map[int64][]Epoch
}

// NewMemoryLockCache creates an empty lock cache.
func NewMemoryLockCache() *MemoryLockCache { return &MemoryLockCache{epochs: make(map[int64][]Epoch)} }

func (c *MemoryLockCache) Acquire(lockID int64, loc model.LocationID, ts float64, exclusive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epochs[lockID] = append(c.epochs[lockID], Epoch{Loc: loc, Start: ts, Exclusive: exclusive})
}

func (c *MemoryLockCache) Release(lockID int64, loc model.LocationID, ts float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	epochs := c.epochs[lockID]
	for i := len(epochs) - 1; i >= 0; i-- {
		if epochs[i].Loc == loc && epochs[i].End == 0 {
			epochs[i].End = ts
			return
		}
	}
}

func (c *MemoryLockCache) OverlappingEpochs(lockID int64, loc model.LocationID, acquireTS, releaseTS float64) []Epoch {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Epoch
	for _, e := range c.epochs[lockID] {
		if e.Loc == loc {
			continue
		}
		end := e.End
		if end == 0 {
			end = releaseTS
		}
		if e.Start < releaseTS && end > acquireTS {
			out = append(out, e)
		}
	}
	return out
}

func (c *MemoryLockCache) LastRelease(lockID int64, before float64) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var best float64
	found := false
	for _, e := range c.epochs[lockID] {
		if e.End > 0 && e.End <= before && (!found || e.End > best) {
			best = e.End
			found = true
		}
	}
	return best, found
}
