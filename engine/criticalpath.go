package engine

import "github.com/ftahirops/waitscope/model"

// TraceCriticalPath walks the globally longest causal chain backward from
// the latest finalize, jumping across locations at every synchronization
// point to whichever peer the current location was waiting on, and sums
// the traversed ENTER/LEAVE dwell time per call path (§4.3). Unlike the
// other pattern families this does not run through the per-location
// dispatcher: the chain crosses locations mid-walk, which a single-location
// Sweep cannot express, so the engine invokes it directly against the full
// trace before registering the four derived impact patterns.
func TraceCriticalPath(global *model.Trace) map[int]float64 {
	severity := make(map[int]float64)
	if global == nil {
		return severity
	}
	loc, idx := latestEventPosition(global)
	if idx < 0 {
		return severity
	}
	events := global.ForLocation(loc).Events()

	for idx >= 0 {
		ev := events[idx]
		if ev.Type == model.EventLeave && ev.EnterPtr() != nil {
			severity[ev.Callpath.ID] += ev.Timestamp - ev.EnterPtr().Timestamp
		}

		switch ev.Type {
		case model.EventCollectiveEnd:
			if info := resolveCollectiveInfo(global, ev); info != nil && info.Latest.Rank != info.My.Rank {
				if target := findGroupEndAt(global.CollectiveGroup(ev.CollID), info.Latest.Time); target != nil {
					events = global.ForLocation(target.Location).Events()
					idx = target.Index()
					continue
				}
			}
		case model.EventRecvComplete:
			if recvStart := ev.Request(); recvStart != nil {
				if peerSend := recvStart.PeerEvent(); peerSend != nil {
					events = global.ForLocation(peerSend.Location).Events()
					idx = peerSend.Index()
					continue
				}
			}
		case model.EventGroupLeave:
			if team := global.CollectiveGroup(ev.CollID); team != nil && len(team.Begins) > 0 {
				master := team.Begins[0]
				for _, b := range team.Begins[1:] {
					if b.Timestamp < master.Timestamp {
						master = b
					}
				}
				if master.Location != loc {
					events = global.ForLocation(master.Location).Events()
					idx = master.Index()
					loc = master.Location
					continue
				}
			}
		}
		idx--
	}
	return severity
}

// latestEventPosition locates the location and index of the
// latest-timestamped event in the whole trace, the FINALIZE the backward
// critical-path walk starts from (§4.3 "Initialization").
func latestEventPosition(global *model.Trace) (model.LocationID, int) {
	var best model.LocationID
	bestIdx := -1
	var bestTS float64
	found := false
	for _, loc := range global.Locations() {
		events := global.ForLocation(loc).Events()
		if n := len(events); n > 0 {
			ts := events[n-1].Timestamp
			if !found || ts > bestTS {
				best, bestIdx, bestTS, found = loc, n-1, ts, true
			}
		}
	}
	return best, bestIdx
}

// findGroupEndAt returns the END event in group matching timestamp ts, the
// latest arriver's own END the walk continues from after a location jump.
func findGroupEndAt(group *model.CollectiveGroup, ts float64) *model.Event {
	if group == nil {
		return nil
	}
	for _, e := range group.Ends {
		if e.Timestamp == ts {
			return e
		}
	}
	return nil
}

// staticPattern wraps a severity map that was already fully computed
// outside the dispatcher (critical-path's derived metrics, statistics'
// hidden sketches), so it can still flow through the same Pattern
// interface the report writer consumes.
type staticPattern struct {
	basePattern
}

func newStaticPattern(id Identity, severity *model.SeverityMap) *staticPattern {
	return &staticPattern{basePattern{identity: id, severity: severity}}
}

func (p *staticPattern) RegisterCallbacks(d *Dispatcher) {}

// DerivedCriticalPathPatterns computes the four impact metrics derived from
// a completed critical-path trace (§4.3 "Derived metrics"). localTime is
// the per-callpath elapsed-time map TimePattern collected, summed over every
// location by the merge; gcpath is the global critical-path map
// TraceCriticalPath produced.
type DerivedCriticalPathPatterns struct {
	Activity          *model.SeverityMap
	CriticalImbalance *model.SeverityMap
	InterPartition    *model.SeverityMap
	NonCritical       *model.SeverityMap
}

// NewDerivedCriticalPathPatterns computes all four metrics in one pass over
// gcpath/localTime.
func NewDerivedCriticalPathPatterns(gcpath, localTime map[int]float64) *DerivedCriticalPathPatterns {
	d := &DerivedCriticalPathPatterns{
		Activity:          model.NewSeverityMap(),
		CriticalImbalance: model.NewSeverityMap(),
		InterPartition:    model.NewSeverityMap(),
		NonCritical:       model.NewSeverityMap(),
	}

	var aggregateExcess, aggregateWait float64
	excess := make(map[int]float64, len(gcpath))
	for cp, g := range gcpath {
		l := localTime[cp]
		if g < l {
			d.Activity.AddByID(cp, g)
		} else {
			d.Activity.AddByID(cp, l)
		}
		e := g - l
		if e < 0 {
			e = 0
		}
		excess[cp] = e
		aggregateExcess += e
	}
	for _, l := range localTime {
		aggregateWait += l
	}
	var rescale float64
	if aggregateExcess > 0 {
		rescale = aggregateWait / aggregateExcess
	}
	for cp, e := range excess {
		if e > 0 {
			d.CriticalImbalance.AddByID(cp, e*rescale)
		}
	}
	for cp, l := range localTime {
		g := gcpath[cp]
		nc := l - g
		if nc > 0 {
			d.NonCritical.AddByID(cp, nc)
		}
	}
	// Inter-partition imbalance: the shared headroom (the portion of excess
	// not already redistributed by the critical-imbalance pass) attributed
	// back onto every call path with positive excess. No local critical
	// path is computed, so the attribution is not restricted to one.
	for cp, e := range excess {
		headroom := e * (1 - rescale)
		if headroom > 0 {
			d.InterPartition.AddByID(cp, headroom)
		}
	}
	return d
}

// Patterns wraps the four derived metrics as registrable Pattern instances
// for the report writer, plus the raw critical-path severity itself.
func (d *DerivedCriticalPathPatterns) Patterns(gcpath map[int]float64) []Pattern {
	raw := model.NewSeverityMap()
	for cp, v := range gcpath {
		raw.AddByID(cp, v)
	}
	return []Pattern{
		newStaticPattern(Identity{
			ID: PatCriticalPath, Name: "Critical Path", UniqueName: "criticalpath",
			Description: "Time on the globally longest causal chain", Unit: "seconds", Mode: Inclusive,
		}, raw),
		newStaticPattern(Identity{
			ID: PatCriticalPathActivity, ParentID: PatCriticalPath,
			Name: "Critical Path Activity", UniqueName: "criticalpath_activity",
			Description: "Portion of the critical path attributable to non-waiting activity",
			Unit: "seconds", Mode: Exclusive,
		}, d.Activity),
		newStaticPattern(Identity{
			ID: PatCriticalPathImbalance, ParentID: PatCriticalPath,
			Name: "Critical Path Imbalance", UniqueName: "criticalpath_imbalance",
			Description: "Imbalance cost rescaled onto the critical path", Unit: "seconds", Mode: Exclusive,
		}, d.CriticalImbalance),
		newStaticPattern(Identity{
			ID: PatCriticalPathInterPartition, ParentID: PatCriticalPath,
			Name: "Inter-Partition Imbalance", UniqueName: "criticalpath_interpartition",
			Description: "Shared headroom attributed back onto call paths with critical-path excess",
			Unit: "seconds", Mode: Exclusive,
		}, d.InterPartition),
		newStaticPattern(Identity{
			ID: PatNonCriticalActivities, Name: "Non-Critical Activities", UniqueName: "noncritical_activities",
			Description: "Local time spent off the critical path", Unit: "seconds", Mode: Exclusive,
		}, d.NonCritical),
	}
}
