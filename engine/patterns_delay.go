package engine

import (
	"github.com/ftahirops/waitscope/buffer"
	"github.com/ftahirops/waitscope/model"
)

// peerDelta resolves §4.4 step 2's δ: the sender's own runtime time map
// between its previous synchpoint with this location and the matching send
// event, "shipped over the peer buffer" (§4.4, §6 BUFFER_DELAY) rather than
// read out of this location's own cache. The sender side packs it into a
// buffer.Buffer and ships it through cb.channel under the waiting event's
// id as the exchange's sequence number; the waiting side then unpacks it
// the same way a real active-message transport's two-sided exchange would,
// so BUFFER_DELAY's pack/unpack path is the thing both sides actually
// agree through.
//
// Both sides of this exchange run from the same call (applyDelay executes
// on the waiting location's own sweep goroutine): cb.Caches.TimeMap is
// already fully built for every location by the time SweepMain starts
// (Engine.Run's phase-1/phase-2 barrier), so resolving the sender's own
// dwell samples here is safe without waiting on the sender's goroutine to
// reach any particular event first. Returns nil if ev has no resolvable
// peer event, the sender has no previous synchpoint with this location, or
// the round-tripped buffer fails to unpack (§7 kind 3, reported as a
// non-fatal diagnostic since the sender side packed it from the same
// process).
func peerDelta(cb *CbData, ev *model.Event) buffer.TimeMap {
	peerEv := ev.PeerEvent()
	if peerEv == nil {
		return nil
	}
	senderPrevSp := cb.Caches.Synchpoint.PrevSynchpoint(peerEv, cb.Trace.Location().Rank)
	if senderPrevSp == nil {
		return nil
	}
	delta := buffer.TimeMap(cb.Caches.TimeMap.Between(senderPrevSp, peerEv))

	out := buffer.New()
	out.PutTimemap(buffer.TagDelay, delta)
	cb.channel.Send(peerEv.Location, ev.Location, ev.ID, out)

	in := cb.channel.Recv(peerEv.Location, ev.Location, ev.ID)
	if in == nil {
		return nil
	}
	tm, err := in.GetTimemap()
	if err != nil {
		cb.reportError(err)
		return nil
	}
	return tm
}

// applyDelay runs §4.4's short-term algorithm (steps 1-4) against the
// wait-state notification already in flight: it locates prev_sp, the most
// recent synchpoint peer shares with the waiting location (step 1),
// computes ω symmetrically on the waiting side from prev_sp (the local
// counterpart to δ), resolves δ itself — the sender's own side of the
// exchange — via peerDelta, and folds scale·(δ∪ω) into severity (step 4,
// generalized to every call path either side contributed, since "Compute ω
// symmetrically" makes ω a first-class counterpart of δ rather than a
// bare scalar). cb.mIdle is the wait magnitude w every wait-state pattern
// leaves set before notifying, which is exactly what every delay-pattern
// variant needs as its shared input (§2 "Control flow between locations"
// note on CbData being the scratchpad every downstream detector reads
// from). Returns nil (no-op) if there is no previous synchpoint or the
// denominator underflows (§7 kind 5).
func applyDelay(severity *model.SeverityMap, cb *CbData, ev *model.Event, peer int) *DelayInfo {
	prevSp := cb.Caches.Synchpoint.PrevSynchpoint(ev, peer)
	if prevSp == nil {
		return nil
	}
	omega := buffer.TimeMap(cb.Caches.TimeMap.Between(prevSp, ev))
	delta := peerDelta(cb, ev)

	combined := buffer.NewTimeMap()
	for cp, d := range omega {
		combined.Add(cp, d)
	}
	for cp, d := range delta {
		combined.Add(cp, d)
	}

	info := ComputeShortTermDelay(cb.mIdle, combined, 0)
	if info == nil {
		return nil
	}
	ApplyShortTermDelay(severity.Entries(), info)
	return info
}

// delayLateSenderPattern is the short-term delay-attribution counterpart
// of LateSenderPattern (§4.4): it reuses LATE_SENDER's notification rather
// than re-detecting the wait state, attributing a fraction of the time the
// receiver's call path accumulated since its previous synchpoint with the
// sender to the delay that produced this late arrival.
type delayLateSenderPattern struct {
	basePattern
	costs *DelayCostMap
}

// NewDelayLateSenderPattern creates the Late Sender delay-attribution
// detector.
func NewDelayLateSenderPattern() *delayLateSenderPattern {
	return &delayLateSenderPattern{
		basePattern: newBasePattern(Identity{
			ID: PatDelayLateSender, ParentID: PatMPILateSender,
			Name: "Late Sender Delay", UniqueName: "delay_latesender",
			Description: "Call-path cost attributed to a late sender's own upstream delay",
			Unit:        "seconds", Mode: Exclusive, Hidden: true,
		}),
		costs: NewDelayCostMap(),
	}
}

func (p *delayLateSenderPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagLateSender, func(ev *model.Event, cb *CbData) {
		if info := applyDelay(p.severity, cb, ev, ev.Peer); info != nil && ev.Callpath != nil {
			p.costs.Add(ev.Callpath.ID, info.Scale)
		}
	})
}

// MergeFrom implements Merger: DelayCostMap is keyed by call-path id, so a
// call path that accumulated cost on more than one location folds by
// addition rather than by overwriting.
func (p *delayLateSenderPattern) MergeFrom(other Pattern) {
	o, ok := other.(*delayLateSenderPattern)
	if !ok {
		return
	}
	for id, scale := range o.costs.costs {
		p.costs.Add(id, scale)
	}
}

// delayBarrierPattern is the collective counterpart of applyDelay, shared
// by every "wait for the slowest arriver" family member (§4.4's Barrier/
// N2N/12N/N21 delay variants): it reuses WAIT_BARRIER's notification and
// the CollectiveInfo the upstream collectiveWaitPattern left on cb.
type delayBarrierPattern struct {
	basePattern
	costs *DelayCostMap
}

// NewDelayBarrierPattern creates the Barrier-family delay-attribution
// detector.
func NewDelayBarrierPattern() *delayBarrierPattern {
	return &delayBarrierPattern{
		basePattern: newBasePattern(Identity{
			ID: PatDelayBarrier, ParentID: PatMPIWaitAtBarrier,
			Name: "Barrier Delay", UniqueName: "delay_barrier",
			Description: "Call-path cost attributed to the straggler that held up a barrier",
			Unit:        "seconds", Mode: Exclusive, Hidden: true,
		}),
		costs: NewDelayCostMap(),
	}
}

func (p *delayBarrierPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagWaitBarrier, func(ev *model.Event, cb *CbData) {
		info := cb.mCollinfo
		if info == nil {
			return
		}
		prevSp := cb.Caches.Synchpoint.PrevSynchpoint(ev, info.Latest.Rank)
		if prevSp == nil {
			return
		}
		delta := buffer.TimeMap(cb.Caches.TimeMap.Between(prevSp, ev))
		coll := CalculateCollectiveDelay(info.My.Time, info.Latest.Time, cb.mIdle, delta)
		if coll.Scale <= 0 {
			return
		}
		for cp, d := range coll.Delta {
			if d > 0 {
				p.severity.AddByID(cp, coll.Scale*d)
			}
		}
		if ev.Callpath != nil {
			p.costs.Add(ev.Callpath.ID, coll.Scale)
		}
	})
}

// MergeFrom implements Merger, folding another location's DelayCostMap by
// call-path id the same way delayLateSenderPattern does.
func (p *delayBarrierPattern) MergeFrom(other Pattern) {
	o, ok := other.(*delayBarrierPattern)
	if !ok {
		return
	}
	for id, scale := range o.costs.costs {
		p.costs.Add(id, scale)
	}
}

// delayOMPForkPattern is the OpenMP counterpart of the two point-to-point
// delay patterns above (§4.4 "Idleness"): an OMP_FORK delay is paid for by
// every one of the team's (team_size - 1) workers, not just the master that
// recorded it, so the cost charged to the master's call path is the wait
// scaled by ompIdlenessMultiplier rather than attributed at a plain 1x. It
// reuses OMPForkPattern's own notification (cb.mIdle is already the wait
// OMPForkPattern measured against the slowest worker) and round-trips the
// scaled cost through the peer channel under BUFFER_RCOST_OMPIDLE, the
// §6 section this multiplier was defined for but never shipped through.
// Since a fork's team all lives on one location, the round trip is a
// loopback (from == to == the master's own location) rather than a
// cross-location exchange — the same channel a cross-location wire would
// use, exercised with both ends resolving locally.
type delayOMPForkPattern struct {
	basePattern
	costs *DelayCostMap
}

// NewDelayOMPForkPattern creates the OMP fork idleness delay-attribution
// detector.
func NewDelayOMPForkPattern() *delayOMPForkPattern {
	return &delayOMPForkPattern{
		basePattern: newBasePattern(Identity{
			ID: PatDelayOMPIdle, ParentID: PatOMPFork,
			Name: "OMP Fork Idleness Delay", UniqueName: "delay_ompidle",
			Description: "Master call-path cost attributed to team-wide idleness at a fork delay",
			Unit:        "seconds", Mode: Exclusive, Hidden: true,
		}),
		costs: NewDelayCostMap(),
	}
}

func (p *delayOMPForkPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagOMPFork, func(ev *model.Event, cb *CbData) {
		team := cb.Global.CollectiveGroup(ev.CollID)
		if team == nil || ev.Callpath == nil {
			return
		}
		mult := ompIdlenessMultiplier(len(team.Begins))
		if mult <= 0 {
			return
		}
		cost := cb.mIdle * mult

		out := buffer.New()
		out.PutF64(buffer.TagRCostOMPIdle, cost)
		cb.channel.Send(ev.Location, ev.Location, ev.ID, out)
		in := cb.channel.Recv(ev.Location, ev.Location, ev.ID)
		if in == nil {
			return
		}
		shipped, err := in.GetF64()
		if err != nil {
			cb.reportError(err)
			return
		}

		p.severity.Add(ev.Callpath, shipped)
		p.costs.Add(ev.Callpath.ID, shipped)
		cb.mOmpIdleScale = mult
	})
}

// MergeFrom implements Merger, folding another location's DelayCostMap by
// call-path id the same way the two patterns above do.
func (p *delayOMPForkPattern) MergeFrom(other Pattern) {
	o, ok := other.(*delayOMPForkPattern)
	if !ok {
		return
	}
	for id, scale := range o.costs.costs {
		p.costs.Add(id, scale)
	}
}

// delayLongTermPattern is §4.4's "Long-term algorithm": it accumulates,
// per causing call path, the cumulative short-term scale every late-sender,
// barrier-family, and OMP-fork delay attribution above blamed on that
// synchpoint over the whole run, the propagated-cost counterpart to those
// three patterns' single-notification attributions. It does not subscribe
// to the dispatcher directly; Engine.Run feeds it each short-term pattern's
// costs once every sweep has finished, since the long-term cost is a
// reduction over every short-term decision rather than a per-event
// computation of its own.
type delayLongTermPattern struct {
	basePattern
}

// NewDelayLongTermPattern creates the long-term propagated-cost detector.
func NewDelayLongTermPattern() *delayLongTermPattern {
	return &delayLongTermPattern{basePattern: newBasePattern(Identity{
		ID: PatDelayLongTerm, Name: "Long-Term Delay", UniqueName: "delay_longterm",
		Description: "Cumulative downstream cost propagated back to a synchronization point",
		Unit:        "seconds", Mode: Exclusive, Hidden: true,
	})}
}

func (p *delayLongTermPattern) RegisterCallbacks(d *Dispatcher) {}

// absorb folds a short-term delay pattern's per-call-path costs into this
// pattern's own severity map, so the long-term cost lands on the call path
// that caused the delay. delayOMPForkPattern's costs are already scaled by
// ompIdlenessMultiplier before they reach here, so absorb treats every
// short-term pattern's cost map identically regardless of family.
func (p *delayLongTermPattern) absorb(defs *model.Definitions, costs *DelayCostMap) {
	for id, scale := range costs.costs {
		cp := defs.Callpaths.Get(id)
		if cp == nil {
			continue
		}
		p.severity.Add(cp, scale)
	}
}
