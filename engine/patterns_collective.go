package engine

import "github.com/ftahirops/waitscope/model"

// collectiveWaitPattern covers every "wait for the slowest arriver" family
// member sharing the `max(0, latest_begin − my_begin)` shape (§4.2 table,
// rows 4 and 6: Barrier/Wait-at-Barrier, Late Broadcast, Early Reduce,
// Early Scan, Wait-at-NxN). The region filter selects which collective
// region owns this instance.
type collectiveWaitPattern struct {
	basePattern
	filter     func(*model.Region) bool
	notifyTag  Tag
}

func newCollectiveWaitPattern(id Identity, filter func(*model.Region) bool, notifyTag Tag) *collectiveWaitPattern {
	return &collectiveWaitPattern{basePattern: newBasePattern(id), filter: filter, notifyTag: notifyTag}
}

func (p *collectiveWaitPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagCollectiveEnd, func(ev *model.Event, cb *CbData) {
		if !p.filter(ev.Region) {
			return
		}
		info := resolveCollectiveInfo(cb.Global, ev)
		if info == nil {
			return
		}
		idle := clamp(info.Latest.Time - info.My.Time)
		p.severity.Add(ev.Callpath, idle)
		cb.mIdle = idle
		cb.mCollinfo = info
		cb.Notify(p.identity.ID, p.notifyTag, ev)
	})
}

// NewBarrierWaitPattern detects MPI Wait-at-Barrier.
func NewBarrierWaitPattern() Pattern {
	return newCollectiveWaitPattern(Identity{
		ID: PatMPIWaitAtBarrier, ParentID: PatMPIBarrier,
		Name: "Wait at Barrier", UniqueName: "mpi_barrier_wait",
		Description: "Time waiting for the last rank to enter a barrier",
		Unit: "seconds", Mode: Exclusive,
	}, (*model.Region).IsMPIBarrier, TagWaitBarrier)
}

// NewLateBroadcastPattern detects MPI Late Broadcast (1-to-N).
func NewLateBroadcastPattern() Pattern {
	return newCollectiveWaitPattern(Identity{
		ID: PatMPILateBroadcast, Name: "Late Broadcast", UniqueName: "mpi_latebroadcast",
		Description: "Time waiting for a one-to-N operation's slowest root/participant",
		Unit: "seconds", Mode: Exclusive,
	}, (*model.Region).IsMPI12N, TagLateBroadcast)
}

// NewEarlyReducePattern detects MPI Early Reduce (N-to-1).
func NewEarlyReducePattern() Pattern {
	return newCollectiveWaitPattern(Identity{
		ID: PatMPIEarlyReduce, Name: "Early Reduce", UniqueName: "mpi_earlyreduce",
		Description: "Time waiting for an N-to-one operation's slowest contributor",
		Unit: "seconds", Mode: Exclusive,
	}, (*model.Region).IsMPIN21, TagEarlyReduce)
}

// NewEarlyScanPattern detects MPI Early Scan.
func NewEarlyScanPattern() Pattern {
	return newCollectiveWaitPattern(Identity{
		ID: PatMPIEarlyScan, Name: "Early Scan", UniqueName: "mpi_earlyscan",
		Description: "Time waiting for a scan/exscan operation's slowest predecessor",
		Unit: "seconds", Mode: Exclusive,
	}, (*model.Region).IsMPIScan, TagEarlyScan)
}

// NewWaitAtNxNPattern detects MPI Wait-at-NxN.
func NewWaitAtNxNPattern() Pattern {
	return newCollectiveWaitPattern(Identity{
		ID: PatMPIWaitAtNxN, Name: "Wait at NxN", UniqueName: "mpi_wait_nxn",
		Description: "Time waiting for the slowest participant of an N-to-N operation",
		Unit: "seconds", Mode: Exclusive,
	}, (*model.Region).IsMPIN2N, TagWaitNxN)
}

// collectiveCompletionPattern covers the `max(0, local_end − earliest_end)`
// shape (§4.2 table, row 5: Barrier/NxN/Init/Finalize Completion).
type collectiveCompletionPattern struct {
	basePattern
	filter    func(*model.Region) bool
	notifyTag Tag
}

func newCollectiveCompletionPattern(id Identity, filter func(*model.Region) bool, notifyTag Tag) *collectiveCompletionPattern {
	return &collectiveCompletionPattern{basePattern: newBasePattern(id), filter: filter, notifyTag: notifyTag}
}

func (p *collectiveCompletionPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagCollectiveEnd, func(ev *model.Event, cb *CbData) {
		if !p.filter(ev.Region) {
			return
		}
		info := resolveCollectiveInfo(cb.Global, ev)
		if info == nil {
			return
		}
		idle := clamp(ev.Timestamp - info.EarliestEnd.Time)
		p.severity.Add(ev.Callpath, idle)
		cb.mIdle = idle
		cb.Notify(p.identity.ID, p.notifyTag, ev)
	})
}

// NewBarrierCompletionPattern detects MPI Barrier Completion.
func NewBarrierCompletionPattern() Pattern {
	return newCollectiveCompletionPattern(Identity{
		ID: PatMPIBarrierCompletion, ParentID: PatMPIBarrier,
		Name: "Barrier Completion", UniqueName: "mpi_barrier_completion",
		Description: "Straggler time leaving a barrier after the earliest departure",
		Unit: "seconds", Mode: Exclusive,
	}, (*model.Region).IsMPIBarrier, TagBarrierCompletion)
}

// NewNxNCompletionPattern detects MPI NxN Completion.
func NewNxNCompletionPattern() Pattern {
	return newCollectiveCompletionPattern(Identity{
		ID: PatMPINxNCompletion, Name: "NxN Completion", UniqueName: "mpi_nxn_completion",
		Description: "Straggler time leaving an N-to-N operation after the earliest departure",
		Unit: "seconds", Mode: Exclusive,
	}, (*model.Region).IsMPIN2N, TagNxNCompletion)
}

// InitFinalizeCompletionPattern covers MPI Init/Finalize Completion: unlike
// the other completion variants these are plain INIT/FINALIZE events, not
// bracketed collectives, so the earliest-arrival reference is resolved by
// scanning every location directly rather than through a CollectiveGroup.
type InitFinalizeCompletionPattern struct {
	basePattern
	eventType model.EventType
	tag       Tag
	notifyTag Tag
}

// NewInitCompletionPattern detects MPI Init Completion.
func NewInitCompletionPattern() *InitFinalizeCompletionPattern {
	return &InitFinalizeCompletionPattern{
		basePattern: newBasePattern(Identity{
			ID: PatMPIInitCompletion, Name: "Init Completion", UniqueName: "mpi_init_completion",
			Description: "Straggler time completing MPI_Init after the earliest rank", Unit: "seconds", Mode: Exclusive,
		}),
		eventType: model.EventInit, tag: TagInit, notifyTag: TagInitCompletion,
	}
}

// NewFinalizeCompletionPattern detects MPI Finalize Completion.
func NewFinalizeCompletionPattern() *InitFinalizeCompletionPattern {
	return &InitFinalizeCompletionPattern{
		basePattern: newBasePattern(Identity{
			ID: PatMPIFinalize, Name: "Finalize Completion", UniqueName: "mpi_finalize_completion",
			Description: "Straggler time reaching MPI_Finalize after the earliest rank", Unit: "seconds", Mode: Exclusive,
		}),
		eventType: model.EventFinalize, tag: TagFinalize, notifyTag: TagFinalizeCompletion,
	}
}

func (p *InitFinalizeCompletionPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, p.tag, func(ev *model.Event, cb *CbData) {
		earliest := resolveEarliestOfType(cb.Global, p.eventType)
		idle := clamp(ev.Timestamp - earliest)
		p.severity.Add(ev.Callpath, idle)
		cb.mIdle = idle
		cb.Notify(p.identity.ID, p.notifyTag, ev)
	})
}

// resolveEarliestOfType returns the earliest timestamp, across every
// location, of an event of the given type, or 0 if none exists.
func resolveEarliestOfType(global *model.Trace, t model.EventType) float64 {
	if global == nil {
		return 0
	}
	found := false
	var earliest float64
	for _, loc := range global.Locations() {
		for _, ev := range global.ForLocation(loc).Events() {
			if ev.Type == t && (!found || ev.Timestamp < earliest) {
				earliest = ev.Timestamp
				found = true
			}
		}
	}
	return earliest
}
