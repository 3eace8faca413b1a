package engine

import "github.com/ftahirops/waitscope/model"

// rmaWindowWaitPattern covers RMA wait-at-{create,free,fence}: a collective
// synchronization of one window, where every participant's idle time is the
// gap to the latest arriver (§4.2 table, row 7).
type rmaWindowWaitPattern struct {
	basePattern
	eventType model.EventType
	tag       Tag
	notifyTag Tag
}

func newRMAWindowWaitPattern(id Identity, t model.EventType, tag, notifyTag Tag) *rmaWindowWaitPattern {
	return &rmaWindowWaitPattern{basePattern: newBasePattern(id), eventType: t, tag: tag, notifyTag: notifyTag}
}

func (p *rmaWindowWaitPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, p.tag, func(ev *model.Event, cb *CbData) {
		latest := resolveLatestRMA(cb.Global, ev.WindowID, p.eventType)
		idle := clamp(latest - ev.Timestamp)
		p.severity.Add(ev.Callpath, idle)
		cb.mIdle = idle
		cb.Notify(p.identity.ID, p.notifyTag, ev)
	})
}

// NewRMAWaitAtCreatePattern detects RMA Wait-at-Create.
func NewRMAWaitAtCreatePattern() Pattern {
	return newRMAWindowWaitPattern(Identity{
		ID: PatRMAWaitAtCreate, Name: "Wait at Win Create", UniqueName: "rma_wait_create",
		Description: "Time waiting for the slowest rank to reach a window create", Unit: "seconds", Mode: Exclusive,
	}, model.EventRMAWinCreate, TagRMAWinCreate, TagRMAWaitAtCreate)
}

// NewRMAWaitAtFreePattern detects RMA Wait-at-Free.
func NewRMAWaitAtFreePattern() Pattern {
	return newRMAWindowWaitPattern(Identity{
		ID: PatRMAWaitAtFree, Name: "Wait at Win Free", UniqueName: "rma_wait_free",
		Description: "Time waiting for the slowest rank to reach a window free", Unit: "seconds", Mode: Exclusive,
	}, model.EventRMAWinFree, TagRMAWinFree, TagRMAWaitAtFree)
}

// NewRMAWaitAtFencePattern detects RMA Wait-at-Fence.
func NewRMAWaitAtFencePattern() Pattern {
	return newRMAWindowWaitPattern(Identity{
		ID: PatRMAWaitAtFence, Name: "Wait at Fence", UniqueName: "rma_wait_fence",
		Description: "Time waiting for the slowest rank to reach a window fence", Unit: "seconds", Mode: Exclusive,
	}, model.EventRMAFence, TagRMAFence, TagRMAWaitAtFence)
}

// resolveLatestRMA returns the latest timestamp, across every location, of
// an event of type t on window windowID.
func resolveLatestRMA(global *model.Trace, windowID int64, t model.EventType) float64 {
	if global == nil {
		return 0
	}
	found := false
	var latest float64
	for _, loc := range global.Locations() {
		for _, ev := range global.ForLocation(loc).Events() {
			if ev.Type == t && ev.WindowID == windowID && (!found || ev.Timestamp > latest) {
				latest = ev.Timestamp
				found = true
			}
		}
	}
	return latest
}

// RMAEarlyWaitPattern detects a target posting MPI_Win_wait before the
// origin's matching access epoch completed (§4.2 table, row 8).
type RMAEarlyWaitPattern struct{ basePattern }

// NewRMAEarlyWaitPattern creates the detector.
func NewRMAEarlyWaitPattern() *RMAEarlyWaitPattern {
	return &RMAEarlyWaitPattern{newBasePattern(Identity{
		ID: PatRMAEarlyWait, Name: "Early Wait", UniqueName: "rma_earlywait",
		Description: "Time a wait epoch waited for the origin's last access completion",
		Unit: "seconds", Mode: Exclusive,
	})}
}

func (p *RMAEarlyWaitPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagRMAComplete, func(ev *model.Event, cb *CbData) {
		cb.mLocal.Set(RoleLastComp, ev)
	})
	d.Subscribe(p.identity.ID, SweepMain, TagRMAWait, func(ev *model.Event, cb *CbData) {
		lastComp, ok := cb.mLocal.Get(RoleLastComp)
		if !ok {
			return
		}
		idle := clamp(lastComp.Timestamp - ev.Timestamp)
		p.severity.Add(ev.Callpath, idle)
		cb.mIdle = idle
		cb.Notify(p.identity.ID, TagRMAEarlyWait, ev)
	})
}

// RMALatePostPattern detects an origin starting an access epoch before the
// target posted its exposure epoch (§4.2 table, row 8).
type RMALatePostPattern struct{ basePattern }

// NewRMALatePostPattern creates the detector.
func NewRMALatePostPattern() *RMALatePostPattern {
	return &RMALatePostPattern{newBasePattern(Identity{
		ID: PatRMALatePost, Name: "Late Post", UniqueName: "rma_latepost",
		Description: "Time an access epoch waited for the target's exposure post",
		Unit: "seconds", Mode: Exclusive,
	})}
}

func (p *RMALatePostPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagRMAPost, func(ev *model.Event, cb *CbData) {
		cb.mLocal.Set(RoleLastPost, ev)
	})
	d.Subscribe(p.identity.ID, SweepMain, TagRMAStart, func(ev *model.Event, cb *CbData) {
		lastPost, ok := cb.mLocal.Get(RoleLastPost)
		if !ok {
			return
		}
		idle := clamp(ev.Timestamp - lastPost.Timestamp)
		p.severity.Add(ev.Callpath, idle)
		cb.mIdle = idle
		cb.Notify(p.identity.ID, TagRMALatePost, ev)
	})
}

// RMALateCompletePattern detects a target's complete lagging behind the
// window's last recorded put/get, the time the origin spent waiting for the
// data transfer to be acknowledged.
type RMALateCompletePattern struct{ basePattern }

// NewRMALateCompletePattern creates the detector.
func NewRMALateCompletePattern() *RMALateCompletePattern {
	return &RMALateCompletePattern{newBasePattern(Identity{
		ID: PatRMALateComplete, Name: "Late Complete", UniqueName: "rma_latecomplete",
		Description: "Time between a window's last data transfer and its completion", Unit: "seconds", Mode: Exclusive,
	})}
}

func (p *RMALateCompletePattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagRMAPut, func(ev *model.Event, cb *CbData) {
		cb.lastRMAOp[ev.WindowID] = ev
	})
	d.Subscribe(p.identity.ID, SweepMain, TagRMAGet, func(ev *model.Event, cb *CbData) {
		cb.lastRMAOp[ev.WindowID] = ev
	})
	d.Subscribe(p.identity.ID, SweepMain, TagRMAComplete, func(ev *model.Event, cb *CbData) {
		lastOp := cb.lastRMAOp[ev.WindowID]
		if lastOp == nil {
			return
		}
		idle := clamp(ev.Timestamp - lastOp.Timestamp)
		p.severity.Add(ev.Callpath, idle)
		cb.mIdle = idle
		cb.Notify(p.identity.ID, TagRMALateComplete, ev)
	})
}

// RMALockContentionPattern detects overlapping RMA passive-target lock
// epochs: on unlock, every overlapping exclusive/shared epoch from another
// location becomes idle time on the waiting side (§4.2 table, row 9).
type RMALockContentionPattern struct{ basePattern }

// NewRMALockContentionPattern creates the detector.
func NewRMALockContentionPattern() *RMALockContentionPattern {
	return &RMALockContentionPattern{newBasePattern(Identity{
		ID: PatRMALockContention, Name: "RMA Lock Contention", UniqueName: "rma_lockcontention",
		Description: "Time a passive-target lock epoch overlapped another location's epoch",
		Unit: "seconds", Mode: Exclusive,
	})}
}

func (p *RMALockContentionPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagRMALock, func(ev *model.Event, cb *CbData) {
		cb.Caches.Locks.Acquire(ev.WindowID, ev.Location, ev.Timestamp, true)
	})
	d.Subscribe(p.identity.ID, SweepMain, TagRMAUnlock, func(ev *model.Event, cb *CbData) {
		cb.Caches.Locks.Release(ev.WindowID, ev.Location, ev.Timestamp)
		acquire := findMatchingLock(ev)
		if acquire == nil {
			return
		}
		var idle float64
		for _, epoch := range cb.Caches.Locks.OverlappingEpochs(ev.WindowID, ev.Location, acquire.Timestamp, ev.Timestamp) {
			end := epoch.End
			if end == 0 || end > ev.Timestamp {
				end = ev.Timestamp
			}
			start := epoch.Start
			if start < acquire.Timestamp {
				start = acquire.Timestamp
			}
			idle += clamp(end - start)
		}
		if idle == 0 {
			return
		}
		p.severity.Add(ev.Callpath, idle)
		cb.mIdle = idle
		cb.Notify(p.identity.ID, TagRMALockContention, ev)
	})
}

// findMatchingLock walks backward on ev's own location to the nearest
// RMA_LOCK on the same window, the pairing an unlock closes.
func findMatchingLock(ev *model.Event) *model.Event {
	for cur := ev.Prev(); cur != nil; cur = cur.Prev() {
		if cur.Type == model.EventRMALock && cur.WindowID == ev.WindowID {
			return cur
		}
	}
	return nil
}
