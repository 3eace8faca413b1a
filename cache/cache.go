// Package cache defines the interfaces for the three read-mostly
// collaborators the engine consults during a sweep but does not own: the
// time-map cache, the synchpoint handler, and the lock-tracking cache
// (§1, §4.6 — specified only through their interfaces; construction and
// persistence are external concerns).
package cache

import "github.com/ftahirops/waitscope/model"

// TimeMap mirrors buffer.TimeMap's shape without importing the buffer
// package, so cache stays a leaf dependency.
type TimeMap map[int]float64

// TimeMapCache answers "how much time did call paths accumulate between
// two events on this location" queries, read-only during a sweep (§5
// "Shared-resource policy").
type TimeMapCache interface {
	// Between returns the time map summarizing time spent in every call
	// path within the interval (from, to], inclusive of to.
	Between(from, to *model.Event) TimeMap
}

// SynchpointHandler classifies events as synchpoints and supplies their
// wait time, used by the delay/critical-path pipeline to find "the most
// recent synchronization point with the same peer" (§4.4 step 1).
type SynchpointHandler interface {
	// IsSynchpoint reports whether ev is a synchronization point.
	IsSynchpoint(ev *model.Event) bool
	// WaitTime returns the wait time recorded for a synchpoint event.
	WaitTime(ev *model.Event) float64
	// PrevSynchpoint returns the most recent synchpoint with the same peer
	// before ev on ev's location, or nil if there is none.
	PrevSynchpoint(ev *model.Event, peer int) *model.Event
	// Between returns every synchpoint strictly between from and to on the
	// same location, used to populate mPropSpMap (§4.4).
	Between(from, to *model.Event) []*model.Event
}

// LockTrackingCache tracks exclusive/shared lock epochs across processes
// for the RMA lock-contention detector (§4.2) and the OMP/Pthread lock
// family. Like the TimeMapCache and SynchpointHandler, a single
// implementation instance is shared across every location's concurrent
// sweep goroutine; unlike them it is written during the sweep — lock
// contention is inherently cross-location — so implementations must
// guard concurrent Acquire/Release/OverlappingEpochs/LastRelease calls
// themselves (§5); MemoryLockCache does so with a mutex.
type LockTrackingCache interface {
	// Acquire records that lockID was acquired at ts by loc with the given
	// exclusivity (true for RMA exclusive lock / Pthread mutex, false for
	// RMA shared lock).
	Acquire(lockID int64, loc model.LocationID, ts float64, exclusive bool)
	// Release records that lockID was released at ts by loc.
	Release(lockID int64, loc model.LocationID, ts float64)
	// OverlappingEpochs returns the [start,end] intervals of other holders
	// of lockID that overlapped the [acquireTS, releaseTS) interval on loc,
	// used by the RMA lock-contention detector to compute idle overlap.
	OverlappingEpochs(lockID int64, loc model.LocationID, acquireTS, releaseTS float64) []Epoch
	// LastRelease returns the timestamp of the most recent release of
	// lockID at or before ts, or (0, false) if none.
	LastRelease(lockID int64, before float64) (float64, bool)
}

// Epoch is one [Start,End) lock-holding interval recorded by the cache.
type Epoch struct {
	Loc        model.LocationID
	Start, End float64
	Exclusive  bool
}
