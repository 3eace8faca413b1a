package engine

import "github.com/ftahirops/waitscope/model"

// lockContentionPattern is the OMP/Pthread lock-contention family (§4.2
// table, row 12): at acquire, the idle time is the gap between the lock's
// last release (by any location, this one included) and this acquire, via
// cache.LockTrackingCache.LastRelease — the time the lock sat free while
// this acquirer hadn't yet taken it is attributed to scheduling/contention
// delay on the acquirer's call path. Dispatch to the right sub-pattern
// happens by paradigm, via lockSubPattern; an event whose paradigm doesn't
// match this instance's is ignored (§7 kind 4, unknown paradigm is a
// silent no-op).
type lockContentionPattern struct {
	basePattern
	paradigm model.LockParadigm
	tag      Tag
}

func newLockContentionPattern(id Identity, paradigm model.LockParadigm, tag Tag) *lockContentionPattern {
	return &lockContentionPattern{basePattern: newBasePattern(id), paradigm: paradigm, tag: tag}
}

func (p *lockContentionPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagThreadAcquire, func(ev *model.Event, cb *CbData) {
		if ev.LockKind != p.paradigm {
			return
		}
		if last, ok := cb.Caches.Locks.LastRelease(ev.LockID, ev.Timestamp); ok {
			if idle := clamp(ev.Timestamp - last); idle > 0 {
				p.severity.Add(ev.Callpath, idle)
				cb.mIdle = idle
				cb.Notify(p.identity.ID, p.tag, ev)
			}
		}
		cb.Caches.Locks.Acquire(ev.LockID, ev.Location, ev.Timestamp, true)
	})
	d.Subscribe(p.identity.ID, SweepMain, TagThreadRelease, func(ev *model.Event, cb *CbData) {
		if ev.LockKind != p.paradigm {
			return
		}
		cb.Caches.Locks.Release(ev.LockID, ev.Location, ev.Timestamp)
	})
}

// NewOMPCriticalContentionPattern detects OMP critical-section contention.
func NewOMPCriticalContentionPattern() Pattern {
	return newLockContentionPattern(Identity{
		ID: PatOMPCriticalContention, ParentID: PatLockContention,
		Name: "OMP Critical Contention", UniqueName: "omp_critical_contention",
		Description: "Time waiting to enter an OpenMP critical section", Unit: "seconds", Mode: Exclusive,
	}, model.LockParadigmOMPCritical, TagOMPLockContention)
}

// NewOMPLockAPIContentionPattern detects OMP lock-API contention.
func NewOMPLockAPIContentionPattern() Pattern {
	return newLockContentionPattern(Identity{
		ID: PatOMPLockAPIContention, ParentID: PatLockContention,
		Name: "OMP Lock API Contention", UniqueName: "omp_lockapi_contention",
		Description: "Time waiting on an explicit omp_set_lock call", Unit: "seconds", Mode: Exclusive,
	}, model.LockParadigmOMPLockAPI, TagOMPLockContention)
}

// NewPthreadMutexContentionPattern detects Pthread mutex contention.
func NewPthreadMutexContentionPattern() Pattern {
	return newLockContentionPattern(Identity{
		ID: PatPthreadMutexContention, ParentID: PatLockContention,
		Name: "Pthread Mutex Contention", UniqueName: "pthread_mutex_contention",
		Description: "Time waiting on a pthread_mutex_lock call", Unit: "seconds", Mode: Exclusive,
	}, model.LockParadigmPthreadMutex, TagPthreadLockContention)
}

// NewPthreadConditionContentionPattern detects Pthread condition-variable
// contention.
func NewPthreadConditionContentionPattern() Pattern {
	return newLockContentionPattern(Identity{
		ID: PatPthreadConditionContention, ParentID: PatLockContention,
		Name: "Pthread Condition Contention", UniqueName: "pthread_condition_contention",
		Description: "Time waiting on a pthread_cond_wait call", Unit: "seconds", Mode: Exclusive,
	}, model.LockParadigmPthreadCondition, TagPthreadLockContention)
}
