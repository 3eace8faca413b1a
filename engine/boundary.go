package engine

import "github.com/ftahirops/waitscope/model"

// lockSubPattern dispatches a lock-acquire event to the pattern id that
// should own its contention severity, by paradigm (§4.2 "dispatch to
// sub-pattern by lock-type: OMP critical vs OMP-lock-API vs Pthread mutex
// vs Pthread condition"). Unknown paradigms short-circuit to a no-op per
// §4.2/§7 kind 4.
func lockSubPattern(kind model.LockParadigm) string {
	switch kind {
	case model.LockParadigmOMPCritical:
		return PatOMPCriticalContention
	case model.LockParadigmOMPLockAPI:
		return PatOMPLockAPIContention
	case model.LockParadigmPthreadMutex:
		return PatPthreadMutexContention
	case model.LockParadigmPthreadCondition:
		return PatPthreadConditionContention
	default:
		return ""
	}
}

// clamp returns max(0, v), the guard every severity `+=` must pass (§3
// invariant 3).
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// clockOK reports whether a send/recv pair satisfies the clock condition
// send-timestamp <= recv-timestamp (§3 invariant 2). Violations are
// reported via CCV_P2P/CCV_COLL, never silently propagated into severities.
func clockOK(sendTS, recvTS float64) bool { return sendTS <= recvTS }
