// Package model defines the event-trace data model shared by the
// pattern-detection engine: events, call paths, regions, and the
// communicator/group table used to resolve peers.
package model

// EventType is a closed enumeration of the user events the dispatcher
// recognizes. It never grows at runtime.
type EventType int

const (
	EventInvalid EventType = iota
	EventEnter
	EventLeave
	EventGroupEnter
	EventGroupLeave
	EventSendStart
	EventSendComplete
	EventRecvStart
	EventRecvComplete
	EventCollectiveBegin
	EventCollectiveEnd
	EventRMAPut
	EventRMAGet
	EventRMALock
	EventRMAUnlock
	EventRMAFence
	EventRMAPost
	EventRMAWait
	EventRMAComplete
	EventRMAStart
	EventRMAWinCreate
	EventRMAWinFree
	EventThreadFork
	EventThreadJoin
	EventThreadAcquireLock
	EventThreadReleaseLock
	EventTaskComplete
	EventInit
	EventFinalize
)

func (t EventType) String() string {
	switch t {
	case EventEnter:
		return "ENTER"
	case EventLeave:
		return "LEAVE"
	case EventGroupEnter:
		return "GROUP_ENTER"
	case EventGroupLeave:
		return "GROUP_LEAVE"
	case EventSendStart:
		return "SEND_START"
	case EventSendComplete:
		return "SEND_COMPLETE"
	case EventRecvStart:
		return "RECV_START"
	case EventRecvComplete:
		return "RECV_COMPLETE"
	case EventCollectiveBegin:
		return "COLLECTIVE_BEGIN"
	case EventCollectiveEnd:
		return "COLLECTIVE_END"
	case EventRMAPut:
		return "RMA_PUT"
	case EventRMAGet:
		return "RMA_GET"
	case EventRMALock:
		return "RMA_LOCK"
	case EventRMAUnlock:
		return "RMA_UNLOCK"
	case EventRMAFence:
		return "RMA_FENCE"
	case EventRMAPost:
		return "RMA_POST"
	case EventRMAWait:
		return "RMA_WAIT"
	case EventRMAComplete:
		return "RMA_COMPLETE"
	case EventRMAStart:
		return "RMA_START"
	case EventRMAWinCreate:
		return "RMA_WIN_CREATE"
	case EventRMAWinFree:
		return "RMA_WIN_FREE"
	case EventThreadFork:
		return "THREAD_FORK"
	case EventThreadJoin:
		return "THREAD_JOIN"
	case EventThreadAcquireLock:
		return "THREAD_ACQUIRE_LOCK"
	case EventThreadReleaseLock:
		return "THREAD_RELEASE_LOCK"
	case EventTaskComplete:
		return "TASK_COMPLETE"
	case EventInit:
		return "INIT"
	case EventFinalize:
		return "FINALIZE"
	default:
		return "INVALID"
	}
}

// LocationID identifies one MPI-rank/OpenMP-thread/Pthread location.
type LocationID struct {
	Rank   int
	Thread int
}

// LockParadigm distinguishes the owning synchronization API of a lock id,
// used by the lock-contention family to dispatch to the right sub-pattern.
type LockParadigm int

const (
	LockParadigmUnknown LockParadigm = iota
	LockParadigmOMPCritical
	LockParadigmOMPLockAPI
	LockParadigmPthreadMutex
	LockParadigmPthreadCondition
)

// Event is an immutable record in one location's ordered stream. Navigation
// fields are populated once by the trace builder (§6 "inbound from the
// trace layer") and never mutated afterward.
type Event struct {
	ID        int
	Timestamp float64
	Type      EventType
	Location  LocationID
	Callpath  *Callpath
	Region    *Region

	// Type-dependent payload.
	Peer       int // sender/receiver rank for p2p, root for collectives
	Comm       CommID
	Bytes      int64
	LockID     int64
	LockKind   LockParadigm
	WindowID   int64
	MyRank     int   // rank within the collective's communicator
	CollID     int64 // cross-location key grouping one collective's BEGIN/END events

	// Navigation primitives (§3).
	stream      *locationStream
	index       int
	enterPtr    *Event
	leavePtr    *Event
	request     *Event
	completion  *Event
	beginPtr    *Event
	peerEvent   *Event // matching SEND_START<->RECV_START on the other location
}

// PeerEvent resolves a SEND_START to its matching RECV_START, or vice versa,
// across locations. Populated by the trace builder from a shared message id;
// nil until both sides of the message have been appended.
func (e *Event) PeerEvent() *Event { return e.peerEvent }

// Prev returns the previous event on the same location, or nil at the start.
func (e *Event) Prev() *Event {
	if e == nil || e.stream == nil || e.index == 0 {
		return nil
	}
	return e.stream.events[e.index-1]
}

// Next returns the next event on the same location, or nil at the end.
func (e *Event) Next() *Event {
	if e == nil || e.stream == nil || e.index+1 >= len(e.stream.events) {
		return nil
	}
	return e.stream.events[e.index+1]
}

// EnterPtr resolves a LEAVE event to its matching ENTER (or GROUP_LEAVE to
// GROUP_ENTER).
func (e *Event) EnterPtr() *Event { return e.enterPtr }

// LeavePtr resolves an ENTER event to its matching LEAVE.
func (e *Event) LeavePtr() *Event { return e.leavePtr }

// Request resolves a *_COMPLETE event to the *_START event that posted it.
func (e *Event) Request() *Event { return e.request }

// Completion resolves a *_START event to its *_COMPLETE counterpart.
func (e *Event) Completion() *Event { return e.completion }

// BeginPtr resolves a COLLECTIVE_END to its COLLECTIVE_BEGIN.
func (e *Event) BeginPtr() *Event { return e.beginPtr }

// Index returns the event's position within its location stream.
func (e *Event) Index() int { return e.index }
