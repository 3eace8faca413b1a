package engine

import "github.com/ftahirops/waitscope/model"

// Tag is a closed enumeration of user-event tags the dispatcher routes on:
// either derived directly from an event's type, or a synthetic tag only
// ever reached via notify (§4.1, §9 "closed enumeration of user-event
// tags").
type Tag string

// Tags derived directly from model.EventType.
const (
	TagEnter            Tag = "ENTER"
	TagLeave            Tag = "LEAVE"
	TagGroupEnter       Tag = "GROUP_ENTER"
	TagGroupLeave       Tag = "GROUP_LEAVE"
	TagSendStart        Tag = "SEND_START"
	TagSendComplete     Tag = "SEND_COMPLETE"
	TagRecvStart        Tag = "RECV_START"
	TagRecvComplete     Tag = "RECV_COMPLETE"
	TagCollectiveBegin  Tag = "COLLECTIVE_BEGIN"
	TagCollectiveEnd    Tag = "COLLECTIVE_END"
	TagRMAPut           Tag = "RMA_PUT"
	TagRMAGet           Tag = "RMA_GET"
	TagRMALock          Tag = "RMA_LOCK"
	TagRMAUnlock        Tag = "RMA_UNLOCK"
	TagRMAFence         Tag = "RMA_FENCE"
	TagRMAPost          Tag = "RMA_POST"
	TagRMAWait          Tag = "RMA_WAIT"
	TagRMAComplete      Tag = "RMA_COMPLETE"
	TagRMAStart         Tag = "RMA_START"
	TagRMAWinCreate     Tag = "RMA_WIN_CREATE"
	TagRMAWinFree       Tag = "RMA_WIN_FREE"
	TagThreadFork       Tag = "THREAD_FORK"
	TagThreadJoin       Tag = "THREAD_JOIN"
	TagThreadAcquire    Tag = "THREAD_ACQUIRE_LOCK"
	TagThreadRelease    Tag = "THREAD_RELEASE_LOCK"
	TagTaskComplete     Tag = "TASK_COMPLETE"
	TagInit             Tag = "INIT"
	TagFinalize         Tag = "FINALIZE"
)

// Synthetic tags, reached only via CbData.Notify (§4.2's "notify a
// downstream user-event").
const (
	TagCCVColl              Tag = "CCV_COLL"
	TagCCVP2P                Tag = "CCV_P2P"
	TagLateSender            Tag = "LATE_SENDER"
	TagLateSenderWO          Tag = "LATE_SENDER_WO"
	TagLateReceiver          Tag = "LATE_RECEIVER"
	TagWaitBarrier           Tag = "WAIT_BARRIER"
	TagBarrierCompletion     Tag = "BARRIER_COMPLETION"
	TagWaitNxN               Tag = "WAIT_NXN"
	TagNxNCompletion         Tag = "NXN_COMPLETION"
	TagLateBroadcast         Tag = "LATE_BROADCAST"
	TagEarlyReduce           Tag = "EARLY_REDUCE"
	TagEarlyScan             Tag = "EARLY_SCAN"
	TagInitCompletion        Tag = "INIT_COMPLETION"
	TagFinalizeCompletion    Tag = "FINALIZE_COMPLETION"
	TagRMAWaitAtCreate       Tag = "RMA_WAIT_AT_CREATE"
	TagRMAWaitAtFree         Tag = "RMA_WAIT_AT_FREE"
	TagRMAWaitAtFence        Tag = "RMA_WAIT_AT_FENCE"
	TagRMAEarlyWait          Tag = "RMA_EARLY_WAIT"
	TagRMALatePost           Tag = "RMA_LATE_POST"
	TagRMALateComplete       Tag = "RMA_LATE_COMPLETE"
	TagRMALockContention     Tag = "RMA_LOCK_CONTENTION"
	TagOMPFork               Tag = "OMP_FORK"
	TagOMPJoin               Tag = "OMP_JOIN"
	TagOMPEBarrier           Tag = "OMP_EBARRIER"
	TagOMPIBarrier           Tag = "OMP_IBARRIER"
	TagOMPLockContention     Tag = "OMP_LOCK_CONTENTION"
	TagPthreadLockContention Tag = "PTHREAD_LOCK_CONTENTION"
)

// builtinTag computes the built-in tag for an event purely from its type,
// refined for GROUP_LEAVE/LEAVE into recognizable regions so downstream
// detectors can subscribe to a narrower tag than the raw event type when
// useful (§4.1 "computes its built-in tags (e.g., GROUP_LEAVE for a leave
// into a group-region)").
func builtinTag(ev *model.Event) Tag {
	switch ev.Type {
	case model.EventEnter:
		return TagEnter
	case model.EventLeave:
		return TagLeave
	case model.EventGroupEnter:
		return TagGroupEnter
	case model.EventGroupLeave:
		return TagGroupLeave
	case model.EventSendStart:
		return TagSendStart
	case model.EventSendComplete:
		return TagSendComplete
	case model.EventRecvStart:
		return TagRecvStart
	case model.EventRecvComplete:
		return TagRecvComplete
	case model.EventCollectiveBegin:
		return TagCollectiveBegin
	case model.EventCollectiveEnd:
		return TagCollectiveEnd
	case model.EventRMAPut:
		return TagRMAPut
	case model.EventRMAGet:
		return TagRMAGet
	case model.EventRMALock:
		return TagRMALock
	case model.EventRMAUnlock:
		return TagRMAUnlock
	case model.EventRMAFence:
		return TagRMAFence
	case model.EventRMAPost:
		return TagRMAPost
	case model.EventRMAWait:
		return TagRMAWait
	case model.EventRMAComplete:
		return TagRMAComplete
	case model.EventRMAStart:
		return TagRMAStart
	case model.EventRMAWinCreate:
		return TagRMAWinCreate
	case model.EventRMAWinFree:
		return TagRMAWinFree
	case model.EventThreadFork:
		return TagThreadFork
	case model.EventThreadJoin:
		return TagThreadJoin
	case model.EventThreadAcquireLock:
		return TagThreadAcquire
	case model.EventThreadReleaseLock:
		return TagThreadRelease
	case model.EventTaskComplete:
		return TagTaskComplete
	case model.EventInit:
		return TagInit
	case model.EventFinalize:
		return TagFinalize
	default:
		return ""
	}
}
