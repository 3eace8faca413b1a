package engine

// PAT_* identifiers form the output taxonomy; a pattern relates to others
// only via ParentID (§4.2).
const (
	PatVisits = "PAT_VISITS"
	PatTime   = "PAT_TIME"

	PatMPILateSender   = "PAT_MPI_LATESENDER"
	PatMPILateSenderWO = "PAT_MPI_LATESENDER_WO"
	PatMPILateReceiver = "PAT_MPI_LATERECEIVER"

	PatMPIBarrier           = "PAT_MPI_BARRIER"
	PatMPIWaitAtBarrier     = "PAT_MPI_BARRIER_WAIT"
	PatMPIBarrierCompletion = "PAT_MPI_BARRIER_COMPLETION"
	PatMPINxNCompletion     = "PAT_MPI_N2N_COMPLETION"
	PatMPIInitCompletion    = "PAT_MPI_INIT_COMPLETION"
	PatMPIFinalize          = "PAT_MPI_FINALIZE"
	PatMPIWaitAtNxN         = "PAT_MPI_WAIT_NXN"
	PatMPILateBroadcast     = "PAT_MPI_LATEBROADCAST"
	PatMPIEarlyReduce       = "PAT_MPI_EARLYREDUCE"
	PatMPIEarlyScan         = "PAT_MPI_EARLYSCAN"

	PatRMAWaitAtCreate   = "PAT_MPI_RMA_WAIT_CREATE"
	PatRMAWaitAtFree     = "PAT_MPI_RMA_WAIT_FREE"
	PatRMAWaitAtFence    = "PAT_MPI_RMA_WAIT_FENCE"
	PatRMAEarlyWait      = "PAT_MPI_RMA_EARLYWAIT"
	PatRMALatePost       = "PAT_MPI_RMA_LATEPOST"
	PatRMALateComplete   = "PAT_MPI_RMA_LATECOMPLETE"
	PatRMALockContention = "PAT_MPI_RMA_LOCKCONTENTION"

	PatOMPFork       = "PAT_OMP_FORK"
	PatOMPJoin       = "PAT_OMP_JOIN"
	PatOMPBarrier    = "PAT_OMP_BARRIER_WAIT"
	PatLockContention           = "PAT_LOCK_CONTENTION"
	PatOMPCriticalContention    = "PAT_OMP_CRITICAL_CONTENTION"
	PatOMPLockAPIContention     = "PAT_OMP_LOCKAPI_CONTENTION"
	PatPthreadMutexContention   = "PAT_PTHREAD_MUTEX_CONTENTION"
	PatPthreadConditionContention = "PAT_PTHREAD_CONDITION_CONTENTION"

	PatCriticalPath               = "PAT_CRITICALPATH"
	PatCriticalPathActivity       = "PAT_CRITICALPATH_ACTIVITY"
	PatCriticalPathImbalance      = "PAT_CRITICALPATH_IMBALANCE"
	PatCriticalPathInterPartition = "PAT_CRITICALPATH_INTERPARTITION"
	PatNonCriticalActivities      = "PAT_NONCRITICAL_ACTIVITIES"

	PatDelayLateSender = "PAT_DELAY_LATESENDER"
	PatDelayBarrier    = "PAT_DELAY_BARRIER"
	PatDelayOMPIdle    = "PAT_DELAY_OMPIDLE"
	PatDelayLongTerm   = "PAT_DELAY_LONGTERM"

	PatStatistics = "PAT_STATISTICS"
)
