package engine

import "github.com/ftahirops/waitscope/model"

// OMPForkPattern attributes the delay until the slowest worker actually
// started the team to the forking (master) thread's call path (§4.2 table,
// row 10). The master is identified as the team member with the earliest
// GROUP_ENTER; the pattern fires once per team, on that member's own entry.
type OMPForkPattern struct{ basePattern }

// NewOMPForkPattern creates the detector.
func NewOMPForkPattern() *OMPForkPattern {
	return &OMPForkPattern{newBasePattern(Identity{
		ID: PatOMPFork, Name: "OMP Fork", UniqueName: "omp_fork",
		Description: "Time the master thread waited for the slowest worker to start the team",
		Unit:        "seconds", Mode: Exclusive,
	})}
}

func (p *OMPForkPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagGroupEnter, func(ev *model.Event, cb *CbData) {
		team := cb.Global.CollectiveGroup(ev.CollID)
		if team == nil || len(team.Begins) == 0 {
			return
		}
		master := team.Begins[0]
		for _, b := range team.Begins[1:] {
			if b.Timestamp < master.Timestamp {
				master = b
			}
		}
		if ev != master {
			return
		}
		var maxDelay float64
		for _, b := range team.Begins {
			if d := clamp(b.Timestamp - master.Timestamp); d > maxDelay {
				maxDelay = d
			}
		}
		p.severity.Add(master.Callpath, maxDelay)
		cb.mIdle = maxDelay
		cb.Notify(p.identity.ID, TagOMPFork, master)
	})
}

// OMPJoinPattern is the join-side counterpart: each worker's idle time
// waiting for the team's slowest departure, accumulated on its own call
// path (§4.2 table, row 10).
type OMPJoinPattern struct{ basePattern }

// NewOMPJoinPattern creates the detector.
func NewOMPJoinPattern() *OMPJoinPattern {
	return &OMPJoinPattern{newBasePattern(Identity{
		ID: PatOMPJoin, Name: "OMP Join", UniqueName: "omp_join",
		Description: "Time a thread waited at the implicit join for the slowest team member",
		Unit:        "seconds", Mode: Exclusive,
	})}
}

func (p *OMPJoinPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagGroupLeave, func(ev *model.Event, cb *CbData) {
		team := cb.Global.CollectiveGroup(ev.CollID)
		if team == nil {
			return
		}
		var latest float64
		for _, e := range team.Ends {
			if e.Timestamp > latest {
				latest = e.Timestamp
			}
		}
		idle := clamp(latest - ev.Timestamp)
		p.severity.Add(ev.Callpath, idle)
		cb.mIdle = idle
		cb.Notify(p.identity.ID, TagOMPJoin, ev)
	})
}

// OMPBarrierWaitPattern detects an explicit or implicit OpenMP barrier
// wait. Barriers are modeled as a collective begin/end pair like MPI
// collectives (§4.2 table, row 11); task-execution time accumulated inside
// the barrier region is not separately tracked by this trace model, so the
// subtracted term is always 0.
type OMPBarrierWaitPattern struct{ basePattern }

// NewOMPBarrierWaitPattern creates the detector.
func NewOMPBarrierWaitPattern() *OMPBarrierWaitPattern {
	return &OMPBarrierWaitPattern{newBasePattern(Identity{
		ID: PatOMPBarrier, Name: "OMP Barrier Wait", UniqueName: "omp_barrier_wait",
		Description: "Time waiting at an OpenMP barrier for the slowest team member",
		Unit:        "seconds", Mode: Exclusive,
	})}
}

func (p *OMPBarrierWaitPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagCollectiveEnd, func(ev *model.Event, cb *CbData) {
		if !ev.Region.IsOMPBarrier() {
			return
		}
		info := resolveCollectiveInfo(cb.Global, ev)
		if info == nil {
			return
		}
		idle := clamp(info.Latest.Time - info.My.Time)
		p.severity.Add(ev.Callpath, idle)
		cb.mIdle = idle
		tag := TagOMPEBarrier
		if ev.Region.IsOMPIBarrier() {
			tag = TagOMPIBarrier
		}
		cb.Notify(p.identity.ID, tag, ev)
	})
}
