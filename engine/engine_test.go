package engine

import (
	"context"
	"testing"

	"github.com/ftahirops/waitscope/model"
)

func locID(rank int) model.LocationID { return model.LocationID{Rank: rank} }

// TestLateSenderScenario builds the two-process case from the design
// notes: rank 1 posts its receive well before rank 0's send even starts,
// so the receive completion should accumulate idle time under
// PAT_MPI_LATESENDER.
func TestLateSenderScenario(t *testing.T) {
	defs := model.NewDefinitions()
	sendRegion := &model.Region{Name: "MPI_Send", Paradigm: model.ParadigmMPI}
	recvRegion := &model.Region{Name: "MPI_Recv", Paradigm: model.ParadigmMPI}
	sendCP := defs.Callpaths.Add(1, nil, sendRegion)
	recvCP := defs.Callpaths.Add(2, nil, recvRegion)

	b := model.NewBuilder(defs)
	comm := defs.Comms.Add(0, []int{0, 1})

	sender := b.Location(locID(0))
	sender.SendStart(5.0, sendCP, 1, comm.ID, 8, 1, 100)
	sender.SendComplete(5.1, sendCP, 1)

	receiver := b.Location(locID(1))
	receiver.RecvStart(0.0, recvCP, 0, comm.ID, 1, 100)
	receiver.RecvComplete(5.2, recvCP, 1)

	eng := NewEngine(Options{EnableStatistics: true}, nil)
	result, err := eng.Run(context.Background(), b.Trace())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer result.Telemetry.Shutdown(context.Background())

	cube := CubeFromPatterns(result.Dispatcher.Patterns())
	severity, ok := cube[PatMPILateSender]
	if !ok {
		t.Fatal("expected PAT_MPI_LATESENDER to have recorded severity")
	}
	if got := severity[recvCP.ID]; got <= 0 {
		t.Errorf("late-sender severity at recv callpath = %v, want > 0", got)
	}
}

// TestWrongOrderSenderScenario sends two messages out of timestamp order;
// the receiver posts its receives in program order, so the wrong-order
// child pattern should fire once the later-posted-but-earlier-sent message
// resolves.
func TestWrongOrderSenderScenario(t *testing.T) {
	defs := model.NewDefinitions()
	sendRegion := &model.Region{Name: "MPI_Send", Paradigm: model.ParadigmMPI}
	recvRegion := &model.Region{Name: "MPI_Recv", Paradigm: model.ParadigmMPI}
	sendCP := defs.Callpaths.Add(1, nil, sendRegion)
	recvCP := defs.Callpaths.Add(2, nil, recvRegion)

	b := model.NewBuilder(defs)
	comm := defs.Comms.Add(0, []int{0, 1})

	sender := b.Location(locID(0))
	sender.SendStart(3.0, sendCP, 1, comm.ID, 8, 1, 201) // sent first chronologically, but posted second below
	sender.SendComplete(3.1, sendCP, 1)
	sender.SendStart(4.0, sendCP, 1, comm.ID, 8, 2, 200)
	sender.SendComplete(4.1, sendCP, 2)

	receiver := b.Location(locID(1))
	receiver.RecvStart(0.0, recvCP, 0, comm.ID, 1, 200)
	receiver.RecvComplete(4.2, recvCP, 1)
	receiver.RecvStart(4.3, recvCP, 0, comm.ID, 2, 201)
	receiver.RecvComplete(4.4, recvCP, 2)

	eng := NewEngine(Options{}, nil)
	result, err := eng.Run(context.Background(), b.Trace())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer result.Telemetry.Shutdown(context.Background())

	cube := CubeFromPatterns(result.Dispatcher.Patterns())
	if _, ok := cube[PatMPILateSenderWO]; !ok {
		t.Error("expected PAT_MPI_LATESENDER_WO to have recorded severity for the out-of-order arrival")
	}
}

// TestBarrierWaitScenario has four ranks arrive at a barrier at staggered
// times; the earliest arrivals should accumulate wait time under
// PAT_MPI_BARRIER_WAIT.
func TestBarrierWaitScenario(t *testing.T) {
	defs := model.NewDefinitions()
	region := &model.Region{Name: "MPI_Barrier", Paradigm: model.ParadigmMPI}
	cp := defs.Callpaths.Add(1, nil, region)

	b := model.NewBuilder(defs)
	comm := defs.Comms.Add(0, []int{0, 1, 2, 3})

	arrivals := []float64{1.0, 1.5, 3.0, 1.2}
	var begins []*model.Event
	for rank, arrival := range arrivals {
		bl := b.Location(locID(rank))
		begins = append(begins, bl.CollectiveBegin(arrival, cp, comm.ID, -1, rank, 900))
	}
	for i, begin := range begins {
		bl := b.Location(locID(i))
		bl.CollectiveEnd(3.2, begin)
	}

	eng := NewEngine(Options{}, nil)
	result, err := eng.Run(context.Background(), b.Trace())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer result.Telemetry.Shutdown(context.Background())

	cube := CubeFromPatterns(result.Dispatcher.Patterns())
	severity, ok := cube[PatMPIWaitAtBarrier]
	if !ok {
		t.Fatal("expected PAT_MPI_BARRIER_WAIT to have recorded severity")
	}
	if severity[cp.ID] <= 0 {
		t.Errorf("barrier wait severity = %v, want > 0", severity[cp.ID])
	}
}

// TestCriticalPathScenario chains three ranks through a send/recv relay so
// the backward critical-path walk crosses locations; the trace's
// makespan-defining location should end the walk with a non-empty
// critical-path map.
func TestCriticalPathScenario(t *testing.T) {
	defs := model.NewDefinitions()
	workRegion := &model.Region{Name: "compute", Paradigm: model.ParadigmNone}
	sendRegion := &model.Region{Name: "MPI_Send", Paradigm: model.ParadigmMPI}
	recvRegion := &model.Region{Name: "MPI_Recv", Paradigm: model.ParadigmMPI}
	workCP := defs.Callpaths.Add(1, nil, workRegion)
	sendCP := defs.Callpaths.Add(2, nil, sendRegion)
	recvCP := defs.Callpaths.Add(3, nil, recvRegion)

	b := model.NewBuilder(defs)
	comm := defs.Comms.Add(0, []int{0, 1, 2})

	r0 := b.Location(locID(0))
	r0.Enter(0.0, workCP)
	r0.Leave(2.0)
	r0.SendStart(2.0, sendCP, 1, comm.ID, 8, 1, 1)
	r0.SendComplete(2.1, sendCP, 1)

	r1 := b.Location(locID(1))
	r1.RecvStart(0.0, recvCP, 0, comm.ID, 1, 1)
	r1.RecvComplete(2.2, recvCP, 1)
	r1.Enter(2.2, workCP)
	r1.Leave(3.0)
	r1.SendStart(3.0, sendCP, 2, comm.ID, 8, 2, 2)
	r1.SendComplete(3.1, sendCP, 2)

	r2 := b.Location(locID(2))
	r2.RecvStart(0.0, recvCP, 1, comm.ID, 2, 2)
	r2.RecvComplete(3.2, recvCP, 2)
	r2.Enter(3.2, workCP)
	r2.Leave(3.5)

	eng := NewEngine(Options{EnableCriticalPath: true}, nil)
	result, err := eng.Run(context.Background(), b.Trace())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer result.Telemetry.Shutdown(context.Background())

	if len(result.CriticalPath) == 0 {
		t.Fatal("expected a non-empty critical-path map")
	}
}

// TestOMPForkImbalanceScenario forks two worker threads from a master that
// starts the team well before either worker actually starts, so the fork
// pattern should attribute the slowest start delay to the master's call
// path.
func TestOMPForkImbalanceScenario(t *testing.T) {
	defs := model.NewDefinitions()
	region := &model.Region{Name: "omp_parallel", Paradigm: model.ParadigmOMP}
	cp := defs.Callpaths.Add(1, nil, region)

	b := model.NewBuilder(defs)
	const teamID = int64(42)

	master := b.Location(locID(0))
	master.GroupEnter(0.0, cp, teamID)

	worker1 := b.Location(model.LocationID{Rank: 0, Thread: 1})
	worker1.GroupEnter(0.1, cp, teamID)
	worker1.GroupLeave(0.5, teamID)

	worker2 := b.Location(model.LocationID{Rank: 0, Thread: 2})
	worker2.GroupEnter(0.3, cp, teamID)
	worker2.GroupLeave(2.0, teamID)

	master.GroupLeave(2.1, teamID)

	eng := NewEngine(Options{}, nil)
	result, err := eng.Run(context.Background(), b.Trace())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer result.Telemetry.Shutdown(context.Background())

	cube := CubeFromPatterns(result.Dispatcher.Patterns())
	severity, ok := cube[PatOMPFork]
	if !ok {
		t.Fatal("expected PAT_OMP_FORK to have recorded severity")
	}
	if got := severity[cp.ID]; got <= 0 {
		t.Errorf("omp fork severity = %v, want > 0", got)
	}
}

// TestCollectiveDelayScenario has one rank's upstream compute hold it up
// before it joins an MPI_Reduce, so the early-arriving ranks should
// accumulate idle time waiting for it under PAT_MPI_EARLYREDUCE.
func TestCollectiveDelayScenario(t *testing.T) {
	defs := model.NewDefinitions()
	workRegion := &model.Region{Name: "compute", Paradigm: model.ParadigmNone}
	reduceRegion := &model.Region{Name: "MPI_Reduce", Paradigm: model.ParadigmMPI}
	workCP := defs.Callpaths.Add(1, nil, workRegion)
	reduceCP := defs.Callpaths.Add(2, nil, reduceRegion)

	b := model.NewBuilder(defs)
	comm := defs.Comms.Add(0, []int{0, 1, 2})

	late := b.Location(locID(0))
	late.Enter(0.0, workCP)
	late.Leave(4.0)
	lateBegin := late.CollectiveBegin(4.0, reduceCP, comm.ID, 0, 0, 700)

	r1 := b.Location(locID(1))
	r1Begin := r1.CollectiveBegin(0.5, reduceCP, comm.ID, 0, 1, 700)

	r2 := b.Location(locID(2))
	r2Begin := r2.CollectiveBegin(0.6, reduceCP, comm.ID, 0, 2, 700)

	late.CollectiveEnd(4.2, lateBegin)
	r1.CollectiveEnd(4.2, r1Begin)
	r2.CollectiveEnd(4.2, r2Begin)

	eng := NewEngine(Options{}, nil)
	result, err := eng.Run(context.Background(), b.Trace())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer result.Telemetry.Shutdown(context.Background())

	cube := CubeFromPatterns(result.Dispatcher.Patterns())
	severity, ok := cube[PatMPIEarlyReduce]
	if !ok {
		t.Fatal("expected PAT_MPI_EARLYREDUCE to have recorded severity")
	}
	if got := severity[reduceCP.ID]; got <= 0 {
		t.Errorf("early-reduce severity = %v, want > 0", got)
	}
}

func TestEngineWithTelemetryReaderIsOptional(t *testing.T) {
	eng := NewEngine(Options{}, nil)
	if eng.telemetryReader != nil {
		t.Fatal("a fresh engine should have no telemetry reader attached")
	}
}
