package engine

import (
	"context"
	"testing"

	"github.com/ftahirops/waitscope/model"
)

// TestDelayPatternsScenario exercises §4.4's short-term/long-term wiring
// end to end: a receiver takes a first, on-time message, spends time in a
// compute region, then posts a second receive that a much later send makes
// late. The compute dwell between the two receive completions is what the
// short-term algorithm blames the late arrival on.
func TestDelayPatternsScenario(t *testing.T) {
	defs := model.NewDefinitions()
	sendRegion := &model.Region{Name: "MPI_Send", Paradigm: model.ParadigmMPI}
	recvRegion := &model.Region{Name: "MPI_Recv", Paradigm: model.ParadigmMPI}
	workRegion := &model.Region{Name: "compute", Paradigm: model.ParadigmNone}
	sendCP := defs.Callpaths.Add(1, nil, sendRegion)
	recvCP := defs.Callpaths.Add(2, nil, recvRegion)
	workCP := defs.Callpaths.Add(3, nil, workRegion)

	b := model.NewBuilder(defs)
	comm := defs.Comms.Add(0, []int{0, 1})

	sender := b.Location(locID(0))
	sender.SendStart(0.0, sendCP, 1, comm.ID, 8, 1, 100)
	sender.SendComplete(0.4, sendCP, 1)

	receiver := b.Location(locID(1))
	receiver.RecvStart(0.0, recvCP, 0, comm.ID, 1, 100)
	receiver.RecvComplete(0.5, recvCP, 1) // on time: peer send started at 0.0, no idle recorded
	receiver.Enter(0.6, workCP)
	receiver.Leave(0.9) // 0.3s of compute dwell the delay algorithm can blame the late arrival on
	receiver.RecvStart(1.0, recvCP, 0, comm.ID, 2, 200)

	sender.SendStart(3.0, sendCP, 1, comm.ID, 8, 2, 200) // posted long after the matching recv
	sender.SendComplete(3.1, sendCP, 2)

	receiver.RecvComplete(3.2, recvCP, 2)

	eng := NewEngine(Options{EnableDelayAnalysis: true}, nil)
	result, err := eng.Run(context.Background(), b.Trace())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer result.Telemetry.Shutdown(context.Background())

	cube := CubeFromPatterns(result.Dispatcher.Patterns())

	lateSenderStill, ok := cube[PatMPILateSender]
	if !ok || lateSenderStill[recvCP.ID] <= 0 {
		t.Fatalf("expected the plain PAT_MPI_LATESENDER wait state to still fire, got %v (ok=%v)", lateSenderStill, ok)
	}

	delaySeverity, ok := cube[PatDelayLateSender]
	if !ok {
		t.Fatal("expected PAT_DELAY_LATESENDER to have recorded severity")
	}
	if got := delaySeverity[workCP.ID]; got <= 0 {
		t.Errorf("delay-latesender severity at compute callpath = %v, want > 0", got)
	}

	longTerm, ok := cube[PatDelayLongTerm]
	if !ok {
		t.Fatal("expected PAT_DELAY_LONGTERM to have recorded severity")
	}
	if got := longTerm[recvCP.ID]; got <= 0 {
		t.Errorf("long-term delay severity at recv callpath = %v, want > 0", got)
	}
}

// TestDelayOMPForkScenario forks a team of three (the master plus two
// workers) where the slowest worker starts 0.3s after the master, the same
// trace TestOMPForkImbalanceScenario uses for OMP_FORK itself. With delay
// analysis enabled, every one of the other (team_size - 1) = 2 workers pays
// for that 0.3s, so the master's call path should be charged 0.6s under
// PAT_DELAY_OMPIDLE, and that same 0.6s should also land in the long-term
// total.
func TestDelayOMPForkScenario(t *testing.T) {
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

	eng := NewEngine(Options{EnableDelayAnalysis: true}, nil)
	result, err := eng.Run(context.Background(), b.Trace())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer result.Telemetry.Shutdown(context.Background())

	cube := CubeFromPatterns(result.Dispatcher.Patterns())

	idleSeverity, ok := cube[PatDelayOMPIdle]
	if !ok {
		t.Fatal("expected PAT_DELAY_OMPIDLE to have recorded severity")
	}
	const want = 0.6 // 0.3s fork delay * (team_size=3 - 1) workers paying for it
	if got := idleSeverity[cp.ID]; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("omp fork idleness delay severity = %v, want %v", got, want)
	}

	longTerm, ok := cube[PatDelayLongTerm]
	if !ok {
		t.Fatal("expected PAT_DELAY_LONGTERM to have recorded severity")
	}
	if got := longTerm[cp.ID]; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("long-term delay severity at fork callpath = %v, want %v", got, want)
	}
}
