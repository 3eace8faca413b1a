package model

import "testing"

func TestBuilderEnterLeaveLinksPointers(t *testing.T) {
	defs := NewDefinitions()
	region := &Region{Name: "work", Paradigm: ParadigmNone}
	cp := defs.Callpaths.Add(1, nil, region)

	b := NewBuilder(defs)
	loc := b.Location(LocationID{Rank: 0})
	enter := loc.Enter(1.0, cp)
	leave := loc.Leave(2.0)

	if enter.LeavePtr() != leave {
		t.Fatalf("enter.LeavePtr() = %v, want leave", enter.LeavePtr())
	}
	if leave.EnterPtr() != enter {
		t.Fatalf("leave.EnterPtr() = %v, want enter", leave.EnterPtr())
	}
}

func TestBuilderSendRecvPeerEvent(t *testing.T) {
	defs := NewDefinitions()
	sendRegion := &Region{Name: "MPI_Send", Paradigm: ParadigmMPI}
	recvRegion := &Region{Name: "MPI_Recv", Paradigm: ParadigmMPI}
	sendCP := defs.Callpaths.Add(1, nil, sendRegion)
	recvCP := defs.Callpaths.Add(2, nil, recvRegion)

	b := NewBuilder(defs)
	comm := defs.Comms.Add(0, []int{0, 1})

	sender := b.Location(LocationID{Rank: 0})
	sendStart := sender.SendStart(1.0, sendCP, 1, comm.ID, 8, 10, 500)
	sendComplete := sender.SendComplete(1.1, sendCP, 10)

	receiver := b.Location(LocationID{Rank: 1})
	recvStart := receiver.RecvStart(0.5, recvCP, 0, comm.ID, 20, 500)
	recvComplete := receiver.RecvComplete(1.2, recvCP, 20)

	if sendStart.PeerEvent() != recvStart {
		t.Fatalf("sendStart.PeerEvent() = %v, want recvStart", sendStart.PeerEvent())
	}
	if recvStart.PeerEvent() != sendStart {
		t.Fatalf("recvStart.PeerEvent() = %v, want sendStart", recvStart.PeerEvent())
	}
	if sendComplete.Request() != sendStart {
		t.Fatalf("sendComplete.Request() = %v, want sendStart", sendComplete.Request())
	}
	if sendStart.Completion() != sendComplete {
		t.Fatalf("sendStart.Completion() = %v, want sendComplete", sendStart.Completion())
	}
	if recvComplete.Request() != recvStart {
		t.Fatalf("recvComplete.Request() = %v, want recvStart", recvComplete.Request())
	}
}

func TestBuilderCollectiveGroupsByCollID(t *testing.T) {
	defs := NewDefinitions()
	region := &Region{Name: "MPI_Barrier", Paradigm: ParadigmMPI}
	cp := defs.Callpaths.Add(1, nil, region)

	b := NewBuilder(defs)
	comm := defs.Comms.Add(0, []int{0, 1})

	r0 := b.Location(LocationID{Rank: 0})
	r1 := b.Location(LocationID{Rank: 1})
	begin0 := r0.CollectiveBegin(1.0, cp, comm.ID, -1, 0, 900)
	begin1 := r1.CollectiveBegin(1.5, cp, comm.ID, -1, 1, 900)
	r0.CollectiveEnd(2.0, begin0)
	r1.CollectiveEnd(2.0, begin1)

	trace := b.Trace()
	group := trace.CollectiveGroup(900)
	if group == nil {
		t.Fatal("CollectiveGroup(900) = nil")
	}
	if len(group.Begins) != 2 || len(group.Ends) != 2 {
		t.Fatalf("group has %d begins, %d ends; want 2, 2", len(group.Begins), len(group.Ends))
	}
}

func TestBuilderGroupEnterLeaveSharesTeamAcrossThreads(t *testing.T) {
	defs := NewDefinitions()
	region := &Region{Name: "omp_parallel", Paradigm: ParadigmOMP}
	cp := defs.Callpaths.Add(1, nil, region)

	b := NewBuilder(defs)
	const teamID = int64(7)
	master := b.Location(LocationID{Rank: 0})
	worker := b.Location(LocationID{Rank: 0, Thread: 1})

	master.GroupEnter(0.0, cp, teamID)
	worker.GroupEnter(0.1, cp, teamID)
	worker.GroupLeave(0.5, teamID)
	master.GroupLeave(0.6, teamID)

	trace := b.Trace()
	group := trace.CollectiveGroup(teamID)
	if len(group.Begins) != 2 || len(group.Ends) != 2 {
		t.Fatalf("team group has %d begins, %d ends; want 2, 2", len(group.Begins), len(group.Ends))
	}
}

func TestTraceMakespanIsLatestEventAcrossLocations(t *testing.T) {
	defs := NewDefinitions()
	region := &Region{Name: "work", Paradigm: ParadigmNone}
	cp := defs.Callpaths.Add(1, nil, region)

	b := NewBuilder(defs)
	r0 := b.Location(LocationID{Rank: 0})
	r1 := b.Location(LocationID{Rank: 1})
	r0.Enter(0.0, cp)
	r0.Leave(3.0)
	r1.Enter(0.0, cp)
	r1.Leave(7.5)

	if got := b.Trace().Makespan(); got != 7.5 {
		t.Errorf("Makespan() = %v, want 7.5", got)
	}
}
