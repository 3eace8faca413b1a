package cache

import (
	"testing"

	"github.com/ftahirops/waitscope/model"
)

func TestMemoryTimeMapCacheBetween(t *testing.T) {
	defs := model.NewDefinitions()
	region := &model.Region{Name: "work", Paradigm: model.ParadigmNone}
	cp := defs.Callpaths.Add(1, nil, region)

	b := model.NewBuilder(defs)
	loc := b.Location(model.LocationID{Rank: 0})
	enter := loc.Enter(1.0, cp)
	leave := loc.Leave(3.0)

	c := NewMemoryTimeMapCache()
	c.Build(b.Trace().ForLocation(model.LocationID{Rank: 0}))

	tm := c.Between(enter, leave)
	if got := tm[cp.ID]; got != 2.0 {
		t.Errorf("Between() dwell = %v, want 2.0", got)
	}
}

func TestMemoryTimeMapCacheBetweenClampsToInterval(t *testing.T) {
	defs := model.NewDefinitions()
	region := &model.Region{Name: "work", Paradigm: model.ParadigmNone}
	cp := defs.Callpaths.Add(1, nil, region)
	inner := defs.Callpaths.Add(2, cp, &model.Region{Name: "inner", Paradigm: model.ParadigmNone})

	b := model.NewBuilder(defs)
	loc := b.Location(model.LocationID{Rank: 0})
	loc.Enter(0.0, cp)
	mid1 := loc.Enter(2.0, inner)
	mid2 := loc.Leave(4.0)
	loc.Leave(10.0)

	c := NewMemoryTimeMapCache()
	c.Build(b.Trace().ForLocation(model.LocationID{Rank: 0}))

	tm := c.Between(mid1, mid2)
	if got := tm[cp.ID]; got != 2.0 {
		t.Errorf("Between() dwell = %v, want 2.0 (clamped to the narrower interval)", got)
	}
}

func TestMemorySynchpointHandlerClassification(t *testing.T) {
	defs := model.NewDefinitions()
	sendRegion := &model.Region{Name: "MPI_Send", Paradigm: model.ParadigmMPI}
	recvRegion := &model.Region{Name: "MPI_Recv", Paradigm: model.ParadigmMPI}
	sendCP := defs.Callpaths.Add(1, nil, sendRegion)
	recvCP := defs.Callpaths.Add(2, nil, recvRegion)

	b := model.NewBuilder(defs)
	comm := defs.Comms.Add(0, []int{0, 1})

	sender := b.Location(model.LocationID{Rank: 0})
	sender.SendStart(1.0, sendCP, 1, comm.ID, 8, 1, 50)
	sendComplete := sender.SendComplete(1.1, sendCP, 1)

	receiver := b.Location(model.LocationID{Rank: 1})
	receiver.RecvStart(0.5, recvCP, 0, comm.ID, 2, 50)
	recvComplete := receiver.RecvComplete(1.2, recvCP, 2)

	h := NewMemorySynchpointHandler()
	if !h.IsSynchpoint(sendComplete) {
		t.Error("SendComplete should classify as a synchpoint")
	}
	if !h.IsSynchpoint(recvComplete) {
		t.Error("RecvComplete should classify as a synchpoint")
	}

	h.MarkWaitTime(recvComplete, 0.7)
	if got := h.WaitTime(recvComplete); got != 0.7 {
		t.Errorf("WaitTime() = %v, want 0.7", got)
	}
}

func TestMemoryLockCacheOverlapAndLastRelease(t *testing.T) {
	c := NewMemoryLockCache()
	locA := model.LocationID{Rank: 0}
	locB := model.LocationID{Rank: 1}

	c.Acquire(42, locA, 1.0, true)
	c.Release(42, locA, 2.0)
	c.Acquire(42, locB, 1.5, true)
	c.Release(42, locB, 3.0)

	overlap := c.OverlappingEpochs(42, locA, 1.0, 2.0)
	if len(overlap) != 1 {
		t.Fatalf("OverlappingEpochs() = %d entries, want 1", len(overlap))
	}
	if overlap[0].Loc != locB {
		t.Errorf("OverlappingEpochs()[0].Loc = %v, want %v", overlap[0].Loc, locB)
	}

	last, ok := c.LastRelease(42, 2.5)
	if !ok || last != 2.0 {
		t.Errorf("LastRelease(before 2.5) = (%v, %v), want (2.0, true)", last, ok)
	}
}
