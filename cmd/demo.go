package cmd

import (
	"fmt"
	"sort"

	"github.com/ftahirops/waitscope/model"
)

// tracePayload bundles the assembled trace with the definitions it was
// built against, so the driver can resolve call-path names for the report
// without threading a second value through every call site.
type tracePayload struct {
	Trace *model.Trace
}

// demoBuilders maps a scenario name to the function that assembles it.
// Names are sorted for -list-demos; add new scenarios here.
var demoBuilders = map[string]func() *tracePayload{
	"late-sender":        buildLateSenderDemo,
	"wrong-order-sender":  buildWrongOrderSenderDemo,
	"barrier-wait":        buildBarrierWaitDemo,
	"critical-path":       buildCriticalPathDemo,
	"omp-fork-imbalance":  buildOMPForkImbalanceDemo,
	"collective-delay":    buildCollectiveDelayDemo,
}

// DemoNames returns every registered scenario name, sorted.
func DemoNames() []string {
	names := make([]string, 0, len(demoBuilders))
	for name := range demoBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildDemo assembles the named synthetic trace scenario.
func BuildDemo(name string) (*tracePayload, error) {
	build, ok := demoBuilders[name]
	if !ok {
		return nil, fmt.Errorf("unknown demo %q (see -list-demos)", name)
	}
	return build(), nil
}

func loc(rank int) model.LocationID { return model.LocationID{Rank: rank} }

// buildLateSenderDemo is the two-process late-sender scenario: rank 1 posts
// its receive well before rank 0 starts the matching send, so rank 1's
// receive completion accumulates idle time waiting for a send that started
// late.
func buildLateSenderDemo() *tracePayload {
	defs := model.NewDefinitions()
	sendRegion := &model.Region{Name: "MPI_Send", Paradigm: model.ParadigmMPI}
	recvRegion := &model.Region{Name: "MPI_Recv", Paradigm: model.ParadigmMPI}
	sendCP := defs.Callpaths.Add(1, nil, sendRegion)
	recvCP := defs.Callpaths.Add(2, nil, recvRegion)

	b := model.NewBuilder(defs)
	comm := model.CommID(0)
	defs.Comms.Add(comm, []int{0, 1})

	sender := b.Location(loc(0))
	sender.Enter(0.0, sendCP)
	sender.SendStart(5.0, sendCP, 1, comm, 64, 1, 100)
	sender.SendComplete(5.1, sendCP, 1)
	sender.Leave(5.1)

	receiver := b.Location(loc(1))
	receiver.Enter(0.0, recvCP)
	receiver.RecvStart(0.1, recvCP, 0, comm, 1, 100)
	receiver.RecvComplete(5.2, recvCP, 1)
	receiver.Leave(5.2)

	return &tracePayload{Trace: b.Trace()}
}

// buildWrongOrderSenderDemo sends two messages to the same receiver out of
// timestamp order (the second send starts before the first, but the
// receiver posts its receives in program order), exercising the Late
// Sender Wrong-Order FIFO.
func buildWrongOrderSenderDemo() *tracePayload {
	defs := model.NewDefinitions()
	sendRegion := &model.Region{Name: "MPI_Send", Paradigm: model.ParadigmMPI}
	recvRegion := &model.Region{Name: "MPI_Recv", Paradigm: model.ParadigmMPI}
	sendCP := defs.Callpaths.Add(1, nil, sendRegion)
	recvCP := defs.Callpaths.Add(2, nil, recvRegion)

	b := model.NewBuilder(defs)
	comm := model.CommID(0)
	defs.Comms.Add(comm, []int{0, 1})

	sender := b.Location(loc(0))
	sender.SendStart(3.0, sendCP, 1, comm, 64, 1, 201) // second send, starts earlier
	sender.SendComplete(3.1, sendCP, 1)
	sender.SendStart(4.0, sendCP, 1, comm, 64, 2, 200) // first send, starts later
	sender.SendComplete(4.1, sendCP, 2)

	receiver := b.Location(loc(1))
	receiver.RecvStart(0.0, recvCP, 0, comm, 1, 200)
	receiver.RecvComplete(4.2, recvCP, 1)
	receiver.RecvStart(4.3, recvCP, 0, comm, 2, 201)
	receiver.RecvComplete(4.4, recvCP, 2)

	return &tracePayload{Trace: b.Trace()}
}

// buildBarrierWaitDemo is a four-process MPI_Barrier with staggered
// arrivals, exercising the barrier wait-state and completion patterns.
func buildBarrierWaitDemo() *tracePayload {
	defs := model.NewDefinitions()
	barrierRegion := &model.Region{Name: "MPI_Barrier", Paradigm: model.ParadigmMPI}
	cp := defs.Callpaths.Add(1, nil, barrierRegion)

	b := model.NewBuilder(defs)
	comm := model.CommID(0)
	defs.Comms.Add(comm, []int{0, 1, 2, 3})

	arrivals := []float64{1.0, 1.5, 3.0, 1.2}
	var ends []*model.Event
	for rank, arrival := range arrivals {
		bl := b.Location(loc(rank))
		begin := bl.CollectiveBegin(arrival, cp, comm, -1, rank, 900)
		ends = append(ends, begin)
	}
	for i, begin := range ends {
		bl := b.Location(loc(i))
		bl.CollectiveEnd(3.2, begin)
	}

	return &tracePayload{Trace: b.Trace()}
}

// buildCriticalPathDemo chains three ranks through a send/recv relay so the
// backward critical-path walk has to cross locations: rank 2's completion
// depends on rank 1's, which depends on rank 0's.
func buildCriticalPathDemo() *tracePayload {
	defs := model.NewDefinitions()
	workRegion := &model.Region{Name: "compute", Paradigm: model.ParadigmNone}
	sendRegion := &model.Region{Name: "MPI_Send", Paradigm: model.ParadigmMPI}
	recvRegion := &model.Region{Name: "MPI_Recv", Paradigm: model.ParadigmMPI}
	workCP := defs.Callpaths.Add(1, nil, workRegion)
	sendCP := defs.Callpaths.Add(2, nil, sendRegion)
	recvCP := defs.Callpaths.Add(3, nil, recvRegion)

	b := model.NewBuilder(defs)
	comm := model.CommID(0)
	defs.Comms.Add(comm, []int{0, 1, 2})

	r0 := b.Location(loc(0))
	r0.Enter(0.0, workCP)
	r0.Leave(2.0)
	r0.SendStart(2.0, sendCP, 1, comm, 8, 1, 1)
	r0.SendComplete(2.1, sendCP, 1)

	r1 := b.Location(loc(1))
	r1.RecvStart(0.0, recvCP, 0, comm, 1, 1)
	r1.RecvComplete(2.2, recvCP, 1)
	r1.Enter(2.2, workCP)
	r1.Leave(3.0)
	r1.SendStart(3.0, sendCP, 2, comm, 8, 2, 2)
	r1.SendComplete(3.1, sendCP, 2)

	r2 := b.Location(loc(2))
	r2.RecvStart(0.0, recvCP, 1, comm, 2, 2)
	r2.RecvComplete(3.2, recvCP, 2)
	r2.Enter(3.2, workCP)
	r2.Leave(3.5)

	return &tracePayload{Trace: b.Trace()}
}

// buildOMPForkImbalanceDemo forks two worker threads from a master that
// joins well after both workers finish, exercising the OpenMP fork pattern.
func buildOMPForkImbalanceDemo() *tracePayload {
	defs := model.NewDefinitions()
	parallelRegion := &model.Region{Name: "omp_parallel", Paradigm: model.ParadigmOMP}
	cp := defs.Callpaths.Add(1, nil, parallelRegion)

	b := model.NewBuilder(defs)
	const teamID = int64(42)

	master := b.Location(loc(0))
	master.GroupEnter(0.0, cp, teamID)

	worker1 := b.Location(model.LocationID{Rank: 0, Thread: 1})
	worker1.GroupEnter(0.1, cp, teamID)
	worker1.GroupLeave(0.5, teamID)

	worker2 := b.Location(model.LocationID{Rank: 0, Thread: 2})
	worker2.GroupEnter(0.1, cp, teamID)
	worker2.GroupLeave(2.0, teamID)

	master.GroupLeave(2.1, teamID)

	return &tracePayload{Trace: b.Trace()}
}

// buildCollectiveDelayDemo is a three-process MPI_Reduce where rank 0 is
// held up by upstream compute before joining, giving the reduce pattern and
// the delay-cost pipeline something to propagate backward.
func buildCollectiveDelayDemo() *tracePayload {
	defs := model.NewDefinitions()
	workRegion := &model.Region{Name: "compute", Paradigm: model.ParadigmNone}
	reduceRegion := &model.Region{Name: "MPI_Reduce", Paradigm: model.ParadigmMPI}
	workCP := defs.Callpaths.Add(1, nil, workRegion)
	reduceCP := defs.Callpaths.Add(2, nil, reduceRegion)

	b := model.NewBuilder(defs)
	comm := model.CommID(0)
	defs.Comms.Add(comm, []int{0, 1, 2})

	late := b.Location(loc(0))
	late.Enter(0.0, workCP)
	late.Leave(4.0)
	lateBegin := late.CollectiveBegin(4.0, reduceCP, comm, 0, 0, 700)

	r1 := b.Location(loc(1))
	r1Begin := r1.CollectiveBegin(0.5, reduceCP, comm, 0, 1, 700)

	r2 := b.Location(loc(2))
	r2Begin := r2.CollectiveBegin(0.6, reduceCP, comm, 0, 2, 700)

	late.CollectiveEnd(4.2, lateBegin)
	r1.CollectiveEnd(4.2, r1Begin)
	r2.CollectiveEnd(4.2, r2Begin)

	return &tracePayload{Trace: b.Trace()}
}
