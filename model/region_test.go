package model

import "testing"

func TestRegionClassifiersAreParadigmScoped(t *testing.T) {
	mpiBarrier := &Region{Name: "MPI_Barrier", Paradigm: ParadigmMPI}
	if !mpiBarrier.IsMPIBarrier() {
		t.Error("MPI_Barrier region should classify as IsMPIBarrier")
	}

	ompBarrier := &Region{Name: "MPI_Barrier", Paradigm: ParadigmOMP}
	if ompBarrier.IsMPIBarrier() {
		t.Error("a region named MPI_Barrier under OMP paradigm must not classify as MPI barrier")
	}
}

func TestRegionClassifiersByPrefix(t *testing.T) {
	tests := []struct {
		name   string
		region *Region
		check  func(*Region) bool
	}{
		{"bcast", &Region{Name: "MPI_Bcast", Paradigm: ParadigmMPI}, (*Region).IsMPI12N},
		{"scatter", &Region{Name: "MPI_Scatter", Paradigm: ParadigmMPI}, (*Region).IsMPI12N},
		{"reduce", &Region{Name: "MPI_Reduce", Paradigm: ParadigmMPI}, (*Region).IsMPIN21},
		{"gather", &Region{Name: "MPI_Gather", Paradigm: ParadigmMPI}, (*Region).IsMPIN21},
		{"allreduce", &Region{Name: "MPI_Allreduce", Paradigm: ParadigmMPI}, (*Region).IsMPIN2N},
		{"alltoall", &Region{Name: "MPI_Alltoall", Paradigm: ParadigmMPI}, (*Region).IsMPIN2N},
		{"scan", &Region{Name: "MPI_Scan", Paradigm: ParadigmMPI}, (*Region).IsMPIScan},
		{"exscan", &Region{Name: "MPI_Exscan", Paradigm: ParadigmMPI}, (*Region).IsMPIScan},
		{"send", &Region{Name: "MPI_Send", Paradigm: ParadigmMPI}, (*Region).IsMPIBlockSend},
		{"ssend", &Region{Name: "MPI_Ssend", Paradigm: ParadigmMPI}, (*Region).IsMPIBlockSend},
	}
	for _, tt := range tests {
		if !tt.check(tt.region) {
			t.Errorf("%s: region %q under paradigm %v did not classify as expected", tt.name, tt.region.Name, tt.region.Paradigm)
		}
	}
}

func TestRegionWaitSingleExcludesWaitAll(t *testing.T) {
	single := &Region{Name: "MPI_Wait", Paradigm: ParadigmMPI}
	if !single.IsMPIWaitSingle() {
		t.Error("MPI_Wait should classify as IsMPIWaitSingle")
	}
	all := &Region{Name: "MPI_Waitall", Paradigm: ParadigmMPI}
	if all.IsMPIWaitSingle() {
		t.Error("MPI_Waitall must not classify as IsMPIWaitSingle")
	}
}

func TestNilRegionClassifiesAsNothing(t *testing.T) {
	var r *Region
	if r.IsMPIBarrier() {
		t.Error("nil region must not classify as any MPI operation")
	}
}
