package engine

import (
	"context"
	"testing"

	"github.com/ftahirops/waitscope/cache"
	"github.com/ftahirops/waitscope/model"
)

// TestNewEngineArchiveDirectoryUsesPersistentCache checks that setting
// Options.ArchiveDirectory without an explicit *Caches makes NewEngine
// open a Badger-backed time-map cache under that directory instead of the
// default in-memory one, and that a run through it still produces the
// same severities a purely in-memory run would.
func TestNewEngineArchiveDirectoryUsesPersistentCache(t *testing.T) {
	dir := t.TempDir()

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

	eng := NewEngine(Options{ArchiveDirectory: dir}, nil)
	defer func() {
		if err := eng.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}()

	if _, ok := eng.caches.TimeMap.(*cache.BadgerTimeMapCache); !ok {
		t.Fatalf("engine caches.TimeMap = %T, want *cache.BadgerTimeMapCache", eng.caches.TimeMap)
	}

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
	if got := severity[recvCP.ID]; got != 5.0 {
		t.Errorf("late sender severity via persistent cache = %v, want 5.0", got)
	}
}

// TestNewEngineExplicitCachesOverridesArchiveDirectory checks that an
// explicitly supplied *Caches is never second-guessed by
// Options.ArchiveDirectory.
func TestNewEngineExplicitCachesOverridesArchiveDirectory(t *testing.T) {
	caches := NewMemoryCaches()
	eng := NewEngine(Options{ArchiveDirectory: t.TempDir()}, caches)
	defer func() {
		if err := eng.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}()
	if eng.caches != caches {
		t.Fatalf("NewEngine replaced the caller-supplied *Caches")
	}
}
