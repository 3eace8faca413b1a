package model

// Definitions is the global-definitions handle shared across locations:
// the call-path table, region classifiers (implicit via Region values),
// and the communicator/group table. Construction of this container from a
// trace file is out of scope (§1); this is the interface the engine reads.
type Definitions struct {
	Callpaths *CallpathTable
	Comms     *CommTable
}

// NewDefinitions creates an empty definitions container.
func NewDefinitions() *Definitions {
	return &Definitions{Callpaths: NewCallpathTable(), Comms: NewCommTable()}
}

// locationStream is the per-location ordered event sequence, with the
// cross-links (prev/next) events need for navigation.
type locationStream struct {
	location LocationID
	events   []*Event
}

// LocalTrace is the inbound interface from the trace layer (§6): an
// iterable event sequence for one location plus a handle to the shared
// global definitions. Parsing a trace file into this shape is out of
// scope; the engine only ever consumes it through this interface.
type LocalTrace interface {
	Location() LocationID
	Events() []*Event
	Definitions() *Definitions
}

// Trace is the default in-memory implementation of a bounded, complete set
// of per-location event streams, assembled by a Builder. It satisfies
// LocalTrace once narrowed to a single location via ForLocation.
type Trace struct {
	Defs        *Definitions
	streams     map[LocationID]*locationStream
	order       []LocationID
	Collectives map[int64]*CollectiveGroup
}

// CollectiveGroup collects every participant's BEGIN/END event for one
// collective operation, the cross-location data CollectiveInfo is computed
// from (§2 "Control flow between locations").
type CollectiveGroup struct {
	Begins []*Event
	Ends   []*Event
}

// NewTrace creates an empty trace sharing the given definitions.
func NewTrace(defs *Definitions) *Trace {
	if defs == nil {
		defs = NewDefinitions()
	}
	return &Trace{Defs: defs, streams: make(map[LocationID]*locationStream), Collectives: make(map[int64]*CollectiveGroup)}
}

// CollectiveGroup returns the group for collID, or nil if no participant has
// registered an event under that key yet.
func (t *Trace) CollectiveGroup(collID int64) *CollectiveGroup { return t.Collectives[collID] }

// Locations returns every location present in the trace, in the order
// first seen.
func (t *Trace) Locations() []LocationID { return t.order }

// ForLocation narrows the trace to a single-location LocalTrace view.
func (t *Trace) ForLocation(loc LocationID) LocalTrace {
	s := t.streams[loc]
	if s == nil {
		s = &locationStream{location: loc}
	}
	return &localTraceView{trace: t, stream: s}
}

// Makespan returns the latest event timestamp across every location, the
// program's wall-clock end time used by invariant 5 in §3.
func (t *Trace) Makespan() float64 {
	var end float64
	for _, s := range t.streams {
		if n := len(s.events); n > 0 {
			if ts := s.events[n-1].Timestamp; ts > end {
				end = ts
			}
		}
	}
	return end
}

type localTraceView struct {
	trace  *Trace
	stream *locationStream
}

func (v *localTraceView) Location() LocationID   { return v.stream.location }
func (v *localTraceView) Events() []*Event       { return v.stream.events }
func (v *localTraceView) Definitions() *Definitions { return v.trace.Defs }
