package model

// Callpath is a node in the calling-context tree rooted at a synthetic
// program root. It is identified by a stable integer id and owned by the
// definitions container for the lifetime of the analysis.
type Callpath struct {
	ID       int
	Region   *Region
	Parent   *Callpath
	Children []*Callpath
}

// CallpathTable addresses call paths by integer id, per §6 "inbound from
// the definitions layer".
type CallpathTable struct {
	Root *Callpath
	byID map[int]*Callpath
}

// NewCallpathTable creates an empty table with a synthetic root node.
func NewCallpathTable() *CallpathTable {
	root := &Callpath{ID: 0, Region: &Region{Name: "", Paradigm: ParadigmNone}}
	return &CallpathTable{
		Root: root,
		byID: map[int]*Callpath{0: root},
	}
}

// Get resolves a call path by its stable id.
func (t *CallpathTable) Get(id int) *Callpath { return t.byID[id] }

// Add creates a new child call path under parent, classified by region, and
// registers it in the table under id.
func (t *CallpathTable) Add(id int, parent *Callpath, region *Region) *Callpath {
	if parent == nil {
		parent = t.Root
	}
	cp := &Callpath{ID: id, Region: region, Parent: parent}
	parent.Children = append(parent.Children, cp)
	t.byID[id] = cp
	return cp
}

// Len returns the number of call paths registered, including the root.
func (t *CallpathTable) Len() int { return len(t.byID) }

// All returns every call path id known to the table, in insertion order is
// not guaranteed; callers that need a stable iteration order should sort.
func (t *CallpathTable) All() []*Callpath {
	out := make([]*Callpath, 0, len(t.byID))
	for _, cp := range t.byID {
		out = append(out, cp)
	}
	return out
}

// SeverityMap is the per-pattern accumulative mapping from call path to a
// non-negative metric value. Keys are created lazily on first write.
type SeverityMap struct {
	values map[int]float64
}

// NewSeverityMap creates an empty severity map.
func NewSeverityMap() *SeverityMap {
	return &SeverityMap{values: make(map[int]float64)}
}

// Add accumulates delta onto cp's severity. Per invariant 3 in §3, only
// positive deltas are recorded; non-positive deltas are dropped silently.
func (s *SeverityMap) Add(cp *Callpath, delta float64) {
	if cp == nil || delta <= 0 {
		return
	}
	s.values[cp.ID] += delta
}

// AddByID accumulates delta onto id's severity directly, for callers that
// only have a call-path id (e.g. the critical-path derived metrics, which
// work over id-keyed maps rather than *Callpath pointers).
func (s *SeverityMap) AddByID(id int, delta float64) {
	if delta <= 0 {
		return
	}
	s.values[id] += delta
}

// Get returns the accumulated severity for a call path (0 if never written).
func (s *SeverityMap) Get(cp *Callpath) float64 {
	if cp == nil {
		return 0
	}
	return s.values[cp.ID]
}

// GetByID returns the accumulated severity for a call path id.
func (s *SeverityMap) GetByID(id int) float64 { return s.values[id] }

// Entries returns the full (callpath-id -> severity) mapping.
func (s *SeverityMap) Entries() map[int]float64 { return s.values }

// Sum returns the total severity across all call paths.
func (s *SeverityMap) Sum() float64 {
	var total float64
	for _, v := range s.values {
		total += v
	}
	return total
}
