package engine

import "github.com/ftahirops/waitscope/model"

// Mode distinguishes whether a pattern's severity is inclusive (counts
// time spent in descendants) or exclusive (only the call path itself).
type Mode int

const (
	Exclusive Mode = iota
	Inclusive
)

// Identity is the static metadata every pattern advertises (§4.2, §6
// "Outbound to the report writer").
type Identity struct {
	ID          string
	ParentID    string
	Name        string
	UniqueName  string
	Description string
	Unit        string
	Mode        Mode
	Hidden      bool
}

// Pattern is the capability set every wait-state detector implements
// (§4.2, §9 "express as a trait/interface; pattern instances hold private
// state via composition, not inheritance"):
//   - Identity for the output taxonomy
//   - RegisterCallbacks to subscribe to the sweeps/tags it needs
//   - Severity to expose its accumulated Callpath -> f64 map
//   - Finalize to run any end-of-sweep reduction (statistics, critical
//     path) before the result is read
type Pattern interface {
	Identity() Identity
	RegisterCallbacks(d *Dispatcher)
	Severity() *model.SeverityMap
	Finalize()
}

// Merger is implemented by patterns whose per-location state is richer than
// a plain severity sum and needs its own reduction step when combining
// instances from different locations (§5: "cross-thread aggregation
// happens only ... through critical sections followed by a reduction").
// StatisticsPattern implements it to fold its sketches/top-K lists, and
// delayLateSenderPattern, delayBarrierPattern and delayOMPForkPattern
// implement it to fold their DelayCostMaps. Every pattern's severity map,
// whether or not it implements Merger, is merged via AddByID.
type Merger interface {
	MergeFrom(other Pattern)
}

// basePattern is embedded by every concrete detector to provide Identity()
// and a private SeverityMap without runtime inheritance.
type basePattern struct {
	identity Identity
	severity *model.SeverityMap
}

func newBasePattern(id Identity) basePattern {
	return basePattern{identity: id, severity: model.NewSeverityMap()}
}

func (b *basePattern) Identity() Identity          { return b.identity }
func (b *basePattern) Severity() *model.SeverityMap { return b.severity }
func (b *basePattern) Finalize()                    {}
