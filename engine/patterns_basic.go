package engine

import "github.com/ftahirops/waitscope/model"

// VisitsPattern is the base unit-count metric: one per ENTER (§4.2 table,
// "Visits / Time").
type VisitsPattern struct {
	basePattern
}

// NewVisitsPattern creates the Visits pattern.
func NewVisitsPattern() *VisitsPattern {
	return &VisitsPattern{basePattern: newBasePattern(Identity{
		ID: PatVisits, Name: "Visits", UniqueName: "visits",
		Description: "Number of visits to a call path", Unit: "occurrences",
		Mode: Inclusive,
	})}
}

func (p *VisitsPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagEnter, func(ev *model.Event, cb *CbData) {
		p.severity.Add(ev.Callpath, 1)
	})
}

// TimePattern is the base elapsed-call-time metric, accumulated at LEAVE
// (§4.2 table, "Visits / Time").
type TimePattern struct {
	basePattern
}

// NewTimePattern creates the Time pattern.
func NewTimePattern() *TimePattern {
	return &TimePattern{basePattern: newBasePattern(Identity{
		ID: PatTime, Name: "Time", UniqueName: "time",
		Description: "Elapsed time spent in a call path", Unit: "seconds",
		Mode: Inclusive,
	})}
}

func (p *TimePattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagLeave, func(ev *model.Event, cb *CbData) {
		enter := ev.EnterPtr()
		if enter == nil {
			return
		}
		p.severity.Add(ev.Callpath, ev.Timestamp-enter.Timestamp)
	})
}
