// Package engine implements the replay-driven pattern-detection core:
// the dispatcher that walks a location's event stream over several named
// sweeps, the shared CbData scratchpad, and the wait-state pattern family
// that accumulates severities on it.
package engine

import (
	"context"
	"fmt"

	"github.com/ftahirops/waitscope/model"
	"github.com/ftahirops/waitscope/telemetry"
)

// Sweep names the four replay passes the dispatcher can run (§4.1).
type Sweep string

const (
	// SweepMain is the forward main-analysis sweep ("").
	SweepMain Sweep = ""
	// SweepForwardCount is the forward counting sweep ("fwc").
	SweepForwardCount Sweep = "fwc"
	// SweepBackwardWaitState is the backward critical-path sweep ("bws").
	SweepBackwardWaitState Sweep = "bws"
	// SweepBackwardCost is the backward delay-cost sweep ("bwc").
	SweepBackwardCost Sweep = "bwc"
)

// Direction is the order in which a sweep visits a location's events.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (s Sweep) direction() Direction {
	if s == SweepBackwardWaitState || s == SweepBackwardCost {
		return Backward
	}
	return Forward
}

// Callback is invoked for every event matching the (sweep, tag) it was
// registered under. It receives the event and the shared scratchpad.
type Callback func(ev *model.Event, cb *CbData)

type registeredCallback struct {
	pattern  string
	callback Callback
}

// Dispatcher orchestrates multiple replay sweeps over one location's event
// stream, invoking every subscriber of the current event's tag in
// registration order (§4.1).
type Dispatcher struct {
	table      map[Sweep]map[Tag][]registeredCallback
	subscribed map[string]map[Sweep]map[Tag]bool // for the acyclicity assertion
	patterns   []Pattern

	// Telemetry, if set, receives sweep/event/notify-depth/clock-violation
	// measurements as the dispatcher runs (SPEC_FULL.md Part C: ambient
	// observability carried even though §1 scopes visualization out).
	Telemetry *telemetry.Provider
}

// WithTelemetry attaches a telemetry provider the dispatcher reports every
// sweep/event/clock-violation into. Returns d for chaining.
func (d *Dispatcher) WithTelemetry(p *telemetry.Provider) *Dispatcher {
	d.Telemetry = p
	return d
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		table:      make(map[Sweep]map[Tag][]registeredCallback),
		subscribed: make(map[string]map[Sweep]map[Tag]bool),
	}
}

// Register attaches a pattern to the dispatcher: it calls the pattern's
// RegisterCallbacks so it can subscribe to whichever (sweep, tag) pairs it
// needs, then appends it to the pattern list for final severity collection.
func (d *Dispatcher) Register(p Pattern) {
	d.patterns = append(d.patterns, p)
	p.RegisterCallbacks(d)
}

// Patterns returns every pattern registered on the dispatcher, in
// registration order.
func (d *Dispatcher) Patterns() []Pattern { return d.patterns }

// Subscribe appends cb to the callback list for (sweep, tag), preserving
// registration order, as required by pattern's RegisterCallbacks.
func (d *Dispatcher) Subscribe(patternName string, sweep Sweep, tag Tag, cb Callback) {
	if d.table[sweep] == nil {
		d.table[sweep] = make(map[Tag][]registeredCallback)
	}
	d.table[sweep][tag] = append(d.table[sweep][tag], registeredCallback{pattern: patternName, callback: cb})

	if d.subscribed[patternName] == nil {
		d.subscribed[patternName] = make(map[Sweep]map[Tag]bool)
	}
	if d.subscribed[patternName][sweep] == nil {
		d.subscribed[patternName][sweep] = make(map[Tag]bool)
	}
	d.subscribed[patternName][sweep][tag] = true
}

// checkAcyclic enforces the registration-time rule from the design notes:
// "no pattern may notify an event it itself subscribes to on the same
// sweep" — violating it would let a pattern's own notify recurse into
// itself forever.
func (d *Dispatcher) checkAcyclic(patternName string, sweep Sweep, notifyTag Tag) error {
	if d.subscribed[patternName][sweep][notifyTag] {
		return fmt.Errorf("engine: pattern %q notifies %s on sweep %q, which it also subscribes to", patternName, notifyTag, sweep)
	}
	return nil
}

// Sweep walks trace's events in the direction implied by name, computing
// each event's built-in tag and firing every matching callback in
// registration order. Two sweeps over the same stream are strictly
// sequential: this call blocks until the whole pass completes.
func (d *Dispatcher) Sweep(name Sweep, trace model.LocalTrace, cb *CbData) {
	cb.dispatcher = d
	cb.sweep = name

	events := trace.Events()
	if name.direction() == Forward {
		for _, ev := range events {
			d.fire(name, builtinTag(ev), ev, cb)
		}
	} else {
		for i := len(events) - 1; i >= 0; i-- {
			ev := events[i]
			d.fire(name, builtinTag(ev), ev, cb)
		}
	}

	if d.Telemetry != nil {
		d.Telemetry.RecordSweep(context.Background(), string(name))
	}
}

// notify re-enters the dispatcher for a synthetic (non-stream) event,
// firing depth-first before the triggering callback returns — ordinary Go
// call-stack recursion already gives us that ordering.
func (d *Dispatcher) notify(patternName string, sweep Sweep, tag Tag, ev *model.Event, cb *CbData) {
	if err := d.checkAcyclic(patternName, sweep, tag); err != nil {
		// Acyclicity violations are a registration-time programming error;
		// they are reported but do not abort the sweep in flight.
		cb.reportError(err)
		return
	}
	if tag == TagCCVP2P || tag == TagCCVColl {
		if d.Telemetry != nil {
			d.Telemetry.RecordClockViolation(context.Background(), string(tag))
		}
	}

	cb.notifyDepth++
	if d.Telemetry != nil {
		d.Telemetry.RecordNotifyDepth(context.Background(), cb.notifyDepth)
	}
	d.fire(sweep, tag, ev, cb)
	cb.notifyDepth--
}

func (d *Dispatcher) fire(sweep Sweep, tag Tag, ev *model.Event, cb *CbData) {
	for _, rc := range d.table[sweep][tag] {
		rc.callback(ev, cb)
	}
	if d.Telemetry != nil {
		d.Telemetry.RecordEvent(context.Background(), string(tag))
	}
}
