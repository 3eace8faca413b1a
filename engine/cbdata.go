package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ftahirops/waitscope/buffer"
	"github.com/ftahirops/waitscope/model"
)

// ErrMissingPeerDatum is returned when a callback asks for a role absent
// from mRemote/mLocal. It is fatal per §7 kind 2: it indicates a
// programming error in pattern registration order, not recoverable data.
var ErrMissingPeerDatum = errors.New("engine: missing peer datum")

// RankTime pairs a rank with a timestamp, used throughout CollectiveInfo.
type RankTime struct {
	Rank int
	Time float64
}

// CollectiveInfo is the collective snapshot made available to every
// detector at a collective end: earliest/latest begin, root, my rank, and
// earliest end (§2 "Control flow between locations").
type CollectiveInfo struct {
	My          RankTime
	Root        RankTime
	Earliest    RankTime
	Latest      RankTime
	EarliestEnd RankTime
}

// Synchpoint is an event flagged by the synchpoint handler as a wait-state
// causing or experiencing event (glossary).
type Synchpoint struct {
	Event     *model.Event
	WaitTime  float64
	Role      Role
}

// CbData is the mutable scratchpad threaded through every callback within
// one sweep (§3). Its nested containers are cleared between events by
// convention: each detector re-initializes what it writes.
type CbData struct {
	Defs  *model.Definitions
	Trace model.LocalTrace

	// Global gives collective/p2p resolution helpers access to the full
	// multi-location trace (§2 "Control flow between locations" is the only
	// place cross-location state is read directly rather than through a
	// peer exchange; every other callback is restricted to Trace).
	Global *model.Trace

	Caches *Caches // time-map cache, synchpoint handler, lock-tracking cache (§4.6, external collaborators)

	// Primitive outputs produced by an upstream detector for downstream
	// consumers on the same event.
	mIdle       float64
	mCompletion *model.Event
	mCount      int

	// Event/buffer sets carrying data exchanged with the peer, forward and
	// inverse directions.
	mLocal    EventSet
	mRemote   EventSet
	mInvLocal EventSet
	mInvRemote EventSet

	mCollinfo *CollectiveInfo

	// Delay / critical-path pipeline intermediates.
	mDelayInfo    *DelayInfo
	mWaitInfo     *WaitInfo
	mCollDelayInfo *CollDelayInfo
	mInputScales  map[int]float64
	mSumScales    float64
	mPropSpMap    map[int]bool
	mPrevSp       *Synchpoint
	mRwait        float64
	mOmpIdleScale float64

	// Per-callpath vectors computed once and read by dependent patterns.
	mGlobalCriticalPath map[int]float64
	mLocalCriticalPath  map[int]float64
	mLocalTimeProfile   map[int]float64

	// lastRMAOp caches the most recent RMA operation per window, resolving
	// the §9 open question about raw prev() peeking in the RMA fence/free
	// handlers: every RMA callback populates it as it fires instead of
	// navigating the stream directly.
	lastRMAOp map[int64]*model.Event

	onCriticalPath bool // carried across the backward critical-path sweep (§4.3)

	channel *PeerChannel

	dispatcher *Dispatcher
	sweep      Sweep

	// notifyDepth tracks in-callback notify recursion so the dispatcher can
	// report fan-out depth to telemetry; it has no effect on ordering, which
	// Go's own call stack already gives us.
	notifyDepth int

	errs []error
}

// NewCbData creates a fresh scratchpad for one sweep over one location.
func NewCbData(defs *model.Definitions, trace model.LocalTrace, global *model.Trace, caches *Caches, channel *PeerChannel) *CbData {
	return &CbData{
		Defs:      defs,
		Trace:     trace,
		Global:    global,
		Caches:    caches,
		mLocal:    make(EventSet),
		mRemote:   make(EventSet),
		mInvLocal: make(EventSet),
		mInvRemote: make(EventSet),
		mInputScales: make(map[int]float64),
		mPropSpMap:   make(map[int]bool),
		mGlobalCriticalPath: make(map[int]float64),
		mLocalCriticalPath:  make(map[int]float64),
		mLocalTimeProfile:   make(map[int]float64),
		lastRMAOp: make(map[int64]*model.Event),
		channel:   channel,
	}
}

// Notify re-enters the dispatcher for a synthetic user-event, processed
// depth-first before the calling callback returns (§4.1). patternName must
// be the name of the pattern calling Notify, used for the acyclicity
// assertion.
func (cb *CbData) Notify(patternName string, tag Tag, ev *model.Event) {
	if cb.dispatcher == nil {
		return
	}
	cb.dispatcher.notify(patternName, cb.sweep, tag, ev, cb)
}

// reportError records a non-fatal diagnostic (clock violations, registration
// warnings) without aborting the sweep in flight.
func (cb *CbData) reportError(err error) { cb.errs = append(cb.errs, err) }

// Errors returns every diagnostic recorded during the sweep so far.
func (cb *CbData) Errors() []error { return cb.errs }

// RequirePeer fetches role from set, reporting ErrMissingPeerDatum (fatal,
// §7 kind 2) if absent.
func RequirePeer(set EventSet, role Role, ev *model.Event) (*model.Event, error) {
	got, ok := set.Get(role)
	if !ok {
		return nil, fmt.Errorf("%w: role %s missing at event %d", ErrMissingPeerDatum, role, ev.ID)
	}
	return got, nil
}

// PeerChannel is the in-process stand-in for the platform-specific
// active-message runtime (§6, interface only): it ships a Buffer from one
// location to a named peer slot and lets the peer side retrieve it. A real
// deployment replaces this with the platform's active-message transport;
// because every location's stream lives in the same process during a
// post-mortem replay, an in-memory channel is a faithful substitute.
//
// One PeerChannel is shared across every location's concurrent sweep
// goroutine by default (§5's per-process axis: "cross-rank coupling exists
// only through ... synchronous peer buffers attached to send/recv
// events"), so Send/Recv guard the slot map with a mutex.
type PeerChannel struct {
	mu    sync.Mutex
	slots map[peerKey]*buffer.Buffer
}

type peerKey struct {
	from, to model.LocationID
	seq      int
}

// NewPeerChannel creates an empty channel.
func NewPeerChannel() *PeerChannel { return &PeerChannel{slots: make(map[peerKey]*buffer.Buffer)} }

// Send stores buf for to to retrieve via Recv with the same seq.
func (c *PeerChannel) Send(from, to model.LocationID, seq int, buf *buffer.Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[peerKey{from: from, to: to, seq: seq}] = buf
}

// Recv retrieves the buffer sent to dst at seq, or nil if none arrived.
func (c *PeerChannel) Recv(from, to model.LocationID, seq int) *buffer.Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots[peerKey{from: from, to: to, seq: seq}]
}
