package engine

import "github.com/ftahirops/waitscope/model"

// lateSenderFIFOCapacity bounds the Late-Sender Wrong-Order detector's
// backlog of recent records (§4.2 "bounded FIFO (capacity 100)"). Resolved
// as a tunable constructor parameter rather than a hard constant so tests
// can exercise the overflow boundary without building 100 sends.
const lateSenderFIFOCapacity = 100

// LateSenderPattern detects the MPI Late Sender wait state: a receive
// completes after its matching send entered later than the receive was
// posted (§4.2 table, row 1). enter_send/leave_recv/enter_recv are
// approximated by the blocking send/recv call's START/COMPLETE timestamps,
// since this model does not separately bracket every p2p call in an
// ENTER/LEAVE pair.
type LateSenderPattern struct {
	basePattern

	groupDepth int
	maxIdle    float64
	pending    *model.Event // the recv whose callpath accumulates maxIdle
}

// NewLateSenderPattern creates the Late Sender detector.
func NewLateSenderPattern() *LateSenderPattern {
	return &LateSenderPattern{basePattern: newBasePattern(Identity{
		ID: PatMPILateSender, Name: "Late Sender", UniqueName: "mpi_latesender",
		Description: "Time waiting for a message that started sending late",
		Unit:        "seconds", Mode: Exclusive,
	})}
}

func (p *LateSenderPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagGroupEnter, func(ev *model.Event, cb *CbData) {
		p.groupDepth++
	})
	d.Subscribe(p.identity.ID, SweepMain, TagRecvComplete, func(ev *model.Event, cb *CbData) {
		recvStart := ev.Request()
		if recvStart == nil {
			return
		}
		peerSend := recvStart.PeerEvent()
		if peerSend == nil {
			return
		}
		if !clockOK(peerSend.Timestamp, ev.Timestamp) {
			cb.Notify(p.identity.ID, TagCCVP2P, ev)
		}
		idle := clamp(minF(peerSend.Timestamp, ev.Timestamp) - recvStart.Timestamp)
		if idle > p.maxIdle {
			p.maxIdle = idle
			p.pending = recvStart
		}
		if p.groupDepth == 0 {
			p.flush(cb, ev)
		}
	})
	d.Subscribe(p.identity.ID, SweepMain, TagGroupLeave, func(ev *model.Event, cb *CbData) {
		if p.groupDepth > 0 {
			p.groupDepth--
		}
		if p.groupDepth == 0 && p.pending != nil {
			p.flush(cb, ev)
		}
	})
}

func (p *LateSenderPattern) flush(cb *CbData, triggerEv *model.Event) {
	if p.pending == nil {
		return
	}
	p.severity.Add(p.pending.Callpath, p.maxIdle)
	cb.mIdle = p.maxIdle
	cb.Notify(p.identity.ID, TagLateSender, p.pending)
	p.maxIdle = 0
	p.pending = nil
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// lateSenderRecord is one entry in the wrong-order FIFO: a completed
// Late-Sender decision, kept around so a later-arriving, earlier-sent
// message can be recognized as out of order.
type lateSenderRecord struct {
	sendTS float64
	recv   *model.Event
	idle   float64
}

// LateSenderWOPattern is the Late Sender Wrong-Order child pattern (§4.2
// "State machines"): it holds a bounded FIFO of recent Late-Sender records
// and, at each subsequent post-recv, flags sends that arrived in an order
// inconsistent with their timestamps.
type LateSenderWOPattern struct {
	basePattern
	fifo     []lateSenderRecord
	capacity int
}

// NewLateSenderWrongOrder creates the Late Sender Wrong-Order detector with
// a caller-chosen FIFO capacity, a tuning knob rather than a correctness
// invariant (§4.2 "bounded FIFO (capacity 100)"); tests can pass a small
// capacity to exercise the overflow boundary without building a hundred
// sends.
func NewLateSenderWrongOrder(capacity int) *LateSenderWOPattern {
	if capacity <= 0 {
		capacity = lateSenderFIFOCapacity
	}
	return &LateSenderWOPattern{capacity: capacity, basePattern: newBasePattern(Identity{
		ID: PatMPILateSenderWO, ParentID: PatMPILateSender,
		Name: "Late Sender, Wrong Order", UniqueName: "mpi_latesender_wo",
		Description: "Late-sender wait caused by an out-of-order message arrival",
		Unit:        "seconds", Mode: Exclusive,
	})}
}

// NewLateSenderWOPattern creates the detector with the default capacity.
func NewLateSenderWOPattern() *LateSenderWOPattern { return NewLateSenderWrongOrder(lateSenderFIFOCapacity) }

func (p *LateSenderWOPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepMain, TagRecvComplete, func(ev *model.Event, cb *CbData) {
		recvStart := ev.Request()
		if recvStart == nil {
			return
		}
		peerSend := recvStart.PeerEvent()
		if peerSend == nil {
			return
		}
		for _, rec := range p.fifo {
			if rec.sendTS > peerSend.Timestamp {
				p.severity.Add(recvStart.Callpath, rec.idle)
				cb.mIdle = rec.idle
				cb.Notify(p.identity.ID, TagLateSenderWO, recvStart)
			}
		}
		idle := clamp(minF(peerSend.Timestamp, ev.Timestamp) - recvStart.Timestamp)
		p.push(lateSenderRecord{sendTS: peerSend.Timestamp, recv: recvStart, idle: idle})
	})
}

// push appends rec, discarding the oldest record once the FIFO is at
// capacity (§4.2 "discarding the oldest on overflow").
func (p *LateSenderWOPattern) push(rec lateSenderRecord) {
	if len(p.fifo) >= p.capacity {
		p.fifo = p.fifo[1:]
	}
	p.fifo = append(p.fifo, rec)
}

// LateReceiverPattern detects the MPI Late Receiver wait state during the
// backward sweep: a send completes after its matching receive was already
// posted, so the message sat ready while the receiver's posted request
// waited for it (§4.2 table, row 3).
type LateReceiverPattern struct {
	basePattern
}

// NewLateReceiverPattern creates the Late Receiver detector.
func NewLateReceiverPattern() *LateReceiverPattern {
	return &LateReceiverPattern{basePattern: newBasePattern(Identity{
		ID: PatMPILateReceiver, Name: "Late Receiver", UniqueName: "mpi_latereceiver",
		Description: "Time a posted receive waited for its message to arrive",
		Unit:        "seconds", Mode: Exclusive,
	})}
}

func (p *LateReceiverPattern) RegisterCallbacks(d *Dispatcher) {
	d.Subscribe(p.identity.ID, SweepBackwardWaitState, TagSendComplete, func(ev *model.Event, cb *CbData) {
		sendStart := ev.Request()
		if sendStart == nil {
			return
		}
		recvStart := sendStart.PeerEvent()
		if recvStart == nil {
			return
		}
		idle := clamp(recvStart.Timestamp - ev.Timestamp)
		if idle == 0 {
			return
		}
		p.severity.Add(recvStart.Callpath, idle)
		cb.mIdle = idle
		cb.Notify(p.identity.ID, TagLateReceiver, recvStart)
	})
}
