package engine

import (
	"encoding/json"
	"io"
	"sort"
	"sync"
)

// SeverityCube is the outbound pattern-id -> callpath-id -> severity
// snapshot the report writer and the recorder both consume (§6 "Outbound to
// the report writer").
type SeverityCube map[string]map[int]float64

// CubeFromPatterns flattens every registered pattern's severity map into a
// single cube, in dispatcher registration order. Patterns with an empty
// severity map get no entry.
func CubeFromPatterns(patterns []Pattern) SeverityCube {
	cube := make(SeverityCube, len(patterns))
	for _, p := range patterns {
		id := p.Identity()
		entries := p.Severity().Entries()
		if len(entries) == 0 {
			continue
		}
		flat := make(map[int]float64, len(entries))
		for cp, v := range entries {
			flat[cp] = v
		}
		cube[id.ID] = flat
	}
	return cube
}

// runFrame is one recorded analysis run.
type runFrame struct {
	Cube       SeverityCube           `json:"cube"`
	TopK       map[Tag][]Instance     `json:"topk,omitempty"`
	Errors     []string               `json:"errors,omitempty"`
}

// Recorder wraps a sequence of finished runs and appends each one as a JSON
// line, so a long batch of traces can be replayed or diffed without
// re-running the dispatcher (§6, supplemented feature: record/replay).
type Recorder struct {
	enc *json.Encoder
	mu  sync.Mutex
}

// NewRecorder creates a recorder writing JSON lines to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: json.NewEncoder(w)}
}

// RecordRun appends one completed run's cube, top-K statistics, and
// diagnostics as a single JSON line.
func (r *Recorder) RecordRun(patterns []Pattern, stats *StatisticsPattern, errs []error) error {
	frame := runFrame{Cube: CubeFromPatterns(patterns)}
	if stats != nil {
		frame.TopK = make(map[Tag][]Instance)
		for _, tag := range statisticsTags {
			if top := stats.TopK(tag); len(top) > 0 {
				frame.TopK[tag] = top
			}
		}
	}
	for _, e := range errs {
		frame.Errors = append(frame.Errors, e.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(frame)
}

// Player replays a recorded file's runs without touching the dispatcher,
// the read-side counterpart to Recorder (§6, supplemented feature).
type Player struct {
	frames []runFrame
	idx    int
}

// NewPlayer reads every recorded run from r. Malformed lines are skipped
// rather than aborting the whole replay, since one truncated run shouldn't
// sink an entire archived batch.
func NewPlayer(r io.Reader) (*Player, error) {
	dec := json.NewDecoder(r)
	var frames []runFrame
	for {
		var frame runFrame
		if err := dec.Decode(&frame); err != nil {
			if err == io.EOF {
				break
			}
			continue
		}
		frames = append(frames, frame)
	}
	return &Player{frames: frames}, nil
}

// Len returns the number of recorded runs available.
func (p *Player) Len() int { return len(p.frames) }

// Next returns the next recorded run's cube and top-K statistics, or ok=false
// once every run has been replayed.
func (p *Player) Next() (cube SeverityCube, topK map[Tag][]Instance, ok bool) {
	if p.idx >= len(p.frames) {
		return nil, nil, false
	}
	f := p.frames[p.idx]
	p.idx++
	return f.Cube, f.TopK, true
}

// Reset rewinds the player to the first recorded run.
func (p *Player) Reset() { p.idx = 0 }

// PatternIDs returns every pattern id present across every recorded run, in
// sorted order, useful for tabular report rendering without re-reading the
// dispatcher's pattern list.
func (p *Player) PatternIDs() []string {
	seen := make(map[string]bool)
	for _, f := range p.frames {
		for id := range f.Cube {
			seen[id] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
