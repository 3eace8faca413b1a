package engine

import "time"

// severityThreshold is the fraction of the trace makespan a pattern's total
// severity must cross before the watchdog flags it as hot.
const severityThreshold = 0.1

// StatisticsWatchdog flags the visible patterns whose total severity crosses
// a threshold fraction of the makespan, so a caller knows which patterns'
// StatisticsPattern.TopK entries are worth reading. It attaches nothing:
// the statistics collector, when enabled, records every wait-state tag
// regardless of what the watchdog reports. Mirrors the teacher's bottleneck
// watchdog: a cooldown keeps a borderline pattern from being re-reported on
// every check.
type StatisticsWatchdog struct {
	lastTrigger map[string]time.Time
	cooldown    time.Duration
	triggered   map[string]bool
}

// NewStatisticsWatchdog creates a watchdog with the given cooldown; callers
// that drive several runs in the same process pass the same watchdog
// across runs to keep the cooldown meaningful.
func NewStatisticsWatchdog(cooldown time.Duration) *StatisticsWatchdog {
	return &StatisticsWatchdog{
		lastTrigger: make(map[string]time.Time),
		triggered:   make(map[string]bool),
		cooldown:    cooldown,
	}
}

// Check inspects every pattern's total severity against makespan and
// returns the set of pattern ids newly crossing severityThreshold this run
// (already-triggered, still-hot patterns are not re-reported).
func (w *StatisticsWatchdog) Check(patterns []Pattern, makespan float64, now time.Time) []string {
	if makespan <= 0 {
		return nil
	}
	var hot []string
	for _, p := range patterns {
		id := p.Identity()
		if id.Hidden {
			continue
		}
		frac := p.Severity().Sum() / makespan
		if frac < severityThreshold {
			continue
		}
		if last, ok := w.lastTrigger[id.ID]; ok && now.Sub(last) < w.cooldown {
			continue
		}
		w.lastTrigger[id.ID] = now
		w.triggered[id.ID] = true
		hot = append(hot, id.ID)
	}
	return hot
}

// Triggered reports whether id has ever crossed the threshold.
func (w *StatisticsWatchdog) Triggered(id string) bool { return w.triggered[id] }
