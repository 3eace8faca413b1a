package buffer

import (
	"encoding/binary"
	"math"
	"sort"
)

// TimeMap is a sparse mapping call-path-id -> duration, summarizing time
// spent in every call path within an interval between two events (§3).
type TimeMap map[int]float64

// NewTimeMap creates an empty time map.
func NewTimeMap() TimeMap { return make(TimeMap) }

// Add accumulates duration onto a call path's entry.
func (tm TimeMap) Add(cnode int, duration float64) { tm[cnode] += duration }

// Sum returns the total duration across every call path in the map.
func (tm TimeMap) Sum() float64 {
	var total float64
	for _, v := range tm {
		total += v
	}
	return total
}

// Sub returns a new time map holding tm[i] - other[i] for every key present
// in either map (missing entries treated as 0), used by the short-term
// delay algorithm's `runtime_map - wait_map` (§4.4).
func (tm TimeMap) Sub(other TimeMap) TimeMap {
	out := make(TimeMap, len(tm))
	for k, v := range tm {
		out[k] = v
	}
	for k, v := range other {
		out[k] -= v
	}
	return out
}

func (tm TimeMap) clone() TimeMap {
	out := make(TimeMap, len(tm))
	for k, v := range tm {
		out[k] = v
	}
	return out
}

// sortedKeys returns the map's keys in ascending order for deterministic
// wire encoding.
func (tm TimeMap) sortedKeys() []int {
	keys := make([]int, 0, len(tm))
	for k := range tm {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func appendTimeMap(out []byte, tm TimeMap) []byte {
	keys := tm.sortedKeys()
	var cnt [4]byte
	binary.BigEndian.PutUint32(cnt[:], uint32(len(keys)))
	out = append(out, cnt[:]...)
	for _, k := range keys {
		var kb [4]byte
		binary.BigEndian.PutUint32(kb[:], uint32(k))
		out = append(out, kb[:]...)
		var vb [8]byte
		binary.BigEndian.PutUint64(vb[:], floatBits(tm[k]))
		out = append(out, vb[:]...)
	}
	return out
}

func floatBits(f float64) uint64 { return math.Float64bits(f) }
func bitsFloat(u uint64) float64 { return math.Float64frombits(u) }
