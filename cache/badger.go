package cache

import (
	"encoding/binary"
	"fmt"
	"math"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/ftahirops/waitscope/model"
)

// BadgerTimeMapCache is an optional persistent backing for TimeMapCache,
// for analyses large enough that an in-memory MemoryTimeMapCache would not
// fit: every (from-event-id, to-event-id) query result is memoized in a
// Badger key-value store rather than recomputed. Event ids are unique
// across the whole trace, so the pair also identifies the location.
//
// It wraps a MemoryTimeMapCache for the actual computation and uses Badger
// purely as a write-through memoization layer, keyed by the query bounds.
type BadgerTimeMapCache struct {
	db    *badger.DB
	inner *MemoryTimeMapCache
}

// Build delegates to the wrapped MemoryTimeMapCache so a
// BadgerTimeMapCache can stand in anywhere the engine calls the concrete
// Build step before the accumulation sweep (engine.timeMapBuilder):
// Badger only memoizes Between's results, it still needs the in-memory
// interval index built first.
func (c *BadgerTimeMapCache) Build(trace model.LocalTrace) { c.inner.Build(trace) }

// OpenBadgerTimeMapCache opens (creating if absent) a Badger store at dir
// to back the time-map cache.
func OpenBadgerTimeMapCache(dir string, inner *MemoryTimeMapCache) (*BadgerTimeMapCache, error) {
	opts := badger.DefaultOptions(dir)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: opening badger store at %s: %w", dir, err)
	}
	return &BadgerTimeMapCache{db: db, inner: inner}, nil
}

// Close releases the underlying Badger store.
func (c *BadgerTimeMapCache) Close() error { return c.db.Close() }

func timeMapKey(fromID, toID int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint32(key[0:4], uint32(fromID))
	binary.BigEndian.PutUint32(key[4:8], uint32(toID))
	return key
}

func encodeTimeMap(tm TimeMap) []byte {
	out := make([]byte, 4, 4+12*len(tm))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(tm)))
	for k, v := range tm {
		var entry [12]byte
		binary.BigEndian.PutUint32(entry[0:4], uint32(k))
		binary.BigEndian.PutUint64(entry[4:12], math.Float64bits(v))
		out = append(out, entry[:]...)
	}
	return out
}

func decodeTimeMap(data []byte) TimeMap {
	tm := make(TimeMap)
	if len(data) < 4 {
		return tm
	}
	n := binary.BigEndian.Uint32(data[0:4])
	pos := 4
	for i := uint32(0); i < n && pos+12 <= len(data); i++ {
		k := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		v := math.Float64frombits(binary.BigEndian.Uint64(data[pos+4 : pos+12]))
		tm[k] = v
		pos += 12
	}
	return tm
}

// Between implements TimeMapCache: it answers from Badger if the (from, to)
// bounds were memoized already, otherwise computes via the in-memory cache
// and writes the result back for next time.
func (c *BadgerTimeMapCache) Between(from, to *model.Event) TimeMap {
	if from == nil || to == nil {
		return make(TimeMap)
	}
	key := timeMapKey(from.ID, to.ID)

	var tm TimeMap
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tm = decodeTimeMap(val)
			return nil
		})
	})
	if err == nil {
		return tm
	}

	tm = c.inner.Between(from, to)
	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, encodeTimeMap(tm))
	})
	return tm
}
