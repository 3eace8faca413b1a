package engine

import "github.com/ftahirops/waitscope/cache"

// Caches bundles the three read-mostly collaborators a sweep consults but
// does not own (§1, §4.6): the time-map cache, the synchpoint handler, and
// the lock-tracking cache. Any of the three may be swapped for a
// persistent implementation (e.g. cache.BadgerTimeMapCache) without the
// engine caring.
type Caches struct {
	TimeMap    cache.TimeMapCache
	Synchpoint cache.SynchpointHandler
	Locks      cache.LockTrackingCache
}

// NewMemoryCaches builds the default fully in-memory trio, sufficient for
// any trace that fits in memory (§1 "assumes a complete, bounded
// per-location event stream is available in memory").
func NewMemoryCaches() *Caches {
	return &Caches{
		TimeMap:    cache.NewMemoryTimeMapCache(),
		Synchpoint: cache.NewMemorySynchpointHandler(),
		Locks:      cache.NewMemoryLockCache(),
	}
}

// NewPersistentCaches builds the same trio as NewMemoryCaches, except the
// time-map cache is backed by a Badger store under dir rather than held
// purely in memory, for runs large enough that NewMemoryCaches' Between
// memoization would not fit. Selected by NewEngine when Options.
// ArchiveDirectory is set and the caller did not already supply its own
// *Caches.
func NewPersistentCaches(dir string) (*Caches, error) {
	badgerCache, err := cache.OpenBadgerTimeMapCache(dir, cache.NewMemoryTimeMapCache())
	if err != nil {
		return nil, err
	}
	return &Caches{
		TimeMap:    badgerCache,
		Synchpoint: cache.NewMemorySynchpointHandler(),
		Locks:      cache.NewMemoryLockCache(),
	}, nil
}
