package cache

import (
	"context"
	"sync/atomic"
)

// Metrics tracks cache performance.
type Metrics struct {
	Name       string `json:"name"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	RemoteHits uint64 `json:"remote_hits"`
	Loads      uint64 `json:"loads"`
	LoadErrors uint64 `json:"load_errors"`
	Coalesced  uint64 `json:"coalesced"`
	Evictions  uint64 `json:"evictions"`
	Expired    uint64 `json:"expired"`
	Size       int    `json:"size"`
	MaxEntries int    `json:"max_entries"`
}

type counters struct {
	hits       atomic.Uint64
	misses     atomic.Uint64
	remoteHits atomic.Uint64
	loads      atomic.Uint64
	loadErrors atomic.Uint64
	coalesced  atomic.Uint64
	evictions  atomic.Uint64
	expired    atomic.Uint64
}

// Managed is the admin view of a cache regardless of its value type.
type Managed interface {
	Name() string
	Clear(ctx context.Context) error
	Sweep() int
	Metrics() Metrics
}

var _ Managed = (*Cache[int])(nil)
