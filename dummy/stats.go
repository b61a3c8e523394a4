package dummy

import (
	"fmt"

	"github.com/gholt/brimtext"
)

// StoreStats is a point-in-time snapshot of aggregate counters across every
// bucket in the store, generalizing the teacher's ValuesStoreStats /
// GatherStats shape to this provider's domain. Purely additive
// observability: nothing here participates in any operation's semantics.
type StoreStats struct {
	extended      bool
	BucketCount   int
	InUseCount    int
	IteratorCount int
	EntryCount    uint32
	DocumentCount uint32
	UsedSize      uint32
	DocumentSize  uint32
}

// GatherStats walks every bucket and aggregates their BucketInfo. Each
// bucket's info is read under an Exclusive guard, the same requirement
// getBucketInfo() itself has (§4.3: "info may be recomputed lazily and
// mutate cache"), since GetBucketInfo may need to recompute and write
// bc.info/bc.outdatedInfo when the cache is stale. When extended is false,
// only EntryCount and UsedSize are aggregated; extended also aggregates
// DocumentCount and DocumentSize.
func (p *DummyPersistence) GatherStats(extended bool) *StoreStats {
	stats := &StoreStats{extended: extended}
	stats.BucketCount = p.store.bucketCount()
	stats.IteratorCount = p.store.iteratorCount()

	var buckets []Bucket
	p.store.ForEachBucket(func(b Bucket, content *BucketContent) {
		buckets = append(buckets, b)
		if content.inUse.Load() {
			stats.InUseCount++
		}
	})
	for _, b := range buckets {
		guard := p.store.Acquire(b, Exclusive)
		if guard.Content == nil {
			guard.Release()
			continue
		}
		info := guard.Content.GetBucketInfo()
		stats.EntryCount += info.EntryCount
		stats.UsedSize += info.UsedSize
		if extended {
			stats.DocumentCount += info.DocumentCount
			stats.DocumentSize += info.DocumentSize
		}
		guard.Release()
	}
	return stats
}

// String renders the stats as an aligned two-column table, the same shape
// and library call (brimtext.Align) the teacher uses for
// ValuesStoreStats.String().
func (stats *StoreStats) String() string {
	rows := [][]string{
		{"bucketCount", fmt.Sprintf("%d", stats.BucketCount)},
		{"inUseCount", fmt.Sprintf("%d", stats.InUseCount)},
		{"iteratorCount", fmt.Sprintf("%d", stats.IteratorCount)},
		{"entryCount", fmt.Sprintf("%d", stats.EntryCount)},
		{"usedSize", fmt.Sprintf("%d", stats.UsedSize)},
	}
	if stats.extended {
		rows = append(rows,
			[]string{"documentCount", fmt.Sprintf("%d", stats.DocumentCount)},
			[]string{"documentSize", fmt.Sprintf("%d", stats.DocumentSize)},
		)
	}
	return brimtext.Align(rows, nil)
}
