package dummy

import (
	"sync"
)

// LockMode selects whether Acquire hands out an exclusive or a shared
// guard. Exclusive guards toggle the bucket's in_use flag and detect
// double-acquisition; shared guards do not touch it and may be held
// concurrently by many callers.
type LockMode int

const (
	Shared LockMode = iota
	Exclusive
)

// BucketStore is the process-wide mapping from Bucket to BucketContent,
// protected by a single coarse mutex. It hands out scoped guards as the
// only legal handle through which a BucketContent may be read or mutated.
type BucketStore struct {
	mu              sync.Mutex
	content         map[Bucket]*BucketContent
	modifiedBuckets []Bucket
	iterators       map[IteratorId]*iteratorState
	nextIteratorId  IteratorId
}

// NewBucketStore returns an empty store.
func NewBucketStore() *BucketStore {
	return &BucketStore{
		content:        make(map[Bucket]*BucketContent),
		iterators:      make(map[IteratorId]*iteratorState),
		nextIteratorId: 1,
	}
}

// BucketGuard is the only legal handle to read or mutate a BucketContent.
// Its zero value (Content == nil) represents "bucket not found" and must be
// checked by callers before dereferencing Content.
type BucketGuard struct {
	store   *BucketStore
	Content *BucketContent
	mode    LockMode
}

// Release drops the guard, clearing the exclusive in_use flag if this was
// an exclusive guard. It is safe to call Release on a zero-value guard
// (bucket-not-found case).
func (g *BucketGuard) Release() {
	if g == nil || g.Content == nil {
		return
	}
	if g.mode == Exclusive {
		if !g.Content.inUse.CompareAndSwap(true, false) {
			fatalf("releasing exclusive guard on a bucket that was not marked in-use")
		}
	}
}

// Acquire looks up bucket under the store mutex and returns a guard. A
// missing bucket yields a zero-value guard (Content == nil, no error -
// callers translate that into a TransientError "Bucket not found"). An
// exclusive acquisition on a bucket already marked in-use is a fatal
// invariant violation: the upper layer is required to ensure only one
// exclusive guard per bucket exists at a time.
func (s *BucketStore) Acquire(b Bucket, mode LockMode) *BucketGuard {
	s.mu.Lock()
	content, ok := s.content[b]
	s.mu.Unlock()
	if !ok {
		return &BucketGuard{}
	}
	if mode == Exclusive {
		if !content.inUse.CompareAndSwap(false, true) {
			fatalf("attempted to acquire %s, but it was already marked as being in use", b)
		}
	}
	return &BucketGuard{store: s, Content: content, mode: mode}
}

// CreateBucket inserts an empty bucket if absent. If present and not
// in-use, the existing content is kept as-is and existed is true. If
// present and in-use, that is a fatal invariant violation (a caller is
// racing createBucket against live traffic on the same id).
func (s *BucketStore) CreateBucket(b Bucket) (existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.content[b]
	if !ok {
		s.content[b] = NewBucketContent()
		return false
	}
	if existing.inUse.Load() {
		fatalf("createBucket(%s): bucket already exists and is in use", b)
	}
	return true
}

// DeleteBucket removes a bucket, provided it is not currently in use. A
// delete of an in-use bucket is a fatal invariant violation.
func (s *BucketStore) DeleteBucket(b Bucket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.content[b]; ok {
		if existing.inUse.Load() {
			fatalf("deleteBucket(%s): bucket is in use", b)
		}
	}
	delete(s.content, b)
}

// ListBuckets returns every bucket id in the default space, or an empty
// list for any other space.
func (s *BucketStore) ListBuckets(space BucketSpace) []BucketId {
	s.mu.Lock()
	defer s.mu.Unlock()
	if space != DefaultBucketSpace {
		return nil
	}
	ids := make([]BucketId, 0, len(s.content))
	for b := range s.content {
		if b.Space == DefaultBucketSpace {
			ids = append(ids, b.Id)
		}
	}
	return ids
}

// SetModifiedBuckets records the externally-reported set of modified
// buckets for the default space (see DESIGN.md: restored from
// original_source, dropped by the distilled specification).
func (s *BucketStore) SetModifiedBuckets(buckets []Bucket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modifiedBuckets = append([]Bucket(nil), buckets...)
}

// GetModifiedBuckets returns the last-set modified-buckets list for the
// default space, or an empty list for any other space.
func (s *BucketStore) GetModifiedBuckets(space BucketSpace) []Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if space != DefaultBucketSpace {
		return nil
	}
	return append([]Bucket(nil), s.modifiedBuckets...)
}

// ForEachBucket calls fn for every bucket content under the store mutex.
// Used by the cluster-state sink to deactivate every bucket in bulk
// without taking (and contending on) a per-bucket exclusive guard.
func (s *BucketStore) ForEachBucket(fn func(Bucket, *BucketContent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for b, c := range s.content {
		fn(b, c)
	}
}

// IsActive reports a bucket's activity flag without taking a full guard;
// returns false for a missing bucket.
func (s *BucketStore) IsActive(b Bucket) bool {
	s.mu.Lock()
	content, ok := s.content[b]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return content.IsActive()
}

// DumpBucket returns the literal "DOESN'T EXIST" for a missing bucket, or a
// newline-separated dump of its entries.
func (s *BucketStore) DumpBucket(b Bucket) string {
	s.mu.Lock()
	content, ok := s.content[b]
	s.mu.Unlock()
	if !ok {
		return "DOESN'T EXIST"
	}
	return content.DumpString()
}

// bucketCount is a small helper for StoreStats.
func (s *BucketStore) bucketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.content)
}

// registerIterator allocates the next IteratorId, never reused within the
// process lifetime, and stores its state.
func (s *BucketStore) registerIterator(st *iteratorState) IteratorId {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextIteratorId
	s.nextIteratorId++
	if _, exists := s.iterators[id]; exists {
		fatalf("iterator id %d wrapped and collided with a live iterator", id)
	}
	s.iterators[id] = st
	return id
}

// lookupIterator returns the iterator state for id, or nil if unknown.
func (s *BucketStore) lookupIterator(id IteratorId) *iteratorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iterators[id]
}

// destroyIterator removes an iterator's state; unknown ids are not an
// error, matching the specification's idempotent destroyIterator.
func (s *BucketStore) destroyIterator(id IteratorId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.iterators, id)
}

func (s *BucketStore) iteratorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.iterators)
}
