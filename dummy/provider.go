// Package dummy is an in-memory, non-durable implementation of the storage
// provider interface: a concurrently accessed keyed map of buckets, each
// holding a time-ordered entry log with an auxiliary most-recent-version
// index, a running XOR checksum, cursor-style iteration, and the
// structural bucket operations (split, join, revert) that must preserve
// those invariants. It exists as a reference implementation and for
// testing -- it has no durability, replication, compaction, or tiering.
package dummy

import (
	"log"
	"os"

	"golang.org/x/net/context"

	"github.com/appotry/vespa/clusterstate"
	"github.com/appotry/vespa/document"
)

// DummyPersistence is the in-memory storage provider. The zero value is not
// usable; construct with NewDummyPersistence.
type DummyPersistence struct {
	initialized  bool
	opts         *StoreOpts
	store        *BucketStore
	clusterState *clusterstate.ClusterState
	logError     *log.Logger
	logWarning   *log.Logger
}

// NewDummyPersistence constructs a provider; opts may be nil to use
// defaults (see StoreOpts).
func NewDummyPersistence(opts *StoreOpts) *DummyPersistence {
	if opts == nil {
		opts = NewStoreOpts("")
	}
	return &DummyPersistence{
		opts:       opts,
		store:      NewBucketStore(),
		logError:   log.New(os.Stderr, "", log.LstdFlags),
		logWarning: log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Initialize flips the provider into a usable state. Every other operation
// fails with NotInitialized until this has been called, matching the
// reference implementation's lazy-initialization contract. Calling it twice
// is a fatal invariant violation.
func (p *DummyPersistence) Initialize() Result {
	if p.initialized {
		fatalf("Initialize called more than once")
	}
	p.initialized = true
	return Ok
}

func (p *DummyPersistence) requireInitialized() Result {
	if !p.initialized {
		p.logError.Printf("operation invoked before Initialize")
		return NotInitialized()
	}
	return Ok
}

func assertDefaultSpace(b Bucket) {
	if b.Space != DefaultBucketSpace {
		fatalf("operation invoked against non-default bucket space %s for %s", b.Space, b)
	}
}

// Put stores doc under bucket at timestamp t. A re-put of the same
// document id at a timestamp already occupied is an idempotent no-op; a
// different document id at that timestamp is reported as TimestampExists.
func (p *DummyPersistence) Put(b Bucket, t Timestamp, doc *document.Document, ctx context.Context) Result {
	if r := p.requireInitialized(); r.HasError() {
		return r
	}
	assertDefaultSpace(b)
	guard := p.store.Acquire(b, Exclusive)
	defer guard.Release()
	if guard.Content == nil {
		return BucketNotFound()
	}

	if existing := guard.Content.GetEntryAt(t); existing != nil {
		if existing.DocId == doc.Id {
			return Ok
		}
		return TimestampExists()
	}

	guard.Content.Insert(NewPutEntry(t, doc.Clone()))
	return Ok
}

// Update applies upd to the current document for upd.DocId (fetched fresh
// under a shared guard), then puts the result at timestamp t. If no
// document exists and CreateIfNonExistent is set, a fresh document of the
// update's declared type is synthesized first. The returned previous
// timestamp is 0 (the documented sentinel) when the document did not exist
// and CreateIfNonExistent was not set -- see DESIGN.md's Open Question 2.
func (p *DummyPersistence) Update(b Bucket, t Timestamp, upd *document.Update, ctx context.Context) UpdateResult {
	getResult := p.Get(b, document.AllFields(), upd.DocId, ctx)
	if getResult.HasError() {
		return UpdateResult{Result: getResult.Result}
	}

	var docToUpdate *document.Document
	updatedTs := getResult.Timestamp
	if getResult.Found && !getResult.Tombstone {
		docToUpdate = getResult.Doc
	} else {
		if !upd.CreateIfNonExistent {
			return UpdateResult{}
		}
		docToUpdate = document.NewDocument(upd.DocType, upd.DocId)
		updatedTs = t
	}

	upd.ApplyTo(docToUpdate)

	if r := p.Put(b, t, docToUpdate, ctx); r.HasError() {
		return UpdateResult{Result: r}
	}
	return UpdateResult{PreviousTimestamp: updatedTs}
}

// Remove inserts a tombstone for id at timestamp t, first erasing any
// entry already occupying that timestamp so a caller may retry-insert after
// a replay. Returns whether a live put actually existed for id.
func (p *DummyPersistence) Remove(b Bucket, t Timestamp, id document.Id, ctx context.Context) RemoveResult {
	if r := p.requireInitialized(); r.HasError() {
		return RemoveResult{Result: r}
	}
	assertDefaultSpace(b)
	guard := p.store.Acquire(b, Exclusive)
	defer guard.Release()
	if guard.Content == nil {
		return RemoveResult{Result: BucketNotFound()}
	}

	entry := guard.Content.GetEntryById(id)
	foundPut := entry != nil && !entry.IsRemove()

	if guard.Content.HasTimestamp(t) {
		guard.Content.EraseEntry(t)
	}
	guard.Content.Insert(NewRemoveEntry(t, id))
	return RemoveResult{FoundPut: foundPut}
}

// Get returns the newest entry for id: empty if unknown, a tombstone
// marker if the newest entry is a remove, or a cloned and field-projected
// document otherwise.
func (p *DummyPersistence) Get(b Bucket, fs document.FieldSet, id document.Id, ctx context.Context) GetResult {
	if r := p.requireInitialized(); r.HasError() {
		return getError(r)
	}
	assertDefaultSpace(b)
	guard := p.store.Acquire(b, Shared)
	defer guard.Release()
	if guard.Content == nil {
		return getError(BucketNotFound())
	}

	entry := guard.Content.GetEntryById(id)
	if entry == nil {
		return getNotFound()
	}
	if entry.IsRemove() {
		return getTombstone(entry.Timestamp)
	}
	doc := fs.Project(entry.Doc.Clone())
	return getFound(doc, entry.Timestamp)
}

// Revert undoes the single entry at timestamp t, promoting the newest
// surviving entry of the same GID back into the GID index (or removing the
// mapping entirely if none remain). A missing timestamp is a no-op success.
func (p *DummyPersistence) Revert(b Bucket, t Timestamp, ctx context.Context) Result {
	if r := p.requireInitialized(); r.HasError() {
		return r
	}
	assertDefaultSpace(b)
	guard := p.store.Acquire(b, Exclusive)
	defer guard.Release()
	if guard.Content == nil {
		return BucketNotFound()
	}
	guard.Content.Revert(t)
	return Ok
}

// CreateBucket inserts an empty bucket if one does not already exist.
func (p *DummyPersistence) CreateBucket(b Bucket, ctx context.Context) Result {
	if r := p.requireInitialized(); r.HasError() {
		return r
	}
	assertDefaultSpace(b)
	if existed := p.store.CreateBucket(b); existed {
		p.logWarning.Printf("createBucket(%s): bucket already existed", b)
	}
	return Ok
}

// DeleteBucket removes a bucket, provided it is not in use.
func (p *DummyPersistence) DeleteBucket(b Bucket, ctx context.Context) Result {
	if r := p.requireInitialized(); r.HasError() {
		return r
	}
	assertDefaultSpace(b)
	p.store.DeleteBucket(b)
	return Ok
}

// SetActiveState sets a bucket's activity flag.
func (p *DummyPersistence) SetActiveState(b Bucket, state ActiveState, ctx context.Context) Result {
	if r := p.requireInitialized(); r.HasError() {
		return r
	}
	assertDefaultSpace(b)
	guard := p.store.Acquire(b, Exclusive)
	defer guard.Release()
	if guard.Content == nil {
		return BucketNotFound()
	}
	guard.Content.SetActive(state == Active)
	return Ok
}

// GetBucketInfo returns the (possibly lazily recomputed) aggregate info for
// a bucket.
func (p *DummyPersistence) GetBucketInfo(b Bucket, ctx context.Context) BucketInfoResult {
	if r := p.requireInitialized(); r.HasError() {
		return BucketInfoResult{Result: r}
	}
	assertDefaultSpace(b)
	guard := p.store.Acquire(b, Exclusive)
	defer guard.Release()
	if guard.Content == nil {
		return BucketInfoResult{Result: BucketNotFound()}
	}
	return BucketInfoResult{Info: guard.Content.GetBucketInfo()}
}

// ListBuckets returns every bucket id in space (empty for any space other
// than the default one, which is the only one this provider serves).
func (p *DummyPersistence) ListBuckets(space BucketSpace, ctx context.Context) BucketIdListResult {
	if r := p.requireInitialized(); r.HasError() {
		return BucketIdListResult{Result: r}
	}
	return BucketIdListResult{List: p.store.ListBuckets(space)}
}

// SetModifiedBuckets records the externally reported modified-bucket set
// for the default space.
func (p *DummyPersistence) SetModifiedBuckets(buckets []Bucket) {
	p.store.SetModifiedBuckets(buckets)
}

// GetModifiedBuckets returns the last-recorded modified-bucket set for
// space.
func (p *DummyPersistence) GetModifiedBuckets(space BucketSpace) BucketIdListResult {
	bks := p.store.GetModifiedBuckets(space)
	ids := make([]BucketId, 0, len(bks))
	for _, b := range bks {
		ids = append(ids, b.Id)
	}
	return BucketIdListResult{List: ids}
}

// DumpBucket returns the literal "DOESN'T EXIST" for a missing bucket, or a
// newline-separated dump of its entries, as the admin surface.
func (p *DummyPersistence) DumpBucket(b Bucket) string {
	if r := p.requireInitialized(); r.HasError() {
		return r.Message
	}
	assertDefaultSpace(b)
	return p.store.DumpBucket(b)
}

// IsActive reports a bucket's current activity flag without the cost of a
// full GetBucketInfo recompute.
func (p *DummyPersistence) IsActive(b Bucket) bool {
	if !p.initialized {
		return false
	}
	assertDefaultSpace(b)
	return p.store.IsActive(b)
}
