package dummy

import (
	"golang.org/x/net/context"

	"github.com/appotry/vespa/document"
)

// Provider is the storage-provider contract this package implements,
// generalizing the teacher's interface-over-concrete-struct pattern
// (Store/GroupStore in package.go) so that callers depend on this
// interface rather than the concrete *DummyPersistence type.
type Provider interface {
	Initialize() Result

	Put(b Bucket, t Timestamp, doc *document.Document, ctx context.Context) Result
	Update(b Bucket, t Timestamp, upd *document.Update, ctx context.Context) UpdateResult
	Remove(b Bucket, t Timestamp, id document.Id, ctx context.Context) RemoveResult
	Get(b Bucket, fs document.FieldSet, id document.Id, ctx context.Context) GetResult
	Revert(b Bucket, t Timestamp, ctx context.Context) Result

	CreateBucket(b Bucket, ctx context.Context) Result
	DeleteBucket(b Bucket, ctx context.Context) Result
	SetActiveState(b Bucket, state ActiveState, ctx context.Context) Result
	GetBucketInfo(b Bucket, ctx context.Context) BucketInfoResult
	ListBuckets(space BucketSpace, ctx context.Context) BucketIdListResult
	IsActive(b Bucket) bool
	DumpBucket(b Bucket) string

	SetModifiedBuckets(buckets []Bucket)
	GetModifiedBuckets(space BucketSpace) BucketIdListResult

	Split(source, target1, target2 Bucket, ctx context.Context) Result
	Join(source1, source2, target Bucket, ctx context.Context) Result

	CreateIterator(b Bucket, fs document.FieldSet, sel Selection, versions IncludedVersions, ctx context.Context) CreateIteratorResult
	Iterate(id IteratorId, maxBytes uint64, ctx context.Context) IterateResult
	DestroyIterator(id IteratorId, ctx context.Context) Result

	GatherStats(extended bool) *StoreStats
}

var _ Provider = (*DummyPersistence)(nil)
