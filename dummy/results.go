package dummy

import "github.com/appotry/vespa/document"

// GetResult is the outcome of a get() call: either empty (no such
// document), a tombstone marker (document existed but was removed), or a
// live document with the timestamp it was last written at.
type GetResult struct {
	Result
	Found     bool
	Tombstone bool
	Doc       *document.Document
	Timestamp Timestamp
}

func getNotFound() GetResult {
	return GetResult{}
}

func getTombstone(ts Timestamp) GetResult {
	return GetResult{Found: true, Tombstone: true, Timestamp: ts}
}

func getFound(doc *document.Document, ts Timestamp) GetResult {
	return GetResult{Found: true, Doc: doc, Timestamp: ts}
}

func getError(r Result) GetResult {
	return GetResult{Result: r}
}

// RemoveResult is the outcome of a remove() call: whether a live put
// actually existed for the id (as opposed to removing an already-tombstoned
// or never-seen id).
type RemoveResult struct {
	Result
	FoundPut bool
}

// UpdateResult is the outcome of an update() call: the timestamp the
// document carried immediately before this update, or 0 if the document did
// not exist and create-if-nonexistent was not requested (the sentinel
// "no-op" the specification's second Open Question discusses).
type UpdateResult struct {
	Result
	PreviousTimestamp Timestamp
}

// BucketInfoResult is the outcome of getBucketInfo().
type BucketInfoResult struct {
	Result
	Info BucketInfo
}

// BucketIdListResult is the outcome of listBuckets()/getModifiedBuckets().
type BucketIdListResult struct {
	Result
	List []BucketId
}

// CreateIteratorResult is the outcome of createIterator().
type CreateIteratorResult struct {
	Result
	Id IteratorId
}

// IterateResult is the outcome of a single iterate() call.
type IterateResult struct {
	Result
	Entries   []*DocEntry
	Completed bool
}
