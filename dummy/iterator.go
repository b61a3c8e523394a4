package dummy

import (
	"golang.org/x/net/context"

	"github.com/appotry/vespa/document"
	"github.com/appotry/vespa/selection"
)

// IteratorId identifies a live iterator: 64 bit, starting at 1, monotonic,
// never reused within the process lifetime. 0 is reserved as "unset".
type IteratorId uint64

// IncludedVersions controls which entries createIterator's planning phase
// selects when no explicit timestamp subset was supplied.
type IncludedVersions int

const (
	// AllVersions includes every entry passing the timestamp/selection
	// filters, puts and tombstones alike.
	AllVersions IncludedVersions = iota
	// NewestDocumentOnly excludes tombstones entirely and includes a Put
	// only if it is the newest entry for its GID.
	NewestDocumentOnly
	// NewestDocumentOrRemove includes a Put only if newest for its GID, but
	// always includes tombstones that pass the other filters.
	NewestDocumentOrRemove
)

// Selection bundles the iteration window: an optional document-selection
// expression, an inclusive timestamp range, and an optional explicit
// timestamp subset that bypasses the window/expression filters entirely.
type Selection struct {
	DocumentSelection string
	FromTimestamp     Timestamp
	ToTimestamp       Timestamp
	TimestampSubset   []Timestamp
}

// AllTimeSelection returns a Selection spanning the full timestamp range
// with no expression filter, the usual default for a full bucket scan.
func AllTimeSelection() Selection {
	return Selection{ToTimestamp: ^Timestamp(0)}
}

// iteratorState is the server-side cursor: the target bucket, the
// requested field projection, and the list of timestamps still pending,
// consumed from the back (LIFO over a plan stored oldest-first, so
// effectively newest-first delivery).
type iteratorState struct {
	bucket        Bucket
	fieldSet      document.FieldSet
	leftToIterate []Timestamp
}

// CreateIterator plans an iteration over bucket and returns its id. If
// selection carries a non-empty expression it is parsed first (an
// unparseable expression is a PermanentError); the plan itself requires a
// Shared guard on the bucket.
func (p *DummyPersistence) CreateIterator(b Bucket, fs document.FieldSet, sel Selection, versions IncludedVersions, ctx context.Context) CreateIteratorResult {
	if r := p.requireInitialized(); r.HasError() {
		return CreateIteratorResult{Result: r}
	}
	assertDefaultSpace(b)

	var docSelection selection.Node
	if sel.DocumentSelection != "" {
		node, err := selection.Parse(sel.DocumentSelection, true)
		if err != nil {
			return CreateIteratorResult{Result: Permanent("Got invalid/unparseable document selection string")}
		}
		docSelection = node
	}

	guard := p.store.Acquire(b, Shared)
	defer guard.Release()
	if guard.Content == nil {
		p.logWarning.Printf("createIterator(%s): bucket not found", b)
		return CreateIteratorResult{Result: BucketNotFound()}
	}

	st := &iteratorState{bucket: b, fieldSet: fs}

	if len(sel.TimestampSubset) > 0 {
		st.leftToIterate = append([]Timestamp(nil), sel.TimestampSubset...)
	} else {
		// entries is sorted oldest-first; append in that order so the newest
		// qualifying entry ends up at the back of leftToIterate, where
		// Iterate's pop-from-back delivers it first.
		entries := guard.Content.Entries()
		for i := 0; i < len(entries); i++ {
			be := entries[i]
			ts := be.Entry.Timestamp
			if ts < sel.FromTimestamp || ts > sel.ToTimestamp {
				continue
			}
			newest := guard.Content.GetEntryById(be.Entry.DocId) == be.Entry
			if be.Entry.IsRemove() {
				if versions == NewestDocumentOnly {
					continue
				}
				if docSelection != nil && !docSelection.MatchesId(be.Entry.DocId) {
					continue
				}
				st.leftToIterate = append(st.leftToIterate, ts)
			} else {
				if versions != AllVersions && !newest {
					continue
				}
				if docSelection != nil && !docSelection.MatchesDocument(be.Entry.Doc) {
					continue
				}
				st.leftToIterate = append(st.leftToIterate, ts)
			}
		}
	}

	id := p.store.registerIterator(st)
	return CreateIteratorResult{Id: id}
}

// Iterate pops timestamps from the back of the iterator's pending list and
// resolves each to its current bucket entry, stopping once adding the next
// entry would exceed maxBytes (unless nothing has been emitted yet, which
// guarantees forward progress even for entries larger than the budget).
func (p *DummyPersistence) Iterate(id IteratorId, maxBytes uint64, ctx context.Context) IterateResult {
	if r := p.requireInitialized(); r.HasError() {
		return IterateResult{Result: r}
	}
	st := p.store.lookupIterator(id)
	if st == nil {
		return IterateResult{Result: Permanent("iterate without prior createIterator")}
	}

	guard := p.store.Acquire(st.bucket, Shared)
	defer guard.Release()
	if guard.Content == nil {
		p.logWarning.Printf("iterate(%d): bucket %s not found", id, st.bucket)
		return IterateResult{Result: BucketNotFound()}
	}

	var out []*DocEntry
	var currentSize uint64
	for len(st.leftToIterate) > 0 {
		next := st.leftToIterate[len(st.leftToIterate)-1]
		entry := guard.Content.GetEntryAt(next)
		if entry != nil {
			size := uint64(entry.Size())
			if currentSize != 0 && currentSize+size > maxBytes {
				break
			}
			currentSize += size
			if !entry.IsRemove() && st.fieldSet.Type() != document.FieldSetAll {
				filtered := st.fieldSet.Project(entry.Doc)
				out = append(out, &DocEntry{
					Timestamp:     entry.Timestamp,
					Kind:          Put,
					Doc:           filtered,
					DocId:         entry.DocId,
					size:          filtered.Size(),
					persistedSize: entry.persistedSize,
				})
			} else {
				out = append(out, entry)
			}
		}
		st.leftToIterate = st.leftToIterate[:len(st.leftToIterate)-1]
	}

	return IterateResult{Entries: out, Completed: len(st.leftToIterate) == 0}
}

// DestroyIterator removes an iterator's state; an unknown id is not an
// error.
func (p *DummyPersistence) DestroyIterator(id IteratorId, ctx context.Context) Result {
	if r := p.requireInitialized(); r.HasError() {
		return r
	}
	p.store.destroyIterator(id)
	return Ok
}
