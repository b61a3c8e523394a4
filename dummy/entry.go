package dummy

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/appotry/vespa/document"
)

// Timestamp is the caller-assigned, monotonically increasing (by
// convention, not enforced across buckets) ordering key for entries within
// a bucket.
type Timestamp uint64

// EntryKind distinguishes the three DocEntry variants.
type EntryKind int

const (
	// Put carries a live document.
	Put EntryKind = iota
	// Remove is a tombstone marking a logical deletion.
	Remove
	// Noop carries no document and only occupies a timestamp slot.
	Noop
)

// DocEntry is one immutable record in a bucket's entry log: a Put, a
// Remove (tombstone), or a Noop.
type DocEntry struct {
	Timestamp     Timestamp
	Kind          EntryKind
	Doc           *document.Document // set for Put only
	DocId         document.Id        // set for Put and Remove
	size          uint32
	persistedSize uint32
}

// NewPutEntry constructs a Put entry for doc at timestamp t.
func NewPutEntry(t Timestamp, doc *document.Document) *DocEntry {
	size := doc.Size()
	return &DocEntry{
		Timestamp:     t,
		Kind:          Put,
		Doc:           doc,
		DocId:         doc.Id,
		size:          size,
		persistedSize: size,
	}
}

// NewRemoveEntry constructs a tombstone entry for id at timestamp t.
func NewRemoveEntry(t Timestamp, id document.Id) *DocEntry {
	size := uint32(len(id.String()))
	return &DocEntry{
		Timestamp:     t,
		Kind:          Remove,
		DocId:         id,
		size:          size,
		persistedSize: size,
	}
}

// IsRemove reports whether this entry is a tombstone.
func (e *DocEntry) IsRemove() bool {
	return e.Kind == Remove
}

// Size returns the serialized byte size used for quota/accounting purposes.
func (e *DocEntry) Size() uint32 {
	return e.size
}

// PersistedSize returns the on-disk size this entry would occupy in a
// durable implementation. The in-memory store never diverges from Size,
// but the field is carried since a real provider's DocEntry wire shape
// distinguishes the two.
func (e *DocEntry) PersistedSize() uint32 {
	return e.persistedSize
}

// Equal reports whether two entries are identical for the purposes of the
// insert() idempotence check: same timestamp, kind, and document id, and
// (for Put) the same field content.
func (e *DocEntry) Equal(o *DocEntry) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.Timestamp != o.Timestamp || e.Kind != o.Kind || e.DocId != o.DocId {
		return false
	}
	if e.Kind != Put {
		return true
	}
	if len(e.Doc.Fields) != len(o.Doc.Fields) {
		return false
	}
	for k, v := range e.Doc.Fields {
		ov, ok := o.Doc.Fields[k]
		if !ok || fmt.Sprintf("%v", v) != fmt.Sprintf("%v", ov) {
			return false
		}
	}
	return true
}

func (e *DocEntry) String() string {
	switch e.Kind {
	case Put:
		return fmt.Sprintf("Put(ts=%d, id=%s, size=%d)", e.Timestamp, e.DocId, e.size)
	case Remove:
		return fmt.Sprintf("Remove(ts=%d, id=%s)", e.Timestamp, e.DocId)
	default:
		return fmt.Sprintf("Noop(ts=%d)", e.Timestamp)
	}
}

// BucketEntry pairs a DocEntry with the GID cached from its document
// identifier, avoiding recomputation of the digest on every comparison.
type BucketEntry struct {
	Entry *DocEntry
	Gid   document.GlobalId
}

// checksum is the CRC-32 (IEEE) over the entry's GID bytes followed by its
// big-endian 64 bit timestamp, the unit the bucket's rolling XOR checksum
// accumulates.
func (be BucketEntry) checksum() uint32 {
	var buf [20]byte
	copy(buf[:12], be.Gid[:])
	binary.BigEndian.PutUint64(buf[12:], uint64(be.Entry.Timestamp))
	return crc32.ChecksumIEEE(buf[:])
}
