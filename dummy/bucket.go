package dummy

import "fmt"

// BucketSpace is the top-level namespace a bucket belongs to. Only the
// default space is served by this provider: listing operations return an
// empty list for any other space, cluster-state updates for it are ignored,
// and every bucket operation against it is a fatal invariant violation.
type BucketSpace uint8

const (
	// DefaultBucketSpace is the only space this provider actually serves.
	DefaultBucketSpace BucketSpace = iota
	// GlobalBucketSpace stands in for any other configured space; see
	// BucketSpace for how requests against it are answered.
	GlobalBucketSpace
)

func (s BucketSpace) String() string {
	if s == DefaultBucketSpace {
		return "default"
	}
	return "global"
}

// BucketId identifies a bucket within a space. Mirrors the real bucket-id
// factory's notion of a used-bit-width plus a raw numeric id, enough for
// split() to decide which target a document belongs to.
type BucketId struct {
	UsedBits uint8
	RawId    uint64
}

func (b BucketId) String() string {
	return fmt.Sprintf("BucketId(0x%x, bits=%d)", b.RawId, b.UsedBits)
}

// withBits returns a copy of the id reinterpreted with a different used-bit
// width, masking RawId accordingly. This is the operation split() uses to
// compare a document's natural bucket id against a target's id under the
// target's own bit width.
func (b BucketId) withBits(bits uint8) BucketId {
	if bits >= 64 {
		return BucketId{UsedBits: bits, RawId: b.RawId}
	}
	mask := (uint64(1) << bits) - 1
	return BucketId{UsedBits: bits, RawId: b.RawId & mask}
}

// Bucket is the (bucket-space, bucket-id) pair that keys the store.
type Bucket struct {
	Space BucketSpace
	Id    BucketId
}

func (b Bucket) String() string {
	return fmt.Sprintf("Bucket(space=%s, id=%s)", b.Space, b.Id)
}

// BucketIdFactory maps a document id to the bucket it naturally belongs in.
// The real factory derives this from a hash of the document id's location;
// this stand-in exposes the same shape (used by split/join) driven by the
// document's GlobalId, which is itself already a digest of the id.
type BucketIdFactory struct{}

// IdFor computes the natural bucket id for a document id's GlobalId digest,
// using its low 64 bits as the raw bucket id space.
func (BucketIdFactory) IdFor(gidLow64 uint64) BucketId {
	return BucketId{UsedBits: 64, RawId: gidLow64}
}

// ActiveState is the reported activity flag in BucketInfo's wire shape.
type ActiveState int

const (
	NotActive ActiveState = iota
	Active
)

// ReadyState is the reported readiness flag in BucketInfo's wire shape;
// this implementation is always Ready since there is no background
// indexing/merging to wait on.
type ReadyState int

const (
	NotReady ReadyState = iota
	Ready
)

// BucketChecksum is the running XOR checksum over a bucket's live Put
// entries, 0 reserved to mean "empty".
type BucketChecksum uint32

// BucketInfo is the aggregate, cached view of a bucket's contents.
type BucketInfo struct {
	Checksum      BucketChecksum
	DocumentCount uint32
	DocumentSize  uint32
	EntryCount    uint32
	UsedSize      uint32
	Ready         ReadyState
	Active        ActiveState
}

func (info BucketInfo) String() string {
	return fmt.Sprintf(
		"BucketInfo(checksum=%d, documentCount=%d, documentSize=%d, entryCount=%d, usedSize=%d, ready=%v, active=%v)",
		info.Checksum, info.DocumentCount, info.DocumentSize, info.EntryCount, info.UsedSize,
		info.Ready == Ready, info.Active == Active)
}
