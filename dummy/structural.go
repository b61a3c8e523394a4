package dummy

import (
	"encoding/binary"

	"golang.org/x/net/context"

	"github.com/appotry/vespa/document"
)

// Split partitions source's entries between target1 and target2 according
// to each document's natural bucket id under target1's bit width, then
// deletes source. Both targets inherit source's activity flag.
func (p *DummyPersistence) Split(source, target1, target2 Bucket, ctx context.Context) Result {
	if r := p.requireInitialized(); r.HasError() {
		return r
	}
	assertDefaultSpace(source)
	assertDefaultSpace(target1)
	assertDefaultSpace(target2)

	p.store.CreateBucket(source)
	p.store.CreateBucket(target1)
	p.store.CreateBucket(target2)

	sourceGuard := p.store.Acquire(source, Exclusive)
	if sourceGuard.Content == nil {
		sourceGuard.Release()
		return BucketNotFound()
	}
	target1Guard := p.store.Acquire(target1, Exclusive)
	target2Guard := p.store.Acquire(target2, Exclusive)
	defer target1Guard.Release()
	defer target2Guard.Release()

	var factory BucketIdFactory
	for _, be := range sourceGuard.Content.Entries() {
		dest := factory.IdFor(lowBits(be.Gid)).withBits(target1.Id.UsedBits)
		if dest == target1.Id {
			target1Guard.Content.Insert(be.Entry)
		} else {
			target2Guard.Content.Insert(be.Entry)
		}
	}
	active := sourceGuard.Content.IsActive()
	target1Guard.Content.SetActive(active)
	target2Guard.Content.SetActive(active)

	sourceGuard.Release()
	p.store.DeleteBucket(source)
	return Ok
}

// Join moves every entry from source1 and source2 (whichever exist) into
// target, ORs their activity flags together into target's, and deletes the
// sources.
func (p *DummyPersistence) Join(source1, source2, target Bucket, ctx context.Context) Result {
	if r := p.requireInitialized(); r.HasError() {
		return r
	}
	assertDefaultSpace(source1)
	assertDefaultSpace(source2)
	assertDefaultSpace(target)

	p.store.CreateBucket(target)
	targetGuard := p.store.Acquire(target, Exclusive)
	defer targetGuard.Release()

	active := false
	for _, source := range []Bucket{source1, source2} {
		sourceGuard := p.store.Acquire(source, Exclusive)
		if sourceGuard.Content == nil {
			continue
		}
		active = active || sourceGuard.Content.IsActive()
		for _, be := range sourceGuard.Content.Entries() {
			targetGuard.Content.Insert(be.Entry)
		}
		sourceGuard.Release()
		p.store.DeleteBucket(source)
	}
	targetGuard.Content.SetActive(active)
	return Ok
}

// lowBits extracts the low 64 bits of a GlobalId as the raw value the
// bucket-id factory hashes on, mirroring how the real factory derives a
// bucket id from a location-bearing digest of the document id.
func lowBits(g document.GlobalId) uint64 {
	return binary.BigEndian.Uint64(g[4:12])
}
