package dummy

import (
	"testing"

	"golang.org/x/net/context"

	"github.com/appotry/vespa/clusterstate"
	"github.com/appotry/vespa/document"
)

func newTestProvider(t *testing.T) *DummyPersistence {
	t.Helper()
	p := NewDummyPersistence(nil)
	if r := p.Initialize(); r.HasError() {
		t.Fatalf("Initialize: %v", r)
	}
	return p
}

func testBucket(rawId uint64) Bucket {
	return Bucket{Space: DefaultBucketSpace, Id: BucketId{UsedBits: 58, RawId: rawId}}
}

func docA() *document.Document {
	doc := document.NewDocument("t", document.NewId("id:ns:t::a"))
	doc.Fields["f"] = "v"
	return doc
}

// TestScenarioS1ThroughS4 walks spec scenarios S1-S4 against the same
// bucket, literally.
func TestScenarioS1ThroughS4(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	b := testBucket(0x400000000000001)

	if r := p.CreateBucket(b, ctx); r.HasError() {
		t.Fatalf("CreateBucket: %v", r)
	}

	// S1
	doc := docA()
	if r := p.Put(b, 100, doc, ctx); r.HasError() {
		t.Fatalf("Put: %v", r)
	}
	info := p.GetBucketInfo(b, ctx)
	if info.HasError() {
		t.Fatalf("GetBucketInfo: %v", info.Result)
	}
	if info.Info.Checksum == 0 {
		t.Fatal("S1: checksum == 0, want nonzero")
	}
	if info.Info.DocumentCount != 1 || info.Info.EntryCount != 1 {
		t.Fatalf("S1: got documentCount=%d entryCount=%d, want 1,1", info.Info.DocumentCount, info.Info.EntryCount)
	}
	if info.Info.UsedSize != doc.Size() {
		t.Fatalf("S1: usedSize=%d, want %d", info.Info.UsedSize, doc.Size())
	}
	if info.Info.Active != NotActive {
		t.Fatal("S1: expected active=false for a freshly created bucket")
	}

	// S2
	if r := p.Put(b, 200, doc, ctx); r.HasError() {
		t.Fatalf("Put t=200: %v", r)
	}
	info = p.GetBucketInfo(b, ctx)
	if info.Info.DocumentCount != 1 || info.Info.EntryCount != 2 {
		t.Fatalf("S2: got documentCount=%d entryCount=%d, want 1,2", info.Info.DocumentCount, info.Info.EntryCount)
	}
	getResult := p.Get(b, document.AllFields(), doc.Id, ctx)
	if !getResult.Found || getResult.Tombstone || getResult.Timestamp != 200 {
		t.Fatalf("S2: get = %+v, want found at t=200", getResult)
	}

	// S3
	removeResult := p.Remove(b, 300, doc.Id, ctx)
	if removeResult.HasError() || !removeResult.FoundPut {
		t.Fatalf("S3: Remove = %+v, want FoundPut=true", removeResult)
	}
	getResult = p.Get(b, document.AllFields(), doc.Id, ctx)
	if !getResult.Found || !getResult.Tombstone || getResult.Timestamp != 300 {
		t.Fatalf("S3: get = %+v, want tombstone at t=300", getResult)
	}
	info = p.GetBucketInfo(b, ctx)
	if info.Info.DocumentCount != 0 || info.Info.EntryCount != 3 {
		t.Fatalf("S3: got documentCount=%d entryCount=%d, want 0,3", info.Info.DocumentCount, info.Info.EntryCount)
	}

	// S4
	if r := p.Revert(b, 300, ctx); r.HasError() {
		t.Fatalf("Revert: %v", r)
	}
	getResult = p.Get(b, document.AllFields(), doc.Id, ctx)
	if !getResult.Found || getResult.Tombstone || getResult.Timestamp != 200 {
		t.Fatalf("S4: get = %+v, want found at t=200", getResult)
	}
	info = p.GetBucketInfo(b, ctx)
	if info.Info.DocumentCount != 1 || info.Info.EntryCount != 2 {
		t.Fatalf("S4: got documentCount=%d entryCount=%d, want 1,2", info.Info.DocumentCount, info.Info.EntryCount)
	}
}

// TestScenarioS5Split covers split() partitioning entries by natural bucket
// id and removing the source bucket.
func TestScenarioS5Split(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	source := testBucket(0)

	if r := p.CreateBucket(source, ctx); r.HasError() {
		t.Fatalf("CreateBucket(source): %v", r)
	}

	docs := []*document.Document{
		document.NewDocument("t", document.NewId("id:ns:t::one")),
		document.NewDocument("t", document.NewId("id:ns:t::two")),
		document.NewDocument("t", document.NewId("id:ns:t::three")),
	}
	for i, d := range docs {
		if r := p.Put(source, Timestamp(100+i), d, ctx); r.HasError() {
			t.Fatalf("Put(%s): %v", d.Id, r)
		}
	}

	var factory BucketIdFactory
	target1Id := factory.IdFor(lowBits(document.GID(docs[0].Id))).withBits(1)
	target2Id := target1Id
	target2Id.RawId ^= 1

	target1 := Bucket{Space: DefaultBucketSpace, Id: target1Id}
	target2 := Bucket{Space: DefaultBucketSpace, Id: target2Id}

	if r := p.Split(source, target1, target2, ctx); r.HasError() {
		t.Fatalf("Split: %v", r)
	}

	list := p.ListBuckets(DefaultBucketSpace, ctx)
	if list.HasError() {
		t.Fatalf("ListBuckets: %v", list.Result)
	}
	seen := map[BucketId]bool{}
	for _, id := range list.List {
		seen[id] = true
	}
	if !seen[target1.Id] || !seen[target2.Id] {
		t.Fatalf("ListBuckets = %v, want both targets present", list.List)
	}
	if seen[source.Id] {
		t.Fatal("source bucket still present after split")
	}

	total := p.GetBucketInfo(target1, ctx).Info.EntryCount + p.GetBucketInfo(target2, ctx).Info.EntryCount
	if total != 3 {
		t.Fatalf("sum of entry counts across targets = %d, want 3", total)
	}
}

// TestScenarioS6IterateOneAtATime covers iteration with max_bytes=1,
// exercising the forward-progress guarantee and newest-first ordering.
func TestScenarioS6IterateOneAtATime(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	b := testBucket(1)
	if r := p.CreateBucket(b, ctx); r.HasError() {
		t.Fatalf("CreateBucket: %v", r)
	}

	for i := 0; i < 3; i++ {
		doc := document.NewDocument("t", document.NewId(string(rune('a'+i))+":id"))
		if r := p.Put(b, Timestamp(100+i*10), doc, ctx); r.HasError() {
			t.Fatalf("Put %d: %v", i, r)
		}
	}

	created := p.CreateIterator(b, document.AllFields(), AllTimeSelection(), AllVersions, ctx)
	if created.HasError() {
		t.Fatalf("CreateIterator: %v", created.Result)
	}

	var gotTimestamps []Timestamp
	for {
		res := p.Iterate(created.Id, 1, ctx)
		if res.HasError() {
			t.Fatalf("Iterate: %v", res.Result)
		}
		if len(res.Entries) != 1 {
			t.Fatalf("Iterate with max_bytes=1 returned %d entries, want exactly 1", len(res.Entries))
		}
		gotTimestamps = append(gotTimestamps, res.Entries[0].Timestamp)
		if res.Completed {
			break
		}
	}

	if len(gotTimestamps) != 3 {
		t.Fatalf("got %d total entries across calls, want 3", len(gotTimestamps))
	}
	for i := 1; i < len(gotTimestamps); i++ {
		if gotTimestamps[i] >= gotTimestamps[i-1] {
			t.Fatalf("timestamps not strictly descending: %v", gotTimestamps)
		}
	}

	if r := p.DestroyIterator(created.Id, ctx); r.HasError() {
		t.Fatalf("DestroyIterator: %v", r)
	}
	// Idempotent: destroying an already-unknown iterator succeeds.
	if r := p.DestroyIterator(created.Id, ctx); r.HasError() {
		t.Fatalf("DestroyIterator (second time): %v", r)
	}
}

func TestDestroyIteratorUnknownIdIsSuccess(t *testing.T) {
	p := newTestProvider(t)
	if r := p.DestroyIterator(IteratorId(9999), context.Background()); r.HasError() {
		t.Fatalf("DestroyIterator(unknown): %v", r)
	}
}

func TestListBucketsOnNonDefaultSpaceIsEmpty(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	b := testBucket(1)
	if r := p.CreateBucket(b, ctx); r.HasError() {
		t.Fatalf("CreateBucket: %v", r)
	}
	list := p.ListBuckets(GlobalBucketSpace, ctx)
	if list.HasError() {
		t.Fatalf("ListBuckets: %v", list.Result)
	}
	if len(list.List) != 0 {
		t.Fatalf("ListBuckets(non-default) = %v, want empty", list.List)
	}
}

func TestSetClusterStateDownDeactivatesAllBuckets(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	b1 := testBucket(1)
	b2 := testBucket(2)
	if r := p.CreateBucket(b1, ctx); r.HasError() {
		t.Fatalf("CreateBucket(b1): %v", r)
	}
	if r := p.CreateBucket(b2, ctx); r.HasError() {
		t.Fatalf("CreateBucket(b2): %v", r)
	}
	if r := p.SetActiveState(b1, Active, ctx); r.HasError() {
		t.Fatalf("SetActiveState(b1): %v", r)
	}
	if r := p.SetActiveState(b2, Active, ctx); r.HasError() {
		t.Fatalf("SetActiveState(b2): %v", r)
	}

	cs, err := clusterstate.Parse("version:1 cluster:u .0.s:d")
	if err != nil {
		t.Fatalf("clusterstate.Parse: %v", err)
	}
	if r := p.SetClusterState(DefaultBucketSpace, 0, cs); r.HasError() {
		t.Fatalf("SetClusterState: %v", r)
	}

	if p.IsActive(b1) {
		t.Fatal("b1 still active after node marked down")
	}
	if p.IsActive(b2) {
		t.Fatal("b2 still active after node marked down")
	}
}

func TestPutTimestampExistsForDifferentDocument(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	b := testBucket(1)
	if r := p.CreateBucket(b, ctx); r.HasError() {
		t.Fatalf("CreateBucket: %v", r)
	}
	d1 := document.NewDocument("t", document.NewId("id:ns:t::a"))
	d2 := document.NewDocument("t", document.NewId("id:ns:t::b"))
	if r := p.Put(b, 100, d1, ctx); r.HasError() {
		t.Fatalf("Put d1: %v", r)
	}
	r := p.Put(b, 100, d2, ctx)
	if r.ErrorType != TimestampExistsError {
		t.Fatalf("Put d2 at same timestamp = %v, want TimestampExists", r)
	}
}

func TestPutSameDocumentSameTimestampIsNoop(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	b := testBucket(1)
	if r := p.CreateBucket(b, ctx); r.HasError() {
		t.Fatalf("CreateBucket: %v", r)
	}
	d := document.NewDocument("t", document.NewId("id:ns:t::a"))
	if r := p.Put(b, 100, d, ctx); r.HasError() {
		t.Fatalf("Put (1st): %v", r)
	}
	if r := p.Put(b, 100, d, ctx); r.HasError() {
		t.Fatalf("Put (2nd, same doc/ts): %v", r)
	}
}

func TestUpdateCreateIfNonExistent(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	b := testBucket(1)
	if r := p.CreateBucket(b, ctx); r.HasError() {
		t.Fatalf("CreateBucket: %v", r)
	}

	upd := &document.Update{
		DocId:               document.NewId("id:ns:t::new"),
		DocType:             "t",
		CreateIfNonExistent: true,
		FieldUpdates:        map[string]interface{}{"f": "created"},
	}
	res := p.Update(b, 100, upd, ctx)
	if res.HasError() {
		t.Fatalf("Update: %v", res.Result)
	}
	if res.PreviousTimestamp != 100 {
		t.Fatalf("PreviousTimestamp = %d, want 100 (the new write's own timestamp)", res.PreviousTimestamp)
	}

	getResult := p.Get(b, document.AllFields(), upd.DocId, ctx)
	if !getResult.Found || getResult.Doc.Fields["f"] != "created" {
		t.Fatalf("get after create-on-update = %+v, want field f=created", getResult)
	}
}

func TestUpdateWithoutCreateIfNonExistentIsNoopWithZeroSentinel(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	b := testBucket(1)
	if r := p.CreateBucket(b, ctx); r.HasError() {
		t.Fatalf("CreateBucket: %v", r)
	}

	upd := &document.Update{
		DocId:        document.NewId("id:ns:t::missing"),
		DocType:      "t",
		FieldUpdates: map[string]interface{}{"f": "x"},
	}
	res := p.Update(b, 100, upd, ctx)
	if res.HasError() {
		t.Fatalf("Update: %v", res.Result)
	}
	if res.PreviousTimestamp != 0 {
		t.Fatalf("PreviousTimestamp = %d, want 0 sentinel", res.PreviousTimestamp)
	}
	if getResult := p.Get(b, document.AllFields(), upd.DocId, ctx); getResult.Found {
		t.Fatalf("get after no-op update = %+v, want not found", getResult)
	}
}

func TestDeleteBucketOfMissingBucketIsSuccess(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	b := testBucket(42)
	if r := p.DeleteBucket(b, ctx); r.HasError() {
		t.Fatalf("DeleteBucket(never created): %v", r)
	}
}

func TestOperationBeforeInitializeIsTransientError(t *testing.T) {
	p := NewDummyPersistence(nil)
	ctx := context.Background()
	r := p.CreateBucket(testBucket(1), ctx)
	if r.ErrorType != TransientError {
		t.Fatalf("CreateBucket before Initialize = %v, want TransientError", r)
	}
}

func TestGetOnMissingBucketIsBucketNotFound(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	getResult := p.Get(testBucket(777), document.AllFields(), document.NewId("id:ns:t::a"), ctx)
	if getResult.ErrorType != TransientError {
		t.Fatalf("Get on missing bucket = %v, want TransientError (bucket not found)", getResult.Result)
	}
}

func TestGatherStatsCountsBucketsAndEntries(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	b := testBucket(1)
	if r := p.CreateBucket(b, ctx); r.HasError() {
		t.Fatalf("CreateBucket: %v", r)
	}
	if r := p.Put(b, 100, docA(), ctx); r.HasError() {
		t.Fatalf("Put: %v", r)
	}

	stats := p.GatherStats(true)
	if stats.BucketCount != 1 {
		t.Fatalf("BucketCount = %d, want 1", stats.BucketCount)
	}
	if stats.EntryCount != 1 || stats.DocumentCount != 1 {
		t.Fatalf("stats = %+v, want EntryCount=1 DocumentCount=1", stats)
	}
	if stats.String() == "" {
		t.Fatal("String() returned empty output")
	}
}

// TestJoinMergesEntriesAndOrsActivity covers join(): entries from both
// sources land in the target, the sources are gone afterward, and the
// target's activity flag is the OR of the two sources' flags.
func TestJoinMergesEntriesAndOrsActivity(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	source1 := testBucket(1)
	source2 := testBucket(2)
	target := testBucket(3)

	if r := p.CreateBucket(source1, ctx); r.HasError() {
		t.Fatalf("CreateBucket(source1): %v", r)
	}
	if r := p.CreateBucket(source2, ctx); r.HasError() {
		t.Fatalf("CreateBucket(source2): %v", r)
	}

	d1 := document.NewDocument("t", document.NewId("id:ns:t::one"))
	d2 := document.NewDocument("t", document.NewId("id:ns:t::two"))
	if r := p.Put(source1, 100, d1, ctx); r.HasError() {
		t.Fatalf("Put(source1): %v", r)
	}
	if r := p.Put(source2, 200, d2, ctx); r.HasError() {
		t.Fatalf("Put(source2): %v", r)
	}
	if r := p.SetActiveState(source1, NotActive, ctx); r.HasError() {
		t.Fatalf("SetActiveState(source1): %v", r)
	}
	if r := p.SetActiveState(source2, Active, ctx); r.HasError() {
		t.Fatalf("SetActiveState(source2): %v", r)
	}

	if r := p.Join(source1, source2, target, ctx); r.HasError() {
		t.Fatalf("Join: %v", r)
	}

	info := p.GetBucketInfo(target, ctx)
	if info.HasError() {
		t.Fatalf("GetBucketInfo(target): %v", info.Result)
	}
	if info.Info.EntryCount != 2 {
		t.Fatalf("target EntryCount = %d, want 2", info.Info.EntryCount)
	}
	if info.Info.Active != Active {
		t.Fatal("target should be active: source2 was active and join ORs the flags")
	}

	list := p.ListBuckets(DefaultBucketSpace, ctx)
	for _, id := range list.List {
		if id == source1.Id || id == source2.Id {
			t.Fatalf("source bucket %v still present after join", id)
		}
	}
}

// TestCreateIteratorNewestDocumentOnlyExcludesTombstonesAndOldVersions
// covers the NewestDocumentOnly branch of IncludedVersions.
func TestCreateIteratorNewestDocumentOnlyExcludesTombstonesAndOldVersions(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	b := testBucket(1)
	if r := p.CreateBucket(b, ctx); r.HasError() {
		t.Fatalf("CreateBucket: %v", r)
	}

	doc := document.NewDocument("t", document.NewId("id:ns:t::a"))
	if r := p.Put(b, 100, doc, ctx); r.HasError() {
		t.Fatalf("Put t=100: %v", r)
	}
	if r := p.Put(b, 200, doc, ctx); r.HasError() {
		t.Fatalf("Put t=200: %v", r)
	}
	if res := p.Remove(b, 300, document.NewId("id:ns:t::b"), ctx); res.HasError() {
		t.Fatalf("Remove: %v", res.Result)
	}

	created := p.CreateIterator(b, document.AllFields(), AllTimeSelection(), NewestDocumentOnly, ctx)
	if created.HasError() {
		t.Fatalf("CreateIterator: %v", created.Result)
	}
	res := p.Iterate(created.Id, 1<<20, ctx)
	if res.HasError() {
		t.Fatalf("Iterate: %v", res.Result)
	}
	if !res.Completed {
		t.Fatal("expected iteration to complete in one call")
	}
	if len(res.Entries) != 1 {
		t.Fatalf("NewestDocumentOnly returned %d entries, want exactly 1 (the t=200 put)", len(res.Entries))
	}
	if res.Entries[0].Timestamp != 200 || res.Entries[0].IsRemove() {
		t.Fatalf("got entry %v, want the newest live put at t=200", res.Entries[0])
	}
}

// TestCreateIteratorNewestDocumentOrRemove covers the
// NewestDocumentOrRemove branch: tombstones always pass, but an older Put
// for a GID that has a newer version does not.
func TestCreateIteratorNewestDocumentOrRemove(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	b := testBucket(1)
	if r := p.CreateBucket(b, ctx); r.HasError() {
		t.Fatalf("CreateBucket: %v", r)
	}

	doc := document.NewDocument("t", document.NewId("id:ns:t::a"))
	if r := p.Put(b, 100, doc, ctx); r.HasError() {
		t.Fatalf("Put t=100: %v", r)
	}
	if r := p.Put(b, 200, doc, ctx); r.HasError() {
		t.Fatalf("Put t=200: %v", r)
	}
	if res := p.Remove(b, 300, document.NewId("id:ns:t::b"), ctx); res.HasError() {
		t.Fatalf("Remove: %v", res.Result)
	}

	created := p.CreateIterator(b, document.AllFields(), AllTimeSelection(), NewestDocumentOrRemove, ctx)
	if created.HasError() {
		t.Fatalf("CreateIterator: %v", created.Result)
	}
	res := p.Iterate(created.Id, 1<<20, ctx)
	if res.HasError() {
		t.Fatalf("Iterate: %v", res.Result)
	}
	if !res.Completed {
		t.Fatal("expected iteration to complete in one call")
	}
	if len(res.Entries) != 2 {
		t.Fatalf("NewestDocumentOrRemove returned %d entries, want exactly 2 (newest put + tombstone)", len(res.Entries))
	}
	sawPut, sawTombstone := false, false
	for _, e := range res.Entries {
		switch e.Timestamp {
		case 200:
			sawPut = !e.IsRemove()
		case 300:
			sawTombstone = e.IsRemove()
		case 100:
			t.Fatalf("old superseded put at t=100 should have been excluded, got %v", e)
		}
	}
	if !sawPut || !sawTombstone {
		t.Fatalf("expected both the newest put (t=200) and the tombstone (t=300), got %+v", res.Entries)
	}
}
