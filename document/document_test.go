package document

import "testing"

func TestGIDIsStableForSameId(t *testing.T) {
	id := NewId("id:ns:music::a")
	if GID(id) != GID(id) {
		t.Fatal("GID is not stable across calls for the same id")
	}
}

func TestGIDDiffersForDifferentIds(t *testing.T) {
	a := GID(NewId("id:ns:music::a"))
	b := GID(NewId("id:ns:music::b"))
	if a == b {
		t.Fatal("GID collided for two different ids")
	}
}

func TestDocumentCloneIsIndependent(t *testing.T) {
	doc := NewDocument("music", NewId("id:ns:music::a"))
	doc.Fields["title"] = "original"

	clone := doc.Clone()
	clone.Fields["title"] = "changed"

	if doc.Fields["title"] != "original" {
		t.Fatalf("mutating the clone affected the original: %v", doc.Fields["title"])
	}
}

func TestFieldSetProjectAllFieldsIsNoop(t *testing.T) {
	doc := NewDocument("music", NewId("id:ns:music::a"))
	doc.Fields["title"] = "x"
	projected := AllFields().Project(doc)
	if projected != doc {
		t.Fatal("AllFields().Project should return the same document, not a copy")
	}
}

func TestFieldSetProjectSubsetStripsFields(t *testing.T) {
	doc := NewDocument("music", NewId("id:ns:music::a"))
	doc.Fields["title"] = "x"
	doc.Fields["artist"] = "y"

	projected := NewFieldSet("title").Project(doc)
	if _, ok := projected.Fields["artist"]; ok {
		t.Fatal("artist field survived projection to {title}")
	}
	if projected.Fields["title"] != "x" {
		t.Fatalf("title field = %v, want x", projected.Fields["title"])
	}
}

func TestUpdateApplyToMergesFields(t *testing.T) {
	doc := NewDocument("music", NewId("id:ns:music::a"))
	doc.Fields["title"] = "old"
	upd := &Update{FieldUpdates: map[string]interface{}{"title": "new", "artist": "z"}}
	upd.ApplyTo(doc)
	if doc.Fields["title"] != "new" || doc.Fields["artist"] != "z" {
		t.Fatalf("ApplyTo did not merge correctly: %+v", doc.Fields)
	}
}
