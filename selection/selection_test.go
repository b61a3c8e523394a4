package selection

import (
	"testing"

	"github.com/appotry/vespa/document"
)

func TestParseEmptyMatchesEverything(t *testing.T) {
	node, err := Parse("", true)
	if err != nil {
		t.Fatalf("Parse(\"\"): %v", err)
	}
	if !node.MatchesId(document.NewId("id:ns:t::anything")) {
		t.Fatal("empty selection did not match an id")
	}
}

func TestParseIdEquals(t *testing.T) {
	node, err := Parse(`id == "id:ns:t::a"`, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !node.MatchesId(document.NewId("id:ns:t::a")) {
		t.Fatal("expected match for id:ns:t::a")
	}
	if node.MatchesId(document.NewId("id:ns:t::b")) {
		t.Fatal("unexpected match for id:ns:t::b")
	}
}

func TestParseFieldEquals(t *testing.T) {
	node, err := Parse(`title == "hello"`, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	doc := document.NewDocument("t", document.NewId("id:ns:t::a"))
	doc.Fields["title"] = "hello"
	if !node.MatchesDocument(doc) {
		t.Fatal("expected field match")
	}
	if node.MatchesId(document.NewId("id:ns:t::a")) {
		t.Fatal("a field-equals expression must not match a bare tombstone id")
	}
}

func TestParseUnparseableExpression(t *testing.T) {
	_, err := Parse("not a valid expression", true)
	if err == nil {
		t.Fatal("expected an error for an unparseable expression")
	}
	if _, ok := err.(*ErrUnparseable); !ok {
		t.Fatalf("err = %T, want *ErrUnparseable", err)
	}
}
