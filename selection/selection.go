// Package selection implements the small leaf-expression subset of the
// document selection language that the dummy storage provider's
// createIterator operation needs. The full grammar (boolean composition,
// arithmetic, field comparisons) is an external collaborator out of scope
// for this repository; this package exists only so that createIterator has
// something real to invoke instead of a stub.
package selection

import (
	"fmt"
	"strings"

	"github.com/appotry/vespa/document"
)

// Node is a parsed selection expression. It can be evaluated against a
// document (for Put entries) or against a bare document id (for tombstones),
// matching how the original implementation calls contains() with either a
// Document or a DocumentId.
type Node interface {
	// MatchesDocument reports whether doc satisfies the expression.
	MatchesDocument(doc *document.Document) bool
	// MatchesId reports whether a tombstoned document id satisfies the
	// expression. Most leaf forms that inspect fields cannot match a bare id
	// and conservatively return false, same as the original's
	// contains(DocumentId) overload for non-id-only selections.
	MatchesId(id document.Id) bool
	// IsLeaf reports whether this node is a single leaf term (as opposed to
	// a boolean composition). createIterator only ever builds leaf nodes
	// today since that is all this subset parses, but the flag is kept to
	// mirror the original's isLeafNode()/allowLeaf contract.
	IsLeaf() bool
}

// allNode matches every document and every id; it is what an empty selection
// string parses to.
type allNode struct{}

func (allNode) MatchesDocument(*document.Document) bool { return true }
func (allNode) MatchesId(document.Id) bool               { return true }
func (allNode) IsLeaf() bool                             { return true }

// idEqualsNode matches documents (and ids) whose id string equals a literal.
type idEqualsNode struct {
	want string
}

func (n idEqualsNode) MatchesDocument(doc *document.Document) bool {
	if doc == nil {
		return false
	}
	return doc.Id.String() == n.want
}

func (n idEqualsNode) MatchesId(id document.Id) bool {
	return id.String() == n.want
}

func (idEqualsNode) IsLeaf() bool { return true }

// fieldEqualsNode matches Put documents that carry the named field with the
// given string value. It cannot match a bare tombstone id.
type fieldEqualsNode struct {
	field string
	want  string
}

func (n fieldEqualsNode) MatchesDocument(doc *document.Document) bool {
	if doc == nil {
		return false
	}
	v, ok := doc.Fields[n.field]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s == n.want
}

func (fieldEqualsNode) MatchesId(document.Id) bool { return false }
func (fieldEqualsNode) IsLeaf() bool               { return true }

// ErrUnparseable is returned by Parse for any expression outside the
// supported leaf subset.
type ErrUnparseable struct {
	Expr string
}

func (e *ErrUnparseable) Error() string {
	return fmt.Sprintf("unparseable document selection: %q", e.Expr)
}

// Parse parses a leaf selection expression. Supported forms:
//
//	""                         -> matches everything
//	id == "<literal>"          -> matches a specific document id
//	<field> == "<literal>"     -> matches documents carrying that field value
//
// allowLeaf mirrors the original's allowLeaf parameter: createIterator
// passes true (leaf selections are fine for iteration), while a stricter
// caller elsewhere in a full implementation would pass false and reject
// leaf-only expressions.
func Parse(expr string, allowLeaf bool) (Node, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return allNode{}, nil
	}
	idx := strings.Index(trimmed, "==")
	if idx < 0 {
		return nil, &ErrUnparseable{Expr: expr}
	}
	lhs := strings.TrimSpace(trimmed[:idx])
	rhs := strings.TrimSpace(trimmed[idx+2:])
	rhs = strings.Trim(rhs, `"`)
	if lhs == "" || rhs == "" {
		return nil, &ErrUnparseable{Expr: expr}
	}
	var node Node
	if lhs == "id" {
		node = idEqualsNode{want: rhs}
	} else {
		node = fieldEqualsNode{field: lhs, want: rhs}
	}
	if node.IsLeaf() && !allowLeaf {
		return nil, &ErrUnparseable{Expr: expr}
	}
	return node, nil
}
