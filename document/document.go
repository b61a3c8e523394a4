// Package document provides the minimal document object model the dummy
// storage provider consumes: identifiers, global identifiers, documents,
// field sets and updates. The real document model (selection grammar,
// serialization, schema validation) lives outside this repository; this
// package carries only what the storage core needs to compile and behave
// correctly against it.
package document

import (
	"fmt"

	"github.com/spaolacci/murmur3"
)

// Id is a document identifier in the usual "id:namespace:type::userspecified"
// shape. Only the raw string form is modeled; namespace/type are not parsed
// out since the core never needs them structurally.
type Id struct {
	raw string
}

// NewId wraps a raw identifier string.
func NewId(raw string) Id {
	return Id{raw: raw}
}

func (id Id) String() string {
	return id.raw
}

// Empty reports whether this Id was never assigned a value.
func (id Id) Empty() bool {
	return id.raw == ""
}

// GlobalId is a fixed-width digest derived from a document Id. Two documents
// with the same Id produce the same GlobalId; as a Go array type it is
// directly usable as a map key with correct equality and hashing.
type GlobalId [12]byte

func (g GlobalId) String() string {
	return fmt.Sprintf("%x", [12]byte(g))
}

// GID computes the GlobalId for a document identifier via a 128 bit murmur3
// digest of its string form, truncated to 96 bits.
func GID(id Id) GlobalId {
	hi, lo := murmur3.Sum128([]byte(id.String()))
	var g GlobalId
	g[0] = byte(hi >> 56)
	g[1] = byte(hi >> 48)
	g[2] = byte(hi >> 40)
	g[3] = byte(hi >> 32)
	g[4] = byte(hi >> 24)
	g[5] = byte(hi >> 16)
	g[6] = byte(hi >> 8)
	g[7] = byte(hi)
	g[8] = byte(lo >> 24)
	g[9] = byte(lo >> 16)
	g[10] = byte(lo >> 8)
	g[11] = byte(lo)
	return g
}

// Document is a stored object: an identifier plus a flat field bag. Field
// values are left as interface{} since this package does not model a real
// schema.
type Document struct {
	Id     Id
	Type   string
	Fields map[string]interface{}
}

// NewDocument creates a document with an empty field set.
func NewDocument(typ string, id Id) *Document {
	return &Document{Id: id, Type: typ, Fields: make(map[string]interface{})}
}

// Clone returns a deep-enough copy for the store's defensive-copy semantics:
// a new Document and a new Fields map, but field values themselves are not
// deep-copied (they are treated as immutable once set, same assumption the
// teacher stack makes about stored []byte values).
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	fields := make(map[string]interface{}, len(d.Fields))
	for k, v := range d.Fields {
		fields[k] = v
	}
	return &Document{Id: d.Id, Type: d.Type, Fields: fields}
}

// Size estimates the serialized byte size of the document: sum of the id
// string length, the type name length, and a rough per-field accounting. This is a stand-in for
// the real wire-format size calculation the document library would provide.
func (d *Document) Size() uint32 {
	if d == nil {
		return 0
	}
	size := uint32(len(d.Id.String())) + uint32(len(d.Type))
	for k, v := range d.Fields {
		size += uint32(len(k))
		size += fieldSize(v)
	}
	return size
}

func fieldSize(v interface{}) uint32 {
	switch val := v.(type) {
	case string:
		return uint32(len(val))
	case []byte:
		return uint32(len(val))
	default:
		return uint32(len(fmt.Sprintf("%v", val)))
	}
}

// FieldSetType distinguishes the "all fields" sentinel from a named subset.
type FieldSetType int

const (
	// FieldSetAll selects every field; Project is a no-op.
	FieldSetAll FieldSetType = iota
	// FieldSetSubset selects only the named fields.
	FieldSetSubset
)

// FieldSet names which fields of a document should survive a projection, as
// used by get() and iterate().
type FieldSet struct {
	kind   FieldSetType
	fields map[string]struct{}
}

// AllFields returns the sentinel field set that selects every field.
func AllFields() FieldSet {
	return FieldSet{kind: FieldSetAll}
}

// NewFieldSet returns a field set restricted to the named fields.
func NewFieldSet(names ...string) FieldSet {
	fields := make(map[string]struct{}, len(names))
	for _, n := range names {
		fields[n] = struct{}{}
	}
	return FieldSet{kind: FieldSetSubset, fields: fields}
}

// Type reports whether this is the "all fields" sentinel or a named subset.
func (fs FieldSet) Type() FieldSetType {
	return fs.kind
}

// Project returns a copy of doc with only the fields named in fs; if fs
// selects all fields, doc is returned as-is (no copy, matching the teacher's
// "use entry as-is" fast path for fields.ALL in iterate()).
func (fs FieldSet) Project(doc *Document) *Document {
	if doc == nil || fs.kind == FieldSetAll {
		return doc
	}
	out := NewDocument(doc.Type, doc.Id)
	for k, v := range doc.Fields {
		if _, ok := fs.fields[k]; ok {
			out.Fields[k] = v
		}
	}
	return out
}

// Update describes a partial modification to a document, applied by the
// storage provider's update() operation.
type Update struct {
	DocId               Id
	DocType             string
	CreateIfNonExistent bool
	FieldUpdates        map[string]interface{}
}

// ApplyTo merges the update's field values into doc.
func (u *Update) ApplyTo(doc *Document) {
	if doc == nil {
		return
	}
	for k, v := range u.FieldUpdates {
		doc.Fields[k] = v
	}
}
