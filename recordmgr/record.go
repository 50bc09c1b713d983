package recordmgr

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/arvinmehra/pagedb/rmerrors"
	"github.com/arvinmehra/pagedb/storage"
)

// RID identifies one record slot within a table: the page it lives on
// and its slot index within that page's slot array.
type RID struct {
	Page storage.PageID
	Slot int
}

// InvalidRID is the sentinel RID meaning "no record": the ID of a
// Record that has not been inserted into any table yet.
var InvalidRID = RID{Page: 0xFFFFFFFF, Slot: -1}

// IsValid reports whether r names an actual slot.
func (r RID) IsValid() bool { return r != InvalidRID }

// Record is an in-memory, schema-bound fixed-width byte buffer plus the
// RID it occupies once inserted. GetAttr and SetAttr decode/encode
// individual attributes in place.
type Record struct {
	ID     RID
	schema *Schema
	buf    []byte
}

// NewRecord allocates a zeroed record for schema, with ID set to
// InvalidRID until the record is inserted.
func NewRecord(schema *Schema) *Record {
	return &Record{ID: InvalidRID, schema: schema, buf: make([]byte, schema.RecordSize())}
}

// recordFromBytes wraps an existing schema.RecordSize()-length buffer
// as a Record without copying.
func recordFromBytes(schema *Schema, id RID, buf []byte) *Record {
	return &Record{ID: id, schema: schema, buf: buf}
}

// Bytes returns the record's encoded fixed-width buffer.
func (r *Record) Bytes() []byte { return r.buf }

// GetAttr decodes attribute i into a Value.
func (r *Record) GetAttr(i int) (Value, error) {
	if i < 0 || i >= r.schema.NumAttrs() {
		return Value{}, errors.Wrapf(rmerrors.ErrInvalidAttribute, "index %d", i)
	}
	a := r.schema.Attr(i)
	off := r.schema.AttrOffset(i)
	w := r.schema.AttrWidth(i)
	field := r.buf[off : off+w]
	switch a.DT {
	case TypeInt:
		return NewInt(int32(binary.LittleEndian.Uint32(field))), nil
	case TypeFloat:
		bits := binary.LittleEndian.Uint32(field)
		return NewFloat(math.Float32frombits(bits)), nil
	case TypeBool:
		return NewBool(field[0] != 0), nil
	case TypeString:
		cp := make([]byte, w+1)
		copy(cp, field)
		return Value{DT: TypeString, Str: cp}, nil
	default:
		return Value{}, errors.Wrapf(rmerrors.ErrInvalidAttribute, "unknown type for index %d", i)
	}
}

// SetAttr encodes v into attribute i. A string value longer than the
// attribute's fixed width is silently truncated; a shorter one is
// NUL-padded.
func (r *Record) SetAttr(i int, v Value) error {
	if i < 0 || i >= r.schema.NumAttrs() {
		return errors.Wrapf(rmerrors.ErrInvalidAttribute, "index %d", i)
	}
	a := r.schema.Attr(i)
	if v.DT != a.DT {
		return errors.Wrapf(rmerrors.ErrTypeMismatch, "attribute %q expects %s, got %s", a.Name, a.DT, v.DT)
	}
	off := r.schema.AttrOffset(i)
	w := r.schema.AttrWidth(i)
	field := r.buf[off : off+w]
	switch a.DT {
	case TypeInt:
		binary.LittleEndian.PutUint32(field, uint32(v.Int))
	case TypeFloat:
		binary.LittleEndian.PutUint32(field, math.Float32bits(v.Flt))
	case TypeBool:
		if v.Bool {
			field[0] = 1
		} else {
			field[0] = 0
		}
	case TypeString:
		for j := range field {
			field[j] = 0
		}
		copy(field, v.Str)
	}
	return nil
}
