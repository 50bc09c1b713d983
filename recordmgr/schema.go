package recordmgr

import "github.com/pkg/errors"

// AttrInfo describes one attribute of a Schema: its name, its DataType,
// and (for TypeString only) its fixed on-disk length.
type AttrInfo struct {
	Name       string
	DT         DataType
	TypeLength int
}

// Schema is an immutable, ordered list of attributes. Once built, its
// layout (attribute offsets, total record size) never changes.
type Schema struct {
	attrs   []AttrInfo
	offsets []int
	size    int
	keys    []int // indices of key attributes, informational only
}

// NewSchema builds a Schema from an ordered attribute list, computing
// each attribute's byte offset within a record up front. keys names the
// (optional) primary-key attribute indices; it is carried only for
// serialization and is not enforced as a uniqueness constraint.
func NewSchema(attrs []AttrInfo, keys []int) (*Schema, error) {
	if len(attrs) == 0 {
		return nil, errors.New("schema must have at least one attribute")
	}
	s := &Schema{
		attrs:   append([]AttrInfo(nil), attrs...),
		offsets: make([]int, len(attrs)),
		keys:    append([]int(nil), keys...),
	}
	off := 0
	for i, a := range s.attrs {
		if a.DT == TypeString && a.TypeLength <= 0 {
			return nil, errors.Errorf("attribute %q: string type requires positive length", a.Name)
		}
		s.offsets[i] = off
		off += width(a.DT, a.TypeLength)
	}
	s.size = off
	return s, nil
}

// NumAttrs returns the number of attributes in the schema.
func (s *Schema) NumAttrs() int { return len(s.attrs) }

// Attr returns the i'th attribute's descriptor.
func (s *Schema) Attr(i int) AttrInfo { return s.attrs[i] }

// AttrOffset returns the byte offset of attribute i within an encoded
// record.
func (s *Schema) AttrOffset(i int) int { return s.offsets[i] }

// AttrWidth returns the fixed on-disk byte width of attribute i.
func (s *Schema) AttrWidth(i int) int { return width(s.attrs[i].DT, s.attrs[i].TypeLength) }

// RecordSize is the total fixed byte width of one encoded record.
func (s *Schema) RecordSize() int { return s.size }

// IndexOf returns the attribute index for name, or -1 if not found.
func (s *Schema) IndexOf(name string) int {
	for i, a := range s.attrs {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// Keys returns the schema's declared key attribute indices.
func (s *Schema) Keys() []int { return append([]int(nil), s.keys...) }
