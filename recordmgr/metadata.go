package recordmgr

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/arvinmehra/pagedb/buffer"
	"github.com/arvinmehra/pagedb/storage"
)

// DataStartPage is the first page holding records; page 0 is reserved
// for TableMetadata + the serialized Schema.
const DataStartPage storage.PageID = 1

// metadataSize is the fixed byte width of the TableMetadata prefix on
// page 0: five little-endian int32 fields.
const metadataSize = 5 * 4

// TableMetadata is the fixed-width header persisted at offset 0 of a
// table's page 0.
type TableMetadata struct {
	NumTuples     int32
	FirstFreePage int32
	NumPages      int32
	RecordSize    int32
	SlotsPerPage  int32
}

func (m TableMetadata) encode() []byte {
	buf := make([]byte, metadataSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(m.NumTuples))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(m.FirstFreePage))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(m.NumPages))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(m.RecordSize))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(m.SlotsPerPage))
	return buf
}

func decodeMetadata(b []byte) TableMetadata {
	return TableMetadata{
		NumTuples:     int32(binary.LittleEndian.Uint32(b[0:4])),
		FirstFreePage: int32(binary.LittleEndian.Uint32(b[4:8])),
		NumPages:      int32(binary.LittleEndian.Uint32(b[8:12])),
		RecordSize:    int32(binary.LittleEndian.Uint32(b[12:16])),
		SlotsPerPage:  int32(binary.LittleEndian.Uint32(b[16:20])),
	}
}

// encodeSchema serializes s as: num_attr(4B), then per attribute
// {name_len(4B), name bytes, data_type(4B), type_length(4B)}, then
// key_size(4B), then key_size 4-byte key indices.
func encodeSchema(s *Schema) []byte {
	var buf []byte
	put32 := func(v int32) {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(v))
		buf = append(buf, tmp[:]...)
	}
	put32(int32(s.NumAttrs()))
	for i := 0; i < s.NumAttrs(); i++ {
		a := s.Attr(i)
		put32(int32(len(a.Name)))
		buf = append(buf, a.Name...)
		put32(int32(a.DT))
		put32(int32(a.TypeLength))
	}
	keys := s.Keys()
	put32(int32(len(keys)))
	for _, k := range keys {
		put32(int32(k))
	}
	return buf
}

// decodeSchema reconstructs a Schema from bytes produced by
// encodeSchema, returning the schema and the number of bytes consumed.
func decodeSchema(b []byte) (*Schema, int, error) {
	if len(b) < 4 {
		return nil, 0, errors.New("schema region truncated")
	}
	pos := 0
	get32 := func() int32 {
		v := int32(binary.LittleEndian.Uint32(b[pos : pos+4]))
		pos += 4
		return v
	}
	numAttr := get32()
	if numAttr < 0 {
		return nil, 0, errors.New("corrupt schema: negative attribute count")
	}
	attrs := make([]AttrInfo, numAttr)
	for i := range attrs {
		nameLen := get32()
		name := string(b[pos : pos+int(nameLen)])
		pos += int(nameLen)
		dt := DataType(get32())
		typeLength := int(get32())
		attrs[i] = AttrInfo{Name: name, DT: dt, TypeLength: typeLength}
	}
	keySize := get32()
	keys := make([]int, keySize)
	for i := range keys {
		keys[i] = int(get32())
	}
	schema, err := NewSchema(attrs, keys)
	if err != nil {
		return nil, 0, err
	}
	return schema, pos, nil
}

// initializeHeader writes a fresh TableMetadata + serialized schema to
// page 0, then zero-fills page DataStartPage. Called once per table,
// from createOnFile (used by CreateTable and OpenEphemeral).
func initializeHeader(pool *buffer.Pool, schema *Schema, meta TableMetadata) error {
	fr, err := pool.Pin(0)
	if err != nil {
		return err
	}
	copy(fr.Data, meta.encode())
	sb := encodeSchema(schema)
	if metadataSize+len(sb) > storage.PageSize {
		pool.Unpin(fr)
		return errors.New("schema does not fit in header page")
	}
	copy(fr.Data[metadataSize:], sb)
	pool.MarkDirty(fr)
	if err := pool.Unpin(fr); err != nil {
		return err
	}

	dfr, err := pool.Pin(DataStartPage)
	if err != nil {
		return err
	}
	for i := range dfr.Data {
		dfr.Data[i] = 0
	}
	pool.MarkDirty(dfr)
	return pool.Unpin(dfr)
}

// readHeader pins page 0 and copies out the TableMetadata prefix.
func readHeader(pool *buffer.Pool) (TableMetadata, error) {
	fr, err := pool.Pin(0)
	if err != nil {
		return TableMetadata{}, err
	}
	m := decodeMetadata(fr.Data[:metadataSize])
	if err := pool.Unpin(fr); err != nil {
		return TableMetadata{}, err
	}
	return m, nil
}

// writeHeader overwrites only the TableMetadata prefix of page 0; the
// schema region that follows is never touched after create.
func writeHeader(pool *buffer.Pool, meta TableMetadata) error {
	fr, err := pool.Pin(0)
	if err != nil {
		return err
	}
	copy(fr.Data[:metadataSize], meta.encode())
	pool.MarkDirty(fr)
	return pool.Unpin(fr)
}

// readSchema pins page 0 and reconstructs the Schema stored after the
// metadata prefix. Called once per open, from openOnFile (used by
// OpenTable and OpenEphemeral).
func readSchema(pool *buffer.Pool) (*Schema, error) {
	fr, err := pool.Pin(0)
	if err != nil {
		return nil, err
	}
	schema, _, err := decodeSchema(fr.Data[metadataSize:])
	if uerr := pool.Unpin(fr); uerr != nil && err == nil {
		err = uerr
	}
	if err != nil {
		return nil, errors.Wrap(err, "reconstruct schema from header")
	}
	return schema, nil
}
