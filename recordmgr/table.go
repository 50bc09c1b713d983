package recordmgr

import (
	"os"

	"github.com/pkg/errors"

	"github.com/arvinmehra/pagedb/buffer"
	"github.com/arvinmehra/pagedb/config"
	"github.com/arvinmehra/pagedb/rmerrors"
	"github.com/arvinmehra/pagedb/storage"
)

// Table is an open handle to one table's page file, buffer pool, and
// cached metadata/schema. A Table is not safe for concurrent use by
// more than one goroutine; one caller per handle.
type Table struct {
	path   string
	file   *storage.PageFile
	pool   *buffer.Pool
	schema *Schema
	meta   TableMetadata
}

// computeSlotsPerPage finds the largest n with
// slotBitmapSize(n) + n*recordSize <= PageSize, n >= 1.
func computeSlotsPerPage(recordSize int) (int, error) {
	if recordSize <= 0 || recordSize > storage.PageSize-1 {
		return 0, errors.Wrapf(rmerrors.ErrInvalidRecordSize, "record size %d", recordSize)
	}
	n := storage.PageSize / recordSize
	if n < 1 {
		n = 1
	}
	for n >= 1 {
		if slotBitmapSize(n)+n*recordSize <= storage.PageSize {
			return n, nil
		}
		n--
	}
	return 0, errors.Wrapf(rmerrors.ErrInvalidRecordSize, "record size %d", recordSize)
}

// CreateTable makes a new table file at path, schema-shaped, with one
// empty data page, then closes it. Callers must OpenTable to use it.
func CreateTable(path string, schema *Schema, cfg config.Config) error {
	f, err := storage.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return createOnFile(f, schema, cfg)
}

// createOnFile lays out a fresh table (header + first data page) onto
// an already-open, empty PageFile, disk-backed or in-memory alike.
func createOnFile(f *storage.PageFile, schema *Schema, cfg config.Config) error {
	slotsPerPage, err := computeSlotsPerPage(schema.RecordSize())
	if err != nil {
		return err
	}

	if _, err := f.AppendEmptyPage(); err != nil { // page 0: header
		return err
	}
	if _, err := f.AppendEmptyPage(); err != nil { // page 1: first data page
		return err
	}

	meta := TableMetadata{
		NumTuples:     0,
		FirstFreePage: int32(DataStartPage),
		NumPages:      2,
		RecordSize:    int32(schema.RecordSize()),
		SlotsPerPage:  int32(slotsPerPage),
	}
	pool := buffer.New(cfg, f)
	if err := initializeHeader(pool, schema, meta); err != nil {
		pool.Shutdown()
		return err
	}
	return pool.Shutdown()
}

// OpenTable opens an existing table file, reconstructing its cached
// schema and metadata.
func OpenTable(path string, cfg config.Config) (*Table, error) {
	mode := config.ModeBuffered
	if cfg.DirectIO {
		mode = config.ModeDirect
	}
	f, err := storage.Open(path, mode)
	if err != nil {
		return nil, err
	}
	t, err := openOnFile(path, f, cfg)
	if err != nil {
		f.Close()
		return nil, err
	}
	return t, nil
}

// OpenEphemeral creates and opens a table backed entirely by memory,
// for scratch tables with no durability requirement. name is cosmetic.
func OpenEphemeral(name string, schema *Schema, cfg config.Config) (*Table, error) {
	f, err := storage.OpenMemory(name)
	if err != nil {
		return nil, err
	}
	if err := createOnFile(f, schema, cfg); err != nil {
		f.Close()
		return nil, err
	}
	t, err := openOnFile(name, f, cfg)
	if err != nil {
		f.Close()
		return nil, err
	}
	return t, nil
}

// openOnFile reconstructs a Table handle over an already-open,
// already-initialized PageFile.
func openOnFile(path string, f *storage.PageFile, cfg config.Config) (*Table, error) {
	pool := buffer.New(cfg, f)

	schema, err := readSchema(pool)
	if err != nil {
		pool.Shutdown()
		return nil, err
	}
	meta, err := readHeader(pool)
	if err != nil {
		pool.Shutdown()
		return nil, err
	}
	return &Table{path: path, file: f, pool: pool, schema: schema, meta: meta}, nil
}

// CloseTable flushes all dirty pages, then releases the table's buffer
// pool and file handle. The flush must complete before pool shutdown.
func (t *Table) CloseTable() error {
	if err := t.pool.ForceFlushAll(); err != nil {
		return err
	}
	if err := t.pool.Shutdown(); err != nil {
		return err
	}
	return t.file.Close()
}

// DeleteTable removes a table's page file from disk. The table must
// not currently be open.
func DeleteTable(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(rmerrors.ErrFileNotFound, "delete table %s: %v", path, err)
	}
	return storage.Destroy(path)
}

// Schema returns the table's (immutable) schema.
func (t *Table) Schema() *Schema { return t.schema }

// GetNumTuples returns the table's cached live tuple count.
func (t *Table) GetNumTuples() int32 { return t.meta.NumTuples }

// findFreeSlot returns an RID for a free slot, extending the file by
// one page if every data page from the first-free hint onward is full.
func (t *Table) findFreeSlot() (RID, error) {
	bitmapSize := slotBitmapSize(int(t.meta.SlotsPerPage))
	slotsPerPage := int(t.meta.SlotsPerPage)

	p := storage.PageID(t.meta.FirstFreePage)
	for int32(p) < t.meta.NumPages {
		fr, err := t.pool.Pin(p)
		if err != nil {
			return RID{}, err
		}
		found := -1
		for s := 0; s < slotsPerPage; s++ {
			if !isOccupied(fr.Data[:bitmapSize], s) {
				found = s
				break
			}
		}
		if err := t.pool.Unpin(fr); err != nil {
			return RID{}, err
		}
		if found >= 0 {
			return RID{Page: p, Slot: found}, nil
		}
		p++
	}

	// No free slot anywhere from the hint onward: grow the file.
	newPageNum, err := t.file.AppendEmptyPage()
	if err != nil {
		return RID{}, errors.Wrap(rmerrors.ErrOutOfSpace, "append data page")
	}
	fr, err := t.pool.Pin(newPageNum)
	if err != nil {
		return RID{}, err
	}
	for i := range fr.Data {
		fr.Data[i] = 0
	}
	t.pool.MarkDirty(fr)
	if err := t.pool.Unpin(fr); err != nil {
		return RID{}, err
	}

	t.meta.NumPages = int32(newPageNum) + 1
	t.meta.FirstFreePage = int32(newPageNum)
	if err := writeHeader(t.pool, t.meta); err != nil {
		return RID{}, err
	}
	return RID{Page: newPageNum, Slot: 0}, nil
}

// InsertRecord allocates a slot, writes rec's bytes into it, and sets
// rec.ID. Whatever ID the record carried on the way in is ignored.
func (t *Table) InsertRecord(rec *Record) (RID, error) {
	rid, err := t.findFreeSlot()
	if err != nil {
		return RID{}, err
	}

	fr, err := t.pool.Pin(rid.Page)
	if err != nil {
		return RID{}, err
	}
	bitmapSize := slotBitmapSize(int(t.meta.SlotsPerPage))
	off := recordOffset(bitmapSize, rid.Slot, int(t.meta.RecordSize))
	copy(fr.Data[off:off+int(t.meta.RecordSize)], rec.Bytes())
	markOccupied(fr.Data[:bitmapSize], rid.Slot)
	t.pool.MarkDirty(fr)
	if err := t.pool.Unpin(fr); err != nil {
		return RID{}, err
	}

	t.meta.NumTuples++
	if err := writeHeader(t.pool, t.meta); err != nil {
		return RID{}, err
	}
	rec.ID = rid
	return rid, nil
}

// DeleteRecord clears id's occupancy bit, leaving its bytes untouched
// (tombstone). Returns rmerrors.ErrNoMoreTuples if id is not occupied.
func (t *Table) DeleteRecord(id RID) error {
	fr, err := t.pool.Pin(id.Page)
	if err != nil {
		return err
	}
	bitmapSize := slotBitmapSize(int(t.meta.SlotsPerPage))
	if !isOccupied(fr.Data[:bitmapSize], id.Slot) {
		t.pool.Unpin(fr)
		return rmerrors.ErrNoMoreTuples
	}
	markFree(fr.Data[:bitmapSize], id.Slot)
	t.pool.MarkDirty(fr)
	if err := t.pool.Unpin(fr); err != nil {
		return err
	}

	t.meta.NumTuples--
	return writeHeader(t.pool, t.meta)
}

// UpdateRecord overwrites the slot at rec.ID with rec's bytes. Returns
// rmerrors.ErrNoMoreTuples if the slot is not occupied.
func (t *Table) UpdateRecord(rec *Record) error {
	fr, err := t.pool.Pin(rec.ID.Page)
	if err != nil {
		return err
	}
	bitmapSize := slotBitmapSize(int(t.meta.SlotsPerPage))
	if !isOccupied(fr.Data[:bitmapSize], rec.ID.Slot) {
		t.pool.Unpin(fr)
		return rmerrors.ErrNoMoreTuples
	}
	off := recordOffset(bitmapSize, rec.ID.Slot, int(t.meta.RecordSize))
	copy(fr.Data[off:off+int(t.meta.RecordSize)], rec.Bytes())
	t.pool.MarkDirty(fr)
	return t.pool.Unpin(fr)
}

// GetRecord copies the record at id into a freshly allocated Record.
// Returns rmerrors.ErrNoMoreTuples if the slot is not occupied.
func (t *Table) GetRecord(id RID) (*Record, error) {
	fr, err := t.pool.Pin(id.Page)
	if err != nil {
		return nil, err
	}
	bitmapSize := slotBitmapSize(int(t.meta.SlotsPerPage))
	if !isOccupied(fr.Data[:bitmapSize], id.Slot) {
		t.pool.Unpin(fr)
		return nil, rmerrors.ErrNoMoreTuples
	}
	off := recordOffset(bitmapSize, id.Slot, int(t.meta.RecordSize))
	out := make([]byte, t.meta.RecordSize)
	copy(out, fr.Data[off:off+int(t.meta.RecordSize)])
	if err := t.pool.Unpin(fr); err != nil {
		return nil, err
	}
	return recordFromBytes(t.schema, id, out), nil
}
