package storage

import (
	"github.com/dsnet/golib/memfile"
)

// OpenMemory creates a PageFile backed entirely by memory, for tests and
// ephemeral tables that should never touch the filesystem. name is
// cosmetic: it is recorded on the handle and never used as a path.
func OpenMemory(name string) (*PageFile, error) {
	return &PageFile{path: name, be: &memBackend{f: memfile.New(nil)}}, nil
}

// memBackend adapts *memfile.File (which has no Close/Sync) to backend.
type memBackend struct{ f *memfile.File }

func (b *memBackend) ReadAt(p []byte, off int64) (int, error)  { return b.f.ReadAt(p, off) }
func (b *memBackend) WriteAt(p []byte, off int64) (int, error) { return b.f.WriteAt(p, off) }
func (b *memBackend) Close() error                             { return nil }
func (b *memBackend) Sync() error                              { return nil }
func (b *memBackend) Size() (int64, error)                     { return int64(len(b.f.Bytes())), nil }
func (b *memBackend) Truncate(size int64) error                { return b.f.Truncate(size) }
