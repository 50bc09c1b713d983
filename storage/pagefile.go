// Package storage is the opaque block-storage layer the record manager
// consumes: a file of fixed-size pages supporting create/open/close/
// destroy, single-page read/write, append-empty, and ensure-capacity.
// It performs no interpretation of page contents.
package storage

import (
	"io"
	"os"
	"sync"

	"github.com/ncw/directio"
	"github.com/pkg/errors"

	"github.com/arvinmehra/pagedb/config"
	"github.com/arvinmehra/pagedb/rmerrors"
)

// PageSize is the fixed page size used throughout the engine.
const PageSize = 4096

// PageID identifies a page within a single table file.
type PageID uint32

// backend abstracts the *os.File vs *memfile.File vs direct-io file
// split below a plain io.ReaderAt/WriterAt/Closer/Syncer surface.
type backend interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	Sync() error
	Truncate(size int64) error
	Size() (int64, error)
}

// PageFile is a handle to one table's on-disk (or in-memory) page file.
type PageFile struct {
	mu   sync.Mutex
	path string
	be   backend
}

// Create makes a new, empty page file (zero pages). It truncates any
// existing file at path.
func Create(path string) (*PageFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(rmerrors.ErrFileNotFound, "create %s: %v", path, err)
	}
	return &PageFile{path: path, be: osBackend{f}}, nil
}

// Open opens an existing page file. mode selects buffered vs direct I/O;
// ModeDirect requires PageSize to be a multiple of directio.AlignSize.
func Open(path string, mode config.OpenMode) (*PageFile, error) {
	if mode == config.ModeDirect {
		f, err := directio.OpenFile(path, os.O_RDWR, 0o644)
		if err != nil {
			return nil, errors.Wrapf(rmerrors.ErrFileNotFound, "open %s: %v", path, err)
		}
		return &PageFile{path: path, be: osBackend{f}}, nil
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrapf(rmerrors.ErrFileNotFound, "open %s: %v", path, err)
	}
	return &PageFile{path: path, be: osBackend{f}}, nil
}

// Destroy removes a table's page file from disk.
func Destroy(path string) error {
	if err := os.Remove(path); err != nil {
		return errors.Wrapf(rmerrors.ErrFileNotFound, "destroy %s: %v", path, err)
	}
	return nil
}

// Close releases the underlying file descriptor.
func (f *PageFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.be.Close()
}

// NumPages returns how many PageSize-byte pages the file currently holds.
func (f *PageFile) NumPages() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	size, err := f.be.Size()
	if err != nil {
		return 0
	}
	return int(size / PageSize)
}

// ReadPage reads exactly one page. Reading a page beyond EOF is an
// error, never a short or zero-filled read.
func (f *PageFile) ReadPage(id PageID) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	size, err := f.be.Size()
	if err != nil {
		return nil, errors.Wrap(err, "stat page file")
	}
	off := int64(id) * PageSize
	if off+PageSize > size {
		return nil, errors.Wrapf(rmerrors.ErrReadNonExistingPage, "page %d", id)
	}
	buf := make([]byte, PageSize)
	if _, err := f.be.ReadAt(buf, off); err != nil && err != io.EOF {
		return nil, errors.Wrapf(rmerrors.ErrReadNonExistingPage, "page %d: %v", id, err)
	}
	return buf, nil
}

// WritePage overwrites exactly one page. The page must already exist
// (use AppendEmptyPage/EnsureCapacity to grow the file first).
func (f *PageFile) WritePage(id PageID, data []byte) error {
	if len(data) != PageSize {
		return errors.Errorf("write page %d: expected %d bytes, got %d", id, PageSize, len(data))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	off := int64(id) * PageSize
	if _, err := f.be.WriteAt(data, off); err != nil {
		return errors.Wrapf(rmerrors.ErrWriteFailed, "page %d: %v", id, err)
	}
	if err := f.be.Sync(); err != nil {
		return errors.Wrapf(rmerrors.ErrWriteFailed, "sync page %d: %v", id, err)
	}
	return nil
}

// AppendEmptyPage extends the file by one zero-filled page and returns
// its PageID.
func (f *PageFile) AppendEmptyPage() (PageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	size, err := f.be.Size()
	if err != nil {
		return 0, errors.Wrap(err, "stat page file")
	}
	if size%PageSize != 0 {
		return 0, errors.Errorf("page file size %d not a multiple of %d", size, PageSize)
	}
	id := PageID(size / PageSize)
	zero := make([]byte, PageSize)
	if _, err := f.be.WriteAt(zero, size); err != nil {
		return 0, errors.Wrapf(rmerrors.ErrWriteFailed, "append page: %v", err)
	}
	if err := f.be.Sync(); err != nil {
		return 0, errors.Wrapf(rmerrors.ErrWriteFailed, "sync append: %v", err)
	}
	return id, nil
}

// EnsureCapacity grows the file (with zero-filled pages) until it holds
// at least n pages. It is a no-op if the file is already that large.
func (f *PageFile) EnsureCapacity(n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	size, err := f.be.Size()
	if err != nil {
		return errors.Wrap(err, "stat page file")
	}
	want := int64(n) * PageSize
	if size >= want {
		return nil
	}
	if err := f.be.Truncate(want); err != nil {
		return errors.Wrapf(rmerrors.ErrWriteFailed, "ensure capacity %d: %v", n, err)
	}
	return nil
}

// osBackend adapts *os.File (buffered or directio-opened) to backend.
type osBackend struct{ f *os.File }

func (b osBackend) ReadAt(p []byte, off int64) (int, error)  { return b.f.ReadAt(p, off) }
func (b osBackend) WriteAt(p []byte, off int64) (int, error) { return b.f.WriteAt(p, off) }
func (b osBackend) Close() error                             { return b.f.Close() }
func (b osBackend) Sync() error                              { return b.f.Sync() }
func (b osBackend) Truncate(size int64) error                { return b.f.Truncate(size) }
func (b osBackend) Size() (int64, error) {
	st, err := b.f.Stat()
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}
