package recordmgr

import (
	"github.com/arvinmehra/pagedb/rmerrors"
	"github.com/arvinmehra/pagedb/storage"
)

// Predicate decides whether a decoded record should be yielded by a
// Scan. A nil Predicate accepts every record.
type Predicate func(rec *Record) (bool, error)

// Scan walks a table's data pages in order, yielding occupied slots
// that satisfy an optional predicate. The page count is captured at
// StartScan time: pages appended to the table afterward are not
// visited by this scan.
type Scan struct {
	table        *Table
	predicate    Predicate
	currentPage  storage.PageID
	currentSlot  int
	totalPages   int32
	slotsPerPage int
	recordSize   int
	active       bool
}

// StartScan begins a scan over t, optionally filtered by predicate
// (nil means accept all).
func StartScan(t *Table, predicate Predicate) *Scan {
	return &Scan{
		table:        t,
		predicate:    predicate,
		currentPage:  DataStartPage,
		currentSlot:  0,
		totalPages:   t.meta.NumPages,
		slotsPerPage: int(t.meta.SlotsPerPage),
		recordSize:   int(t.meta.RecordSize),
		active:       true,
	}
}

// Next advances the cursor to the next matching record. It returns
// rmerrors.ErrNoMoreTuples once the cursor passes the page count
// captured at StartScan.
func (s *Scan) Next() (*Record, RID, error) {
	if !s.active {
		return nil, RID{}, rmerrors.ErrNoMoreTuples
	}
	bitmapSize := slotBitmapSize(s.slotsPerPage)

	for int32(s.currentPage) < s.totalPages {
		fr, err := s.table.pool.Pin(s.currentPage)
		if err != nil {
			return nil, RID{}, err
		}

		for s.currentSlot < s.slotsPerPage {
			slot := s.currentSlot
			if isOccupied(fr.Data[:bitmapSize], slot) {
				off := recordOffset(bitmapSize, slot, s.recordSize)
				rid := RID{Page: s.currentPage, Slot: slot}
				candidate := recordFromBytes(s.table.schema, rid, append([]byte(nil), fr.Data[off:off+s.recordSize]...))
				ok := true
				if s.predicate != nil {
					ok, err = s.predicate(candidate)
					if err != nil {
						s.table.pool.Unpin(fr)
						return nil, RID{}, err
					}
				}
				if ok {
					s.currentSlot = slot + 1
					if err := s.table.pool.Unpin(fr); err != nil {
						return nil, RID{}, err
					}
					return candidate, rid, nil
				}
			}
			s.currentSlot++
		}

		if err := s.table.pool.Unpin(fr); err != nil {
			return nil, RID{}, err
		}
		s.currentPage++
		s.currentSlot = 0
	}

	s.active = false
	return nil, RID{}, rmerrors.ErrNoMoreTuples
}

// Close releases the scan's cursor state. Idempotent.
func (s *Scan) Close() {
	s.active = false
}
