// Package buffer is the page cache the record manager pins pages
// through. It bounds the set of resident pages, evicts by LRU or MRU,
// and guarantees a dirty page is written back before it is reused.
package buffer

import (
	"container/list"
	"sync"

	"github.com/pkg/errors"

	"github.com/arvinmehra/pagedb/config"
	"github.com/arvinmehra/pagedb/rmerrors"
	"github.com/arvinmehra/pagedb/storage"
)

// Frame is a single cached page: the bytes a caller mutates in place,
// plus the bookkeeping the pool needs to know when it's safe to evict.
type Frame struct {
	PageID   storage.PageID
	Data     []byte
	PinCount int
	Dirty    bool
}

// Pool is a bounded page cache bound to one table's PageFile.
type Pool struct {
	mu     sync.Mutex
	file   *storage.PageFile
	cap    int
	policy config.EvictionPolicy

	frames []*Frame
	// repl orders frames by recency; front = least recently used,
	// back = most recently used.
	repl   *list.List
	lookup map[storage.PageID]*list.Element
}

// New builds a Pool bound to f, sized and policied by cfg.
func New(cfg config.Config, f *storage.PageFile) *Pool {
	cap := cfg.BufferPoolCap
	if cap <= 0 {
		cap = 10000
	}
	policy := cfg.Policy
	if policy == "" {
		policy = config.LRU
	}
	return &Pool{
		file:   f,
		cap:    cap,
		policy: policy,
		repl:   list.New(),
		lookup: make(map[storage.PageID]*list.Element),
	}
}

// Pin loads id into the pool (if not already resident) and increments
// its pin count. The returned Frame must be released with Unpin exactly
// once per Pin call.
func (p *Pool) Pin(id storage.PageID) (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if el, ok := p.lookup[id]; ok {
		fr := el.Value.(*Frame)
		fr.PinCount++
		p.touch(el)
		return fr, nil
	}

	if len(p.frames) < p.cap {
		data, err := p.file.ReadPage(id)
		if err != nil {
			return nil, err
		}
		fr := &Frame{PageID: id, Data: data, PinCount: 1}
		p.frames = append(p.frames, fr)
		el := p.repl.PushBack(fr)
		p.lookup[id] = el
		return fr, nil
	}

	return p.evictAndLoad(id)
}

// evictAndLoad selects a victim frame per policy, flushes it if dirty,
// and repurposes it to hold id. Caller holds p.mu.
func (p *Pool) evictAndLoad(id storage.PageID) (*Frame, error) {
	var victimEl *list.Element
	for el := p.victimOrder(); el != nil; el = p.nextVictimCandidate(el) {
		fr := el.Value.(*Frame)
		if fr.PinCount == 0 {
			victimEl = el
			break
		}
	}
	if victimEl == nil {
		return nil, errors.Wrap(rmerrors.ErrNoFreeBufferSlot, "all frames pinned")
	}
	victim := victimEl.Value.(*Frame)
	if victim.Dirty {
		if err := p.file.WritePage(victim.PageID, victim.Data); err != nil {
			return nil, err
		}
	}
	delete(p.lookup, victim.PageID)

	data, err := p.file.ReadPage(id)
	if err != nil {
		return nil, err
	}
	victim.PageID = id
	victim.Data = data
	victim.PinCount = 1
	victim.Dirty = false
	p.lookup[id] = victimEl
	p.touch(victimEl)
	return victim, nil
}

// victimOrder returns the first candidate to inspect: the LRU front or
// the MRU back.
func (p *Pool) victimOrder() *list.Element {
	if p.policy == config.MRU {
		return p.repl.Back()
	}
	return p.repl.Front()
}

func (p *Pool) nextVictimCandidate(el *list.Element) *list.Element {
	if p.policy == config.MRU {
		return el.Prev()
	}
	return el.Next()
}

// touch marks el as the most recently used frame. Both policies keep
// the same recency order in the list; they differ only in which end
// evictAndLoad searches from (see victimOrder).
func (p *Pool) touch(el *list.Element) {
	p.repl.MoveToBack(el)
}

// MarkDirty flags fr so it is written back before eviction or on
// ForceFlushAll. Must be called before Unpin for a mutated page.
func (p *Pool) MarkDirty(fr *Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fr.Dirty = true
}

// Unpin releases one pin on a previously-Pinned frame.
func (p *Pool) Unpin(fr *Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fr.PinCount <= 0 {
		return errors.Wrapf(rmerrors.ErrInvalidUnpin, "page %d", fr.PageID)
	}
	fr.PinCount--
	return nil
}

// ForceFlushAll writes every dirty frame back to the page file.
func (p *Pool) ForceFlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, fr := range p.frames {
		if fr.Dirty {
			if err := p.file.WritePage(fr.PageID, fr.Data); err != nil {
				return err
			}
			fr.Dirty = false
		}
	}
	return nil
}

// Shutdown flushes and releases all frames. The pool must not be used
// afterward.
func (p *Pool) Shutdown() error {
	if err := p.ForceFlushAll(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = nil
	p.repl.Init()
	p.lookup = make(map[storage.PageID]*list.Element)
	return nil
}

// PinnedCount reports how many frames currently have a nonzero pin
// count. Tests use it to assert no pin leaks.
func (p *Pool) PinnedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, fr := range p.frames {
		if fr.PinCount > 0 {
			n++
		}
	}
	return n
}
