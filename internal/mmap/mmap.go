// Package mmap provides scoped, refcounted memory-mapped file views used by
// the container reader to avoid copying section payloads (TFLite models in
// particular run directly off the mapped bytes).
package mmap

import (
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/litert-lm/litertlm-go/internal/litertlmerr"
)

// mapping owns one unix.Mmap region and is shared by every View cloned from
// it; it is released only when the last View closes.
type mapping struct {
	data     []byte
	refcount atomic.Int32
}

func (m *mapping) acquire() { m.refcount.Add(1) }

func (m *mapping) release() error {
	if m.refcount.Add(-1) > 0 {
		return nil
	}
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}

// View is a handle onto some (or all) of a mapping's bytes. offset records
// how far View.Bytes() is shifted from the start of the underlying mapping,
// which is non-zero when the request was rounded down to a page boundary by
// OpenAligned or when the View was carved out of another by Slice.
type View struct {
	m      *mapping
	offset int
	length int
	closed bool
}

// PageSize returns the platform's mmap granularity. It is unrelated to the
// archive's fixed 16 KiB block size.
func PageSize() int {
	return unix.Getpagesize()
}

// Open maps the entirety of path read-only.
func Open(path string) (*View, error) {
	return open(path, false)
}

// OpenMutable maps the entirety of path for reading and writing.
func OpenMutable(path string) (*View, error) {
	return open(path, true)
}

func open(path string, writable bool) (*View, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, litertlmerr.Wrap(litertlmerr.NotFound, "mmap.Open", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, litertlmerr.Wrap(litertlmerr.Internal, "mmap.Open", err)
	}
	return OpenRange(f, 0, fi.Size(), writable)
}

// OpenRange maps [offset, offset+length) of f. offset must already be a
// multiple of PageSize(); use OpenAligned when that isn't guaranteed.
func OpenRange(f *os.File, offset, length int64, writable bool) (*View, error) {
	if offset%int64(PageSize()) != 0 {
		return nil, litertlmerr.New(litertlmerr.InvalidArgument, "mmap.OpenRange",
			"offset %d is not page-aligned (page size %d)", offset, PageSize())
	}
	if length == 0 {
		fi, err := f.Stat()
		if err != nil {
			return nil, litertlmerr.Wrap(litertlmerr.Internal, "mmap.OpenRange", err)
		}
		length = fi.Size() - offset
	}
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	data, err := unix.Mmap(int(f.Fd()), offset, int(length), prot, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s at %d+%d: %w", f.Name(), offset, length, err)
	}
	m := &mapping{data: data}
	m.refcount.Store(1)
	return &View{m: m, offset: 0, length: len(data)}, nil
}

// OpenAligned maps a region covering [offset, offset+length) but rounds the
// mapping's start down to the nearest page boundary, returning a View whose
// Bytes() still begins exactly at the caller's requested offset.
func OpenAligned(f *os.File, offset, length int64) (*View, error) {
	page := int64(PageSize())
	aligned := (offset / page) * page
	delta := offset - aligned
	v, err := OpenRange(f, aligned, length+delta, false)
	if err != nil {
		return nil, err
	}
	v.offset = int(delta)
	v.length = int(length)
	return v, nil
}

// Bytes returns the view's slice of the underlying mapping. The slice is
// invalid after Close.
func (v *View) Bytes() []byte {
	return v.m.data[v.offset : v.offset+v.length]
}

// Clone returns a new View over the same bytes, bumping the refcount so the
// underlying mapping outlives either handle individually.
func (v *View) Clone() *View {
	v.m.acquire()
	return &View{m: v.m, offset: v.offset, length: v.length}
}

// Slice returns a new, independently-owned View over the sub-range
// [offset, offset+length) of v's bytes, bumping the underlying mapping's
// refcount. Used by callers that hand out a narrower window (e.g. one
// section of a larger archive) that must outlive the View it was carved
// from.
func (v *View) Slice(offset, length int) (*View, error) {
	if offset < 0 || length < 0 || offset+length > v.length {
		return nil, litertlmerr.New(litertlmerr.InvalidArgument, "mmap.View.Slice",
			"range [%d,%d) out of bounds for a %d-byte view", offset, offset+length, v.length)
	}
	v.m.acquire()
	return &View{m: v.m, offset: v.offset + offset, length: length}, nil
}

// Close releases this handle's share of the mapping, unmapping once the last
// clone is closed.
func (v *View) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	return v.m.release()
}
