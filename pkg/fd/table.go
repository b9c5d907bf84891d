package fd

import (
	"context"
	"errors"
	"sync"

	"github.com/marmos91/dittofd/internal/logger"
	"github.com/marmos91/dittofd/pkg/errno"
)

// Standard stream descriptors.
const (
	Stdin  = 0
	Stdout = 1
	Stderr = 2
)

// DefaultMaxDescriptors is the table size used when none is configured.
const DefaultMaxDescriptors = 128

// Table is a per-process open-file table.
//
// Descriptors are indices into a fixed-size slot array; an empty slot is a
// closed descriptor. Slot changes happen under the table lock, so close,
// dup2 and allocation on one table are linearizable.
//
// After CloseAll the table is closed: nothing can be installed in it again.
type Table struct {
	mu     sync.Mutex
	slots  []*File
	closed bool
}

// NewTable creates an empty table with max slots.
// DefaultMaxDescriptors is used if max <= 0.
func NewTable(max int) *Table {
	if max <= 0 {
		max = DefaultMaxDescriptors
	}
	return &Table{slots: make([]*File, max)}
}

// Max returns the number of slots.
func (t *Table) Max() int {
	return len(t.slots)
}

// Len returns the number of open descriptors.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, f := range t.slots {
		if f != nil {
			n++
		}
	}
	return n
}

// Closed reports whether CloseAll has been called.
func (t *Table) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Valid reports whether fd is inside the table's range.
func (t *Table) Valid(fd int) bool {
	return fd >= 0 && fd < len(t.slots)
}

// Lookup returns the handle at fd with an extra reference held for the
// caller, who must Release it when the operation is done. A concurrent close
// of fd therefore cannot destroy the handle mid-operation.
//
// Returns EBADF if fd is out of range or not open.
func (t *Table) Lookup(fd int) (*File, error) {
	if !t.Valid(fd) {
		return nil, errno.EBADF
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f := t.slots[fd]
	if f == nil {
		return nil, errno.EBADF
	}
	f.Acquire()
	return f, nil
}

// Install puts f in slot fd and returns the previous occupant, which the
// caller must release. The table takes over the caller's reference to f on
// success only.
//
// Returns EBADF if fd is out of range or the table is closed.
func (t *Table) Install(fd int, f *File) (*File, error) {
	if !t.Valid(fd) {
		return nil, errno.EBADF
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, errno.EBADF
	}
	prev := t.slots[fd]
	t.slots[fd] = f
	return prev, nil
}

// AllocateLowest puts f in the lowest empty slot and returns its index.
// The table takes over the caller's reference to f on success only.
//
// Returns EMFILE if every slot is occupied, or EBADF if the table is closed.
func (t *Table) AllocateLowest(f *File) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return -1, errno.EBADF
	}

	for fd, slot := range t.slots {
		if slot == nil {
			t.slots[fd] = f
			return fd, nil
		}
	}
	return -1, errno.EMFILE
}

// Vacate closes fd: the slot is emptied and its reference to the handle
// released.
//
// Returns EBADF if fd is out of range or not open, or the error from
// releasing the handle's vnode if this was the last reference.
func (t *Table) Vacate(ctx context.Context, fd int) error {
	if !t.Valid(fd) {
		return errno.EBADF
	}

	t.mu.Lock()
	f := t.slots[fd]
	t.slots[fd] = nil
	t.mu.Unlock()

	if f == nil {
		return errno.EBADF
	}
	return f.Release(ctx)
}

// Dup2 makes newfd refer to the same handle as oldfd and returns newfd.
//
// A handle previously open at newfd is closed; errors from that close are
// logged, not returned, since newfd already holds the new handle. If oldfd
// equals newfd, nothing changes.
//
// Returns EBADF if either descriptor is out of range, oldfd is not open, or
// the table is closed.
func (t *Table) Dup2(ctx context.Context, oldfd, newfd int) (int, error) {
	if !t.Valid(oldfd) || !t.Valid(newfd) {
		return -1, errno.EBADF
	}

	t.mu.Lock()
	src := t.slots[oldfd]
	if t.closed || src == nil {
		t.mu.Unlock()
		return -1, errno.EBADF
	}
	if oldfd == newfd {
		t.mu.Unlock()
		return newfd, nil
	}

	prev := t.slots[newfd]
	src.Acquire()
	t.slots[newfd] = src
	t.mu.Unlock()

	if prev != nil {
		if err := prev.Release(ctx); err != nil {
			logger.Warn("dup2: closing previous descriptor %d: %v", newfd, err)
		}
	}
	return newfd, nil
}

// Fork returns a copy of the table whose slots share this table's handles.
// Each shared handle gains one reference.
func (t *Table) Fork() *Table {
	t.mu.Lock()
	defer t.mu.Unlock()

	child := &Table{slots: make([]*File, len(t.slots))}
	for fd, f := range t.slots {
		if f != nil {
			f.Acquire()
			child.slots[fd] = f
		}
	}
	return child
}

// CloseAll closes every open descriptor and the table itself, and returns
// the joined release errors.
func (t *Table) CloseAll(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	open := make([]*File, 0, len(t.slots))
	for fd, f := range t.slots {
		if f != nil {
			open = append(open, f)
			t.slots[fd] = nil
		}
	}
	t.mu.Unlock()

	var errs []error
	for _, f := range open {
		if err := f.Release(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
