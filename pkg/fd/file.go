// Package fd implements open-file handles and per-process descriptor tables.
//
// A File is one open instance of a vnode: it owns the seek offset and the
// open flags, and is shared by every descriptor that refers to it (after
// dup2 or fork). A Table maps small integers to Files.
//
// Locking:
// A Table's lock is taken before a File's lock, never the reverse, and a
// File's lock is never held while acquiring any other lock. Releasing the
// last reference to a File may block in the vnode, so it is never done with
// a Table lock held.
package fd

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/vfs"
)

// Whence values for Seek.
const (
	SEEK_SET = 0 // Offset is absolute
	SEEK_CUR = 1 // Offset is relative to the current position
	SEEK_END = 2 // Offset is relative to the end of the file
)

var whenceNames = map[string]int{
	"SEEK_SET": SEEK_SET,
	"SEEK_CUR": SEEK_CUR,
	"SEEK_END": SEEK_END,
}

// ParseWhence converts "SEEK_SET", "SEEK_CUR" or "SEEK_END" to its value.
func ParseWhence(name string) (int, error) {
	whence, ok := whenceNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown whence %q", name)
	}
	return whence, nil
}

// File is an open-file handle.
//
// The handle's lock is held for the entire read-offset, transfer, advance
// sequence of Read and Write, so concurrent operations through one handle
// never observe or produce a torn offset. The offset advances by the number
// of bytes actually transferred.
//
// A File starts with one reference. It is destroyed, releasing its vnode
// exactly once, when the last reference is released.
type File struct {
	vnode vfs.Vnode
	flags int

	mu     sync.Mutex
	offset int64
	refs   int
}

// NewFile creates a handle over vnode holding one reference.
//
// The handle takes over the caller's reference to vnode. A nil vnode is
// allowed for standard streams with no backing device; every I/O on such a
// handle fails with ENODEV.
func NewFile(vnode vfs.Vnode, flags int, offset int64) *File {
	return &File{
		vnode:  vnode,
		flags:  flags,
		offset: offset,
		refs:   1,
	}
}

// Acquire adds a reference.
func (f *File) Acquire() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.refs <= 0 {
		panic("fd: acquire of a released file")
	}
	f.refs++
}

// Release drops a reference. Dropping the last one releases the vnode and
// returns its error, if any.
func (f *File) Release(ctx context.Context) error {
	f.mu.Lock()
	if f.refs <= 0 {
		f.mu.Unlock()
		return errno.EBADF
	}
	f.refs--
	last := f.refs == 0
	f.mu.Unlock()

	if !last || f.vnode == nil {
		return nil
	}
	return f.vnode.Release(ctx)
}

// Read reads into p at the current offset and advances it by the number of
// bytes read. A count of 0 with a nil error means end of file.
//
// On error the offset is unchanged and the count is 0.
func (f *File) Read(ctx context.Context, p []byte) (int, error) {
	if f.vnode == nil {
		return 0, errno.ENODEV
	}
	if !vfs.CanRead(f.flags) {
		return 0, errno.EBADF
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.vnode.ReadAt(ctx, p, f.offset)
	if err != nil {
		return 0, err
	}

	f.offset += int64(n)
	return n, nil
}

// Write writes p at the current offset and advances it by the number of
// bytes written.
//
// In O_APPEND mode the offset is first moved to the end of the file, under
// the same lock, so appends through one handle never overwrite each other.
//
// On error the offset is unchanged and the count is 0.
func (f *File) Write(ctx context.Context, p []byte) (int, error) {
	if f.vnode == nil {
		return 0, errno.ENODEV
	}
	if !vfs.CanWrite(f.flags) {
		return 0, errno.EBADF
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	pos := f.offset
	if f.flags&vfs.O_APPEND != 0 {
		st, err := f.vnode.Stat(ctx)
		if err != nil {
			return 0, err
		}
		pos = st.Size
	}

	n, err := f.vnode.WriteAt(ctx, p, pos)
	if err != nil {
		return 0, err
	}

	f.offset = pos + int64(n)
	return n, nil
}

// Seek sets the offset relative to whence and returns the new offset.
//
// Returns:
//   - int64: The new offset
//   - error: ENODEV without a vnode, ESPIPE for non-seekable vnodes, EINVAL
//     for an unknown whence or a result that is negative or overflows
func (f *File) Seek(ctx context.Context, offset int64, whence int) (int64, error) {
	if f.vnode == nil {
		return 0, errno.ENODEV
	}
	if !f.vnode.Seekable() {
		return 0, errno.ESPIPE
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var base int64
	switch whence {
	case SEEK_SET:
		base = 0
	case SEEK_CUR:
		base = f.offset
	case SEEK_END:
		st, err := f.vnode.Stat(ctx)
		if err != nil {
			return 0, err
		}
		base = st.Size
	default:
		return 0, errno.EINVAL
	}

	if offset > 0 && base > math.MaxInt64-offset {
		return 0, errno.EINVAL
	}
	pos := base + offset
	if pos < 0 {
		return 0, errno.EINVAL
	}

	f.offset = pos
	return pos, nil
}

// Offset returns the current offset.
func (f *File) Offset() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offset
}

// Refs returns the current reference count.
func (f *File) Refs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs
}

// Flags returns the open flags.
func (f *File) Flags() int {
	return f.flags
}

// Vnode returns the underlying vnode, or nil.
func (f *File) Vnode() vfs.Vnode {
	return f.vnode
}
