package vfs

import (
	"context"

	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// Stat is the subset of file attributes the descriptor layer needs.
type Stat struct {
	// Size is the current length in bytes (0 for devices)
	Size int64

	// Type is the kind of object behind the vnode
	Type metadata.FileType

	// Mode holds the permission bits
	Mode uint32
}

// Vnode is an open storage object: a regular file, a directory or a device.
//
// Vnodes are reference counted. Open returns a vnode holding one reference
// for the caller; Acquire adds one and Release drops one. The vnode's
// resources are freed when the last reference is released.
//
// ReadAt and WriteAt take an explicit offset and keep no position of their
// own; the descriptor layer owns seek offsets.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type Vnode interface {
	// ReadAt reads up to len(p) bytes at offset.
	//
	// A read at or past the end of the object returns a short count (possibly
	// 0) and a nil error. Errors are errno values.
	ReadAt(ctx context.Context, p []byte, offset int64) (int, error)

	// WriteAt writes p at offset, extending the object as needed.
	//
	// Returns the number of bytes written. Errors are errno values.
	WriteAt(ctx context.Context, p []byte, offset int64) (int, error)

	// Stat returns the current size, type and mode.
	Stat(ctx context.Context) (Stat, error)

	// Seekable reports whether offsets are meaningful for this object.
	// Devices such as the console return false.
	Seekable() bool

	// Acquire adds a reference.
	Acquire()

	// Release drops a reference, freeing the vnode when none remain.
	Release(ctx context.Context) error
}
