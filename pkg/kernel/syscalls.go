package kernel

import (
	"context"
	"time"

	"github.com/marmos91/dittofd/internal/logger"
	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/fd"
	"github.com/marmos91/dittofd/pkg/uio"
	"github.com/marmos91/dittofd/pkg/vfs"
)

// stdStreams is the number of descriptors reserved for standard streams.
const stdStreams = 3

// Open opens path and returns the lowest free descriptor.
//
// With O_APPEND the new handle's offset starts at the end of the file.
//
// Parameters:
//   - ctx: Context for cancellation
//   - path: Path as supplied by the process; copied in up to its first NUL
//   - flags: O_* access mode and options
//   - mode: Permission bits for a file created with O_CREAT
//
// Returns:
//   - int: The new descriptor, or -1 on error
//   - error: ENAMETOOLONG for an oversized path, errors from the VFS
//     (ENOENT, EEXIST, EISDIR, ENODEV, ...), or EMFILE if the table is full
func (p *Process) Open(ctx context.Context, path string, flags int, mode uint32) (newfd int, err error) {
	start := time.Now()
	defer func() { p.leave("open", start, err) }()

	if err := p.enter(ctx); err != nil {
		return -1, err
	}

	// ===== Step 1: Copy in the path =====
	kpath, err := uio.CopyInPath(path, p.kernel.maxPathLen)
	if err != nil {
		return -1, err
	}

	// ===== Step 2: Open the vnode =====
	vnode, err := p.kernel.vfs.Open(ctx, kpath, flags, mode)
	if err != nil {
		return -1, err
	}

	var offset int64
	if flags&vfs.O_APPEND != 0 {
		st, err := vnode.Stat(ctx)
		if err != nil {
			if rerr := vnode.Release(ctx); rerr != nil {
				logger.Warn("kernel: pid %d: open %s: releasing vnode: %v", p.pid, kpath, rerr)
			}
			return -1, err
		}
		offset = st.Size
	}

	// ===== Step 3: Install the handle =====
	file := fd.NewFile(p.kernel.track(vnode), flags, offset)

	newfd, err = p.table.AllocateLowest(file)
	if err != nil {
		if rerr := file.Release(ctx); rerr != nil {
			logger.Warn("kernel: pid %d: open %s: releasing handle: %v", p.pid, kpath, rerr)
		}
		return -1, err
	}

	return newfd, nil
}

// Close closes fd. The handle is destroyed if no other descriptor refers
// to it.
//
// Returns EBADF if fd is out of range or not open.
func (p *Process) Close(ctx context.Context, fd int) (err error) {
	start := time.Now()
	defer func() { p.leave("close", start, err) }()

	if err := p.enter(ctx); err != nil {
		return err
	}
	return p.table.Vacate(ctx, fd)
}

// Dup2 makes newfd refer to the handle open at oldfd, closing whatever
// newfd referred to before. Dup2 of a descriptor onto itself does nothing.
//
// Returns:
//   - int: newfd, or -1 on error
//   - error: EBADF if either descriptor is out of range or oldfd is not open
func (p *Process) Dup2(ctx context.Context, oldfd, newfd int) (ret int, err error) {
	start := time.Now()
	defer func() { p.leave("dup2", start, err) }()

	if err := p.enter(ctx); err != nil {
		return -1, err
	}
	return p.table.Dup2(ctx, oldfd, newfd)
}

// Read reads up to len(buf) bytes from fd at its current offset.
// A return of 0 with a nil error means end of file.
//
// Returns EBADF if fd is not open for reading, ENODEV if the handle has no
// vnode, or the vnode's error.
func (p *Process) Read(ctx context.Context, fd int, buf []byte) (n int, err error) {
	start := time.Now()
	defer func() { p.leave("read", start, err) }()

	if err := p.enter(ctx); err != nil {
		return 0, err
	}

	file, err := p.table.Lookup(fd)
	if err != nil {
		return 0, err
	}
	defer p.releaseLookup(ctx, file)

	n, err = file.Read(ctx, buf)
	p.kernel.metrics.RecordBytes("read", int64(n))
	return n, err
}

// Write writes buf to fd at its current offset (at end of file for
// O_APPEND handles).
//
// Returns EBADF if fd is not open for writing, ENODEV if the handle has no
// vnode, or the vnode's error (ENOSPC, EFBIG, EIO, ...).
func (p *Process) Write(ctx context.Context, fd int, buf []byte) (n int, err error) {
	start := time.Now()
	defer func() { p.leave("write", start, err) }()

	if err := p.enter(ctx); err != nil {
		return 0, err
	}

	file, err := p.table.Lookup(fd)
	if err != nil {
		return 0, err
	}
	defer p.releaseLookup(ctx, file)

	n, err = file.Write(ctx, buf)
	p.kernel.metrics.RecordBytes("write", int64(n))
	return n, err
}

// Lseek moves fd's offset and returns the new position.
//
// The standard-stream descriptors 0, 1 and 2 are never seekable; they fail
// with ESPIPE whether or not they are open.
//
// Returns:
//   - int64: The new offset, or -1 on error
//   - error: EBADF for an out-of-range or closed descriptor, ESPIPE for a
//     standard stream or non-seekable vnode, EINVAL for an unknown whence or
//     a negative result
func (p *Process) Lseek(ctx context.Context, fd int, offset int64, whence int) (pos int64, err error) {
	start := time.Now()
	defer func() { p.leave("lseek", start, err) }()

	if err := p.enter(ctx); err != nil {
		return -1, err
	}

	if !p.table.Valid(fd) {
		return -1, errno.EBADF
	}
	if fd < stdStreams {
		return -1, errno.ESPIPE
	}

	file, err := p.table.Lookup(fd)
	if err != nil {
		return -1, err
	}
	defer p.releaseLookup(ctx, file)

	pos, err = file.Seek(ctx, offset, whence)
	if err != nil {
		return -1, err
	}
	return pos, nil
}
