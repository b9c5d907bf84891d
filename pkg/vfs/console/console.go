// Package console provides the console character device.
package console

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/store/metadata"
	"github.com/marmos91/dittofd/pkg/vfs"
)

// DeviceName is the name the console is registered under ("con:").
const DeviceName = "con"

// Console is a character device over a pair of streams.
//
// Offsets are ignored: reads consume the input stream and writes append to
// the output stream. The console is not seekable and reports size 0.
//
// The device lives as long as its registration; references only track how
// many descriptors point at it.
type Console struct {
	in  io.Reader
	out io.Writer

	inMu  sync.Mutex
	outMu sync.Mutex

	refMu sync.Mutex
	refs  int
}

// New creates a console reading from in and writing to out.
// A nil in reads as end of file; a nil out discards writes.
func New(in io.Reader, out io.Writer) *Console {
	if out == nil {
		out = io.Discard
	}
	return &Console{in: in, out: out}
}

var _ vfs.Vnode = (*Console)(nil)

// ReadAt reads whatever the input stream has available.
func (c *Console) ReadAt(_ context.Context, p []byte, _ int64) (int, error) {
	if c.in == nil || len(p) == 0 {
		return 0, nil
	}

	c.inMu.Lock()
	defer c.inMu.Unlock()

	n, err := c.in.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, errno.Wrap(errno.EIO, err)
	}
	return n, nil
}

// WriteAt writes all of p to the output stream.
func (c *Console) WriteAt(_ context.Context, p []byte, _ int64) (int, error) {
	c.outMu.Lock()
	defer c.outMu.Unlock()

	n, err := c.out.Write(p)
	if err != nil {
		return n, errno.Wrap(errno.EIO, err)
	}
	return n, nil
}

// Stat reports a character device of size 0.
func (c *Console) Stat(context.Context) (vfs.Stat, error) {
	return vfs.Stat{Type: metadata.FileTypeCharDevice, Mode: 0o666}, nil
}

// Seekable always returns false.
func (c *Console) Seekable() bool {
	return false
}

func (c *Console) Acquire() {
	c.refMu.Lock()
	c.refs++
	c.refMu.Unlock()
}

func (c *Console) Release(context.Context) error {
	c.refMu.Lock()
	defer c.refMu.Unlock()

	if c.refs <= 0 {
		return errno.EINVAL
	}
	c.refs--
	return nil
}

// Refs returns the number of outstanding references.
func (c *Console) Refs() int {
	c.refMu.Lock()
	defer c.refMu.Unlock()
	return c.refs
}
