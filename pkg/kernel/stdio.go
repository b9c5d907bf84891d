package kernel

import (
	"context"

	"github.com/marmos91/dittofd/pkg/fd"
	"github.com/marmos91/dittofd/pkg/vfs"
)

// StdioProvider supplies the vnodes for a new process's standard streams.
type StdioProvider interface {
	// OpenStdio opens the vnode for stream (fd.Stdin, fd.Stdout or
	// fd.Stderr), holding one reference for the caller.
	OpenStdio(ctx context.Context, stream int) (vfs.Vnode, error)
}

// ConsoleStdio opens a VFS device for every standard stream: read-only for
// stdin, write-only for stdout and stderr.
type ConsoleStdio struct {
	VFS *vfs.VFS

	// Device is the registered device name, without the trailing colon.
	Device string
}

// OpenStdio implements StdioProvider.
func (c ConsoleStdio) OpenStdio(ctx context.Context, stream int) (vfs.Vnode, error) {
	flags := vfs.O_WRONLY
	if stream == fd.Stdin {
		flags = vfs.O_RDONLY
	}
	return c.VFS.Open(ctx, c.Device+":", flags, 0)
}
