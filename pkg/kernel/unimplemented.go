package kernel

import (
	"context"
	"time"

	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/vfs"
)

// The calls below are part of the system-call surface but not supported.
// Each fails with EUNIMP after normal call admission, so they are counted
// and throttled like any other call.

// Chdir changes the working directory. Not implemented.
func (p *Process) Chdir(ctx context.Context, path string) error {
	return p.unimplemented(ctx, "chdir")
}

// Getcwd copies the working directory into buf. Not implemented.
func (p *Process) Getcwd(ctx context.Context, buf []byte) (int, error) {
	return 0, p.unimplemented(ctx, "getcwd")
}

// Fstat returns the attributes of the object open at fd. Not implemented.
func (p *Process) Fstat(ctx context.Context, fd int) (vfs.Stat, error) {
	return vfs.Stat{}, p.unimplemented(ctx, "fstat")
}

// Getdirentry reads the next directory entry name from fd into buf.
// Not implemented.
func (p *Process) Getdirentry(ctx context.Context, fd int, buf []byte) (int, error) {
	return 0, p.unimplemented(ctx, "getdirentry")
}

func (p *Process) unimplemented(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { p.leave(name, start, err) }()

	if err := p.enter(ctx); err != nil {
		return err
	}
	return errno.EUNIMP
}
