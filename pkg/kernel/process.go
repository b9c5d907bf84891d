package kernel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/dittofd/internal/logger"
	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/fd"
)

// Process is a system-call context with its own descriptor table.
//
// Every method may be called concurrently, including from goroutines acting
// as different threads of the same process. Once Exit has been called all
// system calls fail with EBADF.
type Process struct {
	kernel *Kernel
	pid    int
	ppid   int
	table  *fd.Table

	exited   atomic.Bool
	exitOnce sync.Once
	exitErr  error
}

// PID returns the process ID.
func (p *Process) PID() int {
	return p.pid
}

// PPID returns the parent's process ID, or 0 for a process created with
// NewProcess.
func (p *Process) PPID() int {
	return p.ppid
}

// Descriptors returns the number of open descriptors.
func (p *Process) Descriptors() int {
	return p.table.Len()
}

// Fork creates a child process whose descriptor table is a copy of this
// one. Parent and child share every open-file handle, and with it the seek
// offset.
//
// Returns EBADF if the process has exited, or ErrShutdown.
func (p *Process) Fork(ctx context.Context) (*Process, error) {
	if p.exited.Load() {
		return nil, errno.EBADF
	}

	table := p.table.Fork()
	child, err := p.kernel.register(table, p.pid)
	if err != nil {
		if cerr := table.CloseAll(ctx); cerr != nil {
			logger.Warn("kernel: pid %d: releasing forked descriptors: %v", p.pid, cerr)
		}
		return nil, err
	}

	logger.Debug("kernel: process %d forked %d", p.pid, child.pid)
	return child, nil
}

// Exit closes every descriptor and removes the process from the kernel.
// Only the first call has any effect; later calls return its result.
func (p *Process) Exit(ctx context.Context) error {
	p.exitOnce.Do(func() {
		p.exited.Store(true)
		p.exitErr = p.table.CloseAll(ctx)
		p.kernel.unregister(p.pid)
		logger.Debug("kernel: process %d exited", p.pid)
	})
	return p.exitErr
}

// Exited reports whether Exit has been called.
func (p *Process) Exited() bool {
	return p.exited.Load()
}

// enter admits a system call.
//
// Returns EBADF for an exited process, or EINTR if ctx ends while waiting
// for the syscall rate limiter.
func (p *Process) enter(ctx context.Context) error {
	if p.exited.Load() {
		return errno.EBADF
	}
	if p.kernel.limiter != nil {
		if err := p.kernel.limiter.Wait(ctx); err != nil {
			return errno.Wrap(errno.EINTR, err)
		}
	}
	return nil
}

// leave records a finished system call.
func (p *Process) leave(name string, start time.Time, err error) {
	p.kernel.metrics.RecordSyscall(name, time.Since(start), err)
	if err != nil {
		logger.Debug("kernel: pid %d: %s: %s (%v)", p.pid, name, errno.Code(err).Name(), err)
	}
}

// releaseLookup drops the reference taken by a table lookup.
func (p *Process) releaseLookup(ctx context.Context, f *fd.File) {
	if err := f.Release(ctx); err != nil {
		logger.Warn("kernel: pid %d: releasing handle: %v", p.pid, err)
	}
}
