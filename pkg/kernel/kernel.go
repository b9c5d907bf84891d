// Package kernel exposes the descriptor system calls to processes.
//
// A Kernel owns the VFS and the per-process open-file tables. Each Process
// gets standard streams on descriptors 0, 1 and 2 at creation, from the
// kernel's StdioProvider, and loses all of its descriptors on Exit.
//
// Usage Pattern:
//
//	k := kernel.New(v, kernel.Config{Stdio: kernel.ConsoleStdio{VFS: v, Device: "con"}})
//	proc, err := k.NewProcess(ctx)
//	fd, err := proc.Open(ctx, "/file.txt", vfs.O_RDWR|vfs.O_CREAT, 0o644)
//	n, err := proc.Write(ctx, fd, []byte("hello"))
//	defer proc.Exit(ctx)
package kernel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/marmos91/dittofd/internal/logger"
	"github.com/marmos91/dittofd/internal/ratelimiter"
	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/fd"
	"github.com/marmos91/dittofd/pkg/metrics"
	"github.com/marmos91/dittofd/pkg/uio"
	"github.com/marmos91/dittofd/pkg/vfs"
)

// ErrShutdown is returned by NewProcess after Shutdown.
var ErrShutdown = errors.New("kernel is shut down")

// Config configures a Kernel.
type Config struct {
	// MaxDescriptors is the size of each process's descriptor table.
	// Default: 128
	MaxDescriptors int `mapstructure:"max_descriptors" validate:"omitempty,min=3,max=65536"`

	// MaxPathLen bounds path arguments, terminating NUL included.
	// Default: 1024
	MaxPathLen int `mapstructure:"max_path_len" validate:"omitempty,min=2"`

	// SyscallRate is the sustained number of system calls admitted per
	// second across all processes. Zero disables throttling.
	SyscallRate uint `mapstructure:"syscall_rate"`

	// SyscallBurst is the number of calls admitted above SyscallRate.
	SyscallBurst uint `mapstructure:"syscall_burst"`

	// Stdio supplies the vnodes behind descriptors 0, 1 and 2.
	// If nil, standard-stream I/O fails with ENODEV.
	Stdio StdioProvider `mapstructure:"-"`

	// Metrics receives per-call observations. If nil, nothing is recorded.
	Metrics metrics.SyscallMetrics `mapstructure:"-"`
}

// Kernel holds global system-call state and the live processes.
//
// Thread Safety:
// Safe for concurrent use. mu guards the process registry.
type Kernel struct {
	vfs            *vfs.VFS
	stdio          StdioProvider
	maxDescriptors int
	maxPathLen     int
	metrics        metrics.SyscallMetrics
	limiter        *ratelimiter.RateLimiter

	mu       sync.Mutex
	nextPID  int
	procs    map[int]*Process
	shutdown bool
}

// New creates a kernel over v.
func New(v *vfs.VFS, cfg Config) *Kernel {
	if cfg.MaxDescriptors <= 0 {
		cfg.MaxDescriptors = fd.DefaultMaxDescriptors
	}
	if cfg.MaxPathLen <= 0 {
		cfg.MaxPathLen = uio.DefaultMaxPathLen
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoopSyscallMetrics()
	}

	var limiter *ratelimiter.RateLimiter
	if cfg.SyscallRate > 0 {
		limiter = ratelimiter.New(cfg.SyscallRate, cfg.SyscallBurst)
	}

	return &Kernel{
		vfs:            v,
		stdio:          cfg.Stdio,
		maxDescriptors: cfg.MaxDescriptors,
		maxPathLen:     cfg.MaxPathLen,
		metrics:        cfg.Metrics,
		limiter:        limiter,
		nextPID:        1,
		procs:          make(map[int]*Process),
	}
}

// VFS returns the kernel's VFS.
func (k *Kernel) VFS() *vfs.VFS {
	return k.vfs
}

// NewProcess creates a process with standard streams on descriptors 0-2.
//
// A standard stream that cannot be opened is logged and left as a handle
// without a vnode, so the process still starts and I/O on that descriptor
// fails with ENODEV.
//
// The streams are installed before the process is registered, so a
// concurrent Shutdown either sees the complete process or none at all.
//
// Returns ErrShutdown after Shutdown.
func (k *Kernel) NewProcess(ctx context.Context) (*Process, error) {
	table := fd.NewTable(k.maxDescriptors)

	for i := fd.Stdin; i <= fd.Stderr; i++ {
		k.installStdio(ctx, table, i)
	}

	p, err := k.register(table, 0)
	if err != nil {
		if cerr := table.CloseAll(ctx); cerr != nil {
			logger.Warn("kernel: releasing standard streams: %v", cerr)
		}
		return nil, err
	}

	logger.Debug("kernel: created process %d", p.pid)
	return p, nil
}

func (k *Kernel) installStdio(ctx context.Context, table *fd.Table, stream int) {
	flags := vfs.O_WRONLY
	if stream == fd.Stdin {
		flags = vfs.O_RDONLY
	}

	var vnode vfs.Vnode
	if k.stdio != nil {
		vn, err := k.stdio.OpenStdio(ctx, stream)
		if err != nil {
			logger.Warn("kernel: standard stream %d unavailable: %v", stream, err)
		} else {
			vnode = k.track(vn)
		}
	}

	// Slots 0-2 of a new table are empty, so there is no previous occupant.
	_, _ = table.Install(stream, fd.NewFile(vnode, flags, 0))
}

// register assigns a PID and adds a process over table to the registry.
func (k *Kernel) register(table *fd.Table, parent int) (*Process, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.shutdown {
		return nil, ErrShutdown
	}

	p := &Process{
		kernel: k,
		pid:    k.nextPID,
		ppid:   parent,
		table:  table,
	}
	k.nextPID++
	k.procs[p.pid] = p
	return p, nil
}

func (k *Kernel) unregister(pid int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.procs, pid)
}

// Process returns the live process with the given PID.
func (k *Kernel) Process(pid int) (*Process, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	p, ok := k.procs[pid]
	return p, ok
}

// PIDs returns the PIDs of all live processes in ascending order.
func (k *Kernel) PIDs() []int {
	k.mu.Lock()
	defer k.mu.Unlock()

	pids := make([]int, 0, len(k.procs))
	for pid := range k.procs {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// Shutdown exits every live process and refuses new ones.
// It returns the joined errors of the individual exits.
func (k *Kernel) Shutdown(ctx context.Context) error {
	k.mu.Lock()
	k.shutdown = true
	procs := make([]*Process, 0, len(k.procs))
	for _, p := range k.procs {
		procs = append(procs, p)
	}
	k.mu.Unlock()

	var errs []error
	for _, p := range procs {
		if err := p.Exit(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pid %d: %w", p.pid, err))
		}
	}

	logger.Debug("kernel: shut down, %d processes exited", len(procs))
	return errors.Join(errs...)
}

// track counts vnode as backing a new open-file handle. The returned vnode
// reports the handle's destruction when it is released.
func (k *Kernel) track(vn vfs.Vnode) vfs.Vnode {
	k.metrics.HandleOpened()
	return &trackedVnode{Vnode: vn, metrics: k.metrics}
}

type trackedVnode struct {
	vfs.Vnode
	metrics metrics.SyscallMetrics
}

func (t *trackedVnode) Release(ctx context.Context) error {
	t.metrics.HandleClosed()
	return t.Vnode.Release(ctx)
}

// Result converts a call's outcome to the system-call return convention:
// n on success, the negated errno on failure.
func Result(n int64, err error) int64 {
	if err != nil {
		return -int64(errno.Code(err))
	}
	return n
}
