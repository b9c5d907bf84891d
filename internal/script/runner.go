package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/dittofd/internal/logger"
	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/fd"
	"github.com/marmos91/dittofd/pkg/kernel"
	"github.com/marmos91/dittofd/pkg/vfs"
)

// ErrAssertion is returned by Run when at least one step's assertion failed.
var ErrAssertion = errors.New("script assertion failed")

// Result is the outcome of one step.
type Result struct {
	Step  int    `json:"step" yaml:"step"`
	Op    string `json:"op" yaml:"op"`
	Ret   int64  `json:"ret" yaml:"ret"`
	Errno string `json:"errno" yaml:"errno"`
	Data  string `json:"data,omitempty" yaml:"data,omitempty"`

	// Failure describes a failed assertion; empty if the step passed.
	Failure string `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// Report collects the results of a run.
type Report struct {
	Script  string   `json:"script" yaml:"script"`
	Results []Result `json:"results" yaml:"results"`
}

// Failures returns the results whose assertions failed.
func (r *Report) Failures() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Failure != "" {
			failed = append(failed, res)
		}
	}
	return failed
}

// Runner executes scripts against a kernel.
type Runner struct {
	kernel *kernel.Kernel
}

// NewRunner creates a runner over k.
func NewRunner(k *kernel.Kernel) *Runner {
	return &Runner{kernel: k}
}

// run holds the state of one script execution.
type run struct {
	procs map[string]*kernel.Process
	fds   map[string]int
}

// Run executes every step of s in a fresh process.
//
// Failing system calls do not stop the run; they are part of the results.
// Every process the script created is exited when the run ends.
//
// Returns:
//   - *Report: One result per step executed
//   - error: ErrAssertion if any assertion failed, or an error if the
//     process could not be created or ctx was cancelled
func (r *Runner) Run(ctx context.Context, s *Script) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	proc, err := r.kernel.NewProcess(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create process: %w", err)
	}

	st := &run{
		procs: map[string]*kernel.Process{"": proc},
		fds:   map[string]int{},
	}
	defer st.exitAll(ctx)

	report := &Report{Script: s.Name}
	failed := 0

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := st.exec(ctx, step)
		res.Step = i
		res.Failure = check(step, res)
		if res.Failure != "" {
			failed++
			logger.Warn("script %s: step %d (%s): %s", s.Name, i, step.Op, res.Failure)
		} else {
			logger.Debug("script %s: step %d (%s) = %d %s", s.Name, i, step.Op, res.Ret, res.Errno)
		}
		report.Results = append(report.Results, res)
	}

	if failed > 0 {
		return report, fmt.Errorf("%w: %d of %d steps", ErrAssertion, failed, len(s.Steps))
	}
	return report, nil
}

// exec performs one step. Return values follow the system-call convention:
// the call's result on success, -1 on failure.
func (st *run) exec(ctx context.Context, step Step) Result {
	proc, ok := st.procs[step.Proc]
	if !ok {
		// The fork that should have created it failed; treat the call like
		// one made by an exited process.
		return Result{Op: step.Op, Ret: -1, Errno: errnoName(errno.EBADF)}
	}
	descriptor := st.descriptor(step)

	var (
		ret  int64
		data string
		err  error
	)

	switch step.Op {
	case OpOpen:
		flags, _ := vfs.ParseFlags(step.Flags)
		var newfd int
		newfd, err = proc.Open(ctx, step.Path, flags, step.Mode)
		ret = int64(newfd)
		if err == nil && step.Save != "" {
			st.fds[step.Save] = newfd
		}

	case OpClose:
		err = proc.Close(ctx, descriptor)

	case OpDup2:
		var newfd int
		newfd, err = proc.Dup2(ctx, descriptor, *step.NewFD)
		ret = int64(newfd)

	case OpRead:
		buf := make([]byte, step.Length)
		var n int
		n, err = proc.Read(ctx, descriptor, buf)
		ret = int64(n)
		data = string(buf[:n])

	case OpWrite:
		var n int
		n, err = proc.Write(ctx, descriptor, []byte(step.Data))
		ret = int64(n)

	case OpLseek:
		whence := fd.SEEK_SET
		if step.Whence != "" {
			whence, _ = fd.ParseWhence(step.Whence)
		}
		ret, err = proc.Lseek(ctx, descriptor, step.Offset, whence)

	case OpChdir:
		err = proc.Chdir(ctx, step.Path)

	case OpGetcwd:
		var n int
		n, err = proc.Getcwd(ctx, make([]byte, step.Length))
		ret = int64(n)

	case OpFstat:
		_, err = proc.Fstat(ctx, descriptor)

	case OpGetdirentry:
		var n int
		n, err = proc.Getdirentry(ctx, descriptor, make([]byte, step.Length))
		ret = int64(n)

	case OpFork:
		var child *kernel.Process
		child, err = proc.Fork(ctx)
		if err == nil {
			st.procs[step.Save] = child
			ret = int64(child.PID())
		}

	case OpExit:
		err = proc.Exit(ctx)
	}

	if err != nil {
		ret = -1
	}

	return Result{
		Op:    step.Op,
		Ret:   ret,
		Errno: errnoName(err),
		Data:  data,
	}
}

// descriptor resolves the step's descriptor argument.
func (st *run) descriptor(step Step) int {
	if step.Ref != "" {
		// A ref whose open failed resolves to an invalid descriptor.
		if n, ok := st.fds[step.Ref]; ok {
			return n
		}
		return -1
	}
	if step.FD != nil {
		return *step.FD
	}
	return -1
}

func (st *run) exitAll(ctx context.Context) {
	for name, p := range st.procs {
		if err := p.Exit(ctx); err != nil {
			logger.Warn("script: exiting process %q (pid %d): %v", name, p.PID(), err)
		}
	}
}

// check evaluates a step's assertions against its result.
func check(step Step, res Result) string {
	if step.Errno != "" && step.Errno != res.Errno {
		return fmt.Sprintf("expected %s, got %s", step.Errno, res.Errno)
	}
	if step.Ret != nil && *step.Ret != res.Ret {
		return fmt.Sprintf("expected return %d, got %d", *step.Ret, res.Ret)
	}
	if step.Expect != nil && *step.Expect != res.Data {
		return fmt.Sprintf("expected data %q, got %q", *step.Expect, res.Data)
	}
	return ""
}

func errnoName(err error) string {
	if err == nil {
		return "OK"
	}
	return errno.Code(err).Name()
}
