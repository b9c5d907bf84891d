package script

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/dittofd/pkg/kernel"
	contentmemory "github.com/marmos91/dittofd/pkg/store/content/memory"
	metadatamemory "github.com/marmos91/dittofd/pkg/store/metadata/memory"
	"github.com/marmos91/dittofd/pkg/vfs"
	"github.com/marmos91/dittofd/pkg/vfs/console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKernel(t *testing.T, input string) (*kernel.Kernel, *bytes.Buffer) {
	t.Helper()

	v := vfs.New(metadatamemory.NewMemoryMetadataStore(), contentmemory.NewMemoryContentStore(0))
	out := &bytes.Buffer{}
	require.NoError(t, v.AddDevice(console.DeviceName, console.New(strings.NewReader(input), out)))

	k := kernel.New(v, kernel.Config{
		Stdio: kernel.ConsoleStdio{VFS: v, Device: console.DeviceName},
	})
	return k, out
}

func mustParse(t *testing.T, src string) *Script {
	t.Helper()
	s, err := Parse([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRun_DescriptorScenario(t *testing.T) {
	k, out := newTestKernel(t, "")

	s := mustParse(t, `
name: scenario
steps:
  - {op: open, path: /file.txt, flags: [O_RDWR, O_CREAT], mode: 0644, save: f, ret: 3}
  - {op: write, ref: f, data: hello, ret: 5}
  - {op: lseek, ref: f, offset: 0, whence: SEEK_SET, ret: 0}
  - {op: read, ref: f, length: 5, expect: hello}
  - {op: dup2, fd: 1, newfd: 4, ret: 4}
  - {op: write, fd: 4, data: hi}
  - {op: close, ref: f}
  - {op: read, ref: f, length: 1, errno: EBADF, ret: -1}
  - {op: lseek, fd: 1, whence: SEEK_SET, errno: ESPIPE}
  - {op: lseek, fd: 2, whence: SEEK_END, errno: ESPIPE}
`)

	report, err := NewRunner(k).Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, report.Results, len(s.Steps))
	assert.Empty(t, report.Failures())

	assert.Equal(t, "scenario", report.Script)
	assert.Equal(t, "hello", report.Results[3].Data)
	assert.Equal(t, "OK", report.Results[0].Errno)
	assert.Equal(t, "hi", out.String())
	assert.Empty(t, k.PIDs(), "run must exit its processes")
}

func TestRun_AssertionFailure(t *testing.T) {
	k, _ := newTestKernel(t, "")

	s := mustParse(t, `
steps:
  - {op: open, path: /a, flags: [O_WRONLY, O_CREAT], save: a}
  - {op: close, ref: a, errno: EBADF}
  - {op: close, ref: a, errno: EBADF}
`)

	report, err := NewRunner(k).Run(context.Background(), s)
	require.ErrorIs(t, err, ErrAssertion)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Step)
	assert.Contains(t, failures[0].Failure, "expected EBADF, got OK")
}

func TestRun_ReadExpectMismatch(t *testing.T) {
	k, _ := newTestKernel(t, "")

	s := mustParse(t, `
steps:
  - {op: open, path: /a, flags: [O_RDWR, O_CREAT], save: a}
  - {op: write, ref: a, data: abc}
  - {op: lseek, ref: a, offset: 0}
  - {op: read, ref: a, length: 3, expect: xyz}
`)

	report, err := NewRunner(k).Run(context.Background(), s)
	require.ErrorIs(t, err, ErrAssertion)
	require.Len(t, report.Failures(), 1)
	assert.Contains(t, report.Failures()[0].Failure, `"abc"`)
}

func TestRun_FailedOpenRef(t *testing.T) {
	k, _ := newTestKernel(t, "")

	s := mustParse(t, `
steps:
  - {op: open, path: /missing, flags: [O_RDONLY], save: m, errno: ENOENT, ret: -1}
  - {op: read, ref: m, length: 1, errno: EBADF}
`)

	_, err := NewRunner(k).Run(context.Background(), s)
	require.NoError(t, err)
}

func TestRun_ConsoleInput(t *testing.T) {
	k, _ := newTestKernel(t, "typed")

	s := mustParse(t, `
steps:
  - {op: read, fd: 0, length: 16, expect: typed, ret: 5}
  - {op: write, fd: 0, data: x, errno: EBADF}
`)

	_, err := NewRunner(k).Run(context.Background(), s)
	require.NoError(t, err)
}

func TestRun_ForkSharesOffset(t *testing.T) {
	k, _ := newTestKernel(t, "")

	s := mustParse(t, `
steps:
  - {op: open, path: /shared, flags: [O_RDWR, O_CREAT], save: f}
  - {op: fork, save: child}
  - {op: write, proc: child, ref: f, data: abcd}
  - {op: lseek, ref: f, offset: 0, whence: SEEK_CUR, ret: 4}
  - {op: exit, proc: child}
  - {op: write, proc: child, ref: f, data: x, errno: EBADF}
  - {op: write, ref: f, data: e, ret: 1}
`)

	report, err := NewRunner(k).Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Results[1].Ret, "fork returns the child PID")
}

func TestRun_UnimplementedCalls(t *testing.T) {
	k, _ := newTestKernel(t, "")

	s := mustParse(t, `
steps:
  - {op: chdir, path: /, errno: EUNIMP}
  - {op: getcwd, length: 64, errno: EUNIMP}
  - {op: fstat, fd: 1, errno: EUNIMP}
  - {op: getdirentry, fd: 0, length: 64, errno: EUNIMP}
`)

	_, err := NewRunner(k).Run(context.Background(), s)
	require.NoError(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	k, _ := newTestKernel(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := mustParse(t, "steps:\n  - {op: close, fd: 9}\n")

	report, err := NewRunner(k).Run(ctx, s)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no steps", "name: empty\n", "no steps"},
		{"unknown op", "steps:\n  - {op: mkdir}\n", "unknown op"},
		{"unknown ref", "steps:\n  - {op: close, ref: f}\n", "not saved"},
		{"ref and fd", "steps:\n  - {op: open, path: /a, flags: [O_RDONLY], save: f}\n  - {op: close, ref: f, fd: 3}\n", "mutually exclusive"},
		{"unknown errno", "steps:\n  - {op: close, fd: 3, errno: EWHAT}\n", "unknown errno"},
		{"unknown flag", "steps:\n  - {op: open, path: /a, flags: [O_SYNC]}\n", "unknown open flag"},
		{"unknown whence", "steps:\n  - {op: lseek, fd: 3, whence: SEEK_HOLE}\n", "unknown whence"},
		{"fork without save", "steps:\n  - {op: fork}\n", "fork needs save"},
		{"dup2 without newfd", "steps:\n  - {op: dup2, fd: 1}\n", "needs newfd"},
		{"unknown process", "steps:\n  - {op: close, proc: p, fd: 3}\n", "unknown process"},
		{"negative length", "steps:\n  - {op: read, fd: 0, length: -1}\n", "negative length"},
		{"bad yaml", "steps: [", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_OctalMode(t *testing.T) {
	s := mustParse(t, "steps:\n  - {op: open, path: /a, flags: [O_CREAT, O_WRONLY], mode: 0644}\n")
	assert.Equal(t, uint32(0o644), s.Steps[0].Mode)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: file\nsteps:\n  - {op: close, fd: 7, errno: EBADF}\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file", s.Name)
	require.Len(t, s.Steps, 1)
	require.NotNil(t, s.Steps[0].FD)
	assert.Equal(t, 7, *s.Steps[0].FD)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRun_FailedForkProcess(t *testing.T) {
	k, _ := newTestKernel(t, "")

	s := mustParse(t, `
steps:
  - {op: exit}
  - {op: fork, save: c, errno: EBADF, ret: -1}
  - {op: close, proc: c, fd: 3, errno: EBADF, ret: -1}
  - {op: exit, proc: c, errno: EBADF}
`)

	report, err := NewRunner(k).Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, report.Results, 4)
	assert.Equal(t, "close", report.Results[2].Op)
	assert.Empty(t, k.PIDs())
}
