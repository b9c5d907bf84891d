// Package script runs YAML-described system-call workloads against a kernel.
//
// A script is a list of steps, each naming one system call and its
// arguments. Descriptors returned by open can be saved under a name and
// referred to by later steps, and a step may assert the data read, the
// return value or the error number.
//
// Example:
//
//	name: hello
//	steps:
//	  - {op: open, path: /file.txt, flags: [O_RDWR, O_CREAT], mode: 0644, save: f}
//	  - {op: write, ref: f, data: hello}
//	  - {op: lseek, ref: f, offset: 0, whence: SEEK_SET}
//	  - {op: read, ref: f, length: 5, expect: hello}
//	  - {op: lseek, fd: 1, whence: SEEK_SET, errno: ESPIPE}
package script

import (
	"fmt"
	"os"

	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/fd"
	"github.com/marmos91/dittofd/pkg/vfs"
	"gopkg.in/yaml.v3"
)

// Operations understood by the runner.
const (
	OpOpen        = "open"
	OpClose       = "close"
	OpDup2        = "dup2"
	OpRead        = "read"
	OpWrite       = "write"
	OpLseek       = "lseek"
	OpChdir       = "chdir"
	OpGetcwd      = "getcwd"
	OpFstat       = "fstat"
	OpGetdirentry = "getdirentry"
	OpFork        = "fork"
	OpExit        = "exit"
)

var knownOps = map[string]bool{
	OpOpen: true, OpClose: true, OpDup2: true, OpRead: true, OpWrite: true,
	OpLseek: true, OpChdir: true, OpGetcwd: true, OpFstat: true,
	OpGetdirentry: true, OpFork: true, OpExit: true,
}

// Script is a named sequence of steps.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one system call.
//
// The descriptor argument comes from FD or, when Ref is set, from the
// descriptor an earlier open step saved under that name. Proc selects the
// process by the name a fork step saved it under; empty means the initial
// process.
type Step struct {
	Op   string `yaml:"op"`
	Proc string `yaml:"proc,omitempty"`

	// open
	Path  string   `yaml:"path,omitempty"`
	Flags []string `yaml:"flags,omitempty"`
	Mode  uint32   `yaml:"mode,omitempty"`

	// Save names the descriptor returned by open, or the child of fork.
	Save string `yaml:"save,omitempty"`

	Ref   string `yaml:"ref,omitempty"`
	FD    *int   `yaml:"fd,omitempty"`
	NewFD *int   `yaml:"newfd,omitempty"`

	// read/write
	Data   string `yaml:"data,omitempty"`
	Length int    `yaml:"length,omitempty"`

	// lseek
	Offset int64  `yaml:"offset,omitempty"`
	Whence string `yaml:"whence,omitempty"`

	// Expect is the data a read must return.
	Expect *string `yaml:"expect,omitempty"`

	// Ret is the return value the call must produce.
	Ret *int64 `yaml:"ret,omitempty"`

	// Errno is the error the call must fail with, e.g. "EBADF". "OK"
	// asserts success.
	Errno string `yaml:"errno,omitempty"`
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes a script and checks that every step is well formed.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks step operations, references and assertions without
// running anything.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("script %q has no steps", s.Name)
	}

	saved := map[string]bool{}
	procs := map[string]bool{"": true}

	for i, st := range s.Steps {
		if !knownOps[st.Op] {
			return fmt.Errorf("step %d: unknown op %q", i, st.Op)
		}
		if !procs[st.Proc] {
			return fmt.Errorf("step %d: unknown process %q", i, st.Proc)
		}
		if st.Ref != "" {
			if st.FD != nil {
				return fmt.Errorf("step %d: ref and fd are mutually exclusive", i)
			}
			if !saved[st.Ref] {
				return fmt.Errorf("step %d: %q is not saved by an earlier step", i, st.Ref)
			}
		}
		if st.Errno != "" && st.Errno != "OK" {
			if _, ok := errno.Parse(st.Errno); !ok {
				return fmt.Errorf("step %d: unknown errno %q", i, st.Errno)
			}
		}
		if st.Length < 0 {
			return fmt.Errorf("step %d: negative length", i)
		}

		switch st.Op {
		case OpOpen:
			if _, err := vfs.ParseFlags(st.Flags); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			if st.Save != "" {
				saved[st.Save] = true
			}
		case OpFork:
			if st.Save == "" {
				return fmt.Errorf("step %d: fork needs save", i)
			}
			procs[st.Save] = true
		case OpLseek:
			if st.Whence != "" {
				if _, err := fd.ParseWhence(st.Whence); err != nil {
					return fmt.Errorf("step %d: %w", i, err)
				}
			}
		case OpDup2:
			if st.NewFD == nil {
				return fmt.Errorf("step %d: dup2 needs newfd", i)
			}
		}
	}

	return nil
}
