// Package errno defines the error codes returned by the system-call layer.
//
// Every failure visible to a process is reported as an Errno. Lower layers
// (VFS, stores) translate their own errors into an Errno once, at the
// boundary where they are produced; the descriptor layer passes them through
// unchanged.
//
// Usage Pattern:
//
//	n, err := proc.Read(ctx, fd, buf)
//	if errors.Is(err, errno.EBADF) {
//	    // descriptor not open
//	}
//
//	ret := kernel.Result(int64(n), err) // n on success, -errno on failure
package errno

import (
	"errors"
	"fmt"
)

// Errno is a system-call error number.
//
// The zero value is not a valid error; successful calls return a nil error.
type Errno int

// Error numbers. Values match the user-level ABI, so codes reported by
// scripts and logs are the ones user programs see.
const (
	ENOSYS       Errno = 1  // No such system call
	EUNIMP       Errno = 2  // Unimplemented feature
	ENOMEM       Errno = 3  // Out of memory
	EAGAIN       Errno = 4  // Operation would block
	EINTR        Errno = 5  // Interrupted system call
	EFAULT       Errno = 6  // Bad memory reference
	ENAMETOOLONG Errno = 7  // String too long
	EINVAL       Errno = 8  // Invalid argument
	EPERM        Errno = 9  // Operation not permitted
	EACCES       Errno = 10 // Permission denied
	ENOTDIR      Errno = 17 // Not a directory
	EISDIR       Errno = 18 // Is a directory
	ENOENT       Errno = 19 // No such file or directory
	EEXIST       Errno = 22 // File or object exists
	ENODEV       Errno = 25 // No such device
	ENXIO        Errno = 26 // Device not available
	EBUSY        Errno = 27 // Device or resource busy
	EMFILE       Errno = 28 // Too many open files
	ENFILE       Errno = 29 // Too many open files in system
	EBADF        Errno = 30 // Bad file number
	EIO          Errno = 32 // Input/output error
	ESPIPE       Errno = 33 // Illegal seek
	EROFS        Errno = 35 // Read-only file system
	ENOSPC       Errno = 36 // No space left on device
	EFBIG        Errno = 38 // File too large
)

var names = map[Errno]string{
	ENOSYS:       "ENOSYS",
	EUNIMP:       "EUNIMP",
	ENOMEM:       "ENOMEM",
	EAGAIN:       "EAGAIN",
	EINTR:        "EINTR",
	EFAULT:       "EFAULT",
	ENAMETOOLONG: "ENAMETOOLONG",
	EINVAL:       "EINVAL",
	EPERM:        "EPERM",
	EACCES:       "EACCES",
	ENOTDIR:      "ENOTDIR",
	EISDIR:       "EISDIR",
	ENOENT:       "ENOENT",
	EEXIST:       "EEXIST",
	ENODEV:       "ENODEV",
	ENXIO:        "ENXIO",
	EBUSY:        "EBUSY",
	EMFILE:       "EMFILE",
	ENFILE:       "ENFILE",
	EBADF:        "EBADF",
	EIO:          "EIO",
	ESPIPE:       "ESPIPE",
	EROFS:        "EROFS",
	ENOSPC:       "ENOSPC",
	EFBIG:        "EFBIG",
}

var messages = map[Errno]string{
	ENOSYS:       "no such system call",
	EUNIMP:       "unimplemented feature",
	ENOMEM:       "out of memory",
	EAGAIN:       "operation would block",
	EINTR:        "interrupted system call",
	EFAULT:       "bad memory reference",
	ENAMETOOLONG: "string too long",
	EINVAL:       "invalid argument",
	EPERM:        "operation not permitted",
	EACCES:       "permission denied",
	ENOTDIR:      "not a directory",
	EISDIR:       "is a directory",
	ENOENT:       "no such file or directory",
	EEXIST:       "file or object exists",
	ENODEV:       "no such device",
	ENXIO:        "device not available",
	EBUSY:        "device or resource busy",
	EMFILE:       "too many open files",
	ENFILE:       "too many open files in system",
	EBADF:        "bad file number",
	EIO:          "input/output error",
	ESPIPE:       "illegal seek",
	EROFS:        "read-only file system",
	ENOSPC:       "no space left on device",
	EFBIG:        "file too large",
}

// Error implements the error interface.
func (e Errno) Error() string {
	if msg, ok := messages[e]; ok {
		return msg
	}
	return fmt.Sprintf("errno %d", int(e))
}

// Name returns the symbolic name of the error (e.g. "EBADF").
func (e Errno) Name() string {
	if name, ok := names[e]; ok {
		return name
	}
	return fmt.Sprintf("E%d", int(e))
}

// Parse returns the Errno for a symbolic name such as "EBADF".
func Parse(name string) (Errno, bool) {
	for code, n := range names {
		if n == name {
			return code, true
		}
	}
	return 0, false
}

// wrapped carries an underlying cause while still matching its Errno.
type wrapped struct {
	code  Errno
	cause error
}

func (w *wrapped) Error() string {
	return fmt.Sprintf("%s: %v", w.code.Error(), w.cause)
}

func (w *wrapped) Unwrap() []error {
	return []error{w.code, w.cause}
}

// Wrap attaches a cause to an error code.
//
// The result satisfies errors.Is(err, code) and errors.Is(err, cause), so
// callers can match on the code while logs keep the original failure.
// Wrap returns nil if cause is nil.
func Wrap(code Errno, cause error) error {
	if cause == nil {
		return nil
	}
	return &wrapped{code: code, cause: cause}
}

// Code extracts the Errno carried by err.
//
// Returns 0 for a nil error and EIO for errors that carry no Errno.
func Code(err error) Errno {
	if err == nil {
		return 0
	}

	var code Errno
	if errors.As(err, &code) {
		return code
	}

	return EIO
}
