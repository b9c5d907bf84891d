// Package uio moves data between process memory and the kernel.
package uio

import (
	"strings"

	"github.com/marmos91/dittofd/pkg/errno"
)

// DefaultMaxPathLen is the path buffer size used when none is configured,
// including the terminating NUL.
const DefaultMaxPathLen = 1024

// CopyInPath copies a path string supplied by a process into kernel memory.
//
// The copy stops at the first NUL byte, like a C string copy-in. The copied
// string plus its terminator must fit in max bytes.
//
// Parameters:
//   - src: Path as supplied by the caller
//   - max: Size of the kernel path buffer (DefaultMaxPathLen if <= 0)
//
// Returns:
//   - string: The copied path
//   - error: errno.ENAMETOOLONG if the path does not fit
func CopyInPath(src string, max int) (string, error) {
	if max <= 0 {
		max = DefaultMaxPathLen
	}

	if i := strings.IndexByte(src, 0); i >= 0 {
		src = src[:i]
	}

	if len(src)+1 > max {
		return "", errno.ENAMETOOLONG
	}

	// Detach from the caller's backing array.
	return strings.Clone(src), nil
}
