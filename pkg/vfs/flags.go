package vfs

import (
	"fmt"
	"strings"
)

// Open flags. Values match the user-level ABI of the system-call layer.
const (
	O_RDONLY  = 0  // Open for reading only
	O_WRONLY  = 1  // Open for writing only
	O_RDWR    = 2  // Open for reading and writing
	O_ACCMODE = 3  // Mask for the access mode
	O_CREAT   = 4  // Create file if it doesn't exist
	O_EXCL    = 8  // With O_CREAT, fail if file already exists
	O_TRUNC   = 16 // Truncate file upon open
	O_APPEND  = 32 // All writes happen at EOF
)

var flagNames = map[string]int{
	"O_RDONLY": O_RDONLY,
	"O_WRONLY": O_WRONLY,
	"O_RDWR":   O_RDWR,
	"O_CREAT":  O_CREAT,
	"O_EXCL":   O_EXCL,
	"O_TRUNC":  O_TRUNC,
	"O_APPEND": O_APPEND,
}

// ParseFlags ORs together symbolic flag names such as "O_RDWR" and "O_CREAT".
func ParseFlags(names []string) (int, error) {
	flags := 0
	for _, name := range names {
		value, ok := flagNames[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown open flag %q", name)
		}
		flags |= value
	}
	return flags, nil
}

// CanRead reports whether flags permit reading.
func CanRead(flags int) bool {
	mode := flags & O_ACCMODE
	return mode == O_RDONLY || mode == O_RDWR
}

// CanWrite reports whether flags permit writing.
func CanWrite(flags int) bool {
	mode := flags & O_ACCMODE
	return mode == O_WRONLY || mode == O_RDWR
}
