package badger

import (
	"github.com/google/uuid"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so prefixed keys organize the two record
// types into separate namespaces.
//
// Data Type        Prefix   Key Format        Value Type
// =======================================================
// File Data        "f:"     f:<uuid>          File (JSON)
// Path Index       "p:"     p:<cleaned path>  uuid (16 raw bytes)
//
// 1. File Data (f:)
//    - One entry per file or directory, including the root
//    - Point lookup by UUID: O(1)
//    - A prefix scan over "f:" visits every file (GetAllContentIDs)
//
// 2. Path Index (p:)
//    - Maps a cleaned absolute path to the file UUID
//    - Written in the same transaction as the file entry, so the two
//      namespaces never disagree

const (
	// prefixFile is the key prefix for file data (File struct with UUID)
	prefixFile = "f:"

	// prefixPath is the key prefix for the path index (path → UUID)
	prefixPath = "p:"
)

// keyFile generates a key for file data.
//
// Format: "f:<uuid>"
// Example: "f:550e8400-e29b-41d4-a716-446655440000"
func keyFile(id uuid.UUID) []byte {
	return []byte(prefixFile + id.String())
}

// keyPath generates a key for the path index.
//
// Format: "p:<path>"
// Example: "p:/docs/report.txt"
func keyPath(path string) []byte {
	return []byte(prefixPath + path)
}
