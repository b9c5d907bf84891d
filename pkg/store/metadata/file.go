package metadata

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// File represents a file's identity and attributes.
//
// The namespace is flat: a file is identified by its cleaned absolute Path,
// and its parent is the directory whose path is path.Dir(Path). The root
// directory "/" always exists.
//
// The File struct embeds FileAttr for convenient access to attributes directly
// on the File object (e.g., file.Size instead of file.Attr.Size).
//
// Identity Fields:
//   - ID: Unique UUID identifier for this file, stable for its lifetime
//   - Path: Cleaned absolute path (e.g., "/documents/report.txt")
type File struct {
	// ID is a unique identifier for this file.
	// Generated using UUID v4 (random) for collision resistance.
	ID uuid.UUID `json:"id"`

	// Path is the cleaned absolute path of the file. Always starts with "/".
	Path string `json:"path"`

	// FileAttr is embedded for convenient access to attributes.
	FileAttr
}

// FileAttr contains the metadata for a file or directory.
//
// Time Semantics:
//   - Atime (access time): Updated when file is read
//   - Mtime (modification time): Updated when file content changes
//   - Ctime (change time): Updated when metadata changes (size, mode)
type FileAttr struct {
	// Type is the file type (regular, directory, character device)
	Type FileType `json:"type"`

	// Mode contains the Unix permission bits (0o7777 max)
	Mode uint32 `json:"mode"`

	// Size is the file size in bytes. Always 0 for directories and devices.
	Size uint64 `json:"size"`

	// Atime is the last access time
	Atime time.Time `json:"atime"`

	// Mtime is the last modification time (content changes)
	Mtime time.Time `json:"mtime"`

	// Ctime is the last change time (metadata changes)
	Ctime time.Time `json:"ctime"`

	// ContentID identifies the file's bytes in the content store.
	// Empty for directories and devices.
	ContentID ContentID `json:"content_id"`
}

// FileType represents the type of a filesystem object.
type FileType int

const (
	// FileTypeRegular is a regular file containing data
	FileTypeRegular FileType = iota

	// FileTypeDirectory is a directory
	FileTypeDirectory

	// FileTypeCharDevice is a character device (console, serial port, etc.)
	FileTypeCharDevice
)

// String returns a short name for the file type.
func (t FileType) String() string {
	switch t {
	case FileTypeRegular:
		return "regular"
	case FileTypeDirectory:
		return "directory"
	case FileTypeCharDevice:
		return "chardev"
	default:
		return "unknown"
	}
}

// ContentID is an identifier for retrieving file content from the content store.
//
// Stores derive it from the file's UUID, so it never changes while the file
// exists.
type ContentID string

// RootPath is the path of the root directory.
const RootPath = "/"

// CleanPath returns the canonical form of p used as a namespace key.
//
// Relative paths are anchored at the root; there is no working directory.
//
// Examples:
//
//	CleanPath("file.txt")     // "/file.txt"
//	CleanPath("/a/../b//c/")  // "/b/c"
//	CleanPath("")             // "/"
func CleanPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// ParentPath returns the path of the directory containing p.
// The parent of the root is the root itself.
func ParentPath(p string) string {
	return path.Dir(CleanPath(p))
}

// NewFile builds the metadata record for a file about to be created at p.
//
// Stores call it from Create after checking the parent. It assigns a fresh
// ID, derives the ContentID for regular files and stamps all three times
// with now.
func NewFile(p string, attr *FileAttr, now time.Time) (*File, error) {
	p = CleanPath(p)
	if p == RootPath || attr == nil {
		return nil, ErrInvalidArgument
	}

	switch attr.Type {
	case FileTypeRegular, FileTypeDirectory, FileTypeCharDevice:
	default:
		return nil, ErrInvalidArgument
	}

	id := uuid.New()
	file := &File{
		ID:   id,
		Path: p,
		FileAttr: FileAttr{
			Type:  attr.Type,
			Mode:  attr.Mode & 0o7777,
			Atime: now,
			Mtime: now,
			Ctime: now,
		},
	}
	if attr.Type == FileTypeRegular {
		file.ContentID = ContentID(id.String())
	}

	return file, nil
}

// NewRoot builds the metadata record of the root directory.
func NewRoot(now time.Time) *File {
	return &File{
		ID:   uuid.New(),
		Path: RootPath,
		FileAttr: FileAttr{
			Type:  FileTypeDirectory,
			Mode:  0o755,
			Atime: now,
			Mtime: now,
			Ctime: now,
		},
	}
}
