package metadata

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Standard Metadata Store Errors
// ============================================================================

// Implementations wrap these errors with the path or ID involved:
//
//	return nil, fmt.Errorf("lookup %s: %w", path, metadata.ErrNotFound)
//
// The VFS layer matches them with errors.Is and translates them into errno
// values for the system-call layer.
var (
	// ErrNotFound indicates the requested path or file ID does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrExists indicates a file already exists at the requested path.
	ErrExists = errors.New("file already exists")

	// ErrNotDirectory indicates a path component that must be a directory
	// (the parent of a created file) is not one.
	ErrNotDirectory = errors.New("not a directory")

	// ErrInvalidArgument indicates a malformed request, such as creating the
	// root or a file with an unsupported type.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ============================================================================
// MetadataStore Interface
// ============================================================================

// MetadataStore manages the file namespace: which paths exist, their types,
// sizes and timestamps, and the ContentID under which their bytes are kept.
//
// The metadata store does NOT manage file content. File content is stored
// separately in a content store, keyed by the ContentID recorded here.
//
// Paths passed to a MetadataStore are normalized with CleanPath by the store,
// so "a.txt", "/a.txt" and "/./a.txt" name the same file.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type MetadataStore interface {
	// Lookup resolves a path to its file.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - path: Path of the file (normalized with CleanPath)
	//
	// Returns:
	//   - *File: A copy of the file's metadata
	//   - error: ErrNotFound if no file exists at path, or context errors
	Lookup(ctx context.Context, path string) (*File, error)

	// Create adds a new file to the namespace.
	//
	// The parent directory must already exist. The store assigns the ID,
	// the ContentID (regular files only) and the timestamps; only Type and
	// Mode are taken from attr. The new file has size 0.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - path: Path of the new file (normalized with CleanPath)
	//   - attr: Requested type and permission bits
	//
	// Returns:
	//   - *File: The created file
	//   - error: ErrExists if path is taken, ErrNotFound if the parent is
	//     missing, ErrNotDirectory if the parent is not a directory,
	//     ErrInvalidArgument for the root path or an unsupported type
	Create(ctx context.Context, path string, attr *FileAttr) (*File, error)

	// GetFile returns the file with the given ID.
	//
	// Returns:
	//   - *File: A copy of the file's metadata
	//   - error: ErrNotFound if no such file exists
	GetFile(ctx context.Context, id uuid.UUID) (*File, error)

	// SetSize records a new size for a regular file and updates Mtime/Ctime.
	//
	// Returns:
	//   - error: ErrNotFound if no such file exists, ErrInvalidArgument if
	//     the file is not a regular file
	SetSize(ctx context.Context, id uuid.UUID, size uint64) error

	// Touch updates access and modification times. A zero time leaves the
	// corresponding timestamp unchanged.
	//
	// Returns:
	//   - error: ErrNotFound if no such file exists
	Touch(ctx context.Context, id uuid.UUID, atime, mtime time.Time) error

	// GetAllContentIDs returns the ContentID of every regular file.
	//
	// Used to reconcile the content store with the namespace (orphaned
	// content has no owning file).
	GetAllContentIDs(ctx context.Context) ([]ContentID, error)

	// Close releases resources held by the store. The store must not be
	// used after Close.
	Close() error
}
