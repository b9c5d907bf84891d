// Package content defines the storage interface for file bytes.
//
// A content store knows nothing about paths or file types: it maps an opaque
// metadata.ContentID to a byte sequence that can be read and written at
// arbitrary offsets. The metadata store decides which ContentID belongs to
// which file.
package content

import (
	"context"

	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// ============================================================================
// ContentStore Interface
// ============================================================================

// ContentStore provides random-access storage for file content.
//
// Write Semantics:
//   - WriteAt creates content that does not exist yet
//   - Writing past the end fills the gap with zeros
//   - Delete is idempotent
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
// Concurrent writes to the same ContentID have undefined ordering; callers
// that need a defined order serialize them (the descriptor layer holds the
// file handle lock across each write).
type ContentStore interface {
	// ReadAt reads up to len(p) bytes starting at offset.
	//
	// Like io.ReaderAt, a read that reaches the end of the content returns the
	// bytes available; the accompanying error may be nil or io.EOF. A read
	// starting at or beyond the end returns 0 bytes.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - id: Content identifier
	//   - p: Destination buffer
	//   - offset: Byte offset to start reading from
	//
	// Returns:
	//   - int: Number of bytes read into p
	//   - error: ErrContentNotFound if content doesn't exist, ErrInvalidOffset
	//     for a negative offset, io.EOF at end of content, or context/IO errors
	ReadAt(ctx context.Context, id metadata.ContentID, p []byte, offset int64) (int, error)

	// WriteAt writes data at the specified offset.
	//
	// The content is created if it doesn't exist. If offset is beyond the
	// current size, the gap is filled with zeros.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - id: Content identifier (created if doesn't exist)
	//   - data: Data to write
	//   - offset: Byte offset where writing begins
	//
	// Returns:
	//   - error: ErrInvalidOffset for a negative offset, ErrStorageFull,
	//     ErrReadOnly, or context/IO errors
	WriteAt(ctx context.Context, id metadata.ContentID, data []byte, offset int64) error

	// GetContentSize returns the size of the content in bytes.
	//
	// Returns:
	//   - uint64: Size of the content in bytes
	//   - error: ErrContentNotFound if content doesn't exist, or context/IO errors
	GetContentSize(ctx context.Context, id metadata.ContentID) (uint64, error)

	// ContentExists checks if content with the given ID exists.
	//
	// Returns:
	//   - bool: True if content exists
	//   - error: Only context or storage access failures, never for missing content
	ContentExists(ctx context.Context, id metadata.ContentID) (bool, error)

	// Truncate changes the size of the content, creating it if needed.
	//
	//   - If newSize < currentSize: trailing data is removed
	//   - If newSize > currentSize: content is extended with zeros
	//
	// Returns:
	//   - error: ErrReadOnly, or context/IO errors
	Truncate(ctx context.Context, id metadata.ContentID, newSize uint64) error

	// Delete removes content from the store.
	//
	// Deleting content that does not exist succeeds.
	Delete(ctx context.Context, id metadata.ContentID) error

	// ListAllContent returns the IDs of all stored content.
	//
	// Used to find content no file refers to any more.
	ListAllContent(ctx context.Context) ([]metadata.ContentID, error)
}
