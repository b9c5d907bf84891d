package content

import "errors"

// ============================================================================
// Standard Content Store Errors
// ============================================================================

// These errors provide a consistent way to indicate common failure conditions
// across all content store implementations. The VFS layer checks for them and
// maps them to errno values.
//
// Error Wrapping:
// Implementations wrap these errors with additional context:
//
//	if !fileExists {
//	    return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
//	}
var (
	// ErrContentNotFound indicates the requested content does not exist.
	//
	// Returned by ReadAt and GetContentSize. A file whose content was never
	// written has no content yet; the VFS treats that as an empty file.
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidOffset indicates the offset is negative or would overflow.
	//
	// Offset beyond the current size is NOT an error for WriteAt (the gap is
	// zero-filled) or ReadAt (0 bytes are returned).
	ErrInvalidOffset = errors.New("invalid offset")

	// ErrStorageFull indicates the backend has no space left.
	ErrStorageFull = errors.New("storage full")

	// ErrReadOnly indicates the store rejects modifications.
	ErrReadOnly = errors.New("content store is read-only")

	// ErrTooLarge indicates the content would exceed MaxBufferedSize in a
	// store that keeps whole objects in memory.
	ErrTooLarge = errors.New("content too large")
)

// MaxBufferedSize is the largest content the memory and S3 stores hold.
// Both materialize the whole object, so an offset past this fails with
// ErrTooLarge instead of allocating.
const MaxBufferedSize uint64 = 4 << 30
