// Package fs implements filesystem-based content storage.
package fs

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/marmos91/dittofd/pkg/store/content"
	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// FSContentStore implements ContentStore using the local filesystem.
//
// Each ContentID is stored as one file under basePath, named by the
// hex encoding of the ID so that any byte sequence is a valid file name.
//
// Thread Safety:
// The underlying filesystem operations are thread-safe at the OS level, but
// concurrent writes to the same file may interleave. The descriptor layer
// serializes writes through a single handle.
type FSContentStore struct {
	basePath string
}

// NewFSContentStore creates a new filesystem-based content store.
//
// The base directory is created with permissions 0755 if it doesn't exist.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - basePath: Root directory for storing content files
//
// Returns:
//   - *FSContentStore: Initialized store
//   - error: Returns error if directory creation fails or context is cancelled
func NewFSContentStore(ctx context.Context, basePath string) (*FSContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSContentStore{basePath: basePath}, nil
}

// getFilePath returns the full path for a given content ID.
func (r *FSContentStore) getFilePath(id metadata.ContentID) string {
	return filepath.Join(r.basePath, hex.EncodeToString([]byte(id)))
}

// ReadAt reads from the content file with os.File.ReadAt.
func (r *FSContentStore) ReadAt(ctx context.Context, id metadata.ContentID, p []byte, offset int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, fmt.Errorf("read %s at %d: %w", id, offset, content.ErrInvalidOffset)
	}

	file, err := os.Open(r.getFilePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return 0, fmt.Errorf("failed to open content: %w", err)
	}
	defer func() { _ = file.Close() }()

	n, err := file.ReadAt(p, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("failed to read content: %w", err)
	}

	return n, err
}

// WriteAt writes into the content file, creating it if needed.
func (r *FSContentStore) WriteAt(ctx context.Context, id metadata.ContentID, data []byte, offset int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if offset < 0 {
		return fmt.Errorf("write %s at %d: %w", id, offset, content.ErrInvalidOffset)
	}

	file, err := os.OpenFile(r.getFilePath(id), os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return mapWriteError(id, err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.WriteAt(data, offset); err != nil {
		return mapWriteError(id, err)
	}

	return nil
}

// GetContentSize stats the content file.
func (r *FSContentStore) GetContentSize(ctx context.Context, id metadata.ContentID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := os.Stat(r.getFilePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return 0, fmt.Errorf("failed to stat content: %w", err)
	}

	return uint64(info.Size()), nil
}

// ContentExists reports whether the content file exists.
func (r *FSContentStore) ContentExists(ctx context.Context, id metadata.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(r.getFilePath(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}

	return false, fmt.Errorf("failed to check content existence: %w", err)
}

// Truncate resizes the content file, creating it if needed.
func (r *FSContentStore) Truncate(ctx context.Context, id metadata.ContentID, newSize uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := os.OpenFile(r.getFilePath(id), os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return mapWriteError(id, err)
	}
	defer func() { _ = file.Close() }()

	if err := file.Truncate(int64(newSize)); err != nil {
		return mapWriteError(id, err)
	}

	return nil
}

// Delete removes the content file. Missing content is not an error.
func (r *FSContentStore) Delete(ctx context.Context, id metadata.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(r.getFilePath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete content: %w", err)
	}

	return nil
}

// ListAllContent decodes the names of all content files under basePath.
//
// Entries whose names are not valid hex were not written by this store and
// are skipped.
func (r *FSContentStore) ListAllContent(ctx context.Context) ([]metadata.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}

	ids := make([]metadata.ContentID, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		raw, err := hex.DecodeString(entry.Name())
		if err != nil {
			continue
		}
		ids = append(ids, metadata.ContentID(raw))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, nil
}

// mapWriteError translates OS write failures into content store errors.
func mapWriteError(id metadata.ContentID, err error) error {
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return fmt.Errorf("content %s: %w", id, content.ErrStorageFull)
	case errors.Is(err, syscall.EROFS):
		return fmt.Errorf("content %s: %w", id, content.ErrReadOnly)
	default:
		return fmt.Errorf("failed to write content %s: %w", id, err)
	}
}
