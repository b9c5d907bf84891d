package memory

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/marmos91/dittofd/pkg/store/content"
	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// MemoryContentStore implements ContentStore using in-memory storage.
//
// It's designed for:
//   - Testing and development
//   - Temporary/ephemeral storage
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Multiple concurrent readers
// are allowed, but writes are exclusive. Copying data on read/write prevents
// data races with caller-owned buffers.
//
// Capacity:
// If maxBytes is non-zero, writes that would grow the total stored bytes past
// it fail with content.ErrStorageFull.
type MemoryContentStore struct {
	// data stores the actual file content keyed by ContentID
	data map[metadata.ContentID][]byte

	// used is the total number of bytes held in data
	used uint64

	// maxBytes caps used; 0 means unlimited
	maxBytes uint64

	// mu protects concurrent access to data map
	mu sync.RWMutex
}

// NewMemoryContentStore creates a new, empty in-memory content store.
//
// Parameters:
//   - maxBytes: Total capacity in bytes (0 for unlimited)
func NewMemoryContentStore(maxBytes uint64) *MemoryContentStore {
	return &MemoryContentStore{
		data:     make(map[metadata.ContentID][]byte),
		maxBytes: maxBytes,
	}
}

// ReadAt copies stored bytes into p.
func (s *MemoryContentStore) ReadAt(ctx context.Context, id metadata.ContentID, p []byte, offset int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, fmt.Errorf("read %s at %d: %w", id, offset, content.ErrInvalidOffset)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.data[id]
	if !exists {
		return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}

	if offset >= int64(len(data)) {
		return 0, io.EOF
	}

	n := copy(p, data[offset:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt writes data at offset, growing the content as needed.
func (s *MemoryContentStore) WriteAt(ctx context.Context, id metadata.ContentID, data []byte, offset int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if offset < 0 {
		return fmt.Errorf("write %s at %d: %w", id, offset, content.ErrInvalidOffset)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[id]
	end := offset + int64(len(data))
	if end < offset {
		return fmt.Errorf("write %s at %d: %w", id, offset, content.ErrTooLarge)
	}

	if end > int64(len(existing)) {
		grown, err := s.resize(id, existing, uint64(end))
		if err != nil {
			return err
		}
		existing = grown
	}

	copy(existing[offset:], data)
	s.data[id] = existing

	return nil
}

// GetContentSize returns the length of the stored content.
func (s *MemoryContentStore) GetContentSize(ctx context.Context, id metadata.ContentID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.data[id]
	if !exists {
		return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}

	return uint64(len(data)), nil
}

// ContentExists reports whether id has stored content.
func (s *MemoryContentStore) ContentExists(ctx context.Context, id metadata.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.data[id]
	return exists, nil
}

// Truncate resizes the content to newSize.
func (s *MemoryContentStore) Truncate(ctx context.Context, id metadata.ContentID, newSize uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resized, err := s.resize(id, s.data[id], newSize)
	if err != nil {
		return err
	}
	s.data[id] = resized

	return nil
}

// Delete drops the content. Missing content is not an error.
func (s *MemoryContentStore) Delete(ctx context.Context, id metadata.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.used -= uint64(len(s.data[id]))
	delete(s.data, id)

	return nil
}

// ListAllContent returns every stored ContentID, sorted.
func (s *MemoryContentStore) ListAllContent(ctx context.Context) ([]metadata.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]metadata.ContentID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, nil
}

// resize returns a copy of data with length size, accounting for capacity.
// Caller must hold s.mu.
func (s *MemoryContentStore) resize(id metadata.ContentID, data []byte, size uint64) ([]byte, error) {
	current := uint64(len(data))
	if size > content.MaxBufferedSize {
		return nil, fmt.Errorf("content %s: grow to %d bytes: %w", id, size, content.ErrTooLarge)
	}
	if size > current && s.maxBytes > 0 && s.used+(size-current) > s.maxBytes {
		return nil, fmt.Errorf("content %s: grow to %d bytes: %w", id, size, content.ErrStorageFull)
	}

	resized := make([]byte, size)
	copy(resized, data)

	s.used = s.used - current + size
	return resized, nil
}
