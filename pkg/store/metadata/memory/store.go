package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// MemoryMetadataStore implements MetadataStore using in-memory storage.
//
// It is suitable for:
//   - Testing and development environments
//   - Ephemeral filesystems where persistence is not required
//
// Thread Safety:
// All operations are protected by a single read-write mutex (mu). Queries take
// the read lock, mutations the write lock.
//
// Storage Model:
//
//  1. files: file ID → file record (primary storage)
//  2. paths: cleaned path → file ID (namespace index)
//
// Invariants:
//   - Every entry in paths refers to a record in files, and vice versa
//   - The root directory is present from construction
//   - The parent of every file is a directory
type MemoryMetadataStore struct {
	mu    sync.RWMutex
	files map[uuid.UUID]*metadata.File
	paths map[string]uuid.UUID
}

// NewMemoryMetadataStore creates an empty namespace containing only "/".
func NewMemoryMetadataStore() *MemoryMetadataStore {
	root := metadata.NewRoot(time.Now())

	return &MemoryMetadataStore{
		files: map[uuid.UUID]*metadata.File{root.ID: root},
		paths: map[string]uuid.UUID{root.Path: root.ID},
	}
}

// Lookup resolves a path to a copy of its file record.
func (s *MemoryMetadataStore) Lookup(ctx context.Context, path string) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path = metadata.CleanPath(path)

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.paths[path]
	if !ok {
		return nil, fmt.Errorf("lookup %s: %w", path, metadata.ErrNotFound)
	}

	return copyFile(s.files[id]), nil
}

// Create adds a new file under an existing directory.
func (s *MemoryMetadataStore) Create(ctx context.Context, path string, attr *metadata.FileAttr) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := metadata.NewFile(path, attr, time.Now())
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.paths[file.Path]; exists {
		return nil, fmt.Errorf("create %s: %w", file.Path, metadata.ErrExists)
	}

	parentPath := metadata.ParentPath(file.Path)
	parentID, ok := s.paths[parentPath]
	if !ok {
		return nil, fmt.Errorf("create %s: parent %s: %w", file.Path, parentPath, metadata.ErrNotFound)
	}
	if s.files[parentID].Type != metadata.FileTypeDirectory {
		return nil, fmt.Errorf("create %s: parent %s: %w", file.Path, parentPath, metadata.ErrNotDirectory)
	}

	s.files[file.ID] = file
	s.paths[file.Path] = file.ID

	return copyFile(file), nil
}

// GetFile returns a copy of the file record with the given ID.
func (s *MemoryMetadataStore) GetFile(ctx context.Context, id uuid.UUID) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, metadata.ErrNotFound)
	}

	return copyFile(file), nil
}

// SetSize records a new size for a regular file.
func (s *MemoryMetadataStore) SetSize(ctx context.Context, id uuid.UUID, size uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return fmt.Errorf("file %s: %w", id, metadata.ErrNotFound)
	}
	if file.Type != metadata.FileTypeRegular {
		return fmt.Errorf("set size on %s %s: %w", file.Type, file.Path, metadata.ErrInvalidArgument)
	}

	now := time.Now()
	file.Size = size
	file.Mtime = now
	file.Ctime = now

	return nil
}

// Touch updates access and modification times.
func (s *MemoryMetadataStore) Touch(ctx context.Context, id uuid.UUID, atime, mtime time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return fmt.Errorf("file %s: %w", id, metadata.ErrNotFound)
	}

	if !atime.IsZero() {
		file.Atime = atime
	}
	if !mtime.IsZero() {
		file.Mtime = mtime
	}

	return nil
}

// GetAllContentIDs returns the ContentID of every regular file, sorted.
func (s *MemoryMetadataStore) GetAllContentIDs(ctx context.Context) ([]metadata.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]metadata.ContentID, 0, len(s.files))
	for _, file := range s.files {
		if file.ContentID != "" {
			ids = append(ids, file.ContentID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, nil
}

// Close drops all records.
func (s *MemoryMetadataStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files = map[uuid.UUID]*metadata.File{}
	s.paths = map[string]uuid.UUID{}

	return nil
}

func copyFile(f *metadata.File) *metadata.File {
	c := *f
	return &c
}
