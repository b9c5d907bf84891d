package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"
	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// BadgerMetadataStore implements metadata.MetadataStore using BadgerDB for persistence.
//
// It is suitable for:
//   - Namespaces that must survive restarts
//   - Content stores (filesystem, S3) that outlive the process
//
// Thread Safety:
// Mutations are serialized by mu so that read-check-write sequences in Create
// never conflict; reads go straight to BadgerDB, which provides MVCC snapshots.
//
// Storage Model:
// See keys.go for the key schema.
type BadgerMetadataStore struct {
	// db is the BadgerDB database handle (thread-safe, uses internal MVCC)
	db *badger.DB

	// mu serializes write transactions
	mu sync.Mutex
}

// BadgerMetadataStoreConfig contains configuration for creating a BadgerDB metadata store.
type BadgerMetadataStoreConfig struct {
	// DBPath is the directory where BadgerDB will store its files
	DBPath string `mapstructure:"db_path"`

	// InMemory runs BadgerDB without touching disk (DBPath is ignored)
	InMemory bool `mapstructure:"in_memory"`

	// BadgerOptions allows customization of BadgerDB behavior
	// If nil, sensible defaults are used
	BadgerOptions *badger.Options `mapstructure:"-"`
}

// NewBadgerMetadataStore opens (or creates) a BadgerDB metadata store.
//
// The root directory is created on first open. Reopening an existing database
// keeps its namespace, including file IDs and ContentIDs.
//
// Parameters:
//   - ctx: Context for cancellation
//   - config: Database location and options
//
// Returns:
//   - *BadgerMetadataStore: A store ready for use
//   - error: Error if the database cannot be opened or initialized
func NewBadgerMetadataStore(ctx context.Context, config BadgerMetadataStoreConfig) (*BadgerMetadataStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.BadgerOptions != nil {
		opts = *config.BadgerOptions
	} else {
		if config.InMemory {
			opts = badger.DefaultOptions("").WithInMemory(true)
		} else {
			opts = badger.DefaultOptions(config.DBPath)
		}
		opts = opts.WithLoggingLevel(badger.WARNING) // Reduce log noise
		opts = opts.WithCompression(options.None)    // Records are small
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	store := &BadgerMetadataStore{db: db}

	if err := store.initializeRoot(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize root: %w", err)
	}

	return store, nil
}

// initializeRoot creates the root directory if the database has none.
func (s *BadgerMetadataStore) initializeRoot() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyPath(metadata.RootPath))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		return putFile(txn, metadata.NewRoot(time.Now()))
	})
}

// Lookup resolves a path to its file record.
func (s *BadgerMetadataStore) Lookup(ctx context.Context, path string) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path = metadata.CleanPath(path)

	var file *metadata.File
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		file, err = getFileByPath(txn, path)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", path, err)
	}

	return file, nil
}

// Create adds a new file under an existing directory.
func (s *BadgerMetadataStore) Create(ctx context.Context, path string, attr *metadata.FileAttr) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := metadata.NewFile(path, attr, time.Now())
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.Update(func(txn *badger.Txn) error {
		// ===== Step 1: Path must be free =====
		_, err := txn.Get(keyPath(file.Path))
		if err == nil {
			return metadata.ErrExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		// ===== Step 2: Parent must be a directory =====
		parentPath := metadata.ParentPath(file.Path)
		parent, err := getFileByPath(txn, parentPath)
		if err != nil {
			return fmt.Errorf("parent %s: %w", parentPath, err)
		}
		if parent.Type != metadata.FileTypeDirectory {
			return fmt.Errorf("parent %s: %w", parentPath, metadata.ErrNotDirectory)
		}

		// ===== Step 3: Write record and index =====
		return putFile(txn, file)
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", file.Path, err)
	}

	return file, nil
}

// GetFile returns the file record with the given ID.
func (s *BadgerMetadataStore) GetFile(ctx context.Context, id uuid.UUID) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var file *metadata.File
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		file, err = getFileByID(txn, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("file %s: %w", id, err)
	}

	return file, nil
}

// SetSize records a new size for a regular file.
func (s *BadgerMetadataStore) SetSize(ctx context.Context, id uuid.UUID, size uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(id, func(file *metadata.File) error {
		if file.Type != metadata.FileTypeRegular {
			return fmt.Errorf("set size on %s %s: %w", file.Type, file.Path, metadata.ErrInvalidArgument)
		}
		now := time.Now()
		file.Size = size
		file.Mtime = now
		file.Ctime = now
		return nil
	})
}

// Touch updates access and modification times.
func (s *BadgerMetadataStore) Touch(ctx context.Context, id uuid.UUID, atime, mtime time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(id, func(file *metadata.File) error {
		if !atime.IsZero() {
			file.Atime = atime
		}
		if !mtime.IsZero() {
			file.Mtime = mtime
		}
		return nil
	})
}

// GetAllContentIDs scans every file record and returns the ContentIDs, sorted.
func (s *BadgerMetadataStore) GetAllContentIDs(ctx context.Context) ([]metadata.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []metadata.ContentID
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixFile)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			err := it.Item().Value(func(val []byte) error {
				file, err := decodeFile(val)
				if err != nil {
					return err
				}
				if file.ContentID != "" {
					ids = append(ids, file.ContentID)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list content ids: %w", err)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Close closes the underlying database.
func (s *BadgerMetadataStore) Close() error {
	return s.db.Close()
}

// update applies fn to the record with the given ID inside a write transaction.
func (s *BadgerMetadataStore) update(id uuid.UUID, fn func(*metadata.File) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		file, err := getFileByID(txn, id)
		if err != nil {
			return err
		}
		if err := fn(file); err != nil {
			return err
		}

		data, err := encodeFile(file)
		if err != nil {
			return err
		}
		return txn.Set(keyFile(file.ID), data)
	})
	if err != nil {
		return fmt.Errorf("file %s: %w", id, err)
	}

	return nil
}

func putFile(txn *badger.Txn, file *metadata.File) error {
	data, err := encodeFile(file)
	if err != nil {
		return err
	}
	if err := txn.Set(keyFile(file.ID), data); err != nil {
		return err
	}
	return txn.Set(keyPath(file.Path), file.ID[:])
}

func getFileByID(txn *badger.Txn, id uuid.UUID) (*metadata.File, error) {
	item, err := txn.Get(keyFile(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, metadata.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var file *metadata.File
	err = item.Value(func(val []byte) error {
		file, err = decodeFile(val)
		return err
	})
	return file, err
}

func getFileByPath(txn *badger.Txn, path string) (*metadata.File, error) {
	item, err := txn.Get(keyPath(path))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, metadata.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	id, err := decodeID(val)
	if err != nil {
		return nil, err
	}

	return getFileByID(txn, id)
}
