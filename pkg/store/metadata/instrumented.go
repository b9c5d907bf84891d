package metadata

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OperationRecorder receives the outcome of each metadata operation.
type OperationRecorder interface {
	RecordOperation(operation string, duration time.Duration, err error)
}

// instrumentedStore times every call to the wrapped store.
type instrumentedStore struct {
	store    MetadataStore
	recorder OperationRecorder
}

// Instrument wraps store so that every operation is reported to recorder.
// A nil recorder returns store unchanged.
func Instrument(store MetadataStore, recorder OperationRecorder) MetadataStore {
	if recorder == nil {
		return store
	}
	return &instrumentedStore{store: store, recorder: recorder}
}

func (s *instrumentedStore) observe(operation string, start time.Time, err error) {
	s.recorder.RecordOperation(operation, time.Since(start), err)
}

func (s *instrumentedStore) Lookup(ctx context.Context, path string) (*File, error) {
	start := time.Now()
	f, err := s.store.Lookup(ctx, path)
	s.observe("Lookup", start, err)
	return f, err
}

func (s *instrumentedStore) Create(ctx context.Context, path string, attr *FileAttr) (*File, error) {
	start := time.Now()
	f, err := s.store.Create(ctx, path, attr)
	s.observe("Create", start, err)
	return f, err
}

func (s *instrumentedStore) GetFile(ctx context.Context, id uuid.UUID) (*File, error) {
	start := time.Now()
	f, err := s.store.GetFile(ctx, id)
	s.observe("GetFile", start, err)
	return f, err
}

func (s *instrumentedStore) SetSize(ctx context.Context, id uuid.UUID, size uint64) error {
	start := time.Now()
	err := s.store.SetSize(ctx, id, size)
	s.observe("SetSize", start, err)
	return err
}

func (s *instrumentedStore) Touch(ctx context.Context, id uuid.UUID, atime, mtime time.Time) error {
	start := time.Now()
	err := s.store.Touch(ctx, id, atime, mtime)
	s.observe("Touch", start, err)
	return err
}

func (s *instrumentedStore) GetAllContentIDs(ctx context.Context) ([]ContentID, error) {
	start := time.Now()
	ids, err := s.store.GetAllContentIDs(ctx)
	s.observe("GetAllContentIDs", start, err)
	return ids, err
}

func (s *instrumentedStore) Close() error {
	return s.store.Close()
}
