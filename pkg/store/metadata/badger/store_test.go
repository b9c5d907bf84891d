package badger

import (
	"context"
	"testing"

	"github.com/marmos91/dittofd/pkg/store/metadata"
	metadatatesting "github.com/marmos91/dittofd/pkg/store/metadata/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, dir string) *BadgerMetadataStore {
	t.Helper()
	store, err := NewBadgerMetadataStore(context.Background(), BadgerMetadataStoreConfig{DBPath: dir})
	require.NoError(t, err)
	return store
}

// TestBadgerMetadataStore runs the complete MetadataStore test suite
// against the BadgerMetadataStore implementation.
func TestBadgerMetadataStore(t *testing.T) {
	suite := &metadatatesting.StoreTestSuite{
		NewStore: func(t *testing.T) metadata.MetadataStore {
			return newTestStore(t, t.TempDir())
		},
	}

	suite.Run(t)
}

func TestBadgerMetadataStore_InMemory(t *testing.T) {
	store, err := NewBadgerMetadataStore(context.Background(), BadgerMetadataStoreConfig{InMemory: true})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	root, err := store.Lookup(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, metadata.FileTypeDirectory, root.Type)
}

func TestBadgerMetadataStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := newTestStore(t, dir)
	root, err := store.Lookup(ctx, "/")
	require.NoError(t, err)
	file, err := store.Create(ctx, "/persist.txt", &metadata.FileAttr{Type: metadata.FileTypeRegular, Mode: 0o644})
	require.NoError(t, err)
	require.NoError(t, store.SetSize(ctx, file.ID, 42))
	require.NoError(t, store.Close())

	reopened := newTestStore(t, dir)
	defer func() { _ = reopened.Close() }()

	gotRoot, err := reopened.Lookup(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, root.ID, gotRoot.ID, "root must not be recreated")

	got, err := reopened.Lookup(ctx, "/persist.txt")
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
	assert.Equal(t, file.ContentID, got.ContentID)
	assert.Equal(t, uint64(42), got.Size)
}
