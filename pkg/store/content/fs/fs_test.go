package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/dittofd/pkg/store/content"
	contenttesting "github.com/marmos91/dittofd/pkg/store/content/testing"
	"github.com/marmos91/dittofd/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFSContentStore runs the complete ContentStore test suite
// against the FSContentStore implementation.
func TestFSContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.ContentStore {
			store, err := NewFSContentStore(context.Background(), t.TempDir())
			require.NoError(t, err)
			return store
		},
	}

	suite.Run(t)
}

func TestFSContentStore_ListSkipsForeignFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFSContentStore(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, store.WriteAt(ctx, "abc", []byte("x"), 0))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not content"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	ids, err := store.ListAllContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, []metadata.ContentID{"abc"}, ids)
}
