package testing

import (
	"sync"
	"testing"

	"github.com/marmos91/dittofd/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunNamespaceTests executes lookup and create tests.
func (suite *StoreTestSuite) RunNamespaceTests(t *testing.T) {
	t.Run("RootExists", suite.testRootExists)
	t.Run("CreateAndLookup", suite.testCreateAndLookup)
	t.Run("LookupNormalizesPath", suite.testLookupNormalizesPath)
	t.Run("LookupNotFound", suite.testLookupNotFound)
	t.Run("CreateExisting", suite.testCreateExisting)
	t.Run("CreateMissingParent", suite.testCreateMissingParent)
	t.Run("CreateUnderRegularFile", suite.testCreateUnderRegularFile)
	t.Run("CreateNested", suite.testCreateNested)
	t.Run("CreateRoot", suite.testCreateRoot)
	t.Run("ConcurrentCreateSamePath", suite.testConcurrentCreateSamePath)
}

func (suite *StoreTestSuite) testRootExists(t *testing.T) {
	store := suite.newStore(t)

	root, err := store.Lookup(testContext(), "/")
	require.NoError(t, err)
	assert.Equal(t, metadata.RootPath, root.Path)
	assert.Equal(t, metadata.FileTypeDirectory, root.Type)
	assert.Empty(t, root.ContentID)
}

func (suite *StoreTestSuite) testCreateAndLookup(t *testing.T) {
	store := suite.newStore(t)
	ctx := testContext()

	created, err := store.Create(ctx, "/file.txt", regular(0o644))
	require.NoError(t, err)
	assert.Equal(t, "/file.txt", created.Path)
	assert.Equal(t, metadata.FileTypeRegular, created.Type)
	assert.Equal(t, uint32(0o644), created.Mode)
	assert.Zero(t, created.Size)
	assert.NotEmpty(t, created.ContentID)
	assert.False(t, created.Mtime.IsZero())

	found, err := store.Lookup(ctx, "/file.txt")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, created.ContentID, found.ContentID)

	byID, err := store.GetFile(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "/file.txt", byID.Path)
}

func (suite *StoreTestSuite) testLookupNormalizesPath(t *testing.T) {
	store := suite.newStore(t)
	ctx := testContext()

	created, err := store.Create(ctx, "file.txt", regular(0o644))
	require.NoError(t, err)
	assert.Equal(t, "/file.txt", created.Path)

	for _, p := range []string{"/file.txt", "file.txt", "/./file.txt", "//file.txt"} {
		found, err := store.Lookup(ctx, p)
		require.NoError(t, err, p)
		assert.Equal(t, created.ID, found.ID, p)
	}
}

func (suite *StoreTestSuite) testLookupNotFound(t *testing.T) {
	store := suite.newStore(t)

	_, err := store.Lookup(testContext(), "/missing")
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func (suite *StoreTestSuite) testCreateExisting(t *testing.T) {
	store := suite.newStore(t)
	ctx := testContext()

	_, err := store.Create(ctx, "/file.txt", regular(0o644))
	require.NoError(t, err)

	_, err = store.Create(ctx, "/file.txt", regular(0o600))
	assert.ErrorIs(t, err, metadata.ErrExists)
}

func (suite *StoreTestSuite) testCreateMissingParent(t *testing.T) {
	store := suite.newStore(t)

	_, err := store.Create(testContext(), "/no/such/file.txt", regular(0o644))
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func (suite *StoreTestSuite) testCreateUnderRegularFile(t *testing.T) {
	store := suite.newStore(t)
	ctx := testContext()

	_, err := store.Create(ctx, "/file.txt", regular(0o644))
	require.NoError(t, err)

	_, err = store.Create(ctx, "/file.txt/child", regular(0o644))
	assert.ErrorIs(t, err, metadata.ErrNotDirectory)
}

func (suite *StoreTestSuite) testCreateNested(t *testing.T) {
	store := suite.newStore(t)
	ctx := testContext()

	dir, err := store.Create(ctx, "/docs", directory())
	require.NoError(t, err)
	assert.Empty(t, dir.ContentID)

	file, err := store.Create(ctx, "/docs/report.txt", regular(0o644))
	require.NoError(t, err)
	assert.Equal(t, "/docs/report.txt", file.Path)
}

func (suite *StoreTestSuite) testCreateRoot(t *testing.T) {
	store := suite.newStore(t)

	_, err := store.Create(testContext(), "/", directory())
	assert.ErrorIs(t, err, metadata.ErrInvalidArgument)
}

func (suite *StoreTestSuite) testConcurrentCreateSamePath(t *testing.T) {
	store := suite.newStore(t)
	ctx := testContext()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Create(ctx, "/race.txt", regular(0o644)); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}
