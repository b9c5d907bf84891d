package testing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittofd/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAttributeTests executes size, timestamp and listing tests.
func (suite *StoreTestSuite) RunAttributeTests(t *testing.T) {
	t.Run("SetSize", suite.testSetSize)
	t.Run("SetSizeOnDirectory", suite.testSetSizeOnDirectory)
	t.Run("SetSizeNotFound", suite.testSetSizeNotFound)
	t.Run("Touch", suite.testTouch)
	t.Run("GetFileNotFound", suite.testGetFileNotFound)
	t.Run("GetAllContentIDs", suite.testGetAllContentIDs)
}

func (suite *StoreTestSuite) testSetSize(t *testing.T) {
	store := suite.newStore(t)
	ctx := testContext()

	file, err := store.Create(ctx, "/file.txt", regular(0o644))
	require.NoError(t, err)

	require.NoError(t, store.SetSize(ctx, file.ID, 4096))

	got, err := store.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), got.Size)
	assert.False(t, got.Mtime.Before(file.Mtime))
}

func (suite *StoreTestSuite) testSetSizeOnDirectory(t *testing.T) {
	store := suite.newStore(t)
	ctx := testContext()

	dir, err := store.Create(ctx, "/dir", directory())
	require.NoError(t, err)

	err = store.SetSize(ctx, dir.ID, 10)
	assert.ErrorIs(t, err, metadata.ErrInvalidArgument)
}

func (suite *StoreTestSuite) testSetSizeNotFound(t *testing.T) {
	store := suite.newStore(t)

	err := store.SetSize(testContext(), uuid.New(), 10)
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func (suite *StoreTestSuite) testTouch(t *testing.T) {
	store := suite.newStore(t)
	ctx := testContext()

	file, err := store.Create(ctx, "/file.txt", regular(0o644))
	require.NoError(t, err)

	atime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Touch(ctx, file.ID, atime, time.Time{}))

	got, err := store.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.True(t, got.Atime.Equal(atime))
	assert.True(t, got.Mtime.Equal(file.Mtime), "zero mtime must leave it unchanged")
}

func (suite *StoreTestSuite) testGetFileNotFound(t *testing.T) {
	store := suite.newStore(t)

	_, err := store.GetFile(testContext(), uuid.New())
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func (suite *StoreTestSuite) testGetAllContentIDs(t *testing.T) {
	store := suite.newStore(t)
	ctx := testContext()

	ids, err := store.GetAllContentIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	a, err := store.Create(ctx, "/a", regular(0o644))
	require.NoError(t, err)
	_, err = store.Create(ctx, "/dir", directory())
	require.NoError(t, err)
	b, err := store.Create(ctx, "/dir/b", regular(0o644))
	require.NoError(t, err)

	ids, err = store.GetAllContentIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []metadata.ContentID{a.ContentID, b.ContentID}, ids)
}
