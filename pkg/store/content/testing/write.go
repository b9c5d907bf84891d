package testing

import (
	"testing"

	"github.com/marmos91/dittofd/pkg/store/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunWriteTests executes all write, truncate and delete tests.
func (suite *StoreTestSuite) RunWriteTests(t *testing.T) {
	t.Run("WriteAt_Creates", suite.testWriteAtCreates)
	t.Run("WriteAt_Overwrite", suite.testWriteAtOverwrite)
	t.Run("WriteAt_Sparse", suite.testWriteAtSparse)
	t.Run("WriteAt_NegativeOffset", suite.testWriteAtNegativeOffset)
	t.Run("Truncate_Shrink", suite.testTruncateShrink)
	t.Run("Truncate_Extend", suite.testTruncateExtend)
	t.Run("Delete", suite.testDelete)
	t.Run("Delete_Idempotent", suite.testDeleteIdempotent)
}

func (suite *StoreTestSuite) testWriteAtCreates(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("write-create")

	mustWriteAt(t, store, id, []byte("hello"), 0)

	size, err := store.GetContentSize(testContext(), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), size)
}

func (suite *StoreTestSuite) testWriteAtOverwrite(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("write-overwrite")

	mustWriteAt(t, store, id, []byte("hello world"), 0)
	mustWriteAt(t, store, id, []byte("WORLD"), 6)

	assert.Equal(t, []byte("hello WORLD"), readAt(t, store, id, 32, 0))
}

func (suite *StoreTestSuite) testWriteAtSparse(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("write-sparse")

	mustWriteAt(t, store, id, []byte("ab"), 0)
	mustWriteAt(t, store, id, []byte("z"), 4)

	assert.Equal(t, []byte{'a', 'b', 0, 0, 'z'}, readAt(t, store, id, 32, 0))
}

func (suite *StoreTestSuite) testWriteAtNegativeOffset(t *testing.T) {
	store := suite.NewStore(t)

	err := store.WriteAt(testContext(), generateTestID("write-negative"), []byte("x"), -1)
	assert.ErrorIs(t, err, content.ErrInvalidOffset)
}

func (suite *StoreTestSuite) testTruncateShrink(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("truncate-shrink")

	mustWriteAt(t, store, id, []byte("hello world"), 0)
	require.NoError(t, store.Truncate(testContext(), id, 5))

	assert.Equal(t, []byte("hello"), readAt(t, store, id, 32, 0))
}

func (suite *StoreTestSuite) testTruncateExtend(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("truncate-extend")

	mustWriteAt(t, store, id, []byte("hi"), 0)
	require.NoError(t, store.Truncate(testContext(), id, 4))

	assert.Equal(t, []byte{'h', 'i', 0, 0}, readAt(t, store, id, 32, 0))
}

func (suite *StoreTestSuite) testDelete(t *testing.T) {
	store := suite.NewStore(t)
	ctx := testContext()
	id := generateTestID("delete")

	mustWriteAt(t, store, id, []byte("bye"), 0)
	require.NoError(t, store.Delete(ctx, id))

	exists, err := store.ContentExists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)
}

func (suite *StoreTestSuite) testDeleteIdempotent(t *testing.T) {
	store := suite.NewStore(t)

	assert.NoError(t, store.Delete(testContext(), generateTestID("never-written")))
}
