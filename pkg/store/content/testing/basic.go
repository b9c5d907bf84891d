package testing

import (
	"testing"

	"github.com/marmos91/dittofd/pkg/store/content"
	"github.com/marmos91/dittofd/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBasicTests executes read, size and existence tests.
func (suite *StoreTestSuite) RunBasicTests(t *testing.T) {
	t.Run("ReadAt_NotFound", suite.testReadAtNotFound)
	t.Run("ReadAt_Success", suite.testReadAtSuccess)
	t.Run("ReadAt_Partial", suite.testReadAtPartial)
	t.Run("ReadAt_PastEnd", suite.testReadAtPastEnd)
	t.Run("ReadAt_NegativeOffset", suite.testReadAtNegativeOffset)
	t.Run("GetContentSize_NotFound", suite.testGetContentSizeNotFound)
	t.Run("ContentExists", suite.testContentExists)
	t.Run("ListAllContent", suite.testListAllContent)
}

// ============================================================================
// ReadAt Tests
// ============================================================================

func (suite *StoreTestSuite) testReadAtNotFound(t *testing.T) {
	store := suite.NewStore(t)

	buf := make([]byte, 4)
	_, err := store.ReadAt(testContext(), generateTestID("nonexistent"), buf, 0)

	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testReadAtSuccess(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("read-success")

	mustWriteAt(t, store, id, []byte("Hello, World!"), 0)

	assert.Equal(t, []byte("Hello"), readAt(t, store, id, 5, 0))
	assert.Equal(t, []byte("World"), readAt(t, store, id, 5, 7))
}

func (suite *StoreTestSuite) testReadAtPartial(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("read-partial")

	mustWriteAt(t, store, id, []byte("hello"), 0)

	assert.Equal(t, []byte("llo"), readAt(t, store, id, 10, 2))
}

func (suite *StoreTestSuite) testReadAtPastEnd(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("read-past-end")

	mustWriteAt(t, store, id, []byte("hello"), 0)

	assert.Empty(t, readAt(t, store, id, 4, 5))
	assert.Empty(t, readAt(t, store, id, 4, 100))
}

func (suite *StoreTestSuite) testReadAtNegativeOffset(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("read-negative")

	mustWriteAt(t, store, id, []byte("hello"), 0)

	_, err := store.ReadAt(testContext(), id, make([]byte, 1), -1)
	assert.ErrorIs(t, err, content.ErrInvalidOffset)
}

// ============================================================================
// Size, existence and listing
// ============================================================================

func (suite *StoreTestSuite) testGetContentSizeNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.GetContentSize(testContext(), generateTestID("no-size"))
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testContentExists(t *testing.T) {
	store := suite.NewStore(t)
	ctx := testContext()
	id := generateTestID("exists")

	exists, err := store.ContentExists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)

	mustWriteAt(t, store, id, []byte("x"), 0)

	exists, err = store.ContentExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)
}

func (suite *StoreTestSuite) testListAllContent(t *testing.T) {
	store := suite.NewStore(t)
	a := generateTestID("list-a")
	b := generateTestID("list-b")

	mustWriteAt(t, store, a, []byte("a"), 0)
	mustWriteAt(t, store, b, []byte("b"), 0)

	ids, err := store.ListAllContent(testContext())
	require.NoError(t, err)
	assert.ElementsMatch(t, []metadata.ContentID{a, b}, ids)
}
