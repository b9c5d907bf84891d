package testing

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/marmos91/dittofd/pkg/store/content"
	"github.com/marmos91/dittofd/pkg/store/metadata"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite is a comprehensive test suite for ContentStore implementations.
// It tests the interface contract, not implementation details, making it reusable
// across different implementations (memory, filesystem, S3, etc.).
//
// Usage:
//
//	func TestMyContentStore(t *testing.T) {
//	    suite := &contenttesting.StoreTestSuite{
//	        NewStore: func(t *testing.T) content.ContentStore {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh ContentStore instance
	// for each test. This ensures test isolation.
	NewStore func(t *testing.T) content.ContentStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("BasicOperations", suite.RunBasicTests)
	t.Run("WriteOperations", suite.RunWriteTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}

// generateTestID returns a content ID unique to the calling test.
func generateTestID(name string) metadata.ContentID {
	return metadata.ContentID("test-" + name)
}

// mustWriteAt writes data and fails the test on error.
func mustWriteAt(t *testing.T, store content.ContentStore, id metadata.ContentID, data []byte, offset int64) {
	t.Helper()
	require.NoError(t, store.WriteAt(testContext(), id, data, offset))
}

// readAt reads up to n bytes at offset, accepting io.EOF on short reads.
func readAt(t *testing.T, store content.ContentStore, id metadata.ContentID, n int, offset int64) []byte {
	t.Helper()
	buf := make([]byte, n)
	got, err := store.ReadAt(testContext(), id, buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		require.NoError(t, err)
	}
	return buf[:got]
}
