package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// StoreTestSuite is a test suite for MetadataStore implementations.
// It tests the interface contract, not implementation details, making it reusable
// across the memory and BadgerDB stores.
//
// Usage:
//
//	func TestMyMetadataStore(t *testing.T) {
//	    suite := &metadatatesting.StoreTestSuite{
//	        NewStore: func(t *testing.T) metadata.MetadataStore {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh MetadataStore instance
	// for each test. This ensures test isolation. Stores that need a directory
	// can use t.TempDir().
	NewStore func(t *testing.T) metadata.MetadataStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Namespace", suite.RunNamespaceTests)
	t.Run("Attributes", suite.RunAttributeTests)
}

// newStore creates a store that is closed when the test ends.
func (suite *StoreTestSuite) newStore(t *testing.T) metadata.MetadataStore {
	t.Helper()
	store := suite.NewStore(t)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}

// regular returns attributes for a regular file with the given mode.
func regular(mode uint32) *metadata.FileAttr {
	return &metadata.FileAttr{Type: metadata.FileTypeRegular, Mode: mode}
}

// directory returns attributes for a directory.
func directory() *metadata.FileAttr {
	return &metadata.FileAttr{Type: metadata.FileTypeDirectory, Mode: 0o755}
}
