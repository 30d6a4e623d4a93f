package testing

import (
	"testing"

	"github.com/marmos91/scopefs/pkg/vfs"
)

// FilesystemTestSuite is a comprehensive test suite for Filesystem
// implementations. It tests the interface contract, not implementation
// details, making it reusable across different backends (local disk,
// memory, etc.).
type FilesystemTestSuite struct {
	// NewFS is a factory function that creates a fresh, empty Filesystem
	// for each test. This ensures test isolation.
	NewFS func() vfs.Filesystem
}

// Run executes all tests in the suite.
func (suite *FilesystemTestSuite) Run(test *testing.T) {
	test.Run("Stat", suite.RunStatTests)
	test.Run("ReadWrite", suite.RunReadWriteTests)
	test.Run("Directory", suite.RunDirectoryTests)
	test.Run("Remove", suite.RunRemoveTests)
	test.Run("Copy", suite.RunCopyTests)
	test.Run("Rename", suite.RunRenameTests)
}
