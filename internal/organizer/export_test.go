package organizer

import (
	"os"
	"testing"
)

// StubPreserveAttributes replaces the attribute copier until the test ends.
func StubPreserveAttributes(t testing.TB, fn func(dst, src string, info os.FileInfo) error) {
	t.Helper()
	original := preserveAttributes
	preserveAttributes = fn
	t.Cleanup(func() { preserveAttributes = original })
}
