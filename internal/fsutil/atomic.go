package fsutil

import (
	"fmt"
	"os"

	"github.com/dchest/safefile"
)

// AtomicWrite writes data to path through a temp file in the same directory
// that is renamed over path on commit. The temp file never survives a failure.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	f, err := safefile.Create(path, perm)
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := f.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
