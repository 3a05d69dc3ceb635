// Package atomicfile writes files so that readers never observe a partial
// write. The full content goes to a uniquely named temporary file in the
// target's directory, is synced, and is then renamed over the target. Rename
// is the only step readers can observe.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// rename is replaced in tests to force a failure between the temp write and
// the rename.
var rename = os.Rename

// WriteFile atomically replaces target with data. On any failure the
// temporary artifact is removed and the pre-existing target is left
// byte-for-byte unchanged. A process crash between the temp write and the
// rename can leave an orphaned temp file behind; callers that care can sweep
// for "*.tmp-*" siblings on startup.
func WriteFile(target string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
