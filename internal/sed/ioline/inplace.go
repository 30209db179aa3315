package ioline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/gosed/gosed/internal/fs"
)

// InPlaceWriter stages a file's rewritten content in a sibling temp file
// and atomically renames it over the original once writing completes, so
// a crash or interrupt mid-run never leaves a truncated file (spec.md
// §4.5). An advisory gofrs/flock lock guards against a second gosed
// process racing the same target; it is defensive, not a coordination
// mechanism between VM goroutines (the VM never runs two in-place
// rewrites of the same path concurrently).
type InPlaceWriter struct {
	target  string
	suffix  string
	tmp     *os.File
	tmpName string
	lock    *flock.Flock
}

// NewInPlaceWriter opens a temp file next to target and takes the
// advisory lock. suffix, when non-empty, names a backup to leave behind
// ("*" in suffix is replaced with the target path, matching GNU sed's
// -i.bak and -i'bak_*' forms).
func NewInPlaceWriter(target, suffix string) (*InPlaceWriter, error) {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".gosed-"+filepath.Base(target)+"-*")
	if err != nil {
		return nil, err
	}
	lock := flock.New(target + ".gosed-lock")
	_ = lock.Lock()
	return &InPlaceWriter{target: target, suffix: suffix, tmp: tmp, tmpName: tmp.Name(), lock: lock}, nil
}

func (w *InPlaceWriter) Write(p []byte) (int, error) { return w.tmp.Write(p) }

// Commit closes the staged file, writes the backup if requested, and
// atomically renames the staged file over target.
func (w *InPlaceWriter) Commit() error {
	if err := w.tmp.Close(); err != nil {
		return err
	}
	defer w.releaseLock()

	if w.suffix != "" {
		if err := fs.Rename(w.target, w.backupName()); err != nil {
			return err
		}
	}
	if info, err := os.Stat(w.target); err == nil {
		_ = os.Chmod(w.tmpName, info.Mode())
	}
	return fs.Rename(w.tmpName, w.target)
}

// Abort discards the staged file, leaving target untouched.
func (w *InPlaceWriter) Abort() error {
	w.tmp.Close()
	os.Remove(w.tmpName)
	w.releaseLock()
	return nil
}

func (w *InPlaceWriter) releaseLock() {
	_ = w.lock.Unlock()
	os.Remove(w.lock.Path())
}

func (w *InPlaceWriter) backupName() string {
	if strings.Contains(w.suffix, "*") {
		return strings.ReplaceAll(w.suffix, "*", w.target)
	}
	return w.target + w.suffix
}
