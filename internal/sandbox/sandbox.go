// Package sandbox implements the narrow safety policy gosed's --sandbox
// and --follow-symlinks flags apply to in-place editing. Everything else
// --sandbox restricts (the e/r/w commands) is rejected earlier, at
// compile time, by the command parser.
package sandbox

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrSymlinkDenied is returned by ResolveInPlaceTarget when path is a
// symlink and sandboxed mode forbids editing through one, since the link
// could point outside whatever the caller treats as safe.
var ErrSymlinkDenied = errors.New("sandbox: refusing to edit a symlinked file")

// ResolveInPlaceTarget applies gosed's symlink policy for -i to path,
// returning the path the in-place writer should actually stage its
// rewrite against.
//
// Sandboxed mode always refuses a symlinked target. Otherwise, when
// followSymlinks is set the real file is resolved and edited in place,
// preserving the link; left unset, path is returned unchanged and the
// later rename replaces the symlink itself with a regular file, which
// is plain os.Rename behavior and matches GNU sed's default.
func ResolveInPlaceTarget(path string, sandboxed, followSymlinks bool) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return path, nil
	}
	if sandboxed {
		return "", ErrSymlinkDenied
	}
	if !followSymlinks {
		return path, nil
	}
	return filepath.EvalSymlinks(path)
}
