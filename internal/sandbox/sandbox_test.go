package sandbox_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosed/gosed/internal/sandbox"
)

func TestResolveInPlaceTargetRegularFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	got, err := sandbox.ResolveInPlaceTarget(target, false, false)
	require.NoError(t, err)
	assert.Equal(t, target, got)

	got, err = sandbox.ResolveInPlaceTarget(target, true, false)
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestResolveInPlaceTargetSandboxedSymlinkDenied(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.txt")
	require.NoError(t, os.WriteFile(real, []byte("x"), 0644))
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(real, link))

	_, err := sandbox.ResolveInPlaceTarget(link, true, false)
	assert.ErrorIs(t, err, sandbox.ErrSymlinkDenied)
}

func TestResolveInPlaceTargetFollowSymlinks(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.txt")
	require.NoError(t, os.WriteFile(real, []byte("x"), 0644))
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(real, link))

	got, err := sandbox.ResolveInPlaceTarget(link, false, true)
	require.NoError(t, err)
	assert.Equal(t, real, got)
}

func TestResolveInPlaceTargetUnresolvedSymlinkLeavesLinkPath(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.txt")
	require.NoError(t, os.WriteFile(real, []byte("x"), 0644))
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(real, link))

	got, err := sandbox.ResolveInPlaceTarget(link, false, false)
	require.NoError(t, err)
	assert.Equal(t, link, got)
}
