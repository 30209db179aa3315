package ioline_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosed/gosed/internal/sed/ioline"
)

func drain(t *testing.T, r *ioline.Reader) []ioline.Record {
	t.Helper()
	var out []ioline.Record
	for {
		rec, ok := r.Next()
		if !ok {
			break
		}
		out = append(out, rec)
	}
	return out
}

func TestReaderStdinOnly(t *testing.T) {
	r := ioline.NewReader(nil, '\n', strings.NewReader("a\nb\nc\n"))
	defer r.Close()
	recs := drain(t, r)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{recs[0].Text, recs[1].Text, recs[2].Text})
	assert.False(t, recs[0].LastOverall)
	assert.True(t, recs[2].LastOverall)
	assert.True(t, recs[2].LastInFile)
	assert.False(t, recs[0].Unterminated)
}

func TestReaderUnterminatedFinalRecord(t *testing.T) {
	r := ioline.NewReader(nil, '\n', strings.NewReader("a\nb"))
	defer r.Close()
	recs := drain(t, r)
	require.Len(t, recs, 2)
	assert.False(t, recs[0].Unterminated)
	assert.True(t, recs[1].Unterminated)
}

func TestReaderMultiFileBoundaries(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "a.txt")
	f2 := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(f1, []byte("1\n2\n"), 0644))
	require.NoError(t, os.WriteFile(f2, []byte("3\n"), 0644))

	r := ioline.NewReader([]string{f1, f2}, '\n', nil)
	defer r.Close()
	recs := drain(t, r)
	require.Len(t, recs, 3)
	assert.Equal(t, "1", recs[0].Text)
	assert.False(t, recs[0].LastInFile)
	assert.Equal(t, "2", recs[1].Text)
	assert.True(t, recs[1].LastInFile)
	assert.False(t, recs[1].LastOverall)
	assert.Equal(t, "3", recs[2].Text)
	assert.True(t, recs[2].LastInFile)
	assert.True(t, recs[2].LastOverall)
	assert.Equal(t, f1, recs[0].FileName)
	assert.Equal(t, f2, recs[2].FileName)
}

func TestReaderMissingFileRecordsErrorAndContinues(t *testing.T) {
	dir := t.TempDir()
	f2 := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(f2, []byte("ok\n"), 0644))

	r := ioline.NewReader([]string{filepath.Join(dir, "missing.txt"), f2}, '\n', nil)
	defer r.Close()
	recs := drain(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "ok", recs[0].Text)
	require.Len(t, r.Errs(), 1)
}

func TestReaderNullDataSeparator(t *testing.T) {
	r := ioline.NewReader(nil, 0, strings.NewReader("a\x00b\x00"))
	defer r.Close()
	recs := drain(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].Text)
	assert.Equal(t, "b", recs[1].Text)
}
