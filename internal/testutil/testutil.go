// Package testutil provides shared fixtures for exercising the sed CLI
// end-to-end: temp files, captured stdio, and a table-driven test runner.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosed/gosed/internal/core"
)

// TempDirWithFiles creates a temp directory populated with files.
// The files map keys are relative paths, values are file contents.
func TempDirWithFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// CaptureStdio creates a Stdio with captured output buffers.
func CaptureStdio(input string) (*core.Stdio, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	return &core.Stdio{
		In:  strings.NewReader(input),
		Out: out,
		Err: errBuf,
	}, out, errBuf
}

// AssertFileContent checks that a file contains expected content.
func AssertFileContent(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	assert.Equal(t, want, string(got))
}

// RunApplet is the signature of the sed CLI entry point, injectable for tests.
type RunApplet func(stdio *core.Stdio, args []string) int

// CaseSpec defines a parameterized end-to-end test case for the sed CLI.
type CaseSpec struct {
	Name       string                         // test name
	Args       []string                       // command line arguments
	Input      string                         // stdin input
	WantCode   int                            // expected exit code
	WantOut    string                         // expected stdout (exact match)
	WantOutSub string                         // expected stdout substring
	WantErrSub string                         // expected stderr substring
	Files      map[string]string              // files to create in temp dir
	Check      func(t *testing.T, dir string) // optional post-run check
}

// Run executes a slice of parameterized CLI test cases.
func Run(t *testing.T, run RunApplet, tests []CaseSpec) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			var dir string
			if len(tt.Files) > 0 {
				dir = TempDirWithFiles(t, tt.Files)
			} else {
				dir = t.TempDir()
			}

			oldDir, _ := os.Getwd()
			if err := os.Chdir(dir); err != nil {
				t.Fatal(err)
			}
			t.Cleanup(func() { _ = os.Chdir(oldDir) })

			stdio, out, errBuf := CaptureStdio(tt.Input)

			code := run(stdio, tt.Args)

			assert.Equal(t, tt.WantCode, code, "exit code")
			if tt.WantOut != "" || (tt.WantOut == "" && tt.WantOutSub == "") {
				assert.Equal(t, tt.WantOut, out.String(), "stdout")
			}
			if tt.WantOutSub != "" {
				assert.Contains(t, out.String(), tt.WantOutSub, "stdout")
			}
			if tt.WantErrSub != "" {
				assert.Contains(t, errBuf.String(), tt.WantErrSub, "stderr")
			}

			if tt.Check != nil {
				tt.Check(t, dir)
			}
		})
	}
}
