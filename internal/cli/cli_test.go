package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gosed/gosed/internal/cli"
	"github.com/gosed/gosed/internal/core"
	"github.com/gosed/gosed/internal/testutil"
)

func TestCLIBasic(t *testing.T) {
	testutil.Run(t, cli.Run, []testutil.CaseSpec{
		{
			Name:     "positional script substitutes",
			Args:     []string{"s/foo/bar/"},
			Input:    "foo baz\n",
			WantCode: core.ExitSuccess,
			WantOut:  "bar baz\n",
		},
		{
			Name:     "quiet with explicit print",
			Args:     []string{"-n", "-e", "2p"},
			Input:    "a\nb\nc\n",
			WantCode: core.ExitSuccess,
			WantOut:  "b\n",
		},
		{
			Name:     "multiple -e fragments run in order",
			Args:     []string{"-e", "s/a/1/", "-e", "s/b/2/"},
			Input:    "ab\n",
			WantCode: core.ExitSuccess,
			WantOut:  "12\n",
		},
		{
			Name:     "quit with exit code",
			Args:     []string{"2q5"},
			Input:    "a\nb\nc\n",
			WantCode: 5,
			WantOut:  "a\nb\n",
		},
		{
			Name:       "no script specified is a usage error",
			Args:       []string{},
			WantCode:   core.ExitUsage,
			WantErrSub: "no script specified",
		},
		{
			Name:       "posix mode rejects GNU step addresses",
			Args:       []string{"--posix", "0~3d"},
			Input:      "a\n",
			WantCode:   core.ExitUsage,
			WantErrSub: "posix",
		},
		{
			Name:       "sandbox mode rejects the e command",
			Args:       []string{"--sandbox", "e ls"},
			Input:      "a\n",
			WantCode:   core.ExitUsage,
			WantErrSub: "sandbox",
		},
	})
}

func TestCLIScriptFile(t *testing.T) {
	testutil.Run(t, cli.Run, []testutil.CaseSpec{
		{
			Name:     "script read from -f",
			Args:     []string{"-f", "script.sed"},
			Input:    "hello\n",
			WantCode: core.ExitSuccess,
			WantOut:  "HELLO\n",
			Files: map[string]string{
				"script.sed": "s/.*/\\U&/\n",
			},
		},
	})
}

func TestCLIInPlace(t *testing.T) {
	dir := testutil.TempDirWithFiles(t, map[string]string{
		"input.txt": "foo\nbar\n",
	})

	oldDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldDir) })

	stdio, _, _ := testutil.CaptureStdio("")
	code := cli.Run(stdio, []string{"-i.bak", "s/foo/baz/", "input.txt"})
	if code != core.ExitSuccess {
		t.Fatalf("want exit %d, got %d", core.ExitSuccess, code)
	}

	testutil.AssertFileContent(t, filepath.Join(dir, "input.txt"), "baz\nbar\n")
	testutil.AssertFileContent(t, filepath.Join(dir, "input.txt.bak"), "foo\nbar\n")
}
