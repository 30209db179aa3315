// Package cli implements gosed's command-line shell (spec.md §6): flag
// parsing with pflag (the teacher's dependency of choice for flags
// elsewhere in the pack), script assembly from -e/-f, and dispatch into
// the compiler and VM. Run follows the teacher applet convention of
// func Run(stdio *core.Stdio, args []string) int.
package cli

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/gosed/gosed/internal/core"
	"github.com/gosed/gosed/internal/diag"
	"github.com/gosed/gosed/internal/fs"
	"github.com/gosed/gosed/internal/sed/command"
	"github.com/gosed/gosed/internal/sed/compiler"
	"github.com/gosed/gosed/internal/sed/vm"
)

// notSetSentinel distinguishes "-i not given" from "-i given with an
// empty suffix", since both would otherwise read as "".
const notSetSentinel = "\x00gosed:in-place-not-set\x00"

// Run parses args, compiles the assembled script, and executes it
// against the named files (or stdin), returning the process exit code.
func Run(stdio *core.Stdio, args []string) int {
	flags := pflag.NewFlagSet("sed", pflag.ContinueOnError)
	flags.SetOutput(stdio.Err)

	var (
		quiet, extended, posix, sandbox bool
		separate, nullData              bool
		followSymlinks, unbuffered      bool
		debugFlag                       bool
		lineLength                      int
		inPlaceSuffix                   string
		expressions, scriptFiles        []string
	)

	flags.BoolVarP(&quiet, "quiet", "n", false, "suppress automatic printing of pattern space")
	flags.BoolVar(&quiet, "silent", false, "alias for --quiet")
	flags.StringArrayVarP(&expressions, "expression", "e", nil, "add the script to the commands to be executed")
	flags.StringArrayVarP(&scriptFiles, "file", "f", nil, "add the contents of script-file to the commands")
	flags.BoolVarP(&extended, "regexp-extended", "E", false, "use extended regular expressions")
	flags.BoolVarP(&extended, "re", "r", false, "alias for -E")
	flags.StringVarP(&inPlaceSuffix, "in-place", "i", notSetSentinel, "edit files in place (optionally making a backup with SUFFIX)")
	flags.Lookup("in-place").NoOptDefVal = ""
	flags.BoolVarP(&separate, "separate", "s", false, "consider files as separate rather than one continuous stream")
	flags.BoolVarP(&nullData, "null-data", "z", false, "separate lines by NUL characters")
	flags.IntVarP(&lineLength, "line-length", "l", 70, "line-wrap length for the l command")
	flags.BoolVar(&posix, "posix", false, "disable all GNU extensions")
	flags.BoolVar(&sandbox, "sandbox", false, "disable e/r/w commands and in-place writing outside the input set")
	flags.BoolVar(&followSymlinks, "follow-symlinks", false, "follow symlinks when processing in place")
	flags.BoolVarP(&unbuffered, "unbuffered", "u", false, "flush output after every line")
	flags.BoolVar(&debugFlag, "debug", false, "log compilation and execution trace to stderr")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return core.ExitSuccess
		}
		return core.UsageError(stdio, "sed", err.Error())
	}

	d := diag.New(stdio, debugFlag)
	defer d.Close()

	positional := flags.Args()
	if len(expressions) == 0 && len(scriptFiles) == 0 {
		if len(positional) == 0 {
			return core.UsageError(stdio, "sed", "no script specified")
		}
		expressions = append(expressions, positional[0])
		positional = positional[1:]
	}

	scripts, err := assembleScripts(expressions, scriptFiles)
	if err != nil {
		d.RuntimeError("sed", err)
		return core.ExitFailure
	}

	ctx := command.NewContext()
	ctx.RegexExtended = extended
	ctx.Quiet = quiet
	ctx.Posix = posix
	ctx.NullData = nullData
	ctx.Separate = separate
	ctx.Length = lineLength
	ctx.Sandbox = sandbox
	ctx.FollowSymlinks = followSymlinks
	ctx.Unbuffered = unbuffered
	if inPlaceSuffix != notSetSentinel {
		ctx.InPlace = true
		ctx.InPlaceSuffix = inPlaceSuffix
	}

	prog, err := compiler.Compile(scripts, ctx)
	if err != nil {
		if cerr, ok := err.(*compiler.Error); ok {
			d.CompileError("sed", diag.Location{Script: cerr.Script, Line: cerr.Line, Col: cerr.Col}, cerr.Msg)
		} else {
			d.RuntimeError("sed", err)
		}
		return core.ExitUsage
	}
	d.Debugf("compiled %d commands", len(prog.Commands))

	files := positional
	if ctx.InPlace {
		if len(files) == 0 {
			return core.UsageError(stdio, "sed", "no input files")
		}
		_, openErrs, runErr := vm.RunInPlace(prog, ctx, files, ctx.InPlaceSuffix)
		return finish(d, openErrs, runErr)
	}

	exitCode, _, openErrs, runErr := vm.Run(prog, ctx, files, stdio.In, stdio.Out)
	if code := finish(d, openErrs, runErr); code != core.ExitSuccess {
		return code
	}
	if exitCode != 0 {
		return exitCode
	}
	return core.ExitSuccess
}

func assembleScripts(expressions, scriptFiles []string) ([]compiler.Script, error) {
	scripts := make([]compiler.Script, 0, len(expressions)+len(scriptFiles))
	for i, e := range expressions {
		scripts = append(scripts, compiler.Script{Text: e, Name: fmt.Sprintf("-e#%d", i+1)})
	}
	for _, path := range scriptFiles {
		data, err := fs.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("can't read %s: %w", path, err)
		}
		scripts = append(scripts, compiler.Script{Text: string(data), Name: path})
	}
	return scripts, nil
}

func finish(d *diag.Diag, openErrs []error, runErr error) int {
	for _, oe := range openErrs {
		d.RuntimeError("sed", oe)
	}
	if runErr != nil {
		d.RuntimeError("sed", runErr)
		return core.ExitFailure
	}
	if len(openErrs) > 0 {
		return core.ExitFailure
	}
	return core.ExitSuccess
}
