// Package vm is the executor of spec.md §4.4: it walks a compiled
// Program once per input record (the sed "cycle"), dispatching on
// Command.Kind, threading the pattern space and ProcessingContext
// through branches, hold-buffer operations, and the append queue. It is
// grounded on the teacher's engine/execCmds/execOne (pkg/applets/sed),
// generalized from the teacher's recursive nested-block walk to a flat
// program-counter loop over command.Program's BlockBegin/BlockEnd jump
// indices.
package vm

import (
	"bufio"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/gosed/gosed/internal/fs"
	"github.com/gosed/gosed/internal/sandbox"
	"github.com/gosed/gosed/internal/sed/command"
	"github.com/gosed/gosed/internal/sed/ioline"
	"github.com/gosed/gosed/internal/sed/subst"
)

// Run executes prog against files (an empty list means stdin), writing
// to out. ExitCode is the q/Q argument if one was given (0 otherwise);
// err is a genuine I/O failure, not an input-file-open warning (those
// accumulate in the returned []error and map to exit status 1).
func Run(prog *command.Program, ctx *command.ProcessingContext, files []string, stdin io.Reader, out io.Writer) (exitCode int, quit bool, openErrs []error, err error) {
	sep := separatorByte(ctx)
	reader := ioline.NewReader(files, sep, stdin)
	defer reader.Close()

	bw := bufio.NewWriter(out)
	m := &machine{
		prog:   prog,
		ctx:    ctx,
		rs:     command.NewRangeState(),
		reader: reader,
		out:    newOutWriter(bw, sep, ctx.Unbuffered),
		sep:    sep,
		wfiles: make(map[string]io.Writer),
	}
	runErr := m.run()
	m.closeWriteFiles()
	if flushErr := bw.Flush(); flushErr == nil {
		err = runErr
	} else {
		err = flushErr
	}
	return m.exitCode, m.quit, reader.Errs(), err
}

// RunInPlace runs prog once per file in files, each as its own stream
// (spec.md §4.5's -i forces --separate semantics: line numbers and $
// reset at each file boundary), staging each rewrite through an
// ioline.InPlaceWriter. Hold space and the last-used regex persist across
// files, matching GNU sed; q/Q stops processing the remaining files.
func RunInPlace(prog *command.Program, ctx *command.ProcessingContext, files []string, suffix string) (exitCode int, openErrs []error, err error) {
	ctx.Separate = true
	for _, path := range files {
		resolved, rserr := sandbox.ResolveInPlaceTarget(path, ctx.Sandbox, ctx.FollowSymlinks)
		if rserr != nil {
			openErrs = append(openErrs, rserr)
			continue
		}
		w, werr := ioline.NewInPlaceWriter(resolved, suffix)
		if werr != nil {
			openErrs = append(openErrs, werr)
			continue
		}
		ctx.LineNumber = 0
		code, quit, errs, rerr := Run(prog, ctx, []string{resolved}, nil, w)
		openErrs = append(openErrs, errs...)
		if rerr != nil {
			w.Abort()
			return exitCode, openErrs, rerr
		}
		if cerr := w.Commit(); cerr != nil {
			return exitCode, openErrs, cerr
		}
		exitCode = code
		if quit {
			break
		}
	}
	return exitCode, openErrs, nil
}

func separatorByte(ctx *command.ProcessingContext) byte {
	if ctx.NullData {
		return 0
	}
	return '\n'
}

type machine struct {
	prog   *command.Program
	ctx    *command.ProcessingContext
	rs     *command.RangeState
	reader *ioline.Reader
	out    *outWriter
	sep    byte

	wfiles   map[string]io.Writer
	quit     bool
	exitCode int

	// prevLastInFile records whether the previous record ended its file,
	// so --separate can restart line numbering at the next record.
	prevLastInFile bool
}

func (m *machine) run() error {
	for !m.quit {
		rec, ok := m.reader.Next()
		if !ok {
			break
		}
		m.ctx.LineNumber++
		m.ctx.InputName = rec.FileName
		m.setLastFlags(rec)

		pattern := rec.Text
		unterminated := rec.Unterminated
		if err := m.cycle(&pattern, &unterminated); err != nil {
			return err
		}
	}
	return nil
}

func (m *machine) setLastFlags(rec ioline.Record) {
	if m.ctx.Separate && m.prevLastInFile {
		m.ctx.LineNumber = 1
	}
	m.prevLastInFile = rec.LastInFile
	if m.ctx.Separate {
		m.ctx.LastLine = rec.LastInFile
	} else {
		m.ctx.LastLine = rec.LastOverall
	}
	m.ctx.LastFile = rec.LastOverall
}

// cycle runs one trip through the program for the current pattern space,
// honoring D's in-place restart (no new input read) via the restart
// label, and finishes with the default auto-print and append-queue
// drain. A command that ends the cycle early (d, D with no newline, c,
// Q) skips the auto-print; d and D still drain the append queue, c and
// Q do not.
func (m *machine) cycle(pattern *string, unterminated *bool) error {
	m.ctx.Reset()

restart:
	pc := 0
	for pc < len(m.prog.Commands) {
		cmd := m.prog.Commands[pc]

		if cmd.Kind == command.Label || cmd.Kind == command.Comment {
			pc++
			continue
		}

		matched, merr := m.rs.Match(cmd, m.ctx, *pattern)
		if merr != nil {
			return merr
		}
		if !matched {
			if cmd.Kind == command.BlockBegin {
				pc = cmd.BlockEnd
			} else {
				pc++
			}
			continue
		}

		switch cmd.Kind {
		case command.BlockBegin:
			pc++

		case command.Substitute:
			m.execSubstitute(cmd, pattern)
			pc++

		case command.Translit:
			execTranslit(cmd, pattern)
			pc++

		case command.Print:
			m.out.WriteText(*pattern, true)
			pc++

		case command.PrintPartial:
			m.out.WriteText(firstLine(*pattern), true)
			pc++

		case command.Delete:
			m.drainAppends()
			return nil

		case command.DeletePartial:
			if idx := strings.IndexByte(*pattern, '\n'); idx >= 0 {
				*pattern = (*pattern)[idx+1:]
				goto restart
			}
			m.drainAppends()
			return nil

		case command.Hold:
			m.ctx.Hold = *pattern
			pc++
		case command.AppendHold:
			m.ctx.Hold = m.ctx.Hold + string(m.sep) + *pattern
			pc++
		case command.GetHold:
			*pattern = m.ctx.Hold
			pc++
		case command.GetHoldAppend:
			*pattern = *pattern + string(m.sep) + m.ctx.Hold
			pc++
		case command.ExchangeHold:
			*pattern, m.ctx.Hold = m.ctx.Hold, *pattern
			pc++

		case command.Next:
			if !m.ctx.Quiet {
				m.out.WriteText(*pattern, !*unterminated)
			}
			rec, ok := m.reader.Next()
			if !ok {
				m.quit = true
				return nil
			}
			m.ctx.LineNumber++
			m.ctx.InputName = rec.FileName
			m.setLastFlags(rec)
			*pattern = rec.Text
			*unterminated = rec.Unterminated
			pc++

		case command.AppendNext:
			rec, ok := m.reader.Next()
			if !ok {
				m.quit = true
				pc = len(m.prog.Commands)
				continue
			}
			m.ctx.LineNumber++
			m.ctx.InputName = rec.FileName
			m.setLastFlags(rec)
			*pattern = *pattern + string(m.sep) + rec.Text
			*unterminated = rec.Unterminated
			pc++

		case command.Branch:
			pc = m.branchTarget(cmd)

		case command.BranchOnSub:
			if m.ctx.SubstitutionMade {
				m.ctx.SubstitutionMade = false
				pc = m.branchTarget(cmd)
			} else {
				pc++
			}

		case command.BranchOnNoSub:
			if !m.ctx.SubstitutionMade {
				pc = m.branchTarget(cmd)
			} else {
				m.ctx.SubstitutionMade = false
				pc++
			}

		case command.Append:
			m.ctx.AppendElements = append(m.ctx.AppendElements, command.AppendElement{Text: cmd.Text})
			pc++

		case command.Insert:
			m.out.WriteText(cmd.Text, true)
			pc++

		case command.Change:
			if cmd.Addr2 == nil || !m.rs.Active(cmd) {
				m.out.WriteText(cmd.Text, true)
			}
			return nil

		case command.Quit:
			m.quit = true
			m.exitCode = cmd.Target
			pc = len(m.prog.Commands)
			continue

		case command.QuitSilent:
			m.quit = true
			m.exitCode = cmd.Target
			return nil

		case command.LineNumber:
			m.out.WriteText(strconv.Itoa(m.ctx.LineNumber), true)
			pc++

		case command.List:
			width := cmd.Target
			if width == 0 {
				width = m.ctx.Length
			}
			m.out.WriteText(strings.TrimSuffix(subst.List(*pattern, width), "\n"), true)
			pc++

		case command.ZapPattern:
			*pattern = ""
			pc++

		case command.ReadFile:
			m.ctx.AppendElements = append(m.ctx.AppendElements, command.AppendElement{File: cmd.Text})
			pc++

		case command.WriteFile:
			m.writeToFile(cmd.Text, *pattern)
			pc++

		case command.Execute:
			m.execShell(cmd, pattern)
			pc++

		default:
			pc++
		}
	}

	if !m.ctx.Quiet {
		m.out.WriteText(*pattern, !*unterminated)
	}
	m.drainAppends()
	return nil
}

func (m *machine) branchTarget(cmd *command.Command) int {
	if cmd.Target < 0 {
		return len(m.prog.Commands)
	}
	return cmd.Target
}

func (m *machine) drainAppends() {
	for _, a := range m.ctx.AppendElements {
		if a.File != "" {
			data, err := fs.ReadFile(a.File)
			if err == nil {
				m.out.WriteRaw(data)
			}
			continue
		}
		m.out.WriteText(a.Text, true)
	}
	m.ctx.AppendElements = nil
}

func (m *machine) execSubstitute(cmd *command.Command, pattern *string) {
	re := cmd.Regex
	if re == nil {
		re = m.ctx.SavedRegex
	}
	if re == nil {
		return
	}
	m.ctx.SavedRegex = re

	out, replaced := subst.Apply(re, *pattern, cmd.CompiledRepl, cmd.Flags.Nth, cmd.Flags.Global)
	if !replaced {
		return
	}
	*pattern = out
	m.ctx.SubstitutionMade = true

	if cmd.Flags.Execute {
		*pattern = m.runShellCapture(*pattern)
	}
	if cmd.Flags.Print {
		m.out.WriteText(*pattern, true)
	}
	if cmd.Flags.WriteFile != "" {
		m.writeToFile(cmd.Flags.WriteFile, *pattern)
	}
}

func execTranslit(cmd *command.Command, pattern *string) {
	parts := strings.SplitN(cmd.Text, "\x00", 2)
	if len(parts) != 2 {
		return
	}
	src, dst := []rune(parts[0]), []rune(parts[1])
	table := make(map[rune]rune, len(src))
	for i := range src {
		table[src[i]] = dst[i]
	}
	var b strings.Builder
	for _, r := range *pattern {
		if d, ok := table[r]; ok {
			b.WriteRune(d)
		} else {
			b.WriteRune(r)
		}
	}
	*pattern = b.String()
}

func (m *machine) writeToFile(name, text string) {
	w, ok := m.wfiles[name]
	if !ok {
		var err error
		w, err = m.openOutputTarget(name)
		if err != nil {
			return
		}
		m.wfiles[name] = w
	}
	io.WriteString(w, text)
	w.Write([]byte{m.sep})
}

func (m *machine) openOutputTarget(name string) (io.Writer, error) {
	switch name {
	case "/dev/stdout":
		return stdoutWriter{m.out}, nil
	default:
		return fs.Create(name)
	}
}

// stdoutWriter routes an s///w /dev/stdout (or w /dev/stdout) target
// through the same deferred-separator writer as the rest of output,
// rather than opening the real device file.
type stdoutWriter struct{ out *outWriter }

func (s stdoutWriter) Write(p []byte) (int, error) {
	s.out.WriteRaw(p)
	return len(p), nil
}

func (m *machine) closeWriteFiles() {
	for _, w := range m.wfiles {
		if c, ok := w.(io.Closer); ok {
			c.Close()
		}
	}
}

func (m *machine) execShell(cmd *command.Command, pattern *string) {
	if cmd.Text == "" {
		*pattern = m.runShellCapture(*pattern)
		return
	}
	out, err := exec.Command("/bin/sh", "-c", cmd.Text).Output()
	if err == nil {
		m.out.WriteRaw(out)
	}
}

func (m *machine) runShellCapture(script string) string {
	out, err := exec.Command("/bin/sh", "-c", script).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(string(out), "\n")
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
