// Package compiler implements spec.md §4.1's lexer/parser: it turns a
// concatenation of script fragments into a flat, ordered Program plus a
// label map, resolving branch targets after the full parse.
//
// Blocks ({...}) are flattened rather than kept as the teacher's nested
// sub-command slices (pkg/applets/sed's sedCommand.sub): a BlockBegin
// command carries the index to jump to when its address doesn't match,
// so the VM's dispatch loop stays a single flat program-counter walk, as
// spec.md §2 describes ("Program{commands: ordered sequence}").
package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gosed/gosed/internal/sed/command"
	"github.com/gosed/gosed/internal/sed/regexadapt"
	"github.com/gosed/gosed/internal/sed/subst"
)

// Script is one script fragment fed to Compile, either a literal -e
// string or the contents of a -f file. Fragments are concatenated with
// a newline separator, preserving per-fragment line numbers for
// diagnostics (spec.md §6).
type Script struct {
	Text string
	Name string // "-e" argument index label, or the -f file path
}

// Error is a compile-time error carrying a source location, so the CLI
// can format file:line:col diagnostics without string-matching a bare
// error message (spec.md §4.1).
type Error struct {
	Script int
	Line   int
	Col    int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// Compile parses scripts into an executable Program under ctx's dialect
// and mode flags (RegexExtended, Posix, Sandbox).
func Compile(scripts []Script, ctx *command.ProcessingContext) (*command.Program, error) {
	var buf strings.Builder
	bounds := make([]int, 0, len(scripts)+1)
	bounds = append(bounds, 0)
	for i, s := range scripts {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(s.Text)
		bounds = append(bounds, buf.Len())
	}

	p := &parser{
		src:    buf.String(),
		bounds: bounds,
		ctx:    ctx,
		labels: make(map[string]int),
	}

	if err := p.parseProgram(); err != nil {
		return nil, err
	}
	if p.blockDepth != 0 {
		return nil, p.errAt(p.pos, "unmatched '{'")
	}
	for _, b := range p.pendingBranches {
		if _, ok := p.labels[b.name]; !ok {
			return nil, &Error{Msg: fmt.Sprintf("can't find label for jump to `%s'", b.name)}
		}
	}
	for _, b := range p.pendingBranches {
		p.cmds[b.cmdIndex].Target = p.labels[b.name]
	}

	prog := &command.Program{Commands: p.cmds, Labels: p.labels}
	ctx.LabelToCommandMap = p.labels
	return prog, nil
}

type pendingBranch struct {
	cmdIndex int
	name     string
}

type openBlock struct {
	cmdIndex int
}

type parser struct {
	src    string
	bounds []int // cumulative fragment-end offsets, bounds[0]=0
	pos    int
	ctx    *command.ProcessingContext

	cmds            []*command.Command
	labels          map[string]int
	pendingBranches []pendingBranch
	blockStack      []openBlock
	blockDepth      int
}

// locate converts a byte offset into (script index, line, col) for
// diagnostics, counting from the fragment that contains pos.
func (p *parser) locate(pos int) (script, line, col int) {
	script = 0
	for i := 1; i < len(p.bounds); i++ {
		if pos < p.bounds[i] || i == len(p.bounds)-1 {
			script = i - 1
			break
		}
	}
	start := p.bounds[script]
	if script > 0 {
		start++ // skip the newline that joins this fragment to the previous one
	}
	line, col = 1, 1
	for i := start; i < pos && i < len(p.src); i++ {
		if p.src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return
}

func (p *parser) errAt(pos int, format string, args ...any) *Error {
	s, l, c := p.locate(pos)
	return &Error{Script: s, Line: l, Col: c, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) skipSeparators() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n' || p.src[p.pos] == ';') {
		p.pos++
	}
}

func (p *parser) parseProgram() error {
	for {
		p.skipSeparators()
		if p.pos >= len(p.src) {
			break
		}
		if p.src[p.pos] == '}' {
			if p.blockDepth == 0 {
				return p.errAt(p.pos, "unexpected `}'")
			}
			top := p.blockStack[len(p.blockStack)-1]
			p.blockStack = p.blockStack[:len(p.blockStack)-1]
			p.blockDepth--
			p.cmds[top.cmdIndex].BlockEnd = len(p.cmds)
			p.pos++
			continue
		}
		if p.src[p.pos] == '#' {
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		if err := p.parseOneCommand(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseOneCommand() error {
	start := p.pos
	addr1, err := p.parseAddress()
	if err != nil {
		return err
	}
	var addr2 *command.Address
	if p.pos < len(p.src) && p.src[p.pos] == ',' {
		p.pos++
		p.skipSpaces()
		addr2, err = p.parseAddress()
		if err != nil {
			return err
		}
		if addr2 == nil {
			return p.errAt(p.pos, "expected address after `,'")
		}
	}

	p.skipSpaces()
	negated := false
	for p.pos < len(p.src) && p.src[p.pos] == '!' {
		negated = !negated
		p.pos++
		p.skipSpaces()
	}

	if p.pos >= len(p.src) || p.src[p.pos] == '\n' || p.src[p.pos] == ';' {
		if addr1 != nil {
			return p.errAt(start, "missing command")
		}
		return nil
	}

	letterPos := p.pos
	letter := p.src[p.pos]
	loc := p.sourceLocAt(letterPos)
	p.pos++

	cmd := &command.Command{Addr1: addr1, Addr2: addr2, Negated: negated, Loc: loc}

	switch letter {
	case '{':
		cmd.Kind = command.BlockBegin
		p.cmds = append(p.cmds, cmd)
		p.blockStack = append(p.blockStack, openBlock{cmdIndex: len(p.cmds) - 1})
		p.blockDepth++
		return nil
	case 'a':
		cmd.Kind = command.Append
		cmd.Text = p.parseTextArg()
	case 'i':
		cmd.Kind = command.Insert
		cmd.Text = p.parseTextArg()
	case 'c':
		cmd.Kind = command.Change
		cmd.Text = p.parseTextArg()
	case ':':
		name := p.parseLabel()
		if name == "" {
			return p.errAt(letterPos, "\":\" lacks a label")
		}
		if _, dup := p.labels[name]; dup {
			return p.errAt(letterPos, "duplicate label `%s'", name)
		}
		cmd.Kind = command.Label
		cmd.Text = name
		p.cmds = append(p.cmds, cmd)
		p.labels[name] = len(p.cmds) - 1
		return nil
	case 'b', 't', 'T':
		name := p.parseLabel()
		switch letter {
		case 'b':
			cmd.Kind = command.Branch
		case 't':
			cmd.Kind = command.BranchOnSub
		case 'T':
			cmd.Kind = command.BranchOnNoSub
		}
		cmd.Text = name
		p.cmds = append(p.cmds, cmd)
		if name != "" {
			p.pendingBranches = append(p.pendingBranches, pendingBranch{cmdIndex: len(p.cmds) - 1, name: name})
		} else {
			cmd.Target = -1
		}
		return nil
	case 's':
		cmd.Kind = command.Substitute
		if err := p.parseSubstitution(cmd); err != nil {
			return err
		}
	case 'y':
		cmd.Kind = command.Translit
		if err := p.parseTransliterate(cmd); err != nil {
			return err
		}
	case 'r':
		if err := p.mustAllow(letterPos); err != nil {
			return err
		}
		cmd.Kind = command.ReadFile
		p.skipSpaces()
		cmd.Text = p.readToEOL()
	case 'w':
		if err := p.mustAllow(letterPos); err != nil {
			return err
		}
		cmd.Kind = command.WriteFile
		p.skipSpaces()
		cmd.Text = p.readToEOL()
	case 'e':
		if err := p.mustAllow(letterPos); err != nil {
			return err
		}
		cmd.Kind = command.Execute
		p.skipSpaces()
		cmd.Text = p.readToEOL()
	case 'q':
		cmd.Kind = command.Quit
		cmd.Target = p.parseOptionalExitCode()
	case 'Q':
		cmd.Kind = command.QuitSilent
		cmd.Target = p.parseOptionalExitCode()
	case 'l':
		cmd.Kind = command.List
		cmd.Target = p.parseOptionalNumber()
	case 'd':
		cmd.Kind = command.Delete
	case 'D':
		cmd.Kind = command.DeletePartial
	case 'g':
		cmd.Kind = command.GetHold
	case 'G':
		cmd.Kind = command.GetHoldAppend
	case 'h':
		cmd.Kind = command.Hold
	case 'H':
		cmd.Kind = command.AppendHold
	case 'n':
		cmd.Kind = command.Next
	case 'N':
		cmd.Kind = command.AppendNext
	case 'p':
		cmd.Kind = command.Print
	case 'P':
		cmd.Kind = command.PrintPartial
	case 'x':
		cmd.Kind = command.ExchangeHold
	case '=':
		cmd.Kind = command.LineNumber
	case 'z':
		cmd.Kind = command.ZapPattern
	default:
		return p.errAt(letterPos, "unknown command: `%c'", letter)
	}

	p.cmds = append(p.cmds, cmd)
	return nil
}

func (p *parser) mustAllow(pos int) error {
	if p.ctx.Sandbox {
		return p.errAt(pos, "e/r/w commands disabled in sandbox mode")
	}
	return nil
}

func (p *parser) sourceLocAt(pos int) command.SourceLoc {
	s, l, c := p.locate(pos)
	return command.SourceLoc{Script: s, Line: l, Col: c}
}

func (p *parser) readToEOL() string {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '\n' {
		p.pos++
	}
	return strings.TrimSpace(p.src[start:p.pos])
}

func (p *parser) parseOptionalNumber() int {
	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0
	}
	n, _ := strconv.Atoi(p.src[start:p.pos])
	return n
}

func (p *parser) parseOptionalExitCode() int {
	return p.parseOptionalNumber()
}

func (p *parser) parseLabel() string {
	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '\n' && p.src[p.pos] != ';' && p.src[p.pos] != '}' && p.src[p.pos] != ' ' && p.src[p.pos] != '\t' {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) parseTextArg() string {
	if p.pos < len(p.src) && p.src[p.pos] == '\\' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '\n' {
		p.pos += 2
	} else {
		p.skipSpaces()
	}
	var lines []string
	for {
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != '\n' {
			p.pos++
		}
		line := p.src[start:p.pos]
		if p.pos < len(p.src) {
			p.pos++
		}
		line = strings.ReplaceAll(line, "\\n", "\n")
		line = strings.ReplaceAll(line, "\\t", "\t")
		if strings.HasSuffix(line, "\\") && !strings.HasSuffix(line, "\\\\") {
			lines = append(lines, line[:len(line)-1])
			continue
		}
		lines = append(lines, line)
		break
	}
	return strings.Join(lines, "\n")
}

func (p *parser) regexOptions() regexadapt.Options {
	return regexadapt.Options{Extended: p.ctx.RegexExtended, Posix: p.ctx.Posix}
}

func (p *parser) parseAddress() (*command.Address, error) {
	p.skipSpaces()
	if p.pos >= len(p.src) {
		return nil, nil
	}
	start := p.pos
	ch := p.src[p.pos]

	switch {
	case ch == '$':
		p.pos++
		return &command.Address{Kind: command.AddrLast}, nil

	case ch >= '0' && ch <= '9':
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		n, _ := strconv.Atoi(p.src[start:p.pos])
		if p.pos < len(p.src) && p.src[p.pos] == '~' {
			p.pos++
			s2 := p.pos
			for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
				p.pos++
			}
			step, _ := strconv.Atoi(p.src[s2:p.pos])
			if p.ctx.Posix {
				return nil, p.errAt(start, "GNU first~step addresses are not allowed in --posix mode")
			}
			return &command.Address{Kind: command.AddrStep, Line: n, Step: step}, nil
		}
		return &command.Address{Kind: command.AddrLine, Line: n}, nil

	case ch == '+':
		p.pos++
		s2 := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		if p.pos == s2 {
			return nil, p.errAt(start, "expected number after `+'")
		}
		n, _ := strconv.Atoi(p.src[s2:p.pos])
		return &command.Address{Kind: command.AddrRelative, Offset: n}, nil

	case ch == '~':
		p.pos++
		s2 := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		if p.pos == s2 {
			return nil, p.errAt(start, "expected number after `~'")
		}
		n, _ := strconv.Atoi(p.src[s2:p.pos])
		if p.ctx.Posix {
			return nil, p.errAt(start, "GNU addr~N addresses are not allowed in --posix mode")
		}
		return &command.Address{Kind: command.AddrRelative, Offset: n, RelativeStep: true}, nil

	case ch == '/' || ch == '\\':
		delim := byte('/')
		if ch == '\\' {
			p.pos++
			if p.pos >= len(p.src) {
				return nil, p.errAt(p.pos, "unterminated address regex")
			}
			delim = p.src[p.pos]
		}
		p.pos++
		pat, flags := p.readDelimited(delim, true)
		caseFold := strings.Contains(flags, "I")
		multiline := strings.Contains(flags, "M")
		if pat == "" {
			return &command.Address{Kind: command.AddrRegex, Regex: nil}, nil
		}
		opt := p.regexOptions()
		opt.CaseFold = caseFold
		opt.Multiline = multiline
		re, err := regexadapt.Compile(pat, opt)
		if err != nil {
			return nil, p.errAt(start, "%v", err)
		}
		return &command.Address{Kind: command.AddrRegex, Regex: re}, nil

	default:
		return nil, nil
	}
}

// readDelimited reads an address-regex body up to an unescaped delim,
// honoring character classes (so an unescaped delim inside [...] does
// not terminate the pattern), and collects trailing I/M address flags.
func (p *parser) readDelimited(delim byte, collectFlags bool) (pattern, flags string) {
	var buf strings.Builder
	inClass := false
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if ch == '\\' && p.pos+1 < len(p.src) {
			next := p.src[p.pos+1]
			switch next {
			case delim:
				buf.WriteByte(delim)
			case 'n':
				buf.WriteByte('\n')
			default:
				buf.WriteByte(ch)
				buf.WriteByte(next)
			}
			p.pos += 2
			continue
		}
		if ch == '[' && !inClass {
			inClass = true
			buf.WriteByte(ch)
			p.pos++
			continue
		}
		if ch == ']' && inClass {
			inClass = false
			buf.WriteByte(ch)
			p.pos++
			continue
		}
		if ch == delim && !inClass {
			p.pos++
			break
		}
		buf.WriteByte(ch)
		p.pos++
	}
	if collectFlags {
		fstart := p.pos
		for p.pos < len(p.src) && (p.src[p.pos] == 'I' || p.src[p.pos] == 'M') {
			p.pos++
		}
		flags = p.src[fstart:p.pos]
	}
	return buf.String(), flags
}

func (p *parser) parseSubstitution(cmd *command.Command) error {
	if p.pos >= len(p.src) {
		return p.errAt(p.pos, "unterminated `s' command")
	}
	delim := p.src[p.pos]
	if delim == '\\' || delim == '\n' {
		return p.errAt(p.pos, "invalid `s' delimiter")
	}
	p.pos++
	pattern, _ := p.readDelimited(delim, false)
	replacement, _ := p.readDelimited(delim, false)

	var flags command.SubstFlags
	caseFold, multiline := false, false
loop:
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		switch {
		case ch == 'g':
			flags.Global = true
			p.pos++
		case ch == 'p':
			flags.Print = true
			p.pos++
		case ch == 'i' || ch == 'I':
			caseFold = true
			p.pos++
		case ch == 'm' || ch == 'M':
			multiline = true
			p.pos++
		case ch == 'e':
			if p.ctx.Sandbox {
				return p.errAt(p.pos, "e flag disabled in sandbox mode")
			}
			flags.Execute = true
			p.pos++
		case ch >= '0' && ch <= '9':
			start := p.pos
			for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
				p.pos++
			}
			n, _ := strconv.Atoi(p.src[start:p.pos])
			flags.Nth = n
		case ch == 'w':
			p.pos++
			p.skipSpaces()
			flags.WriteFile = p.readToEOL()
			break loop
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == ';' || ch == '}':
			break loop
		default:
			return p.errAt(p.pos, "unknown `s' flag: `%c'", ch)
		}
	}

	if pattern != "" {
		opt := p.regexOptions()
		opt.CaseFold = caseFold
		opt.Multiline = multiline
		re, err := regexadapt.Compile(pattern, opt)
		if err != nil {
			return p.errAt(p.pos, "%v", err)
		}
		cmd.Regex = re
	}
	cmd.Repl = replacement
	cmd.CompiledRepl = subst.CompileReplacement(replacement)
	cmd.Flags = flags
	return nil
}

func (p *parser) parseTransliterate(cmd *command.Command) error {
	if p.pos >= len(p.src) {
		return p.errAt(p.pos, "unterminated `y' command")
	}
	delim := p.src[p.pos]
	p.pos++
	src, _ := p.readDelimited(delim, false)
	dst, _ := p.readDelimited(delim, false)
	if len([]rune(src)) != len([]rune(dst)) {
		return p.errAt(p.pos, "strings for `y' command are different lengths")
	}
	cmd.Text = src + "\x00" + dst
	return nil
}
