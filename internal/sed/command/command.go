package command

import (
	"regexp"

	"github.com/gosed/gosed/internal/sed/subst"
)

// Kind enumerates the command variants exercised by spec.md §3.
type Kind int

const (
	Substitute Kind = iota
	Delete
	DeletePartial // D
	Print         // p
	PrintPartial  // P
	Next          // n
	AppendNext    // N
	Hold          // h
	AppendHold    // H
	GetHold       // g
	GetHoldAppend // G
	ExchangeHold  // x
	Branch        // b
	BranchOnSub   // t
	BranchOnNoSub // T
	Label         // :name
	Append        // a\
	Insert        // i\
	Change        // c\
	Translit      // y
	Quit          // q
	QuitSilent    // Q
	LineNumber    // =
	List          // l
	BlockBegin    // {
	BlockEnd      // } (never emitted: the parser records a block's end in BlockBegin's BlockEnd field)
	Comment
	ReadFile  // r
	WriteFile // w
	Execute   // e (sandbox-gated)
	ZapPattern // z
)

// SubstFlags holds the s/// flag set of spec.md §4.2. CaseFold and
// Multiline are applied at compile time directly into Command.Regex
// (see regexadapt.Options), so they are not carried here.
type SubstFlags struct {
	Global    bool
	Nth       int // 0 means unset
	Print     bool
	Execute   bool // gated by ctx.Sandbox at compile time
	WriteFile string
}

// Command is a tagged variant with an optional Address predicate, a
// kind, and kind-specific parameters (spec.md §3). BlockBegin commands
// carry the index, one past their matching '}', that a false address
// predicate should jump the program counter to; the VM uses this to
// skip an entire {...} group in one step.
type Command struct {
	Addr1, Addr2 *Address
	Negated      bool
	Kind         Kind

	// Text-bearing commands: a/i/c text, r/w paths, :/b/t/T labels, y src\x00dst.
	Text string

	// Substitute.
	Regex        *regexp.Regexp
	Repl         string // raw replacement text, kept for diagnostics
	CompiledRepl *subst.Replacement
	Flags        SubstFlags

	// Branch/BranchOnSub/BranchOnNoSub target, resolved at compile time.
	Target int

	// BlockBegin: index one past the matching '}'.
	BlockEnd int

	// Loc is the source location this command was parsed from, used for
	// runtime diagnostics (e.g. a failed r/w open).
	Loc SourceLoc
}

// SourceLoc pinpoints a command within the concatenated script text.
type SourceLoc struct {
	Script int
	Line   int
	Col    int
}

// Program is the compiler's output: an ordered, flattened command list
// (blocks are represented via BlockBegin/BlockEnd indices rather than
// nested slices, so the VM's dispatch loop is a single flat PC walk)
// plus the label map used to resolve branches.
type Program struct {
	Commands []*Command
	Labels   map[string]int
}
