// Package command holds the sed VM's data model: the Command/Address
// types the compiler produces, the Program they assemble into, and the
// ProcessingContext threaded mutably through compilation and execution.
//
// Field names mirror the original implementation's ProcessingContext as
// pinned by original_source/benches/sed_operations.rs's create_context(),
// translated into Go's idiom of one owning struct passed by pointer
// instead of scattered globals (spec.md §9).
package command

import "regexp"

// InputAction names a staged decision from n/N/d/D. The VM carries out
// those commands directly and never sets or reads this field; Reset
// clears it to ActionNone at the start of every cycle.
type InputAction int

const (
	// ActionNone means no staged input action.
	ActionNone InputAction = iota
	// ActionNext requests reading the next record to replace the pattern (n).
	ActionNext
	// ActionAppend requests appending the next record to the pattern (N).
	ActionAppend
	// ActionDelete clears the pattern and ends the cycle without printing (d).
	ActionDelete
	// ActionDeleteFirstLine drops the prefix up to the first separator and
	// restarts the cycle on the remainder, without reading new input (D).
	ActionDeleteFirstLine
)

// AppendElement is a pending output queued by a\ or r, emitted after the
// cycle's default print step.
type AppendElement struct {
	// Text is emitted verbatim when File is empty.
	Text string
	// File, when non-empty, names a file whose contents are emitted
	// instead of Text (the r command).
	File string
}

// ProcessingContext is the shared mutable state carried through
// compilation and execution. It is deliberately one struct threaded
// through calls rather than scattered globals (spec.md §9).
type ProcessingContext struct {
	// Compile-time flags, set by the CLI before Compile is called.
	RegexExtended  bool
	Quiet          bool
	Posix          bool
	NullData       bool
	InPlace        bool
	InPlaceSuffix  string
	Separate       bool
	Length         int
	Sandbox        bool
	FollowSymlinks bool
	Unbuffered     bool

	// Runtime state, mutated by the VM each cycle.
	InputName        string
	LineNumber       int
	LastLine         bool
	LastFile         bool
	Hold             string
	SavedRegex       *regexp.Regexp
	SubstitutionMade bool
	InputAction      InputAction

	// AppendElements is drained and emptied at the boundary between
	// cycles; it must never carry over across a cycle (spec.md §3).
	AppendElements []AppendElement

	// LabelToCommandMap maps a label name to the index of its ":name"
	// Label command; the VM skips Label commands, so a branch there
	// continues with the command that follows.
	LabelToCommandMap map[string]int
}

// NewContext returns a ProcessingContext with the documented defaults
// (length 70 matches GNU sed's default `l` wrap column).
func NewContext() *ProcessingContext {
	return &ProcessingContext{
		Length:            70,
		LabelToCommandMap: make(map[string]int),
	}
}

// Reset clears per-cycle scratch state. Called by the VM at the start
// of every cycle; never called mid-cycle.
func (c *ProcessingContext) Reset() {
	c.SubstitutionMade = false
	c.AppendElements = nil
	c.InputAction = ActionNone
}
