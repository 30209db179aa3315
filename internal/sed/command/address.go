package command

import (
	"errors"
	"regexp"
)

// AddrKind distinguishes the address predicate forms of spec.md §3.
// Go has no tagged-union type, so Address is a struct with a Kind
// discriminator instead (spec.md §3, "Go types" note).
type AddrKind int

const (
	AddrNone AddrKind = iota
	AddrLine
	AddrLast
	AddrRegex
	AddrStep
	// AddrRelative only appears as a Command's Addr2: addr1,+N and
	// addr1,~N (spec.md §3's "addr+N"/"addr~N" relative forms). It is
	// resolved against the range's start line by RangeState, not by
	// Match in isolation.
	AddrRelative
)

// ErrNoPreviousRegex is returned by Address.Match for an empty-regex
// address ("//") evaluated before any regex address has run, per
// spec.md §7's classification of that case as a runtime error rather
// than a silent non-match.
var ErrNoPreviousRegex = errors.New("no previous regular expression")

// Address is a predicate over (line_number, pattern, last_line). A
// two-address range (Command.Addr1 and Addr2 both set) is not an
// Address variant of its own; its "currently inside" latch is tracked
// out-of-band by RangeState (spec.md §9), keyed by the owning Command,
// matching the teacher's rangeActive map[*sedCommand]bool.
type Address struct {
	Kind AddrKind

	// AddrLine / AddrStep: first line number (or step base).
	Line int
	// AddrStep: step size; first~step.
	Step int
	// AddrRegex: the compiled pattern, or nil for the empty-regex
	// shorthand "//" which resolves to ctx.SavedRegex at match time.
	Regex *regexp.Regexp
	// AddrRelative: offset added to the range start line (addr+N) or
	// step from that start line (addr~N, RelativeStep true).
	Offset       int
	RelativeStep bool
}

// Match evaluates the address for a single-address (non-range) predicate
// against the current cycle state. Range addresses are evaluated by the
// VM via RangeState.Match, since they carry latch state.
//
// A non-empty regex address updates ctx.SavedRegex whenever it runs,
// whether or not it matches, so a later "//" resolves to the most
// recently executed regex rather than the most recently matched one.
func (a *Address) Match(ctx *ProcessingContext, pattern string) (bool, error) {
	if a == nil {
		return true, nil
	}
	switch a.Kind {
	case AddrNone:
		return true, nil
	case AddrLine:
		return ctx.LineNumber == a.Line, nil
	case AddrLast:
		if ctx.Separate {
			return ctx.LastLine, nil
		}
		return ctx.LastLine && ctx.LastFile, nil
	case AddrRegex:
		re := a.Regex
		if re != nil {
			ctx.SavedRegex = re
		} else {
			re = ctx.SavedRegex
			if re == nil {
				return false, ErrNoPreviousRegex
			}
		}
		return re.MatchString(pattern), nil
	case AddrStep:
		return a.Step > 0 && ctx.LineNumber >= a.Line && (ctx.LineNumber-a.Line)%a.Step == 0, nil
	default:
		return false, nil
	}
}
