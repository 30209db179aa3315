package command

// RangeState tracks, per two-address command, whether its range is
// currently active. GNU sed re-tests a range's start address on every
// line once the range has closed, so the latch must survive across
// cycles for the life of one Program run (spec.md §9).
type RangeState struct {
	active  map[*Command]bool
	endLine map[*Command]int
}

// NewRangeState returns an empty latch table, one per VM run.
func NewRangeState() *RangeState {
	return &RangeState{
		active:  make(map[*Command]bool),
		endLine: make(map[*Command]int),
	}
}

// Match evaluates cmd's address predicate — single address, or a
// two-address range gated by the latch — against the current cycle,
// and applies the command's leading '!' negation. err is non-nil only
// for a runtime address failure (an unresolvable empty-regex address),
// in which case result is meaningless.
func (rs *RangeState) Match(cmd *Command, ctx *ProcessingContext, pattern string) (bool, error) {
	var result bool
	var err error
	switch {
	case cmd.Addr1 == nil:
		result = true
	case cmd.Addr2 == nil:
		result, err = cmd.Addr1.Match(ctx, pattern)
	default:
		result, err = rs.matchRange(cmd, ctx, pattern)
	}
	if err != nil {
		return false, err
	}
	if cmd.Negated {
		return !result, nil
	}
	return result, nil
}

func (rs *RangeState) matchRange(cmd *Command, ctx *ProcessingContext, pattern string) (bool, error) {
	if !rs.active[cmd] {
		opened, err := cmd.Addr1.Match(ctx, pattern)
		if err != nil {
			return false, err
		}
		if !opened {
			return false, nil
		}
		if rs.endsImmediately(cmd, ctx) {
			return true, nil
		}
		rs.active[cmd] = true
		if cmd.Addr2.Kind == AddrRelative {
			if cmd.Addr2.RelativeStep {
				rs.endLine[cmd] = nextMultiple(ctx.LineNumber, cmd.Addr2.Offset)
			} else {
				rs.endLine[cmd] = ctx.LineNumber + cmd.Addr2.Offset
			}
		}
		return true, nil
	}

	ended, err := rs.endReached(cmd, ctx, pattern)
	if err != nil {
		return false, err
	}
	if ended {
		delete(rs.active, cmd)
		delete(rs.endLine, cmd)
	}
	return true, nil
}

// endsImmediately reports whether, at the line the range is opening,
// addr2 already resolves to a point at or before addr1 — GNU sed makes
// such a range match exactly one line.
func (rs *RangeState) endsImmediately(cmd *Command, ctx *ProcessingContext) bool {
	switch cmd.Addr2.Kind {
	case AddrLine:
		return cmd.Addr2.Line <= ctx.LineNumber
	case AddrRelative:
		return !cmd.Addr2.RelativeStep && cmd.Addr2.Offset <= 0
	default:
		return false
	}
}

func (rs *RangeState) endReached(cmd *Command, ctx *ProcessingContext, pattern string) (bool, error) {
	switch cmd.Addr2.Kind {
	case AddrRelative:
		return ctx.LineNumber >= rs.endLine[cmd], nil
	case AddrLine:
		return ctx.LineNumber >= cmd.Addr2.Line, nil
	default:
		return cmd.Addr2.Match(ctx, pattern)
	}
}

// Active reports whether cmd's range is currently open, after Match has
// already been called for this cycle. The c command uses this to print
// its replacement text only once, at the line a range closes.
func (rs *RangeState) Active(cmd *Command) bool {
	return rs.active[cmd]
}

func nextMultiple(line, step int) int {
	if step <= 0 {
		return line
	}
	return ((line / step) + 1) * step
}
