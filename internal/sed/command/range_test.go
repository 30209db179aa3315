package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosed/gosed/internal/sed/command"
)

func lineRange(t *testing.T, cmd *command.Command, ctx *command.ProcessingContext, rs *command.RangeState, lines int) []bool {
	t.Helper()
	got := make([]bool, 0, lines)
	for n := 1; n <= lines; n++ {
		ctx.LineNumber = n
		matched, err := rs.Match(cmd, ctx, "")
		require.NoError(t, err)
		got = append(got, matched)
	}
	return got
}

func TestRangeStateLineToLine(t *testing.T) {
	cmd := &command.Command{
		Addr1: &command.Address{Kind: command.AddrLine, Line: 2},
		Addr2: &command.Address{Kind: command.AddrLine, Line: 4},
	}
	ctx := command.NewContext()
	rs := command.NewRangeState()
	got := lineRange(t, cmd, ctx, rs, 6)
	assert.Equal(t, []bool{false, true, true, true, false, false}, got)
}

func TestRangeStateOneLineWhenEndLEStart(t *testing.T) {
	cmd := &command.Command{
		Addr1: &command.Address{Kind: command.AddrLine, Line: 3},
		Addr2: &command.Address{Kind: command.AddrLine, Line: 1},
	}
	ctx := command.NewContext()
	rs := command.NewRangeState()
	got := lineRange(t, cmd, ctx, rs, 5)
	assert.Equal(t, []bool{false, false, true, false, false}, got)
}

func TestRangeStateRelativePlusN(t *testing.T) {
	cmd := &command.Command{
		Addr1: &command.Address{Kind: command.AddrLine, Line: 2},
		Addr2: &command.Address{Kind: command.AddrRelative, Offset: 2},
	}
	ctx := command.NewContext()
	rs := command.NewRangeState()
	got := lineRange(t, cmd, ctx, rs, 6)
	assert.Equal(t, []bool{false, true, true, true, false, false}, got)
}

func TestRangeStateRelativeStep(t *testing.T) {
	cmd := &command.Command{
		Addr1: &command.Address{Kind: command.AddrLine, Line: 2},
		Addr2: &command.Address{Kind: command.AddrRelative, Offset: 3, RelativeStep: true},
	}
	ctx := command.NewContext()
	rs := command.NewRangeState()
	got := lineRange(t, cmd, ctx, rs, 7)
	// opens at line 2, closes at the next multiple of 3 at or after 2: line 3.
	assert.Equal(t, []bool{false, true, true, false, false, false, false}, got)
}

func TestRangeStateClosesAtEndLine(t *testing.T) {
	cmd := &command.Command{
		Addr1: &command.Address{Kind: command.AddrLine, Line: 2},
		Addr2: &command.Address{Kind: command.AddrLine, Line: 3},
	}
	ctx := command.NewContext()
	rs := command.NewRangeState()
	got := lineRange(t, cmd, ctx, rs, 3)
	assert.Equal(t, []bool{false, true, true}, got)
	assert.False(t, rs.Active(cmd))
}

func TestRangeStateNegated(t *testing.T) {
	cmd := &command.Command{
		Addr1:   &command.Address{Kind: command.AddrLine, Line: 2},
		Addr2:   &command.Address{Kind: command.AddrLine, Line: 3},
		Negated: true,
	}
	ctx := command.NewContext()
	rs := command.NewRangeState()
	got := lineRange(t, cmd, ctx, rs, 4)
	assert.Equal(t, []bool{true, false, false, true}, got)
}

func TestRangeStateSurfacesAddressError(t *testing.T) {
	cmd := &command.Command{
		Addr1: &command.Address{Kind: command.AddrRegex},
	}
	ctx := command.NewContext()
	rs := command.NewRangeState()
	_, err := rs.Match(cmd, ctx, "anything")
	assert.ErrorIs(t, err, command.ErrNoPreviousRegex)
}
