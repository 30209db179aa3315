package command_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosed/gosed/internal/sed/command"
)

func TestAddressLine(t *testing.T) {
	ctx := command.NewContext()
	ctx.LineNumber = 3
	addr := &command.Address{Kind: command.AddrLine, Line: 3}
	matched, err := addr.Match(ctx, "")
	require.NoError(t, err)
	assert.True(t, matched)

	ctx.LineNumber = 4
	matched, err = addr.Match(ctx, "")
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestAddressLast(t *testing.T) {
	ctx := command.NewContext()
	ctx.LastLine, ctx.LastFile = true, false
	addr := &command.Address{Kind: command.AddrLast}
	matched, err := addr.Match(ctx, "")
	require.NoError(t, err)
	assert.False(t, matched)

	ctx.LastFile = true
	matched, err = addr.Match(ctx, "")
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestAddressLastSeparate(t *testing.T) {
	ctx := command.NewContext()
	ctx.Separate = true
	ctx.LastLine, ctx.LastFile = true, false
	addr := &command.Address{Kind: command.AddrLast}
	matched, err := addr.Match(ctx, "")
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestAddressRegexSavesLastRegex(t *testing.T) {
	ctx := command.NewContext()
	re := regexp.MustCompile("foo")
	addr := &command.Address{Kind: command.AddrRegex, Regex: re}
	matched, err := addr.Match(ctx, "a foo b")
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, re, ctx.SavedRegex)
}

func TestAddressRegexSavesLastRegexOnNoMatch(t *testing.T) {
	ctx := command.NewContext()
	re := regexp.MustCompile("foo")
	addr := &command.Address{Kind: command.AddrRegex, Regex: re}
	matched, err := addr.Match(ctx, "nothing here")
	require.NoError(t, err)
	assert.False(t, matched)
	assert.Equal(t, re, ctx.SavedRegex)
}

func TestAddressEmptyRegexReusesSaved(t *testing.T) {
	ctx := command.NewContext()
	ctx.SavedRegex = regexp.MustCompile("bar")
	addr := &command.Address{Kind: command.AddrRegex}
	matched, err := addr.Match(ctx, "a bar b")
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = addr.Match(ctx, "nothing")
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestAddressEmptyRegexWithNoPriorRegexErrors(t *testing.T) {
	ctx := command.NewContext()
	addr := &command.Address{Kind: command.AddrRegex}
	_, err := addr.Match(ctx, "anything")
	assert.ErrorIs(t, err, command.ErrNoPreviousRegex)
}

func TestAddressStep(t *testing.T) {
	addr := &command.Address{Kind: command.AddrStep, Line: 2, Step: 3}
	ctx := command.NewContext()
	for n := 1; n <= 8; n++ {
		ctx.LineNumber = n
		want := n >= 2 && (n-2)%3 == 0
		matched, err := addr.Match(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, want, matched, "line %d", n)
	}
}
