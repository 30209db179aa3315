package regexadapt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosed/gosed/internal/sed/regexadapt"
)

func TestCompileBRE(t *testing.T) {
	re, err := regexadapt.Compile(`a\(b\)c`, regexadapt.Options{})
	require.NoError(t, err)
	assert.True(t, re.MatchString("abc"))
	assert.Equal(t, []string{"abc", "b"}, re.FindStringSubmatch("abc"))
}

func TestCompileBRELiteralParens(t *testing.T) {
	re, err := regexadapt.Compile(`a(b)c`, regexadapt.Options{})
	require.NoError(t, err)
	assert.True(t, re.MatchString("a(b)c"))
	assert.False(t, re.MatchString("abc"))
}

func TestCompileERE(t *testing.T) {
	re, err := regexadapt.Compile(`a(b)c`, regexadapt.Options{Extended: true})
	require.NoError(t, err)
	assert.True(t, re.MatchString("abc"))
}

func TestCompileCaseFold(t *testing.T) {
	re, err := regexadapt.Compile(`abc`, regexadapt.Options{CaseFold: true})
	require.NoError(t, err)
	assert.True(t, re.MatchString("ABC"))
}

func TestCompileMultiline(t *testing.T) {
	re, err := regexadapt.Compile(`^b`, regexadapt.Options{Multiline: true})
	require.NoError(t, err)
	assert.True(t, re.MatchString("a\nb"))
}

func TestCompileBREPlusQuantifier(t *testing.T) {
	re, err := regexadapt.Compile(`\(\w\+\) \(\w\+\)`, regexadapt.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"one two", "one", "two"}, re.FindStringSubmatch("one two"))
}

func TestCompileBREQuestionQuantifier(t *testing.T) {
	re, err := regexadapt.Compile(`colou\?r`, regexadapt.Options{})
	require.NoError(t, err)
	assert.True(t, re.MatchString("color"))
	assert.True(t, re.MatchString("colour"))
}

func TestBRECharClassUntouched(t *testing.T) {
	re, err := regexadapt.Compile(`[(){}|]`, regexadapt.Options{})
	require.NoError(t, err)
	assert.True(t, re.MatchString("("))
	assert.True(t, re.MatchString("}"))
}

func TestCompileInvalidPattern(t *testing.T) {
	_, err := regexadapt.Compile(`a(b`, regexadapt.Options{Extended: true})
	assert.Error(t, err)
}

func TestCompilePosixLeftmostLongest(t *testing.T) {
	re, err := regexadapt.Compile(`a|ab`, regexadapt.Options{Extended: true, Posix: true})
	require.NoError(t, err)
	assert.Equal(t, "ab", re.FindString("ab"))
}
