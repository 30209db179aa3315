package subst

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// escapeSequences maps control bytes to the l command's backslash
// escapes, matching GNU sed's unambiguous-display convention.
var escapeSequences = map[byte]string{
	'\\': `\\`,
	'\a': `\a`,
	'\b': `\b`,
	'\f': `\f`,
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
	'\v': `\v`,
}

// List renders the pattern space for the l command: non-printable bytes
// are escaped, and the result is wrapped every width display columns
// (grapheme-cluster aware via uniseg, so combining marks and wide CJK
// characters count correctly) with a trailing "\\\n" continuation,
// ending in a bare "$". width <= 1 disables wrapping.
func List(pattern string, width int) string {
	escaped := escapeLine(pattern)
	if width <= 1 {
		return escaped + "$\n"
	}

	var out strings.Builder
	col := 0
	g := uniseg.NewGraphemes(escaped)
	for g.Next() {
		cluster := g.Str()
		w := uniseg.StringWidth(cluster)
		if col+w > width-1 {
			out.WriteString("\\\n")
			col = 0
		}
		out.WriteString(cluster)
		col += w
	}
	out.WriteString("$\n")
	return out.String()
}

func escapeLine(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if esc, ok := escapeSequences[b]; ok {
			out.WriteString(esc)
			continue
		}
		if b < 0x20 || b == 0x7f {
			fmt.Fprintf(&out, "\\%03o", b)
			continue
		}
		out.WriteByte(b)
	}
	return out.String()
}
