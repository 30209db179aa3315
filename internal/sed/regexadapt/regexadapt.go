// Package regexadapt is the regex adapter named in spec.md §4:
// dialect selection (BRE vs ERE), case-insensitive/multiline flag
// application, and compilation via Go's RE2 engine. Go's regexp has no
// native BRE mode, so BRE patterns are translated to RE2/ERE syntax
// first — the same approach the teacher repo uses in both
// pkg/applets/sed's compileBRE and pkg/applets/grep's breToRE2, unified
// here into one adapter shared by the address evaluator and the s///
// engine.
package regexadapt

import (
	"fmt"
	"regexp"
	"strings"
)

// Options controls how a pattern source is compiled.
type Options struct {
	Extended    bool // ERE syntax; false selects BRE translation
	CaseFold    bool // (?i)
	Multiline   bool // (?m)
	Posix       bool // use regexp.CompilePOSIX (leftmost-longest)
}

// Compile compiles a sed regex literal under the given dialect options.
func Compile(pattern string, opt Options) (*regexp.Regexp, error) {
	src := pattern
	if !opt.Extended {
		src = breToERE(src)
	}

	var prefix string
	if opt.CaseFold && opt.Multiline {
		prefix = "(?im)"
	} else if opt.CaseFold {
		prefix = "(?i)"
	} else if opt.Multiline {
		prefix = "(?m)"
	}
	src = prefix + src

	if opt.Posix {
		re, err := regexp.CompilePOSIX(src)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
		}
		return re, nil
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return re, nil
}

// breToERE converts a POSIX Basic Regular Expression to the ERE/RE2
// syntax Go's regexp package understands:
//
//	\( \) \| \{ \}   -> ( ) | { }     (BRE escaped-metachar = ERE plain)
//	\+ \?            -> + ?           (GNU BRE quantifier extensions)
//	( ) | { }        -> \( \) \| \{ \} (BRE plain = ERE literal)
//
// Character classes are passed through untouched since [...] already
// means the same thing in both dialects.
func breToERE(pat string) string {
	var out strings.Builder
	inClass := false
	for i := 0; i < len(pat); i++ {
		ch := pat[i]

		if ch == '[' && !inClass {
			inClass = true
			out.WriteByte(ch)
			continue
		}
		if ch == ']' && inClass {
			inClass = false
			out.WriteByte(ch)
			continue
		}
		if inClass {
			out.WriteByte(ch)
			continue
		}

		if ch == '\\' && i+1 < len(pat) {
			next := pat[i+1]
			switch next {
			case '(', ')', '|', '{', '}', '+', '?':
				out.WriteByte(next)
			default:
				out.WriteByte(ch)
				out.WriteByte(next)
			}
			i++
			continue
		}

		switch ch {
		case '(', ')', '|', '{', '}':
			out.WriteByte('\\')
			out.WriteByte(ch)
		default:
			out.WriteByte(ch)
		}
	}
	return out.String()
}
