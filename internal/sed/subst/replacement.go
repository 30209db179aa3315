// Package subst is the substitution engine of spec.md §4.2: replacement
// text expansion (&, \1-\9, \n, \t, \\, \&, \l \u \L \U \E) and the
// s/// match-and-replace algorithm (plain/g/Nth-match semantics).
package subst

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// opKind tags one element of a parsed replacement template.
type opKind int

const (
	opLiteral opKind = iota
	opWholeMatch
	opGroup
	opCaseLower  // \l: lowercase next rune
	opCaseUpper  // \u: uppercase next rune
	opCaseLowerRun // \L: lowercase until \E
	opCaseUpperRun // \U: uppercase until \E
	opCaseEnd    // \E
)

type op struct {
	kind opKind
	text string // opLiteral
	n    int    // opGroup
}

// Replacement is a compiled s/// replacement template, ready to be
// expanded against a set of capture groups for every match.
type Replacement struct {
	ops []op
}

// CompileReplacement parses sed replacement syntax into a Replacement.
// The input has already had the delimiter escape and \n resolved by the
// compiler's delimiter-aware reader (mirroring the teacher's
// readSubstPart); this pass handles the remaining sed replacement
// escapes.
func CompileReplacement(raw string) *Replacement {
	r := &Replacement{}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			r.ops = append(r.ops, op{kind: opLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch == '&' {
			flush()
			r.ops = append(r.ops, op{kind: opWholeMatch})
			continue
		}
		if ch == '\\' && i+1 < len(raw) {
			next := raw[i+1]
			switch {
			case next >= '0' && next <= '9':
				flush()
				n, _ := strconv.Atoi(string(next))
				r.ops = append(r.ops, op{kind: opGroup, n: n})
			case next == '&':
				lit.WriteByte('&')
			case next == '\\':
				lit.WriteByte('\\')
			case next == 'n':
				lit.WriteByte('\n')
			case next == 't':
				lit.WriteByte('\t')
			case next == 'l':
				flush()
				r.ops = append(r.ops, op{kind: opCaseLower})
			case next == 'u':
				flush()
				r.ops = append(r.ops, op{kind: opCaseUpper})
			case next == 'L':
				flush()
				r.ops = append(r.ops, op{kind: opCaseLowerRun})
			case next == 'U':
				flush()
				r.ops = append(r.ops, op{kind: opCaseUpperRun})
			case next == 'E':
				flush()
				r.ops = append(r.ops, op{kind: opCaseEnd})
			default:
				lit.WriteByte(next)
			}
			i++
			continue
		}
		lit.WriteByte(ch)
	}
	flush()
	return r
}

// caseFolder applies \l \u \L \U \E to an expansion stream. Case-change
// state is scoped to one replacement expansion (spec.md §4.2), so a
// fresh caseFolder is created per Expand call.
type caseFolder struct {
	out        strings.Builder
	runUpper   bool
	runLower   bool
	nextUpper  bool
	nextLower  bool
}

var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

func (c *caseFolder) write(s string) {
	if s == "" {
		return
	}
	if c.nextUpper || c.nextLower {
		runes := []rune(s)
		first := string(runes[0])
		if c.nextUpper {
			first = upperCaser.String(first)
		} else {
			first = lowerCaser.String(first)
		}
		c.nextUpper, c.nextLower = false, false
		c.out.WriteString(first)
		s = string(runes[1:])
		if s == "" {
			return
		}
	}
	switch {
	case c.runUpper:
		c.out.WriteString(upperCaser.String(s))
	case c.runLower:
		c.out.WriteString(lowerCaser.String(s))
	default:
		c.out.WriteString(s)
	}
}

// Expand renders the replacement template against one match's whole text
// and its numbered capture groups (groups[0] is the whole match,
// groups[1..] are \1..\9; a missing group expands to "").
func (r *Replacement) Expand(groups []string) string {
	cf := &caseFolder{}
	whole := ""
	if len(groups) > 0 {
		whole = groups[0]
	}
	for _, o := range r.ops {
		switch o.kind {
		case opLiteral:
			cf.write(o.text)
		case opWholeMatch:
			cf.write(whole)
		case opGroup:
			if o.n < len(groups) {
				cf.write(groups[o.n])
			}
		case opCaseLower:
			cf.nextLower, cf.nextUpper = true, false
		case opCaseUpper:
			cf.nextUpper, cf.nextLower = true, false
		case opCaseLowerRun:
			cf.runLower, cf.runUpper = true, false
		case opCaseUpperRun:
			cf.runUpper, cf.runLower = true, false
		case opCaseEnd:
			cf.runLower, cf.runUpper = false, false
			cf.nextLower, cf.nextUpper = false, false
		}
	}
	return cf.out.String()
}
