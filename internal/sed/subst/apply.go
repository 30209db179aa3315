package subst

import "regexp"

// Apply runs the s/// algorithm of spec.md §4.2 against pattern: find
// non-overlapping matches left-to-right, skip to the Nth when nth > 0,
// then replace that match alone (global=false) or every match from the
// Nth onward (global=true). Matches are located once over the whole of
// pattern via FindAllStringSubmatchIndex, so anchors (^, $, \b, \B, \<)
// and the M flag's per-line anchoring resolve against pattern's real
// offsets rather than a re-sliced tail — re-searching a slice starting
// at each match's end would re-anchor ^ and friends at that slice's
// position 0 instead of pattern's. FindAll already advances past an
// empty match by one rune, so no separate empty-match handling is
// needed here. Returns the transformed text and whether any
// replacement occurred.
func Apply(re *regexp.Regexp, pattern string, repl *Replacement, nth int, global bool) (string, bool) {
	if nth <= 0 {
		nth = 1
	}

	matches := re.FindAllStringSubmatchIndex(pattern, -1)
	if len(matches) == 0 {
		return pattern, false
	}

	var out []byte
	pos := 0
	replaced := false

	for i, loc := range matches {
		if i+1 < nth {
			continue
		}
		start, end := loc[0], loc[1]
		out = append(out, pattern[pos:start]...)
		out = append(out, repl.Expand(submatchStrings(pattern, loc))...)
		replaced = true
		pos = end

		if !global {
			break
		}
	}

	out = append(out, pattern[pos:]...)
	return string(out), replaced
}

// submatchStrings converts FindAllStringSubmatchIndex's offsets into
// group strings, with groups[0] the whole match.
func submatchStrings(pattern string, loc []int) []string {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		s, e := loc[2*i], loc[2*i+1]
		if s < 0 || e < 0 {
			continue
		}
		groups[i] = pattern[s:e]
	}
	return groups
}
