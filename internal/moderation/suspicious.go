package moderation

import "unicode"

// checkSuspicious evaluates caps, repetition, punctuation and personal data
// against the original text. The first hit decides the category.
func checkSuspicious(rs *RuleSet, in *input) (Violation, bool) {
	l := rs.limits

	shouting := 0
	for _, tok := range wordTokens(in.original) {
		if isShouting(tok, l.CapsWordLen) {
			shouting++
		}
	}
	if shouting >= l.CapsWords {
		return Violation{Category: CategoryCaps, Detail: "message written in caps"}, true
	}

	if longestRun(in.original) >= l.RepeatRun {
		return Violation{Category: CategoryRepetition, Detail: "too many repeated characters"}, true
	}

	for _, p := range rs.Patterns(GroupPunctuation) {
		if p.MatchString(in.original) {
			return Violation{Category: CategoryPunctuation, Detail: "too many exclamation or question marks"}, true
		}
	}

	for _, p := range rs.Patterns(GroupPersonal) {
		if p.MatchString(in.original) {
			return Violation{Category: CategoryPersonalData, Detail: "personal data"}, true
		}
	}

	return Violation{}, false
}

// isShouting reports whether tok is made only of upper-case letters and is
// at least minLen runes long.
func isShouting(tok string, minLen int) bool {
	n := 0
	for _, r := range tok {
		if !unicode.IsLetter(r) || !unicode.IsUpper(r) {
			return false
		}
		n++
	}
	return n >= minLen
}

// longestRun returns the longest run of one repeated rune. Newlines break
// runs and are never counted.
func longestRun(s string) int {
	best, cur := 0, 0
	var prev rune = -1
	for _, r := range s {
		if r == '\n' {
			cur, prev = 0, -1
			continue
		}
		if r == prev {
			cur++
		} else {
			cur, prev = 1, r
		}
		if cur > best {
			best = cur
		}
	}
	return best
}
