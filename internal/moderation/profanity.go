package moderation

import "strings"

// checkProfanity runs the lexical, pattern and hidden-root checks; any one
// of them is enough.
func checkProfanity(rs *RuleSet, in *input) (Violation, bool) {
	l := rs.limits

	for _, word := range strings.Fields(in.canonical) {
		wl := runeLen(word)
		if wl < l.MinLexicalWord {
			continue
		}
		for _, term := range rs.lexicalTerms {
			if word == term || (strings.Contains(word, term) && wl <= runeLen(term)+l.Tolerance()) {
				return Violation{Category: CategoryProfanity, Detail: "prohibited word"}, true
			}
		}
	}

	for _, p := range rs.Patterns(GroupProfanity) {
		for _, span := range p.Matches(in.lower) {
			if runeLen(span) >= l.MinPatternSpan {
				return Violation{Category: CategoryProfanity, Detail: "prohibited expression"}, true
			}
		}
	}

	// Spacing and punctuation between letters is removed entirely, so the
	// whole message collapses to a single run.
	collapsed := lettersOnly(in.original)
	cl := runeLen(collapsed)
	for _, root := range rs.hiddenRoots {
		if strings.Contains(collapsed, root) && cl <= runeLen(root)+l.Tolerance() {
			return Violation{Category: CategoryProfanity, Detail: "obfuscated prohibited word"}, true
		}
	}

	return Violation{}, false
}
