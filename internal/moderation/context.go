package moderation

import "strings"

// checkContext fires on the first trigger category with enough distinct
// whole-word triggers in the canonical text.
func checkContext(rs *RuleSet, in *input) (Violation, bool) {
	padded := " " + strings.Join(strings.Fields(in.canonical), " ") + " "
	for _, tc := range rs.triggers {
		if found := countTriggers(padded, tc.Triggers); found >= rs.limits.ContextTriggers {
			return Violation{Category: tc.Category, Detail: "signs of " + tc.Name}, true
		}
	}
	return Violation{}, false
}

// countTriggers counts distinct phrases present as whole words in padded,
// which must be single-space separated with a leading and trailing space.
func countTriggers(padded string, triggers []string) int {
	n := 0
	for _, t := range triggers {
		if strings.Contains(padded, " "+t+" ") {
			n++
		}
	}
	return n
}
