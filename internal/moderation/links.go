package moderation

import "strings"

func checkLinks(rs *RuleSet, in *input) (Violation, bool) {
	for _, p := range rs.Patterns(GroupContact) {
		for _, m := range p.Matches(in.original) {
			if isBareMention(m) {
				continue
			}
			return Violation{Category: CategoryLinksContacts, Detail: "link or contact details (" + p.Name + ")"}, true
		}
	}
	return Violation{}, false
}

// isBareMention matches "@handle" without a path, which is a mention rather
// than a link.
func isBareMention(m string) bool {
	return strings.HasPrefix(m, "@") && !strings.Contains(m, "/")
}
