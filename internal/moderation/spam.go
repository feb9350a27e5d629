package moderation

var spamGroups = []Group{GroupPromotional, GroupCrypto, GroupCasino}

// checkSpam counts distinct signal groups; one crypto or casino mention on
// its own is not spam.
func checkSpam(rs *RuleSet, in *input) (Violation, bool) {
	hits := 0
	for _, g := range spamGroups {
		for _, p := range rs.Patterns(g) {
			if p.MatchString(in.canonical) {
				hits++
				break
			}
		}
	}
	if hits >= rs.limits.SpamGroups {
		return Violation{Category: CategorySpam, Detail: "promotional spam signals"}, true
	}
	return Violation{}, false
}
