package moderation

import "strings"

const specialCharacters = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

func checkBehavior(rs *RuleSet, in *input) (Violation, bool) {
	l := rs.limits

	words := strings.Fields(in.original)
	if len(words) > l.FloodMinWords {
		freq := make(map[string]int, len(words))
		top := 0
		for _, w := range words {
			freq[w]++
			if freq[w] > top {
				top = freq[w]
			}
		}
		if float64(top) > float64(len(words))*l.FloodRatio {
			return Violation{Category: CategoryFlood, Detail: "too many repeated words"}, true
		}
	}

	special, total := 0, 0
	for _, r := range in.original {
		total++
		if strings.ContainsRune(specialCharacters, r) {
			special++
		}
	}
	if float64(special) > float64(total)*l.SpecialRatio {
		return Violation{Category: CategorySpecialCharacters, Detail: "too many special characters"}, true
	}

	return Violation{}, false
}
