package moderation

import (
	"regexp"
	"strings"
)

var unclearShapes = []*regexp.Regexp{
	regexp.MustCompile(`^[чкп]$`),
	regexp.MustCompile(`^[?¿]$`),
	regexp.MustCompile(`^[.…]+$`),
	regexp.MustCompile(`^[нт]ет$`),
}

var interrogatives = map[string]struct{}{
	"что": {}, "как": {}, "почему": {}, "зачем": {}, "кто": {}, "где": {},
	"what": {}, "how": {}, "why": {}, "who": {}, "where": {},
}

func isUnclear(text string) bool {
	s := strings.TrimSpace(strings.ToLower(text))
	for _, re := range unclearShapes {
		if re.MatchString(s) {
			return true
		}
	}

	words := strings.Fields(s)
	if len(words) > 2 {
		return false
	}
	for _, w := range words {
		if _, ok := interrogatives[w]; ok {
			return true
		}
	}
	return false
}
