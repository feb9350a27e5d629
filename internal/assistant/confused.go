package assistant

import "strings"

var confusionIndicators = []string{
	"не совсем понял",
	"не понимаю",
	"уточните",
	"повторите",
	"конкретнее",
	"could you clarify",
	"can you explain",
	"not sure what you mean",
	"не ясно",
	"не понял вопрос",
}

// IsConfused reports whether a reply asks the user to clarify instead of
// answering.
func IsConfused(reply string) bool {
	lower := strings.ToLower(reply)
	for _, ind := range confusionIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}
