package moderation

import (
	"fmt"
	"regexp"
)

// Group tags a pattern rule with the stage that evaluates it.
type Group string

const (
	GroupProfanity   Group = "profanity"
	GroupContact     Group = "contact"
	GroupPromotional Group = "promotional"
	GroupCrypto      Group = "crypto"
	GroupCasino      Group = "casino"
	GroupPunctuation Group = "punctuation"
	GroupPersonal    Group = "personal"
)

// PatternRule is a named regular expression belonging to one group.
type PatternRule struct {
	Name  string
	Group Group
	Regex *regexp.Regexp
}

// matchName is the capture group that holds the reported span when a rule
// carries its own boundary context.
const matchName = "m"

// Matches returns every matched span of s.
func (r PatternRule) Matches(s string) []string {
	idx := r.Regex.SubexpIndex(matchName)
	if idx < 0 {
		return r.Regex.FindAllString(s, -1)
	}
	var out []string
	for _, sm := range r.Regex.FindAllStringSubmatch(s, -1) {
		out = append(out, sm[idx])
	}
	return out
}

// MatchString reports whether the rule matches anywhere in s.
func (r PatternRule) MatchString(s string) bool {
	return r.Regex.MatchString(s)
}

// wordBounded wraps expr in Unicode-aware word boundaries. RE2's \b only
// understands ASCII, which would let Cyrillic words match mid-word.
func wordBounded(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(?P<` + matchName + `>` + expr + `)(?:[^\p{L}\p{N}_]|$)`)
}

func defaultPatterns(l Limits) []PatternRule {
	return []PatternRule{
		{
			Name:  "russian_profanity",
			Group: GroupProfanity,
			Regex: regexp.MustCompile(`(?i)[хx][уy][йj]|[пp][иi][з3][дd]|[еe][б6][аa]`),
		},
		{
			Name:  "english_profanity",
			Group: GroupProfanity,
			Regex: wordBounded(`(?i:fuck|shit|asshole|bitch|cunt|dick|pussy|whore)`),
		},
		{
			Name:  "urls",
			Group: GroupContact,
			Regex: regexp.MustCompile(`(?i)(?:https?://|www\.|t\.me/|@[\p{L}\p{N}_]+|vk\.com/|instagram\.com/)\S*`),
		},
		{
			Name:  "emails",
			Group: GroupContact,
			Regex: regexp.MustCompile(`[\p{L}\p{N}_.\-]+@[\p{L}\p{N}_.\-]+\.[\p{L}\p{N}_]+`),
		},
		{
			Name:  "phones",
			Group: GroupContact,
			Regex: regexp.MustCompile(`\+?(?:[\s\-()]*\d){10,}`),
		},
		{
			Name:  "spam_keywords",
			Group: GroupPromotional,
			Regex: wordBounded(`(?i:купите|покупайте|заказывайте|акция|скидка|распродажа|бесплатно|заработок)`),
		},
		{
			Name:  "crypto",
			Group: GroupCrypto,
			Regex: wordBounded(`(?i:криптовалют[ауы]|биткоин|блокчейн|nft|эфириум)`),
		},
		{
			Name:  "casino",
			Group: GroupCasino,
			Regex: wordBounded(`(?i:казино|ставк[иа]|покер|лотере[яи]|выигрыш)`),
		},
		{
			Name:  "excessive_punctuation",
			Group: GroupPunctuation,
			Regex: regexp.MustCompile(fmt.Sprintf(`[!?]{%d,}`, l.PunctRun)),
		},
		{
			Name:  "personal_info",
			Group: GroupPersonal,
			Regex: wordBounded(`\d{16}|\d{3}-\d{2}-\d{4}|[A-Z][a-z]+ [A-Z][a-z]+`),
		},
	}
}
