package moderation

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// TriggerCategory is a named group of contextual phrases. It fires only when
// enough distinct phrases appear as whole words in one message.
type TriggerCategory struct {
	Category Category
	Name     string
	Triggers []string
}

// Extensions adds deployment-specific vocabulary and thresholds on top of the
// built-in tables. Trigger keys are category keys (e.g. "drugs"); keys that do
// not name a context category are ignored.
type Extensions struct {
	Whitelist    []string            `yaml:"whitelist" json:"whitelist,omitempty"`
	LexicalTerms []string            `yaml:"lexical_terms" json:"lexical_terms,omitempty"`
	HiddenRoots  []string            `yaml:"hidden_roots" json:"hidden_roots,omitempty"`
	Triggers     map[string][]string `yaml:"triggers" json:"triggers,omitempty"`
	Limits       Limits              `yaml:"limits" json:"limits"`
}

// Merge combines two extension sets; limits in o win where set.
func (e Extensions) Merge(o Extensions) Extensions {
	out := Extensions{
		Whitelist:    append(append([]string(nil), e.Whitelist...), o.Whitelist...),
		LexicalTerms: append(append([]string(nil), e.LexicalTerms...), o.LexicalTerms...),
		HiddenRoots:  append(append([]string(nil), e.HiddenRoots...), o.HiddenRoots...),
		Limits:       e.Limits.Merge(o.Limits),
	}
	if len(e.Triggers)+len(o.Triggers) > 0 {
		out.Triggers = make(map[string][]string)
		for k, v := range e.Triggers {
			out.Triggers[k] = append(out.Triggers[k], v...)
		}
		for k, v := range o.Triggers {
			out.Triggers[k] = append(out.Triggers[k], v...)
		}
	}
	return out
}

// RuleSet is the immutable collection of tables the stages read. Build it
// once with NewRuleSet and share it freely between goroutines.
type RuleSet struct {
	lexicalTerms []string
	hiddenRoots  []string
	patterns     []PatternRule
	triggers     []TriggerCategory
	whitelist    map[string]struct{}
	limits       Limits
}

var defaultLexicalTerms = []string{
	"хуй", "хуё", "хуя", "пизд", "ебан", "ебать", "ёбан", "ёбать",
	"блядь", "бляд", "гандон", "мудак", "пидор", "педик",
	"шлюха", "проститутка", "ебал", "залупа", "манда",
	"долбоёб", "уебан", "выебан", "выеб",
	"fuck", "shit", "asshole", "bitch", "cunt", "dick", "pussy",
	"whore", "slut", "bastard", "motherfucker", "cock", "nigger",
	"faggot", "prick",
}

var defaultHiddenRoots = []string{"хуй", "пизд", "еба", "бляд"}

var defaultTriggers = []TriggerCategory{
	{Category: CategoryScam, Name: "scam", Triggers: []string{"гарантирован", "быстрый доход", "легкие деньги", "прибыль"}},
	{Category: CategoryAdultContent, Name: "adult", Triggers: []string{"порно", "интим", "голый", "обнаженный", "xxx"}},
	{Category: CategoryViolence, Name: "violence", Triggers: []string{"убийство", "оружие", "насилие", "избиение"}},
	{Category: CategoryDrugs, Name: "drugs", Triggers: []string{"наркотик", "марихуана", "героин", "кокаин", "лсд"}},
	{Category: CategoryHateSpeech, Name: "hate_speech", Triggers: []string{"ненависть", "убивай", "смерть", "терроризм"}},
}

var defaultWhitelist = []string{
	"хер", "хрен", "сука", "суки", "блять",
	"секс", "интимный", "обнаженка",
	"биткоин", "блокчейн", "нфт",
	"казин", "покер",
	"купить", "покупать", "заказ", "бизнес",
	"очистка", "таймер", "контекст", "память",
	"бот", "промпт", "python", "код", "шаблон",
	"клавиатуры", "replykeyboardmarkup", "inlinekeyboardmarkup",
	"кнопка", "меню", "сбросить", "диалог",
	"автоперезагрузка", "watchdog", "разработка", "дебаг",
	"openai", "hf", "модель", "настройки",
	"redis", "memory", "context", "пользователь",
	"rate", "limiting", "спам", "ddos", "нагрузка", "api",
}

// DefaultRuleSet builds the rule set with only the built-in tables.
func DefaultRuleSet() *RuleSet {
	return NewRuleSet(Extensions{})
}

// NewRuleSet builds a rule set from the built-in tables plus ext.
func NewRuleSet(ext Extensions) *RuleSet {
	limits := DefaultLimits().Merge(ext.Limits)

	rs := &RuleSet{
		lexicalTerms: uniqueTerms(canonicalPhrase, defaultLexicalTerms, ext.LexicalTerms),
		hiddenRoots:  uniqueTerms(lettersOnly, defaultHiddenRoots, ext.HiddenRoots),
		patterns:     defaultPatterns(limits),
		whitelist:    make(map[string]struct{}),
		limits:       limits,
	}
	for _, w := range uniqueTerms(strings.ToLower, defaultWhitelist, ext.Whitelist) {
		rs.whitelist[w] = struct{}{}
	}
	for _, tc := range defaultTriggers {
		extra := ext.Triggers[string(tc.Category)]
		if len(extra) == 0 {
			extra = ext.Triggers[tc.Name]
		}
		rs.triggers = append(rs.triggers, TriggerCategory{
			Category: tc.Category,
			Name:     tc.Name,
			Triggers: uniqueTerms(canonicalPhrase, tc.Triggers, extra),
		})
	}
	return rs
}

// uniqueTerms canonicalizes every term with fn and drops empties and duplicates,
// keeping first-seen order.
func uniqueTerms(fn func(string) string, lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, t := range list {
			t = strings.TrimSpace(fn(t))
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Limits returns the effective thresholds.
func (rs *RuleSet) Limits() Limits { return rs.limits }

// Patterns returns the rules of the given group, in declaration order.
func (rs *RuleSet) Patterns(g Group) []PatternRule {
	var out []PatternRule
	for _, p := range rs.patterns {
		if p.Group == g {
			out = append(out, p)
		}
	}
	return out
}

// Triggers returns the context categories in evaluation order.
func (rs *RuleSet) Triggers() []TriggerCategory {
	out := make([]TriggerCategory, len(rs.triggers))
	for i, tc := range rs.triggers {
		tc.Triggers = slices.Clone(tc.Triggers)
		out[i] = tc
	}
	return out
}

// Whitelisted reports whether any word token of the lower-cased text is a
// whitelist entry.
func (rs *RuleSet) Whitelisted(text string) bool {
	for _, tok := range wordTokens(strings.ToLower(norm.NFC.String(text))) {
		if _, ok := rs.whitelist[tok]; ok {
			return true
		}
	}
	return false
}

// Stats reports table sizes, for logging after a reload.
func (rs *RuleSet) Stats() map[string]int {
	n := 0
	for _, tc := range rs.triggers {
		n += len(tc.Triggers)
	}
	return map[string]int{
		"lexical_terms": len(rs.lexicalTerms),
		"hidden_roots":  len(rs.hiddenRoots),
		"patterns":      len(rs.patterns),
		"triggers":      n,
		"whitelist":     len(rs.whitelist),
	}
}
