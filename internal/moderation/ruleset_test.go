package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhitelisted(t *testing.T) {
	assert := assert.New(t)
	rs := DefaultRuleSet()

	assert.True(rs.Whitelisted("бот и код python"))
	assert.True(rs.Whitelisted("Нужен API!"))
	assert.True(rs.Whitelisted("(Redis)"))
	assert.False(rs.Whitelisted("боты"))
	assert.False(rs.Whitelisted("pythonista"))
	assert.False(rs.Whitelisted(""))
}

func TestNewRuleSetExtensions(t *testing.T) {
	assert := assert.New(t)

	rs := NewRuleSet(Extensions{
		Whitelist:    []string{"Погода"},
		LexicalTerms: []string{"жопа", "жопа", " "},
		HiddenRoots:  []string{"жоп"},
		Triggers:     map[string][]string{"drugs": {"спайс"}, "unknown": {"ignored"}},
	})

	assert.True(rs.Whitelisted("какая погода?"))
	assert.Equal(len(defaultLexicalTerms)+1, rs.Stats()["lexical_terms"])
	assert.Equal(len(defaultHiddenRoots)+1, rs.Stats()["hidden_roots"])

	e := New(rs)
	assert.Equal(CategoryProfanity, e.Filter("ну ты жопа").Category)
	assert.Equal(CategoryProfanity, e.Filter("ж.о.п").Category)
	assert.Equal(CategoryDrugs, e.Filter("наркотик героин спайс").Category)

	for _, tc := range rs.Triggers() {
		assert.NotContains(tc.Triggers, "ignored")
	}
}

func TestTriggersByName(t *testing.T) {
	rs := NewRuleSet(Extensions{Triggers: map[string][]string{"adult": {"эротика"}}})
	for _, tc := range rs.Triggers() {
		if tc.Category == CategoryAdultContent {
			assert.Contains(t, tc.Triggers, "эротика")
		}
	}
}

func TestTriggerOrder(t *testing.T) {
	var got []Category
	for _, tc := range DefaultRuleSet().Triggers() {
		got = append(got, tc.Category)
	}
	assert.Equal(t, []Category{CategoryScam, CategoryAdultContent, CategoryViolence, CategoryDrugs, CategoryHateSpeech}, got)
}

func TestLimitsMerge(t *testing.T) {
	assert := assert.New(t)

	l := DefaultLimits().Merge(Limits{SpamGroups: 5, FloodRatio: 0.6})
	assert.Equal(5, l.SpamGroups)
	assert.Equal(0.6, l.FloodRatio)
	assert.Equal(2, l.Tolerance())
	assert.Equal(0, DefaultLimits().Merge(Limits{NearMatchTolerance: intPtr(0)}).Tolerance())
	assert.Equal(2, DefaultLimits().Merge(Limits{NearMatchTolerance: intPtr(-1)}).Tolerance())
	assert.Equal(2, Limits{}.Tolerance())
	assert.Equal(2000, l.MaxLength)

	assert.Equal(DefaultLimits(), DefaultLimits().Merge(Limits{}))
}

func TestExtensionsMerge(t *testing.T) {
	assert := assert.New(t)

	a := Extensions{Whitelist: []string{"a"}, Triggers: map[string][]string{"drugs": {"x"}}, Limits: Limits{SpamGroups: 2}}
	b := Extensions{Whitelist: []string{"b"}, Triggers: map[string][]string{"drugs": {"y"}}, Limits: Limits{SpamGroups: 4}}

	m := a.Merge(b)
	assert.Equal([]string{"a", "b"}, m.Whitelist)
	assert.Equal([]string{"x", "y"}, m.Triggers["drugs"])
	assert.Equal(4, m.Limits.SpamGroups)
	assert.Equal([]string{"a"}, a.Whitelist)
}

func TestPatternGroups(t *testing.T) {
	assert := assert.New(t)
	rs := DefaultRuleSet()

	assert.Len(rs.Patterns(GroupProfanity), 2)
	assert.Len(rs.Patterns(GroupContact), 3)
	assert.Len(rs.Patterns(GroupPersonal), 1)

	crypto := rs.Patterns(GroupCrypto)[0]
	assert.True(crypto.MatchString("купил биткоин вчера"))
	assert.False(crypto.MatchString("биткоины"))
	assert.Equal([]string{"nft"}, crypto.Matches("это nft токен"))
}

func TestCategoryLabels(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("нецензурная лексика", CategoryProfanity.Label())
	assert.Equal("ссылки/контакты", CategoryLinksContacts.Label())
	assert.Equal("future_key", Category("future_key").Label())

	c, ok := ParseCategory("флуд")
	assert.True(ok)
	assert.Equal(CategoryFlood, c)

	c, ok = ParseCategory("spam")
	assert.True(ok)
	assert.Equal(CategorySpam, c)

	_, ok = ParseCategory("nope")
	assert.False(ok)
}

func TestTriggersReturnsCopy(t *testing.T) {
	rs := DefaultRuleSet()

	tr := rs.Triggers()
	first := tr[0].Triggers[0]
	tr[0].Triggers[0] = "изменено"
	tr[0].Triggers = append(tr[0].Triggers, "лишнее")

	again := rs.Triggers()
	assert.Equal(t, first, again[0].Triggers[0])
	assert.NotContains(t, again[0].Triggers, "лишнее")
}
