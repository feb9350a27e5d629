package moderation

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var natoWords = []string{
	"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel",
	"india", "juliett", "kilo", "lima", "mike", "november", "oscar", "papa",
	"quebec", "romeo", "sierra", "tango", "uniform", "victor", "whiskey",
	"xray", "yankee", "zulu",
}

// natoText builds a harmless ASCII text of exactly n characters.
func natoText(n int) string {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(natoWords[i%len(natoWords)])
	}
	return b.String()[:n]
}

func floodText(repeats int) string {
	distinct := []string{
		"один", "два", "три", "четыре", "пять", "шесть", "семь",
		"восемь", "девять", "десять", "одиннадцать", "двенадцать",
		"тринадцать", "четырнадцать",
	}
	words := make([]string, 0, 20)
	for i := 0; i < repeats; i++ {
		words = append(words, "привет")
	}
	words = append(words, distinct[:20-repeats]...)
	return strings.Join(words, " ")
}

func TestFilterCategories(t *testing.T) {
	assert := assert.New(t)
	e := New(nil)

	tests := []struct {
		name string
		text string
		want Category
	}{
		{"empty", "", CategoryTooShort},
		{"single rune", "a", CategoryTooShort},
		{"padded single rune", "   a   ", CategoryTooShort},
		{"too long", natoText(2001), CategoryTooLong},
		{"whitelisted but too long", strings.Repeat("бот ", 600), CategoryTooLong},
		{"english profanity", "This is a shit message", CategoryProfanity},
		{"leet profanity", "what the sh1t", CategoryProfanity},
		{"near match", "you fucker", CategoryProfanity},
		{"spaced out root", "х у й", CategoryProfanity},
		{"url", "visit https://example.com", CategoryLinksContacts},
		{"email", "напиши на mail@example.com", CategoryLinksContacts},
		{"phone", "звони +7 (999) 123-45-67", CategoryLinksContacts},
		{"phone with ten digits", "звони 999 123 45 67", CategoryLinksContacts},
		{"mention with path", "contact @username/repo", CategoryLinksContacts},
		{"three spam groups", "скидка на эфириум в казино", CategorySpam},
		{"caps", "СРОЧНО ОЧЕНЬ ВАЖНОЕ сообщение", CategoryCaps},
		{"repetition", "ну дааааааа конечно", CategoryRepetition},
		{"punctuation", "что происходит!!!!", CategoryPunctuation},
		{"personal name", "меня зовут John Smith", CategoryPersonalData},
		{"scam", "гарантирован быстрый доход и прибыль", CategoryScam},
		{"drugs", "наркотик героин кокаин", CategoryDrugs},
		{"flood", floodText(9), CategoryFlood},
		{"special characters", "ок #$%^&*", CategorySpecialCharacters},
	}

	for _, tt := range tests {
		v := e.Filter(tt.text)
		if assert.False(v.Accepted, tt.name) {
			assert.Equal(tt.want, v.Category, tt.name)
			assert.NotEmpty(v.Detail, tt.name)
			assert.Empty(v.Text, tt.name)
		}
	}
}

func TestFilterAccepts(t *testing.T) {
	assert := assert.New(t)
	e := New(nil)

	texts := []string{
		"ok",
		natoText(2000),
		"contact @username",
		"скидка на эфириум",
		"наркотик героин",
		"наркотики героин кокаин",
		"you fuckers",
		floodText(6),
		"Привет,          как дела",
		"в 2019 - 2020 годах было тихо",
		"код 123 45 67 89",
		"Привет, как дела? Расскажи про погоду в городе.",
	}
	for _, text := range texts {
		v := e.Filter(text)
		assert.True(v.Accepted, "%q rejected as %s", text, v.Category)
		assert.Equal(text, v.Text)
	}
}

func TestFilterWhitelistPrecedence(t *testing.T) {
	assert := assert.New(t)
	e := New(nil)

	v := e.Filter("бот и код python")
	assert.True(v.Accepted)
	assert.Equal("бот и код python", v.Text)

	// the same profanity is rejected once the whitelisted token is gone
	assert.True(e.Filter("бот shit").Accepted)
	assert.Equal(CategoryProfanity, e.Filter("и shit").Category)
}

func TestFilterAcceptedIsIdempotent(t *testing.T) {
	e := New(nil)
	for _, text := range []string{"ok", "contact @username", natoText(500), "бот и код python"} {
		first := e.Filter(text)
		require.True(t, first.Accepted)
		assert.Equal(t, first, e.Filter(first.Text))
	}
}

func TestFilterDeterministicAcrossGoroutines(t *testing.T) {
	e := New(nil)
	inputs := []string{"This is a shit message", "visit https://example.com", "ok", floodText(9)}
	want := make([]Verdict, len(inputs))
	for i, in := range inputs {
		want[i] = e.Filter(in)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, in := range inputs {
				if got := e.Filter(in); got != want[i] {
					errs <- in
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for in := range errs {
		t.Errorf("non-deterministic verdict for %q", in)
	}
}

func TestThresholdsFollowLimits(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		name   string
		limits Limits
		text   string
		reject bool
	}{
		{"spam below threshold", Limits{SpamGroups: 3}, "скидка на эфириум", false},
		{"spam at lowered threshold", Limits{SpamGroups: 2}, "скидка на эфириум", true},
		{"spam above raised threshold", Limits{SpamGroups: 4}, "скидка на эфириум в казино", false},
		{"context threshold minus one", Limits{}, "наркотик героин", false},
		{"context at threshold", Limits{}, "наркотик героин кокаин", true},
		{"context at lowered threshold", Limits{ContextTriggers: 2}, "наркотик героин", true},
		{"context above raised threshold", Limits{ContextTriggers: 4}, "наркотик героин кокаин", false},
		{"tolerance default", Limits{}, "you fuckers", false},
		{"tolerance widened", Limits{NearMatchTolerance: intPtr(3)}, "you fuckers", true},
		{"max length raised", Limits{MaxLength: 3000}, natoText(2500), false},
		{"tolerance zero keeps exact terms", Limits{NearMatchTolerance: intPtr(0)}, "fuck you", true},
		{"tolerance zero drops near matches", Limits{NearMatchTolerance: intPtr(0)}, "you fucker", false},
		{"caps below threshold", Limits{}, "СРОЧНО ОЧЕНЬ сообщение", false},
		{"caps at threshold", Limits{}, "СРОЧНО ОЧЕНЬ ВАЖНОЕ сообщение", true},
		{"punctuation below threshold", Limits{}, "что происходит!!!", false},
		{"punctuation at threshold", Limits{}, "что происходит!!!!", true},
		{"repetition below threshold", Limits{}, "ну д" + strings.Repeat("а", 5) + " конечно", false},
		{"repetition at threshold", Limits{}, "ну д" + strings.Repeat("а", 6) + " конечно", true},
		{"special ratio at half", Limits{}, "ab%%", false},
		{"special ratio over half", Limits{}, "ab%%%", true},
	}

	for _, tt := range tests {
		e := New(NewRuleSet(Extensions{Limits: tt.limits}))
		v := e.Filter(tt.text)
		assert.Equal(tt.reject, v.Rejected(), "%s: got %+v", tt.name, v)
	}
}

func TestHolderSwap(t *testing.T) {
	h := NewHolder(New(nil))
	assert.True(t, h.Load().Filter("ну ты жопа").Accepted)

	h.Store(New(NewRuleSet(Extensions{LexicalTerms: []string{"жопа"}})))
	assert.Equal(t, CategoryProfanity, h.Load().Filter("ну ты жопа").Category)
}

func TestStageNames(t *testing.T) {
	assert.Equal(t, []string{"profanity", "links", "spam", "suspicious", "context", "behavior"}, StageNames())
}
