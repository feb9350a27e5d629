package moderation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// substitutions maps look-alike characters back to the letter they stand in
// for. Order matters: when a character appears under two letters the first
// entry wins, so '1' always decodes to 'i'.
var substitutions = []struct {
	letter     string
	lookalikes []string
}{
	{"a", []string{"4", "@"}},
	{"e", []string{"3"}},
	{"i", []string{"1", "!"}},
	{"o", []string{"0"}},
	{"s", []string{"5", "$"}},
	{"t", []string{"7"}},
	{"b", []string{"8"}},
	{"g", []string{"9"}},
	{"l", []string{"1", "|"}},
	{"z", []string{"2"}},
}

var substitutionReplacer = newSubstitutionReplacer()

func newSubstitutionReplacer() *strings.Replacer {
	seen := make(map[string]bool)
	var oldnew []string
	for _, s := range substitutions {
		for _, l := range s.lookalikes {
			if seen[l] {
				continue
			}
			seen[l] = true
			oldnew = append(oldnew, l, s.letter)
		}
	}
	return strings.NewReplacer(oldnew...)
}

// Normalize returns the canonical form used for lexical matching: NFKC
// folded, lower-cased, look-alikes decoded, and every rune that is neither
// a letter nor whitespace removed. The result may be empty.
func Normalize(text string) string {
	s := strings.ToLower(norm.NFKC.String(text))
	s = substitutionReplacer.Replace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

// lettersOnly lower-cases text and drops everything but letters.
func lettersOnly(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, strings.ToLower(text))
}

// wordTokens splits text into maximal runs of letters, digits and underscore.
func wordTokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// canonicalPhrase normalizes a configured term so it compares equal to the
// words produced by Normalize.
func canonicalPhrase(term string) string {
	return strings.Join(strings.Fields(Normalize(term)), " ")
}
