package moderation

// Category is the stable key of a rejection reason. Callers map it to
// user-facing text and must handle keys they do not know.
type Category string

const (
	CategoryProfanity         Category = "profanity"
	CategoryLinksContacts     Category = "links_contacts"
	CategorySpam              Category = "spam"
	CategoryCaps              Category = "caps"
	CategoryRepetition        Category = "repetition"
	CategoryPunctuation       Category = "punctuation"
	CategoryPersonalData      Category = "personal_data"
	CategoryScam              Category = "scam"
	CategoryAdultContent      Category = "adult_content"
	CategoryViolence          Category = "violence"
	CategoryDrugs             Category = "drugs"
	CategoryHateSpeech        Category = "hate_speech"
	CategoryFlood             Category = "flood"
	CategorySpecialCharacters Category = "special_characters"
	CategoryTooShort          Category = "too_short"
	CategoryTooLong           Category = "too_long"
)

var categoryLabels = map[Category]string{
	CategoryProfanity:         "нецензурная лексика",
	CategoryLinksContacts:     "ссылки/контакты",
	CategorySpam:              "рекламный спам",
	CategoryCaps:              "капслок",
	CategoryRepetition:        "повторения",
	CategoryPunctuation:       "пунктуация",
	CategoryPersonalData:      "личные данные",
	CategoryScam:              "мошенничество",
	CategoryAdultContent:      "взрослый контент",
	CategoryViolence:          "контент о насилии",
	CategoryDrugs:             "наркотики",
	CategoryHateSpeech:        "разжигание ненависти",
	CategoryFlood:             "флуд",
	CategorySpecialCharacters: "спецсимволы",
	CategoryTooShort:          "сообщение слишком короткое",
	CategoryTooLong:           "сообщение слишком длинное",
}

// Label returns the Russian display label, or the raw key for unknown categories.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Known reports whether c is one of the categories the engine can emit.
func (c Category) Known() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory resolves either a stable key or a Russian label.
func ParseCategory(s string) (Category, bool) {
	if c := Category(s); c.Known() {
		return c, true
	}
	for c, l := range categoryLabels {
		if l == s {
			return c, true
		}
	}
	return "", false
}
