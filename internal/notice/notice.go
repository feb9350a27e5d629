// Package notice holds the user-facing texts sent back when a message is
// rejected or cannot be answered.
package notice

import "github.com/af-corp/textguard/internal/moderation"

const (
	// Fallback is used for categories without a dedicated notice.
	Fallback = "🚫 Сообщение нарушает правила"

	rephrase = "Переформулируйте запрос."

	// Unclear is sent when a message is too vague to dispatch.
	Unclear = "🤔 Не совсем понял ваш запрос.\n\nСформулируйте конкретнее или попросите примеры запросов."

	// Confused is sent when the assistant itself asked for clarification.
	Confused = "🤔 Не совсем понял запрос.\n\nМожете переформулировать?"

	// Unavailable is sent when the assistant cannot be reached.
	Unavailable = "⏰ AI сервис временно недоступен. Попробуйте позже."

	// Throttled is sent when a user exceeds the message rate.
	Throttled = "⏳ Слишком много сообщений. Подождите немного."

	// Reset confirms a cleared conversation.
	Reset = "🔄 Контекст диалога сброшен."
)

var blocked = map[moderation.Category]string{
	moderation.CategoryProfanity:         "🚫 Обнаружена нецензурная лексика",
	moderation.CategoryLinksContacts:     "🔗 Запрещены ссылки и контакты",
	moderation.CategorySpam:              "📢 Заблокирован рекламный спам",
	moderation.CategoryScam:              "🎭 Обнаружены признаки мошенничества",
	moderation.CategoryAdultContent:      "🔞 Неподходящий контент",
	moderation.CategoryViolence:          "⚔️ Заблокирован контент о насилии",
	moderation.CategoryDrugs:             "💊 Обнаружены упоминания наркотиков",
	moderation.CategoryHateSpeech:        "💀 Заблокирован опасный контент",
	moderation.CategoryCaps:              "🔊 Сообщение написано капсом",
	moderation.CategoryRepetition:        "🔄 Слишком много повторений",
	moderation.CategoryPunctuation:       "❗ Избыточная пунктуация",
	moderation.CategoryPersonalData:      "📋 Обнаружены личные данные",
	moderation.CategoryFlood:             "💬 Обнаружен флуд",
	moderation.CategorySpecialCharacters: "🔣 Слишком много спецсимволов",
	moderation.CategoryTooShort:          "✏️ Сообщение слишком короткое",
	moderation.CategoryTooLong:           "📏 Сообщение слишком длинное",
}

// Headline returns the one-line notice for a rejection category.
func Headline(c moderation.Category) string {
	if h, ok := blocked[c]; ok {
		return h
	}
	return Fallback
}

// Blocked returns the full reply for a rejected message.
func Blocked(c moderation.Category) string {
	return Headline(c) + "\n\n" + rephrase
}

// For returns the reply for a verdict, or "" when the message was accepted.
func For(v moderation.Verdict) string {
	if v.Accepted {
		return ""
	}
	return Blocked(v.Category)
}
