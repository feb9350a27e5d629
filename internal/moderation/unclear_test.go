package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUnclear(t *testing.T) {
	assert := assert.New(t)
	e := New(nil)

	unclear := []string{"что", "к", " П ", "?", "¿", "...", "…", "нет", "тет", "как дела", "Почему так", "what", "how come"}
	for _, text := range unclear {
		assert.True(e.IsUnclear(text), "expected %q to be unclear", text)
	}

	clear := []string{
		"Расскажи мне, пожалуйста, про погоду завтра",
		"что такое горутина",
		"почему?",
		"привет",
		"да",
		"",
	}
	for _, text := range clear {
		assert.False(e.IsUnclear(text), "expected %q to be clear", text)
	}
}
