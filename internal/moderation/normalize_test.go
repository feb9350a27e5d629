package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		text     string
		expected string
	}{
		{"", ""},
		{"h3ll0 w0rld", "hello world"},
		{"Sh1t!", "shiti"},
		{"1337", "ieet"},
		{"12|", "izl"},
		{"Привет, мир!", "привет мирi"},
		{"ＦＵＣＫ", "fuck"},
		{"$uper 8a9", "super bag"},
		{"!!!???...", "iii"},
		{"6", ""},
	}

	for _, tt := range tests {
		assert.Equal(tt.expected, Normalize(tt.text), "Normalize(%q)", tt.text)
	}
}

func TestWordTokens(t *testing.T) {
	assert.Equal(t, []string{"бот", "и", "код_2", "python"}, wordTokens("бот, и код_2 (python)!"))
	assert.Empty(t, wordTokens("?!..."))
}

func TestLongestRun(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0, longestRun(""))
	assert.Equal(1, longestRun("abc"))
	assert.Equal(6, longestRun("даааааа!"))
	assert.Equal(3, longestRun("aaa\naaa"))
}

func TestIsShouting(t *testing.T) {
	assert := assert.New(t)
	assert.True(isShouting("СРОЧНО", 4))
	assert.True(isShouting("HELP", 4))
	assert.False(isShouting("ЭТО", 4))
	assert.False(isShouting("Срочно", 4))
	assert.False(isShouting("HELP1", 4))
}
