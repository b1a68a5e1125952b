package service

import (
	"testing"

	"takarawalk_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "TOKYO", "tokyo"},
		{"strips surrounding whitespace", "  tokyo  ", "tokyo"},
		{"strips internal whitespace", "tokyo tower", "tokyotower"},
		{"strips tabs and newlines", "tokyo\ttower\n", "tokyotower"},
		{"fullwidth letters fold to ascii", "ｓａｋｕｒａ", "sakura"},
		{"ideographic space removed", "桜　公園", "桜公園"},
		{"fullwidth digits fold", "４２", "42"},
		{"empty stays empty", "", ""},
		{"whitespace only collapses to empty", " \t\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAnswer(tt.in))
		})
	}
}

func TestNormalizeAnswer_EquivalentForms(t *testing.T) {
	// Every spelling a human might type for the same answer must collapse
	// to one canonical form.
	forms := []string{"Tokyo Tower", "tokyo tower", "TOKYOTOWER", "ｔｏｋｙｏ ｔｏｗｅｒ", " tokyo\ttower "}
	want := NormalizeAnswer(forms[0])
	for _, f := range forms {
		assert.Equal(t, want, NormalizeAnswer(f), "form %q", f)
	}
}

func TestIsCorrectAnswer_Keyword(t *testing.T) {
	p := &model.Puzzle{
		AnswerType: model.AnswerKeyword,
		Answer:     "tokyo",
		Answers:    model.StringList{"tokyo", "Tokyo Tower"},
	}

	assert.True(t, IsCorrectAnswer("tokyo", p))
	assert.True(t, IsCorrectAnswer("TOKYO", p), "case must not matter")
	assert.True(t, IsCorrectAnswer("tokyotower", p), "whitespace must not matter")
	assert.True(t, IsCorrectAnswer("Tokyo  Tower", p))
	assert.False(t, IsCorrectAnswer("osaka", p))
	assert.False(t, IsCorrectAnswer("", p))
	assert.False(t, IsCorrectAnswer("   ", p), "blank never matches")
}

func TestIsCorrectAnswer_KeywordFallsBackToCanonical(t *testing.T) {
	// Older rows carry only the single Answer column.
	p := &model.Puzzle{AnswerType: model.AnswerKeyword, Answer: "sakura"}

	assert.True(t, IsCorrectAnswer("SAKURA", p))
	assert.True(t, IsCorrectAnswer("ｓａｋｕｒａ", p))
	assert.False(t, IsCorrectAnswer("ume", p))
}

func TestIsCorrectAnswer_BlankAcceptedEntryNeverMatchesBlank(t *testing.T) {
	p := &model.Puzzle{
		AnswerType: model.AnswerKeyword,
		Answers:    model.StringList{"  ", "real"},
	}

	assert.False(t, IsCorrectAnswer("", p))
	assert.False(t, IsCorrectAnswer("   ", p))
	assert.True(t, IsCorrectAnswer("real", p))
}

func TestIsCorrectAnswer_QRCodeIsByteExact(t *testing.T) {
	p := &model.Puzzle{
		AnswerType: model.AnswerQRCode,
		Answer:     "Ab3xYz01Ab3xYz01Ab3xYz01Ab3xYz01",
	}

	assert.True(t, IsCorrectAnswer("Ab3xYz01Ab3xYz01Ab3xYz01Ab3xYz01", p))
	assert.False(t, IsCorrectAnswer("ab3xyz01ab3xyz01ab3xyz01ab3xyz01", p), "scan tokens are case sensitive")
	assert.False(t, IsCorrectAnswer(" Ab3xYz01Ab3xYz01Ab3xYz01Ab3xYz01", p), "no normalization for tokens")
	assert.False(t, IsCorrectAnswer("", p))
}
