package service

import (
	"strings"
	"unicode"

	"takarawalk_backend/internal/model"

	"golang.org/x/text/unicode/norm"
)

// NormalizeAnswer canonicalizes a human-typed answer for comparison:
// lower-case, NFKC fold (collapses full-width/half-width variants), then
// every whitespace rune removed, internal ones included. "A B C" and "ABC"
// normalize identically. Pure and deterministic.
func NormalizeAnswer(raw string) string {
	folded := norm.NFKC.String(strings.ToLower(raw))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}

// IsCorrectAnswer reports whether the submission matches the puzzle's
// accepted set. Keyword puzzles compare normalized forms, any accepted
// spelling wins. QR-code puzzles compare the raw token byte-exact, because
// the token comes from a scan, not a keyboard. The caller learns only the
// boolean; accepted answers are never echoed back.
func IsCorrectAnswer(submission string, p *model.Puzzle) bool {
	if p.AnswerType == model.AnswerQRCode {
		if submission == "" {
			return false
		}
		if submission == p.Answer {
			return true
		}
		for _, a := range p.Answers {
			if submission == a {
				return true
			}
		}
		return false
	}

	normalized := NormalizeAnswer(submission)
	if normalized == "" {
		// A blank submission never matches, even against a malformed
		// puzzle whose accepted set contains a blank entry.
		return false
	}
	for _, a := range p.AcceptedAnswers() {
		if candidate := NormalizeAnswer(a); candidate != "" && candidate == normalized {
			return true
		}
	}
	return false
}
