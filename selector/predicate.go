package selector

import (
	"strings"

	"github.com/kbukum/standin/embedding"
)

// Predicate decides whether a transcript is a question worth answering
// with a generated response.
type Predicate func(text string) bool

var questionStarts = map[string]struct{}{
	"what": {}, "why": {}, "how": {}, "when": {}, "where": {}, "who": {}, "whom": {}, "whose": {}, "which": {},
	"can": {}, "could": {}, "would": {}, "will": {}, "should": {}, "shall": {}, "may": {}, "might": {},
	"do": {}, "does": {}, "did": {}, "is": {}, "are": {}, "was": {}, "were": {}, "have": {}, "has": {}, "any": {},
}

var politeCues = []string{
	"tell me", "tell us", "walk us through", "walk me through", "let us know", "let me know",
	"explain", "i wonder", "wondering", "thoughts on", "please share",
}

// IsQuestion is the default heuristic: the text contains a question mark,
// opens with a wh-word or auxiliary verb, or contains a polite request cue.
func IsQuestion(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if strings.Contains(text, "?") {
		return true
	}
	norm := embedding.NormalizeText(text)
	first, _, _ := strings.Cut(norm, " ")
	if _, ok := questionStarts[first]; ok {
		return true
	}
	for _, cue := range politeCues {
		if strings.Contains(norm, cue) {
			return true
		}
	}
	return false
}
