package embedding

import (
	"strings"
	"unicode"
)

var contractions = strings.NewReplacer(
	"can't", "can not",
	"won't", "will not",
	"n't", " not",
	"'re", " are",
	"'s", " is",
	"'ll", " will",
	"'ve", " have",
	"'m", " am",
	"'d", " would",
)

var stopwords = toSet(`a an the is are was were be been being am do does did what which who whom
whose when where why how can could would will shall should may might must you your yours i me my
we us our it its this that these those of to in on for with at by from about as into and or but so
if then there here any some please have has had`)

func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// NormalizeText lowercases text, expands contractions and collapses punctuation
// and whitespace to single spaces.
func NormalizeText(text string) string {
	return strings.Join(words(text), " ")
}

func words(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "’", "'")
	text = contractions.Replace(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Terms returns the indexable terms of text: normalized words without
// stopwords, with plural "s" trimmed. When every word is a stopword the
// words themselves are used, so short questions still embed.
func Terms(text string) []string {
	all := words(text)
	terms := make([]string, 0, len(all))
	for _, w := range all {
		if _, stop := stopwords[w]; !stop {
			terms = append(terms, stem(w))
		}
	}
	if len(terms) == 0 {
		for _, w := range all {
			terms = append(terms, stem(w))
		}
	}
	return terms
}

func stem(w string) string {
	if len(w) > 4 && strings.HasSuffix(w, "s") &&
		!strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "us") && !strings.HasSuffix(w, "is") {
		return w[:len(w)-1]
	}
	return w
}
