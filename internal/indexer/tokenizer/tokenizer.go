// Package tokenizer turns biographical text into index terms. It lower-cases
// input, splits on whitespace, strips surrounding punctuation and removes a
// fixed set of English function words.
package tokenizer

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "after": {}, "all": {}, "also": {}, "an": {},
	"and": {}, "any": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"been": {}, "before": {}, "being": {}, "between": {}, "both": {},
	"but": {}, "by": {}, "can": {}, "could": {}, "did": {}, "do": {},
	"does": {}, "during": {}, "each": {}, "for": {}, "from": {},
	"had": {}, "has": {}, "have": {}, "he": {}, "her": {}, "hers": {},
	"him": {}, "his": {}, "how": {}, "i": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "may": {}, "more": {},
	"most": {}, "no": {}, "nor": {}, "not": {}, "of": {}, "on": {},
	"only": {}, "or": {}, "other": {}, "our": {}, "over": {}, "she": {},
	"should": {}, "so": {}, "some": {}, "such": {}, "than": {},
	"that": {}, "the": {}, "their": {}, "them": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "those": {},
	"through": {}, "to": {}, "under": {}, "until": {}, "up": {},
	"very": {}, "was": {}, "we": {}, "were": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "while": {}, "who": {}, "whom": {},
	"why": {}, "will": {}, "with": {}, "would": {}, "you": {}, "your": {},
}

// Tokenize breaks text into lower-cased, non-empty terms with stop-words
// removed. Order and duplicates are preserved.
func Tokenize(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	terms := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.TrimFunc(word, isEdge)
		if word == "" {
			continue
		}
		if IsStopWord(word) {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}

// RemoveStopWords drops stop-words from text while keeping the original case
// of the remaining words. Runs of whitespace collapse to a single space.
func RemoveStopWords(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, word := range words {
		if IsStopWord(strings.ToLower(strings.TrimFunc(word, isEdge))) {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// IsStopWord reports whether the lower-case word is in the stop-word set.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// TrimEdges strips leading and trailing punctuation and symbols from word.
func TrimEdges(word string) string {
	return strings.TrimFunc(word, isEdge)
}

func isEdge(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
