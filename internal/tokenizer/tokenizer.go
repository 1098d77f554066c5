// Package tokenizer splits raw source sentences into the word sequence and
// punctuation mask consumed by internal/decoder/search.Sentence. Unlike a
// search-index tokenizer it must NOT lower-case, stem, or drop stop-words:
// every source word needs a decodable position, and punctuation positions
// feed the decoder's monotone-at-punctuation constraint (spec.md §6).
package tokenizer

import (
	"strings"
	"unicode"
)

// Sentence is one tokenized source sentence, ready for search.Sentence.
type Sentence struct {
	Words                []string
	PunctuationPositions []bool
}

// Tokenize splits text on whitespace and detaches leading/trailing
// punctuation from each word into its own token, the way Moses's
// tokenizer.perl pre-processes text before decoding.
func Tokenize(text string) Sentence {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		words = append(words, splitPunctuation(f)...)
	}
	punct := make([]bool, len(words))
	for i, w := range words {
		punct[i] = isPunctuation(w)
	}
	return Sentence{Words: words, PunctuationPositions: punct}
}

// splitPunctuation peels leading and trailing punctuation runes off word
// into separate tokens, leaving the alphanumeric core (if any) in the middle.
func splitPunctuation(word string) []string {
	runes := []rune(word)
	start := 0
	for start < len(runes) && isPunctRune(runes[start]) {
		start++
	}
	end := len(runes)
	for end > start && isPunctRune(runes[end-1]) {
		end--
	}
	var out []string
	for _, r := range runes[:start] {
		out = append(out, string(r))
	}
	if start < end {
		out = append(out, string(runes[start:end]))
	}
	for _, r := range runes[end:] {
		out = append(out, string(r))
	}
	if len(out) == 0 {
		return []string{word}
	}
	return out
}

func isPunctRune(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// isPunctuation reports whether token is a single punctuation/symbol rune,
// matching splitPunctuation's per-rune tokens.
func isPunctuation(token string) bool {
	runes := []rune(token)
	if len(runes) != 1 {
		return false
	}
	return isPunctRune(runes[0])
}
