// Package tokenize splits page text into word tokens with byte offsets.
package tokenize

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is a maximal run of token runes within a page.
type Token struct {
	Text  string
	Lower string
	// Start and End are byte offsets into the page text, End exclusive.
	Start int
	End   int
	// Index is the token's ordinal position in the page.
	Index int
}

// Tokens returns a lazy sequence of tokens over text. The sequence holds no
// state of its own and can be ranged over any number of times.
func Tokens(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		idx := 0
		i := 0
		for i < len(text) {
			r, size := utf8.DecodeRuneInString(text[i:])
			if !isTokenRune(r) {
				i += size
				continue
			}

			start := i
			for i < len(text) {
				r, size = utf8.DecodeRuneInString(text[i:])
				if !isTokenRune(r) {
					break
				}
				i += size
			}

			tok := Token{
				Text:  text[start:i],
				Lower: strings.ToLower(text[start:i]),
				Start: start,
				End:   i,
				Index: idx,
			}
			if !yield(tok) {
				return
			}
			idx++
		}
	}
}

// Collect materializes Tokens(text) for index-based access.
func Collect(text string) []Token {
	var tokens []Token
	for tok := range Tokens(text) {
		tokens = append(tokens, tok)
	}
	return tokens
}

// IsWordRune reports whether r is a word character for boundary checks.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isTokenRune(r rune) bool {
	return IsWordRune(r) || r == '\'' || r == '-'
}
