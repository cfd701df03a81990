package draft

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// TokenKind classifies the token around the cursor.
type TokenKind int

const (
	TokenNone TokenKind = iota
	TokenUser
	TokenChannel
	TokenURL
)

const (
	userTrigger    = '@'
	channelTrigger = '#'
)

var urlPattern = regexp.MustCompile(`(?i)^(https?://|www\.)[^\s]+\.[^\s]+$`)

// Token is a run of non-whitespace text that may become a mention.
type Token struct {
	Kind   TokenKind
	Start  int
	Length int
	// Text is the literal token, trigger included.
	Text string
	// Query is the text after the trigger character.
	Query string
}

// TokenAt finds the maximal non-whitespace run touching cursor and
// classifies it. Runs starting with a trigger become user or channel tokens
// once the query has at least minQuery characters; URL-like runs become
// link tokens.
func TokenAt(b *TextBuffer, cursor, minQuery int) (Token, bool) {
	units := b.units
	if cursor < 0 || cursor > len(units) {
		return Token{}, false
	}
	start := cursor
	for start > 0 && !isSpaceUnit(units[start-1]) {
		start--
	}
	end := cursor
	for end < len(units) && !isSpaceUnit(units[end]) {
		end++
	}
	if start == end {
		return Token{}, false
	}

	tok := Token{Start: start, Length: end - start, Text: decode(units[start:end])}
	switch units[start] {
	case userTrigger:
		tok.Kind = TokenUser
	case channelTrigger:
		tok.Kind = TokenChannel
	default:
		if urlPattern.MatchString(tok.Text) {
			tok.Kind = TokenURL
			return tok, true
		}
		return Token{}, false
	}
	tok.Query = decode(units[start+1 : end])
	if utf8.RuneCountInString(tok.Query) < max(minQuery, 1) {
		return Token{}, false
	}
	return tok, true
}

func isSpaceUnit(u uint16) bool {
	if isHighSurrogate(u) || isLowSurrogate(u) {
		return false
	}
	return unicode.IsSpace(rune(u))
}
