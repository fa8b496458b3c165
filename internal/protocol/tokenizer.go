package protocol

import (
	"strings"
)

// TokenKind tags a span of a model reply.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenStage
	TokenImage
)

// Token is one span of a model reply. Text always holds the exact source
// text of the span, so concatenating every token's Text yields the input.
type Token struct {
	Kind TokenKind
	Text string
	// Identifier is the raw stage identifier for TokenStage.
	Identifier string
	// JSON is the balanced-brace payload for TokenImage.
	JSON string
}

const (
	stageTag = "[STAGE:"
	imageTag = "[IMAGE:"
)

// Tokenize splits a reply into text, stage-marker and image-directive
// tokens in a single left-to-right pass. Only the first stage marker and the
// first image directive are tokenized; later ones stay plain text.
func Tokenize(raw string) []Token {
	var (
		tokens    []Token
		textStart int
		seenStage bool
		seenImage bool
	)

	flush := func(end int) {
		if end > textStart {
			tokens = append(tokens, Token{Kind: TokenText, Text: raw[textStart:end]})
		}
	}

	for i := 0; i < len(raw); {
		if raw[i] != '[' {
			i++
			continue
		}
		if !seenStage {
			if n, ident, ok := matchStage(raw[i:]); ok {
				flush(i)
				tokens = append(tokens, Token{Kind: TokenStage, Text: raw[i : i+n], Identifier: ident})
				seenStage = true
				i += n
				textStart = i
				continue
			}
		}
		if !seenImage {
			if n, payload, ok := matchImage(raw[i:]); ok {
				flush(i)
				tokens = append(tokens, Token{Kind: TokenImage, Text: raw[i : i+n], JSON: payload})
				seenImage = true
				i += n
				textStart = i
				continue
			}
		}
		i++
	}
	flush(len(raw))
	return tokens
}

// matchStage recognises `[STAGE: word]` or `[STAGE: word-word]` at the start
// of s and returns the consumed length and identifier.
func matchStage(s string) (int, string, bool) {
	if !hasPrefixFold(s, stageTag) {
		return 0, "", false
	}
	i := skipSpace(s, len(stageTag))

	start := i
	i = skipWord(s, i)
	if i == start {
		return 0, "", false
	}
	if i < len(s) && s[i] == '-' {
		if next := skipWord(s, i+1); next > i+1 {
			i = next
		}
	}
	ident := s[start:i]

	i = skipSpace(s, i)
	if i >= len(s) || s[i] != ']' {
		return 0, "", false
	}
	return i + 1, ident, true
}

// matchImage recognises `[IMAGE: {...}]` at the start of s, where the braces
// are balanced outside of JSON string literals.
func matchImage(s string) (int, string, bool) {
	if !hasPrefixFold(s, imageTag) {
		return 0, "", false
	}
	i := skipSpace(s, len(imageTag))
	if i >= len(s) || s[i] != '{' {
		return 0, "", false
	}

	end, ok := scanObject(s, i)
	if !ok {
		return 0, "", false
	}
	payload := s[i:end]

	i = skipSpace(s, end)
	if i >= len(s) || s[i] != ']' {
		return 0, "", false
	}
	return i + 1, payload, true
}

// scanObject returns the index just past the brace that closes the object
// opened at s[start].
func scanObject(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpaceByte(s[i]) {
		i++
	}
	return i
}

func skipWord(s string, i int) int {
	for i < len(s) && isWordByte(s[i]) {
		i++
	}
	return i
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
