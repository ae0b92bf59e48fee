// Package htmltext holds the low-level text tools used by the page extractors:
// a visible-text scanner, a streaming literal matcher and a handful of
// case-insensitive tag locators that work on byte offsets into one document.
package htmltext

import (
	"strings"
	"unicode/utf8"
)

// Scanner walks one line of HTML and yields only its visible characters.
// Tags are skipped (quote-aware), entities become a single space and runs of
// ASCII whitespace collapse to one space.
type Scanner struct {
	s string
	i int
}

// NewScanner creates a scanner positioned at the start of s.
func NewScanner(s string) *Scanner {
	return &Scanner{s: s}
}

// Next returns the next visible character, or false once the line is exhausted.
func (sc *Scanner) Next() (rune, bool) {
	for sc.i < len(sc.s) {
		switch c := sc.s[sc.i]; c {
		case '<':
			sc.skipTag()
		case '&':
			sc.skipEntity()
			return ' ', true
		case ' ', '\t', '\r', '\n':
			for sc.i < len(sc.s) && isASCIISpace(sc.s[sc.i]) {
				sc.i++
			}
			return ' ', true
		default:
			if c < utf8.RuneSelf {
				sc.i++
				return rune(c), true
			}
			r, size := utf8.DecodeRuneInString(sc.s[sc.i:])
			sc.i += size
			return r, true
		}
	}
	return 0, false
}

// skipTag is called on '<'. A '>' inside a quoted attribute value does not end the tag.
func (sc *Scanner) skipTag() {
	sc.i++
	inSingle, inDouble := false, false
	for sc.i < len(sc.s) {
		switch sc.s[sc.i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '>':
			if !inSingle && !inDouble {
				sc.i++
				return
			}
		}
		sc.i++
	}
}

// skipEntity is called on '&' and consumes through the next ';' (or the end of the line).
func (sc *Scanner) skipEntity() {
	sc.i++
	for sc.i < len(sc.s) {
		if sc.s[sc.i] == ';' {
			sc.i++
			return
		}
		sc.i++
	}
}

// Visible drains a scanner over s into a string.
func Visible(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	sc := NewScanner(s)
	for {
		r, ok := sc.Next()
		if !ok {
			return b.String()
		}
		b.WriteRune(r)
	}
}

func isASCIISpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
