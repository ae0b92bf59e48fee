package htmltext

import (
	"fmt"
	"strings"
	"unicode"
)

var entityReplacer = strings.NewReplacer("&nbsp;", " ", "&amp;", "&")

// NormalizeEntities decodes &nbsp; and &amp; only. Every other entity is left as-is.
func NormalizeEntities(s string) string {
	return entityReplacer.Replace(s)
}

// NormalizeWhitespace collapses whitespace runs to a single space and trims both ends.
func NormalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		b.WriteRune(r)
		prevSpace = false
	}
	return strings.TrimSpace(b.String())
}

// StripBracketTags removes [..] annotations such as [CAPTAIN]. Brackets do not nest.
func StripBracketTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	in := false
	for _, r := range s {
		switch {
		case r == '[':
			in = true
		case r == ']':
			in = false
		case !in:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// LettersOnlyTrim keeps the leading run of letters and spaces.
//
//	"Failurewood Hills (6 - 0 - 2)" -> "Failurewood Hills"
//	"Team-Name"                     -> "Team"
func LettersOnlyTrim(s string) string {
	s = NormalizeWhitespace(s)
	cut := len(s)
	for i, r := range s {
		if r != ' ' && !unicode.IsLetter(r) {
			cut = i
			break
		}
	}
	return strings.TrimSuffix(s[:cut], " ")
}

// StripRecordSuffix removes a trailing win/loss record such as "(6 - 0 - 2)".
// The parenthesized part must hold only digits, hyphens and spaces, with at
// least one digit and one hyphen.
func StripRecordSuffix(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasSuffix(t, ")") {
		return t
	}
	open := strings.LastIndexByte(t, '(')
	if open <= 0 {
		return t
	}
	inner := t[open+1 : len(t)-1]
	digits, hyphens := 0, 0
	for _, r := range inner {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-':
			hyphens++
		case r == ' ' || r == '\t':
		default:
			return t
		}
	}
	if digits == 0 || hyphens == 0 {
		return t
	}
	return strings.TrimSpace(t[:open])
}

// SanitizeTeamFilename turns a team name into a file stem. Whitespace runs
// become a single '_'; anything but ASCII letters, digits, '-' and '_' is dropped.
func SanitizeTeamFilename(name string, id uint32) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		switch {
		case r < 0x80 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastUnderscore = false
		case unicode.IsSpace(r):
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case r == '-':
			b.WriteByte('-')
			lastUnderscore = false
		case r == '_':
			if !lastUnderscore {
				b.WriteByte('_')
			}
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return fmt.Sprintf("team_%d", id)
	}
	return out
}

// LeadingDigits splits s into its leading ASCII digit run and the remainder.
func LeadingDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}

// FirstDigitRun skips to the first ASCII digit in s and returns the run starting there.
func FirstDigitRun(s string) string {
	i := strings.IndexAny(s, "0123456789")
	if i < 0 {
		return ""
	}
	d, _ := LeadingDigits(s[i:])
	return d
}

// DigitsOnly drops every byte that is not an ASCII digit.
func DigitsOnly(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
