package htmltext

// Matcher recognizes a fixed ASCII literal in a stream of characters fed one
// at a time. It only restarts at position 1, which is exact for literals whose
// proper prefixes have no border longer than one character (all markers used
// by the extractors satisfy this).
type Matcher struct {
	pat  string
	pos  int
	fold bool
}

// NewMatcher creates a matcher for pattern. With fold set, ASCII letters
// compare case-insensitively; the pattern itself must then be lowercase.
func NewMatcher(pattern string, fold bool) *Matcher {
	return &Matcher{pat: pattern, fold: fold}
}

// Len is the pattern length in bytes.
func (m *Matcher) Len() int { return len(m.pat) }

// Reset drops any partial match.
func (m *Matcher) Reset() { m.pos = 0 }

// Feed advances the matcher by one character and reports whether it completed the pattern.
func (m *Matcher) Feed(r rune) bool {
	if len(m.pat) == 0 {
		return false
	}
	if r >= 0x80 {
		m.pos = 0
		return false
	}
	c := byte(r)
	if m.fold {
		c = lowerASCII(c)
	}
	if c == m.pat[m.pos] {
		m.pos++
		if m.pos == len(m.pat) {
			m.pos = 0
			return true
		}
		return false
	}
	if c == m.pat[0] {
		m.pos = 1
	} else {
		m.pos = 0
	}
	return false
}
