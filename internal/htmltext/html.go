package htmltext

import "strings"

// Block is a span into a document covering an opening tag through the end of
// its closing tag.
type Block struct {
	Start int
	End   int
}

// Text returns the block's bytes from doc.
func (b Block) Text(doc string) string {
	return doc[b.Start:b.End]
}

// ToLowerASCII lowercases ASCII letters and leaves every other byte alone, so
// byte offsets into the result line up with the input.
func ToLowerASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				b[j] = lowerASCII(b[j])
			}
			return string(b)
		}
	}
	return s
}

func lowerASCII(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// IndexFold returns the index of the first ASCII case-insensitive occurrence
// of needle in s at or after from, or -1.
func IndexFold(s, needle string, from int) int {
	if from < 0 {
		from = 0
	}
	n := len(needle)
	if n == 0 {
		if from <= len(s) {
			return from
		}
		return -1
	}
	first := lowerASCII(needle[0])
	for i := from; i+n <= len(s); i++ {
		if lowerASCII(s[i]) != first {
			continue
		}
		j := 1
		for j < n && lowerASCII(s[i+j]) == lowerASCII(needle[j]) {
			j++
		}
		if j == n {
			return i
		}
	}
	return -1
}

// ContainsFold reports whether needle occurs in s, ignoring ASCII case.
func ContainsFold(s, needle string) bool {
	return IndexFold(s, needle, 0) >= 0
}

// SliceBetween finds the first tag starting with open, skips past that tag's
// '>', and returns everything up to the next occurrence of close.
func SliceBetween(doc, open, close string) (string, bool) {
	o := IndexFold(doc, open, 0)
	if o < 0 {
		return "", false
	}
	gt := strings.IndexByte(doc[o:], '>')
	if gt < 0 {
		return "", false
	}
	after := o + gt + 1
	c := IndexFold(doc, close, after)
	if c < 0 {
		return "", false
	}
	return doc[after:c], true
}

// NextTagBlock locates the next block at or after from that opens with open
// and ends with close. Callers walk every block by feeding End back in as from.
func NextTagBlock(doc, open, close string, from int) (Block, bool) {
	if from > len(doc) {
		return Block{}, false
	}
	start := IndexFold(doc, open, from)
	if start < 0 {
		return Block{}, false
	}
	gt := strings.IndexByte(doc[start:], '>')
	if gt < 0 {
		return Block{}, false
	}
	openEnd := start + gt + 1
	c := IndexFold(doc, close, openEnd)
	if c < 0 {
		return Block{}, false
	}
	return Block{Start: start, End: c + len(close)}, true
}

// InnerAfterOpenTag returns the text between the first '>' and the last '<' of
// block, or "" when there is none.
func InnerAfterOpenTag(block string) string {
	oe := strings.IndexByte(block, '>')
	cs := strings.LastIndexByte(block, '<')
	if oe < 0 || cs < 0 || cs <= oe {
		return ""
	}
	return block[oe+1 : cs]
}

// OpenerText returns the opening tag of block up to (not including) its first '>'.
func OpenerText(block string) string {
	if i := strings.IndexByte(block, '>'); i >= 0 {
		return block[:i]
	}
	return block
}

// StripTags removes every <...> span and normalizes whitespace. It does not
// track quotes; use it on cell text that has already been isolated.
func StripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return NormalizeWhitespace(b.String())
}

// CellText is the cleanup applied to every extracted cell: entities first, then tags.
func CellText(inner string) string {
	return StripTags(NormalizeEntities(inner))
}
