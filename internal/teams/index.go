package teams

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PrefixMatcher finds the longest known team name at the start of s.
// rest is the trimmed text after the matched name.
type PrefixMatcher interface {
	SplitPrefix(s string) (team, rest string, ok bool)
}

// Linear tries every name, longest first.
type Linear struct {
	names []string
}

// NewLinear builds a linear matcher over the directory's names.
func NewLinear(d Directory) *Linear {
	return &Linear{names: byLengthDesc(d.Names())}
}

// SplitPrefix implements PrefixMatcher.
func (l *Linear) SplitPrefix(s string) (string, string, bool) {
	return firstPrefix(l.names, s)
}

// Index buckets names by their lowercased first character. Within a bucket
// longer names come first, so "Stormriders" is tried before "Storm".
// It is read-only after construction and safe for concurrent use.
type Index struct {
	buckets map[rune][]string
}

// NewIndex builds an index over the directory's names.
func NewIndex(d Directory) *Index {
	buckets := make(map[rune][]string, 32)
	for _, name := range d.Names() {
		if name == "" {
			continue
		}
		k := bucketKey(name)
		buckets[k] = append(buckets[k], name)
	}
	for k, v := range buckets {
		buckets[k] = byLengthDesc(v)
	}
	return &Index{buckets: buckets}
}

// SplitPrefix implements PrefixMatcher.
func (x *Index) SplitPrefix(s string) (string, string, bool) {
	if s == "" {
		return "", "", false
	}
	return firstPrefix(x.buckets[bucketKey(s)], s)
}

// SplitTeamName splits a fused "Team Player" segment. When no known team
// prefixes it, the last two fields are taken as the name and everything
// before them as the team; with fewer than two fields it fails.
func SplitTeamName(seg string, m PrefixMatcher) (team, name string, ok bool) {
	if t, rest, found := m.SplitPrefix(seg); found {
		return t, rest, true
	}
	fields := strings.Fields(seg)
	if len(fields) < 2 {
		return "", "", false
	}
	cut := len(fields) - 2
	return strings.Join(fields[:cut], " "), strings.Join(fields[cut:], " "), true
}

func firstPrefix(names []string, s string) (string, string, bool) {
	for _, n := range names {
		if n != "" && strings.HasPrefix(s, n) {
			return n, strings.TrimSpace(s[len(n):]), true
		}
	}
	return "", "", false
}

func byLengthDesc(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

func bucketKey(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	if r < utf8.RuneSelf {
		return unicode.ToLower(r)
	}
	return r
}
