package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisible(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"quoted gt in attribute", `<a href="x>y">text</a>`, "text"},
		{"single quoted gt", `<a title='a>b'>ok</a>`, "ok"},
		{"entity becomes space", "A&nbsp;B", "A B"},
		{"unknown entity becomes space", "A&#8217;B", "A B"},
		{"unterminated entity", "A&nbsp", "A "},
		{"whitespace collapses", "a \t\r\n b", "a b"},
		{"tag between words", "W3 <b>Storm</b>  Thudd", "W3 Storm Thudd"},
		{"multibyte", "Ærø <i>Ω</i>", "Ærø Ω"},
		{"unterminated tag", "abc<span class='x", "abc"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Visible(tc.in))
		})
	}
}

func TestScannerNextIsExhaustedOnce(t *testing.T) {
	sc := NewScanner("<p>x</p>")
	r, ok := sc.Next()
	require.True(t, ok)
	require.Equal(t, 'x', r)
	_, ok = sc.Next()
	require.False(t, ok)
	_, ok = sc.Next()
	require.False(t, ok)
}

func TestMatcher(t *testing.T) {
	feed := func(m *Matcher, s string) int {
		for i, r := range s {
			if m.Feed(r) {
				return i + 1 - m.Len()
			}
		}
		return -1
	}

	assert.Equal(t, 5, feed(NewMatcher(" DUR ", false), "Storm DUR 3"))
	assert.Equal(t, 2, feed(NewMatcher(" DUR ", false), "x  DUR 3"), "restart on first pattern byte")
	assert.Equal(t, -1, feed(NewMatcher(" DUR ", false), "Storm dur 3"))
	assert.Equal(t, 4, feed(NewMatcher(" by ", true), "Cut  BY Foo"))
	assert.Equal(t, -1, feed(NewMatcher(" by ", true), "Cut bÿ Foo"))
	assert.Equal(t, 0, feed(NewMatcher("drops from ", true), "Drops from 12 to 10"))
}

func TestMatcherReset(t *testing.T) {
	m := NewMatcher("ab", false)
	require.False(t, m.Feed('a'))
	m.Reset()
	require.False(t, m.Feed('b'))
	require.False(t, m.Feed('a'))
	require.True(t, m.Feed('b'))
}
