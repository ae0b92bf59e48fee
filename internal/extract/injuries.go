package extract

import (
	"strings"

	"github.com/fortuna/brutalball/internal/htmltext"
	"github.com/fortuna/brutalball/internal/teams"
)

// InjuryHeaders is the fixed 12-column injury layout.
var InjuryHeaders = []string{"S", "W", "Victim Team", "Victim", "DUR", "SR0", "SR1", "Type", "Offender Team", "Offender", "BRU", "Bounty"}

// BountyCollected is the bounty column value for events that paid a bounty.
const BountyCollected = "BOUNTY COLLECTED"

// Injury log markers. Folded markers are lowercase.
const (
	markDur     = " DUR "
	markBy      = " by "
	markBru     = " BRU "
	markDrops   = "drops from "
	markTo      = " to "
	markBounty  = "bounty collected"
	markSR      = " SR "
	eventFilter = " DUR "
)

// Variant selects the mechanism used to walk an injury line. All variants
// produce identical rows.
type Variant int

const (
	// Reference decodes the whole line and searches it with string indexing.
	Reference Variant = iota
	// FastBase streams visible characters and scans team names linearly.
	FastBase
	// FastIdx streams visible characters and uses the bucketed team index.
	FastIdx
)

func (v Variant) String() string {
	switch v {
	case Reference:
		return "reference"
	case FastBase:
		return "fast-base"
	case FastIdx:
		return "fast-idx"
	}
	return "unknown"
}

// Variants lists every parser variant.
var Variants = []Variant{Reference, FastBase, FastIdx}

// InjuryParser parses injury log lines against a fixed team directory.
// It is immutable and safe to share between goroutines.
type InjuryParser struct {
	variant Variant
	teams   teams.PrefixMatcher
}

// NewInjuryParser builds a parser of the given variant over dir.
func NewInjuryParser(v Variant, dir teams.Directory) *InjuryParser {
	p := &InjuryParser{variant: v}
	if v == FastIdx {
		p.teams = teams.NewIndex(dir)
	} else {
		p.teams = teams.NewLinear(dir)
	}
	return p
}

// Variant reports the parser's mechanism.
func (p *InjuryParser) Variant() Variant { return p.variant }

// ParseLine parses one <br>-delimited chunk. It returns false when the chunk
// is not an injury event (no week, no victim segment or no duration).
func (p *InjuryParser) ParseLine(line, season string) ([]string, bool) {
	var cur lineCursor
	if p.variant == Reference {
		cur = newTextCursor(htmltext.Visible(line))
	} else {
		cur = newStreamCursor(line)
	}
	return parseInjury(cur, season, p.teams)
}

// ParseReference parses a line with the reference mechanism.
func ParseReference(line, season string, dir teams.Directory) ([]string, bool) {
	return parseInjury(newTextCursor(htmltext.Visible(line)), season, teams.NewLinear(dir))
}

// ParseFastBase parses a line with streaming matchers and a linear team scan.
func ParseFastBase(line, season string, dir teams.Directory) ([]string, bool) {
	return parseInjury(newStreamCursor(line), season, teams.NewLinear(dir))
}

// ParseFastIdx parses a line with streaming matchers and a prebuilt team index.
func ParseFastIdx(line, season string, idx *teams.Index) ([]string, bool) {
	return parseInjury(newStreamCursor(line), season, idx)
}

// ExtractInjuries parses every event chunk of the injury log page.
func (p *InjuryParser) ExtractInjuries(doc, fallbackSeason string) Bundle {
	season := SeasonFromText(doc)
	if season == "" {
		season = fallbackSeason
	}
	out := Bundle{Headers: append([]string(nil), InjuryHeaders...)}
	for _, chunk := range EventChunks(doc) {
		if row, ok := p.ParseLine(chunk, season); ok {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// EventChunks splits the log on <br> and keeps chunks that look like events.
func EventChunks(doc string) []string {
	var out []string
	for _, chunk := range strings.Split(doc, "<br>") {
		if strings.Contains(chunk, eventFilter) {
			out = append(out, chunk)
		}
	}
	return out
}

// SeasonFromText reads the digits right after the first "season " in doc.
func SeasonFromText(doc string) string {
	i := htmltext.IndexFold(doc, "season ", 0)
	if i < 0 {
		return ""
	}
	d, _ := htmltext.LeadingDigits(doc[i+len("season "):])
	return d
}

// injuryTail is what follows the brutality value: the optional SR delta
// clause and the bounty marker.
type injuryTail struct {
	dropsSeen bool
	sr0, sr1  string
	bounty    bool
}

// lineCursor walks the visible text of one line. Digit runs never consume
// the character that ends them.
type lineCursor interface {
	// skipPast consumes through the first occurrence of c.
	skipPast(c byte) bool
	// digits consumes a leading ASCII digit run.
	digits() string
	// until consumes through the first occurrence of marker and returns the
	// text before it. Without a match it consumes and returns everything.
	until(marker string, fold bool) (string, bool)
	// tail consumes the rest of the line.
	tail() injuryTail
}

func parseInjury(cur lineCursor, season string, tm teams.PrefixMatcher) ([]string, bool) {
	if !cur.skipPast('W') {
		return nil, false
	}
	week := cur.digits()
	if week == "" {
		return nil, false
	}

	seg, found := cur.until(markDur, false)
	seg = strings.TrimSpace(seg)
	if !found || seg == "" {
		return nil, false
	}
	victimTeam, victim, ok := teams.SplitTeamName(seg, tm)
	if !ok {
		return nil, false
	}
	victim, srFromName := peelSR(victim)

	dur := cur.digits()
	if dur == "" {
		return nil, false
	}

	typ, _ := cur.until(markBy, true)
	typ = strings.TrimSpace(typ)

	offSeg, _ := cur.until(markBru, false)
	offSeg = strings.TrimSpace(offSeg)
	if len(offSeg) >= 3 && strings.EqualFold(offSeg[:3], "by ") {
		offSeg = strings.TrimSpace(offSeg[3:])
	}
	offTeam, offender, ok := teams.SplitTeamName(offSeg, tm)
	if !ok {
		offTeam, offender = offSeg, ""
	}

	bru := cur.digits()
	t := cur.tail()

	if !t.dropsSeen && htmltext.ContainsFold(typ, "kill") {
		typ = "KILLED"
	}
	sr0 := t.sr0
	if sr0 == "" {
		sr0 = srFromName
	}
	bounty := ""
	if t.bounty {
		bounty = BountyCollected
	}

	return []string{season, week, victimTeam, victim, dur, sr0, t.sr1, typ, offTeam, offender, bru, bounty}, true
}

// peelSR removes a trailing " SR <digits>" from a victim name, which one
// event shape uses to carry the pre-injury rating.
func peelSR(name string) (string, string) {
	i := strings.LastIndex(name, markSR)
	if i < 0 {
		return name, ""
	}
	d, _ := htmltext.LeadingDigits(strings.TrimSpace(name[i+len(markSR):]))
	if d == "" {
		return name, ""
	}
	return strings.TrimSpace(name[:i]), d
}

// textCursor searches a fully decoded line.
type textCursor struct {
	s string
}

func newTextCursor(s string) *textCursor { return &textCursor{s: s} }

func (c *textCursor) skipPast(b byte) bool {
	i := strings.IndexByte(c.s, b)
	if i < 0 {
		c.s = ""
		return false
	}
	c.s = c.s[i+1:]
	return true
}

func (c *textCursor) digits() string {
	d, rest := htmltext.LeadingDigits(c.s)
	c.s = rest
	return d
}

func (c *textCursor) until(marker string, fold bool) (string, bool) {
	var i int
	if fold {
		i = htmltext.IndexFold(c.s, marker, 0)
	} else {
		i = strings.Index(c.s, marker)
	}
	if i < 0 {
		out := c.s
		c.s = ""
		return out, false
	}
	out := c.s[:i]
	c.s = c.s[i+len(marker):]
	return out, true
}

func (c *textCursor) tail() injuryTail {
	rest := c.s
	c.s = ""
	t := injuryTail{bounty: htmltext.IndexFold(rest, markBounty, 0) >= 0}
	i := htmltext.IndexFold(rest, markDrops, 0)
	if i < 0 {
		return t
	}
	t.dropsSeen = true
	after := i + len(markDrops)
	t.sr0, _ = htmltext.LeadingDigits(rest[after:])
	after += len(t.sr0)
	if j := htmltext.IndexFold(rest, markTo, after); j >= 0 {
		t.sr1, _ = htmltext.LeadingDigits(rest[j+len(markTo):])
	}
	return t
}

// streamCursor feeds scanner output through incremental matchers without
// materializing the line.
type streamCursor struct {
	sc      *htmltext.Scanner
	peeked  rune
	hasPeek bool
	buf     strings.Builder
}

func newStreamCursor(line string) *streamCursor {
	return &streamCursor{sc: htmltext.NewScanner(line)}
}

func (c *streamCursor) next() (rune, bool) {
	if c.hasPeek {
		c.hasPeek = false
		return c.peeked, true
	}
	return c.sc.Next()
}

func (c *streamCursor) unread(r rune) {
	c.peeked, c.hasPeek = r, true
}

func (c *streamCursor) skipPast(b byte) bool {
	for {
		r, ok := c.next()
		if !ok {
			return false
		}
		if r == rune(b) {
			return true
		}
	}
}

func (c *streamCursor) digits() string {
	c.buf.Reset()
	for {
		r, ok := c.next()
		if !ok {
			break
		}
		if r < '0' || r > '9' {
			c.unread(r)
			break
		}
		c.buf.WriteRune(r)
	}
	return c.buf.String()
}

func (c *streamCursor) until(marker string, fold bool) (string, bool) {
	m := htmltext.NewMatcher(marker, fold)
	c.buf.Reset()
	for {
		r, ok := c.next()
		if !ok {
			return c.buf.String(), false
		}
		if m.Feed(r) {
			// The marker's first len-1 bytes were already buffered.
			s := c.buf.String()
			return s[:len(s)-(m.Len()-1)], true
		}
		c.buf.WriteRune(r)
	}
}

func (c *streamCursor) tail() injuryTail {
	const (
		seekDrops = iota
		readSR0
		seekTo
		readSR1
		done
	)
	var t injuryTail
	var sr0, sr1 strings.Builder
	drops := htmltext.NewMatcher(markDrops, true)
	to := htmltext.NewMatcher(markTo, true)
	bounty := htmltext.NewMatcher(markBounty, true)

	phase := seekDrops
	for {
		r, ok := c.next()
		if !ok {
			break
		}
		if bounty.Feed(r) {
			t.bounty = true
		}
		switch phase {
		case seekDrops:
			if drops.Feed(r) {
				t.dropsSeen = true
				phase = readSR0
			}
		case readSR0:
			if r >= '0' && r <= '9' {
				sr0.WriteRune(r)
				break
			}
			phase = seekTo
			if to.Feed(r) {
				phase = readSR1
			}
		case seekTo:
			if to.Feed(r) {
				phase = readSR1
			}
		case readSR1:
			if r >= '0' && r <= '9' {
				sr1.WriteRune(r)
				break
			}
			phase = done
		}
	}
	t.sr0, t.sr1 = sr0.String(), sr1.String()
	return t
}
