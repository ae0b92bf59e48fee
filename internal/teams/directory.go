// Package teams holds the league's team directory and the prefix matchers used
// to pull a team name off the front of fused "TeamPlayer" text.
package teams

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxTeams bounds team ids: every id lies in [0, MaxTeams).
const MaxTeams = 32

// Team is one entry of the league directory.
type Team struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// Directory is the ordered team list for one scrape session.
type Directory []Team

// Names returns the team names in directory order.
func (d Directory) Names() []string {
	out := make([]string, 0, len(d))
	for _, t := range d {
		out = append(out, t.Name)
	}
	return out
}

// Lookup returns the team with the given id.
func (d Directory) Lookup(id uint32) (Team, bool) {
	for _, t := range d {
		if t.ID == id {
			return t, true
		}
	}
	return Team{}, false
}

// IDs returns every team id in directory order.
func (d Directory) IDs() []uint32 {
	out := make([]uint32, 0, len(d))
	for _, t := range d {
		out = append(out, t.ID)
	}
	return out
}

// Normalize sorts by id, drops duplicate ids (first wins), and drops
// out-of-range ids and empty names.
func (d Directory) Normalize() Directory {
	out := make(Directory, 0, len(d))
	for _, t := range d {
		if t.ID < MaxTeams && strings.TrimSpace(t.Name) != "" {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	dedup := out[:0]
	for i, t := range out {
		if i > 0 && t.ID == dedup[len(dedup)-1].ID {
			continue
		}
		dedup = append(dedup, t)
	}
	return dedup
}

// ParseIDs parses a team id selection such as "1-3,5,9".
func ParseIDs(s string) ([]uint32, error) {
	seen := make(map[uint32]bool)
	var ids []uint32
	add := func(id uint64) error {
		if id >= MaxTeams {
			return fmt.Errorf("team id %d out of range (must be < %d)", id, MaxTeams)
		}
		if !seen[uint32(id)] {
			seen[uint32(id)] = true
			ids = append(ids, uint32(id))
		}
		return nil
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.ParseUint(strings.TrimSpace(lo), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid team id %q: %w", part, err)
		}
		if !isRange {
			if err := add(a); err != nil {
				return nil, err
			}
			continue
		}
		b, err := strconv.ParseUint(strings.TrimSpace(hi), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid team id range %q: %w", part, err)
		}
		if b < a {
			return nil, fmt.Errorf("invalid team id range %q: end before start", part)
		}
		for id := a; id <= b; id++ {
			if err := add(id); err != nil {
				return nil, err
			}
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no team ids in %q", s)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
