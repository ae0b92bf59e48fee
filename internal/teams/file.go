package teams

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultFile is the local team directory cache.
const DefaultFile = "team_names.txt"

// Read parses "id,name" lines.
func Read(r io.Reader) (Directory, error) {
	var dir Directory
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		idStr, name, ok := strings.Cut(text, ",")
		if !ok {
			return nil, fmt.Errorf("line %d: malformed team entry %q", line, text)
		}
		id, err := strconv.ParseUint(strings.TrimSpace(idStr), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid team id: %w", line, err)
		}
		dir = append(dir, Team{ID: uint32(id), Name: name})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading team list: %w", err)
	}
	return dir, nil
}

// Write emits one "id,name" line per team.
func Write(w io.Writer, d Directory) error {
	bw := bufio.NewWriter(w)
	for _, t := range d {
		if _, err := fmt.Fprintf(bw, "%d,%s\n", t.ID, t.Name); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadFile loads a directory from path.
func ReadFile(path string) (Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// WriteFile stores d at path, replacing any previous content.
func WriteFile(path string, d Directory) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, d); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
