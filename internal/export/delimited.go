// Package export writes scraped tables as CSV, TSV or XLSX files.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fortuna/brutalball/internal/extract"
)

// NumberCol is the roster column that carries the "#" jersey prefix.
const NumberCol = 1

// Format is an export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts csv, tsv or xlsx in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatTSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Ext is the file extension without the dot.
func (f Format) Ext() string { return string(f) }

// Sep is the field separator of a delimited format.
func (f Format) Sep() rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}

// Options controls delimited output.
type Options struct {
	Sep            rune
	IncludeHeaders bool
	// StripHash removes a leading '#' from NumberCol.
	StripHash bool
}

// OptionsFor returns the options an export of page uses.
func OptionsFor(p extract.Page, f Format, includeHeaders, keepHash bool) Options {
	return Options{
		Sep:            f.Sep(),
		IncludeHeaders: includeHeaders,
		StripHash:      p == extract.PagePlayers && !keepHash,
	}
}

// WriteDelimited encodes b to w. Fields are quoted only when they contain the
// separator, a double quote or a line break; embedded quotes are doubled.
func WriteDelimited(w io.Writer, b extract.Bundle, opts Options) error {
	if opts.Sep == 0 {
		opts.Sep = ','
	}
	bw := bufio.NewWriter(w)
	if opts.IncludeHeaders && len(b.Headers) > 0 {
		writeRow(bw, b.Headers, opts.Sep, false)
	}
	for _, r := range b.Rows {
		writeRow(bw, r, opts.Sep, opts.StripHash)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing delimited rows: %w", err)
	}
	return nil
}

func writeRow(w *bufio.Writer, row []string, sep rune, stripHash bool) {
	for i, field := range row {
		if i > 0 {
			w.WriteRune(sep)
		}
		if stripHash && i == NumberCol && len(row) > 1 {
			field = strings.TrimPrefix(field, "#")
		}
		if needsQuotes(field, sep) {
			w.WriteByte('"')
			w.WriteString(strings.ReplaceAll(field, `"`, `""`))
			w.WriteByte('"')
		} else {
			w.WriteString(field)
		}
	}
	w.WriteByte('\n')
}

func needsQuotes(field string, sep rune) bool {
	return strings.ContainsRune(field, sep) || strings.ContainsAny(field, "\"\n\r")
}

// ReadDelimited parses quoted CSV/TSV text. Blank lines are skipped and rows
// may have differing lengths.
func ReadDelimited(r io.Reader, sep rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading delimited rows: %w", err)
	}
	return rows, nil
}

// DetectHeaders reports whether the first row is the page's header row.
func DetectHeaders(p extract.Page, rows [][]string) bool {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return false
	}
	first := rows[0][0]
	switch p {
	case extract.PageGameResults:
		return first == extract.GameResultHeaders[0]
	case extract.PageInjuries:
		return first == extract.InjuryHeaders[0]
	case extract.PagePlayers:
		return first == "Name"
	case extract.PageTeams:
		return strings.EqualFold(first, "id")
	}
	return false
}

// ReadBundle reads a delimited file, lifting the header row when present.
func ReadBundle(path string, p extract.Page) (extract.Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return extract.Bundle{}, err
	}
	defer f.Close()

	rows, err := ReadDelimited(f, sepForPath(path))
	if err != nil {
		return extract.Bundle{}, fmt.Errorf("%s: %w", path, err)
	}
	var b extract.Bundle
	if DetectHeaders(p, rows) {
		b.Headers, rows = rows[0], rows[1:]
	}
	b.Rows = rows
	return b, nil
}

// WriteFile writes b to path in format f, creating parent directories.
func WriteFile(path string, b extract.Bundle, f Format, opts Options) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if f == FormatXLSX {
		return WriteXLSX(path, b, opts)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteDelimited(out, b, opts); err != nil {
		out.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return out.Close()
}

// EnsureDir creates dir unless it already exists as a directory.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if st, err := os.Stat(dir); err == nil && !st.IsDir() {
		return fmt.Errorf("path exists but is not a directory: %s", dir)
	}
	return os.MkdirAll(dir, 0o755)
}

func sepForPath(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}
