package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fortuna/brutalball/internal/extract"
)

const xlsxSheet = "Sheet1"

// WriteXLSX saves b as a single-sheet workbook. Headers are written when
// opts.IncludeHeaders is set; StripHash applies as for delimited output.
func WriteXLSX(path string, b extract.Bundle, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		return fmt.Errorf("opening xlsx stream: %w", err)
	}

	line := 1
	put := func(cells []string) error {
		row := make([]interface{}, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		addr, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		line++
		return sw.SetRow(addr, row)
	}

	if opts.IncludeHeaders && len(b.Headers) > 0 {
		if err := put(b.Headers); err != nil {
			return fmt.Errorf("writing xlsx headers: %w", err)
		}
	}
	for _, r := range b.Rows {
		if opts.StripHash && len(r) > NumberCol {
			r = append([]string(nil), r...)
			r[NumberCol] = strings.TrimPrefix(r[NumberCol], "#")
		}
		if err := put(r); err != nil {
			return fmt.Errorf("writing xlsx row %d: %w", line, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing xlsx: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// ReadXLSX loads the first sheet of a workbook as raw rows.
func ReadXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}
