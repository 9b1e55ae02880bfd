package dataset

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet training data is written to and read from.
const SheetName = "Sheet1"

// WriteXLSX writes rows in the CSV layout to a spreadsheet so the team can
// review generated labels.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	header := Header()
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &cells); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for n, r := range rows {
		rec := r.Record()
		vals := make([]interface{}, len(rec))
		for i, s := range rec {
			if i < len(r.Features) {
				vals[i] = r.Features[i]
			} else {
				vals[i] = s
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &vals); err != nil {
			return fmt.Errorf("write row %d: %w", n+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadXLSX reads rows written by WriteXLSX, possibly after manual edits.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	records, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrHeaderMismatch)
	}

	want := Header()
	if len(records[0]) != len(want) {
		return nil, fmt.Errorf("%w: got %d columns", ErrHeaderMismatch, len(records[0]))
	}
	for i := range want {
		if records[0][i] != want[i] {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrHeaderMismatch, i, records[0][i], want[i])
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for n, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		row, err := ParseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
