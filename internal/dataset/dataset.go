package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/MikeSquared-Agency/vantage/internal/features"
	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

// ErrHeaderMismatch is returned when a file's columns differ from Header.
var ErrHeaderMismatch = errors.New("dataset header does not match the training contract")

// Row is one labelled training example.
type Row struct {
	Features features.Vector
	Label    ui.UIConfig
}

// LabelColumns are the target columns, categorical first.
var LabelColumns = func() []string {
	out := make([]string, 0, len(ui.CategoricalAttributes)+len(ui.BooleanAttributes))
	for _, a := range ui.CategoricalAttributes {
		out = append(out, string(a))
	}
	for _, a := range ui.BooleanAttributes {
		out = append(out, string(a))
	}
	return out
}()

// Header is the full column layout: features then labels.
func Header() []string {
	h := make([]string, 0, features.Size+len(LabelColumns))
	h = append(h, features.Columns[:]...)
	return append(h, LabelColumns...)
}

// Record renders r in Header order. Features are integers in practice and
// are written without a decimal point.
func (r Row) Record() []string {
	rec := make([]string, 0, features.Size+len(LabelColumns))
	for _, f := range r.Features {
		rec = append(rec, strconv.FormatFloat(f, 'f', -1, 64))
	}
	for _, a := range ui.CategoricalAttributes {
		v, _ := r.Label.Value(a)
		rec = append(rec, v)
	}
	for _, a := range ui.BooleanAttributes {
		v, _ := r.Label.Flag(a)
		if v {
			rec = append(rec, "1")
		} else {
			rec = append(rec, "0")
		}
	}
	return rec
}

// ParseRecord is the inverse of Record.
func ParseRecord(rec []string) (Row, error) {
	if len(rec) != features.Size+len(LabelColumns) {
		return Row{}, fmt.Errorf("expected %d fields, got %d", features.Size+len(LabelColumns), len(rec))
	}
	var r Row
	for i := 0; i < features.Size; i++ {
		f, err := strconv.ParseFloat(rec[i], 64)
		if err != nil {
			return Row{}, fmt.Errorf("column %s: %w", features.Columns[i], err)
		}
		r.Features[i] = f
	}
	i := features.Size
	for _, a := range ui.CategoricalAttributes {
		if rec[i] == "" {
			return Row{}, fmt.Errorf("column %s: empty label", a)
		}
		r.Label, _ = r.Label.WithValue(a, rec[i])
		i++
	}
	for _, a := range ui.BooleanAttributes {
		var v bool
		switch rec[i] {
		case "1", "true", "True":
			v = true
		case "0", "false", "False":
		default:
			return Row{}, fmt.Errorf("column %s: %q is not 0/1", a, rec[i])
		}
		r.Label, _ = r.Label.WithFlag(a, v)
		i++
	}
	return r, nil
}

// WriteCSV writes a header line followed by rows.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads rows written by WriteCSV. The header must match exactly.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = features.Size + len(LabelColumns)

	header, err := cr.Read()
	if errors.Is(err, csv.ErrFieldCount) {
		return nil, fmt.Errorf("%w: got %d columns", ErrHeaderMismatch, len(header))
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	want := Header()
	for i := range want {
		if header[i] != want[i] {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrHeaderMismatch, i, header[i], want[i])
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		row, err := ParseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
