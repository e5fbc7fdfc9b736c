package excel

import (
	"fmt"
	"math"
	"os"
	"reflect"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"kastelo.dev/rowexport"
)

// SheetName is the name of the single sheet in an exported workbook.
const SheetName = "Sheet1"

// Export writes records to a workbook at path, replacing any existing
// file. The first row holds the keys of the first record and every record
// follows as one row in that column order. An empty record set produces a
// workbook with an empty sheet.
func Export(records rowexport.RecordSet, path string) error {
	bs, err := XLSX(records)
	if err != nil {
		if ee, ok := err.(*ExportError); ok {
			ee.Path = path
		}
		return err
	}
	if err := os.WriteFile(path, bs, 0o644); err != nil {
		return &ExportError{Kind: IOError, Path: path, Err: err}
	}
	return nil
}

// XLSX returns the serialized workbook for records.
func XLSX(records rowexport.RecordSet) ([]byte, error) {
	xlsx := excelize.NewFile()
	defer xlsx.Close()

	_ = xlsx.SetAppProps(&excelize.AppProperties{
		Application: "kastelo.dev/rowexport",
		Company:     "Kastelo AB",
	})

	sheet := xlsx.GetSheetName(xlsx.GetActiveSheetIndex())
	if err := writeRecords(xlsx, sheet, records); err != nil {
		return nil, err
	}
	if sheet != SheetName {
		_ = xlsx.SetSheetName(sheet, SheetName)
	}

	// Increase size of window
	for i := range xlsx.WorkBook.BookViews.WorkBookView {
		xlsx.WorkBook.BookViews.WorkBookView[i].XWindow = "1000"
		xlsx.WorkBook.BookViews.WorkBookView[i].YWindow = "1000"
		xlsx.WorkBook.BookViews.WorkBookView[i].WindowWidth = 25000
		xlsx.WorkBook.BookViews.WorkBookView[i].WindowHeight = 25000 / 3 * 2
	}

	buf, err := xlsx.WriteToBuffer()
	if err != nil {
		return nil, &ExportError{Kind: SerializationError, Err: err}
	}
	return buf.Bytes(), nil
}

func writeRecords(xlsx *excelize.File, sheet string, records rowexport.RecordSet) error {
	if len(records) == 0 {
		return nil
	}

	header := rowexport.Header(records)
	if len(header) == 0 {
		return nil
	}
	if len(header) > excelize.MaxColumns {
		return &ExportError{
			Kind: SerializationError,
			Row:  1,
			Err:  fmt.Errorf("%w: %d, limit is %d", ErrTooManyColumns, len(header), excelize.MaxColumns),
		}
	}
	if len(records)+1 > excelize.TotalRows {
		return &ExportError{
			Kind: SerializationError,
			Err:  fmt.Errorf("%w: %d records, limit is %d", ErrTooManyRows, len(records), excelize.TotalRows-1),
		}
	}

	row := 1
	for i, name := range header {
		if err := setCell(xlsx, sheet, i+1, row, name); err != nil {
			return &ExportError{Kind: SerializationError, Row: row, Column: name, Err: err}
		}
	}
	if err := formatHeader(xlsx, sheet, header, headerStyle()); err != nil {
		return &ExportError{Kind: SerializationError, Row: row, Err: err}
	}

	for _, rec := range records {
		row++
		for i, v := range rowexport.Row(rec, header) {
			if err := setCell(xlsx, sheet, i+1, row, v); err != nil {
				return &ExportError{Kind: SerializationError, Row: row, Column: header[i], Err: err}
			}
		}
	}

	err := xlsx.SetPanes(sheet, &excelize.Panes{
		ActivePane:  "bottomLeft",
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
	})
	if err != nil {
		return &ExportError{Kind: SerializationError, Err: err}
	}
	return nil
}

// formatHeader styles row 1 and sizes the columns after the header names.
func formatHeader(xlsx *excelize.File, sheet string, header []string, st *excelize.Style) error {
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	style, err := xlsx.NewStyle(st)
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := xlsx.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return err
	}

	for i, name := range header {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := xlsx.SetColWidth(sheet, col, col, columnWidth(name)); err != nil {
			return err
		}
	}
	return nil
}

func columnWidth(name string) float64 {
	w := utf8.RuneCountInString(name) + 2
	switch {
	case w < 10:
		return 10
	case w > 50:
		return 50
	default:
		return float64(w)
	}
}

// setCell writes v to the cell at col, row. Nil values leave the cell
// blank.
func setCell(xlsx *excelize.File, sheet string, col, row int, v rowexport.Value) error {
	cv, err := cellValue(v)
	if err != nil || cv == nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return xlsx.SetCellValue(sheet, cell, cv)
}

func cellValue(v rowexport.Value) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		if n := utf8.RuneCountInString(v); n > excelize.TotalCellChars {
			return nil, fmt.Errorf("%w: %d characters, limit is %d", ErrCellTooLong, n, excelize.TotalCellChars)
		}
		return v, nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, time.Time, time.Duration:
		return v, nil
	case float32:
		if !finite(float64(v)) {
			return nil, fmt.Errorf("%w: %v", ErrNotFinite, v)
		}
		return v, nil
	case float64:
		if !finite(v) {
			return nil, fmt.Errorf("%w: %v", ErrNotFinite, v)
		}
		return v, nil
	default:
		return namedValue(v)
	}
}

// namedValue handles named types whose underlying type is a scalar, such
// as `type code int`, by converting to the underlying kind.
func namedValue(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return cellValue(rv.Float())
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return cellValue(rv.String())
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
