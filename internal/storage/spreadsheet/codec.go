package spreadsheet

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/devrev/employees-api/internal/model"
)

// DefaultSheet is the sheet name used for newly written workbooks.
const DefaultSheet = "Sheet1"

// Encode writes table as a single-sheet workbook: the header row followed by
// one row per employee.
func Encode(w io.Writer, table *model.Table, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if def := f.GetSheetName(0); def != sheet {
		if err := f.SetSheetName(def, sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	header := make([]interface{}, len(model.Columns))
	for i, c := range model.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{e.ID, e.Name, e.TimeOffBalance, e.Job, e.Address, e.RequestedTimeOff}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return nil
}

// Decode reads the first sheet of the workbook in r. The header must list the
// employee columns in order; blank rows are skipped.
func Decode(r io.Reader) (*model.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("not a readable workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheets[0])
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	table := &model.Table{Rows: make([]model.Employee, 0, len(rows)-1)}
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		e, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		table.Append(e)
	}
	return table, nil
}

func checkHeader(row []string) error {
	if len(row) < len(model.Columns) {
		return fmt.Errorf("header has %d columns, want %v", len(row), model.Columns)
	}
	for i, want := range model.Columns {
		if got := strings.TrimSpace(row[i]); got != want {
			return fmt.Errorf("header column %d is %q, want %q", i+1, got, want)
		}
	}
	for _, extra := range row[len(model.Columns):] {
		if strings.TrimSpace(extra) != "" {
			return fmt.Errorf("unexpected header column %q", extra)
		}
	}
	return nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// decodeRow trims numeric cells only. Text cells come back exactly as stored.
func decodeRow(row []string) (model.Employee, error) {
	raw := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	cell := func(i int) string {
		return strings.TrimSpace(raw(i))
	}

	var (
		e   model.Employee
		err error
	)
	if cell(0) == "" {
		return e, fmt.Errorf("%s is empty", model.ColumnID)
	}
	if e.ID, err = parseInt(model.ColumnID, cell(0)); err != nil {
		return e, err
	}
	e.Name = raw(1)
	if e.TimeOffBalance, err = parseFloat(model.ColumnTimeOffBalance, cell(2)); err != nil {
		return e, err
	}
	e.Job = raw(3)
	e.Address = raw(4)
	if e.RequestedTimeOff, err = parseInt(model.ColumnRequestedTimeOff, cell(5)); err != nil {
		return e, err
	}
	return e, nil
}

// parseInt accepts integral values written as floats ("3.0").
func parseInt(column, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s %q is not an integer", column, s)
	}
	return int(v), nil
}

func parseFloat(column, s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", column, s)
	}
	return v, nil
}
