package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/devrev/employees-api/internal/model"
)

// workbook builds an xlsx with the given rows on its first sheet.
func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func header() []interface{} {
	return []interface{}{"ID", "Name", "TimeOffBalance", "Job", "Address", "RequestedTimeOff"}
}

func TestEncodeDecode_EmptyTableKeepsHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &model.Table{}, ""))

	table, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestDecode_AcceptsFloatIntegersAndBlankRows(t *testing.T) {
	buf := workbook(t,
		header(),
		[]interface{}{3.0, "Cy", 7, "Ops", "Elm St", "2"},
		[]interface{}{"", "", "", "", "", ""},
		[]interface{}{5, "Di", "", "QA", "", ""},
	)

	table, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, model.Employee{ID: 3, Name: "Cy", TimeOffBalance: 7, Job: "Ops", Address: "Elm St", RequestedTimeOff: 2}, table.Rows[0])
	assert.Equal(t, model.Employee{ID: 5, Name: "Di", Job: "QA"}, table.Rows[1])
}

func TestDecode_RejectsMalformedContent(t *testing.T) {
	tests := []struct {
		name string
		rows [][]interface{}
		want string
	}{
		{
			name: "wrong header order",
			rows: [][]interface{}{{"Name", "ID", "TimeOffBalance", "Job", "Address", "RequestedTimeOff"}},
			want: "header column 1",
		},
		{
			name: "missing header column",
			rows: [][]interface{}{{"ID", "Name"}},
			want: "header has 2 columns",
		},
		{
			name: "extra header column",
			rows: [][]interface{}{append(header(), "Manager")},
			want: "unexpected header column",
		},
		{
			name: "non-integer id",
			rows: [][]interface{}{header(), {"abc", "X", 1, "", "", 0}},
			want: "ID",
		},
		{
			name: "fractional requested time off",
			rows: [][]interface{}{header(), {1, "X", 1, "", "", 1.5}},
			want: "RequestedTimeOff",
		},
		{
			name: "missing id",
			rows: [][]interface{}{header(), {"", "X", 1, "", "", 0}},
			want: "ID is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(workbook(t, tt.rows...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecode_EmptySheet(t *testing.T) {
	_, err := Decode(workbook(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestDecode_NotAWorkbook(t *testing.T) {
	_, err := Decode(bytes.NewBufferString("plain text"))
	assert.Error(t, err)
}

func TestEncodeDecode_KeepsTextWhitespace(t *testing.T) {
	want := &model.Table{Rows: []model.Employee{
		{ID: 1, Name: " Ana ", TimeOffBalance: 1.5, Job: "Eng\n", Address: "  ", RequestedTimeOff: 2},
		{ID: 2, Name: "Bo", Job: "\tOps", Address: "line one\nline two"},
	}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, want, ""))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, want.Rows, got.Rows)
}

func TestDecode_TrimsNumericCells(t *testing.T) {
	buf := workbook(t, header(), []interface{}{" 7 ", " Ana", " 2.5 ", "Eng", "x", " 3"})

	table, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, model.Employee{ID: 7, Name: " Ana", TimeOffBalance: 2.5, Job: "Eng", Address: "x", RequestedTimeOff: 3}, table.Rows[0])
}
