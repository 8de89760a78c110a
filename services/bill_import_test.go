package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes a Title sheet and a Bill Quantity sheet with the given
// item rows (header row included).
func buildWorkbook(t *testing.T, withTitle bool, items [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	if withTitle {
		require.NoError(t, f.SetSheetName(first, titleSheetName))
		title := [][]any{
			{"Name of Work", "Community Hall, Ward 7"},
			{"Agency", "Sharma Builders"},
			{"Date of Bill", "2024-03-15"},
			{"Tender Premium", "4.5%"},
			{"Ignored", ""},
		}
		for i, row := range title {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, f.SetSheetRow(titleSheetName, cell, &row))
		}
		_, err := f.NewSheet(billQuantitySheetName)
		require.NoError(t, err)
	} else {
		require.NoError(t, f.SetSheetName(first, billQuantitySheetName))
	}

	for i, row := range items {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(billQuantitySheetName, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseBillWorkbook(t *testing.T) {
	data := buildWorkbook(t, true, [][]any{
		{"Item No", "Description", "Unit", "Qty", "Rate", "Prev Qty"},
		{"1.0", "Earthwork", "", "", "", ""},
		{1, "Excavation in ordinary soil", "cum", 120.5, 245, 20},
		{"1.1", "Disposal within 50 m", "cum", "1,200", "18.50", ""},
		{2, "", "cum", 10, 10, ""},
		{3, "Dewatering", "LS", 0, 0, ""},
	})

	bill, err := ParseBillWorkbook(bytes.NewReader(data))

	require.NoError(t, err)
	assert.Equal(t, "Community Hall, Ward 7", bill.Header.ProjectName)
	assert.Equal(t, "Sharma Builders", bill.Header.ContractorName)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), bill.Header.BillDate)
	assert.Equal(t, 4.5, bill.Header.TenderPremium)

	require.Len(t, bill.Items, 2, "heading, blank-description and zero rows are dropped")
	assert.Equal(t, LineItem{
		ItemNo: "1", Description: "Excavation in ordinary soil", Unit: "cum",
		Quantity: 120.5, Rate: 245, PreviousQuantity: 20, IndentLevel: 1,
	}, bill.Items[0])
	assert.Equal(t, "1.1", bill.Items[1].ItemNo)
	assert.Equal(t, 1200.0, bill.Items[1].Quantity)
	assert.Equal(t, 18.5, bill.Items[1].Rate)
	assert.Equal(t, 2, bill.Items[1].IndentLevel)
}

func TestParseBillWorkbook_WithoutTitleSheet(t *testing.T) {
	data := buildWorkbook(t, false, [][]any{
		{"S.No", "Particulars", "Unit", "Quantity", "Rate"},
		{"1", "Plastering", "sqm", 40, 95},
	})

	bill, err := ParseBillWorkbook(bytes.NewReader(data))

	require.NoError(t, err)
	assert.Empty(t, bill.Header.ProjectName)
	require.Len(t, bill.Items, 1)
	assert.Equal(t, "Plastering", bill.Items[0].Description)
	assert.Equal(t, 3800.0, bill.Items[0].Amount())
}

func TestParseBillWorkbook_UnreadableNumbers(t *testing.T) {
	data := buildWorkbook(t, false, [][]any{
		{"Item No", "Description", "Qty", "Rate", "Prev Qty"},
		{"1", "Plastering", 40, 95, ""},
		{"2", "Painting", "twelve", 60, ""},
		{"3", "Skirting", 8, "n/a", "-"},
		{"4", "", "ignored", "", ""},
	})

	bill, err := ParseBillWorkbook(bytes.NewReader(data))

	assert.Nil(t, bill)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Problems, 3, "rows without a description are not checked")
	assert.Equal(t, Problem{Field: "quantity", Message: `row 3: Qty "twelve" is not a number`}, ve.Problems[0])
	assert.Equal(t, Problem{Field: "rate", Message: `row 4: Rate "n/a" is not a number`}, ve.Problems[1])
	assert.Equal(t, Problem{Field: "previousQuantity", Message: `row 4: Prev Qty "-" is not a number`}, ve.Problems[2])
}

func TestParseBillWorkbook_MissingItemSheet(t *testing.T) {
	f := excelize.NewFile()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	f.Close()

	_, err := ParseBillWorkbook(bytes.NewReader(buf.Bytes()))

	assert.ErrorIs(t, err, ErrNoBillSheet)
}

func TestParseBillWorkbook_NotAWorkbook(t *testing.T) {
	_, err := ParseBillWorkbook(bytes.NewReader([]byte("not a zip")))
	assert.ErrorContains(t, err, "open workbook")
}

func TestDetectIndentLevel(t *testing.T) {
	tests := []struct {
		itemNo string
		expect int
	}{
		{"", 0},
		{"1.0", 0},
		{"12.0", 0},
		{"1", 1},
		{" 7 ", 1},
		{"1.1", 2},
		{"2.3.1", 2},
		{"A", 0},
	}
	for _, tt := range tests {
		t.Run(tt.itemNo, func(t *testing.T) {
			assert.Equal(t, tt.expect, detectIndentLevel(tt.itemNo))
		})
	}
}

func TestParseBillDate(t *testing.T) {
	tests := []struct {
		input   string
		expect  time.Time
		wantErr bool
	}{
		{"45366", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), false},
		{"2024-03-15", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), false},
		{"15/03/2024", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), false},
		{"15 Mar 2024", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), false},
		{"someday", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseBillDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expect.Equal(got), "got %v", got)
		})
	}
}

func TestParseNumber(t *testing.T) {
	v, err := parseNumber(" 1,23,456.50 ")
	require.NoError(t, err)
	assert.Equal(t, 123456.5, v)

	v, err = parseNumber("")
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = parseNumber("abc")
	assert.Error(t, err)
}
