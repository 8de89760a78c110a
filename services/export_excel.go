package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	billSheetName = "Bill Summary"
	noteSheetName = "Note Sheet"
)

// ExcelSerializer writes the bill workbook: the statutory bill on the first
// sheet and the deduction schedule on a second "Note Sheet".
type ExcelSerializer struct{}

func (ExcelSerializer) Format() Format    { return FormatXLSX }
func (ExcelSerializer) Extension() string { return "xlsx" }
func (ExcelSerializer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (ExcelSerializer) Serialize(_ context.Context, doc *BillDocument) ([]byte, error) {
	table, err := BuildBillTable(doc)
	if err != nil {
		return nil, err
	}
	return GenerateExcel(table)
}

// GenerateExcel renders a bill table into an xlsx workbook and returns the
// file contents.
func GenerateExcel(table *BillTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, billSheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	styles, err := newBillStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeBillSheet(f, billSheetName, table, styles); err != nil {
		return nil, err
	}
	if err := writeNoteSheet(f, table, styles); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

type billStyles struct {
	title, label, header, body, amount, footerLabel, footerAmount int
}

func newBillStyles(f *excelize.File) (billStyles, error) {
	var s billStyles
	var err error

	twoDecimals := "0.00"

	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, fmt.Errorf("create title style: %w", err)
	}

	if s.label, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	}); err != nil {
		return s, fmt.Errorf("create label style: %w", err)
	}

	// Column header: bold, light grey, wrapped so the long statutory headings fit.
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 10},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#F0F0F0"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
		Border: thinBorders(),
	}); err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}

	if s.body, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    thinBorders(),
	}); err != nil {
		return s, fmt.Errorf("create body style: %w", err)
	}

	if s.amount, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Alignment:    &excelize.Alignment{Horizontal: "right", Vertical: "top"},
		Border:       thinBorders(),
		CustomNumFmt: &twoDecimals,
	}); err != nil {
		return s, fmt.Errorf("create amount style: %w", err)
	}

	if s.footerLabel, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 10},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E8F5E9"}, Pattern: 1},
		Border: thinBorders(),
	}); err != nil {
		return s, fmt.Errorf("create footer label style: %w", err)
	}

	if s.footerAmount, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 10},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"#E8F5E9"}, Pattern: 1},
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       thinBorders(),
		CustomNumFmt: &twoDecimals,
	}); err != nil {
		return s, fmt.Errorf("create footer amount style: %w", err)
	}

	return s, nil
}

func writeBillSheet(f *excelize.File, sheet string, table *BillTable, st billStyles) error {
	lastCol, err := excelize.ColumnNumberToName(len(table.Columns))
	if err != nil {
		return fmt.Errorf("last column: %w", err)
	}

	for i, col := range table.Columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, col.Width); err != nil {
			return fmt.Errorf("set col width %s: %w", name, err)
		}
	}

	// ── Title block ─────────────────────────────────────────────────────

	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", table.Title)
	f.SetCellStyle(sheet, "A1", lastCol+"1", st.title)

	row := 2
	for _, kv := range table.Preamble {
		f.SetCellValue(sheet, cellRef("A", row), kv.Key)
		f.SetCellStyle(sheet, cellRef("A", row), cellRef("A", row), st.label)
		f.SetCellValue(sheet, cellRef("B", row), sanitizeExcelCell(kv.Value))
		row++
	}
	row++ // blank spacer

	// ── Column headers ──────────────────────────────────────────────────

	for i, h := range table.HeaderRow() {
		ref, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, ref, h)
	}
	f.SetCellStyle(sheet, cellRef("A", row), cellRef(lastCol, row), st.header)
	f.SetRowHeight(sheet, row, 30)
	row++

	// ── Items ───────────────────────────────────────────────────────────

	for _, r := range table.Body {
		if err := writeTableRow(f, sheet, row, table, r, st.body, st.amount); err != nil {
			return err
		}
		row++
	}

	row++ // blank spacer before totals

	for _, r := range table.Footer {
		if err := writeTableRow(f, sheet, row, table, r, st.footerLabel, st.footerAmount); err != nil {
			return err
		}
		row++
	}
	return nil
}

func writeTableRow(f *excelize.File, sheet string, row int, table *BillTable, r Row, textStyle, numStyle int) error {
	for i, c := range r {
		ref, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("cell ref: %w", err)
		}
		switch c.Kind {
		case CellText:
			f.SetCellValue(sheet, ref, sanitizeExcelCell(c.Text))
		case CellNumber:
			f.SetCellValue(sheet, ref, c.Number)
		}
		style := textStyle
		if table.Columns[i].Kind == CellNumber {
			style = numStyle
		}
		f.SetCellStyle(sheet, ref, ref, style)
	}
	return nil
}

func writeNoteSheet(f *excelize.File, table *BillTable, st billStyles) error {
	if _, err := f.NewSheet(noteSheetName); err != nil {
		return fmt.Errorf("create note sheet: %w", err)
	}
	f.SetColWidth(noteSheetName, "A", "A", 36)
	f.SetColWidth(noteSheetName, "B", "B", 18)

	f.MergeCell(noteSheetName, "A1", "B1")
	f.SetCellValue(noteSheetName, "A1", "DEDUCTION SCHEDULE")
	f.SetCellStyle(noteSheetName, "A1", "B1", st.title)

	row := 3
	for _, line := range table.Schedule {
		labelStyle, amountStyle := st.body, st.amount
		if line.Emphasis {
			labelStyle, amountStyle = st.footerLabel, st.footerAmount
		}
		f.SetCellValue(noteSheetName, cellRef("A", row), line.Label)
		f.SetCellStyle(noteSheetName, cellRef("A", row), cellRef("A", row), labelStyle)
		f.SetCellValue(noteSheetName, cellRef("B", row), line.Amount)
		f.SetCellStyle(noteSheetName, cellRef("B", row), cellRef("B", row), amountStyle)
		row++
	}

	if n := len(table.Schedule); n > 0 {
		row++
		f.MergeCell(noteSheetName, cellRef("A", row), cellRef("B", row))
		f.SetCellValue(noteSheetName, cellRef("A", row), AmountToWords(table.Schedule[n-1].Amount))
	}
	return nil
}

func cellRef(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
