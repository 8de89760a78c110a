package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// HTMLSerializer renders the bill as a standalone printable HTML page.
type HTMLSerializer struct{}

func (HTMLSerializer) Format() Format      { return FormatHTML }
func (HTMLSerializer) Extension() string   { return "html" }
func (HTMLSerializer) ContentType() string { return "text/html; charset=utf-8" }

func (HTMLSerializer) Serialize(ctx context.Context, doc *BillDocument) ([]byte, error) {
	return GenerateHTML(ctx, doc)
}

// GenerateHTML renders the full bill page to bytes.
func GenerateHTML(ctx context.Context, doc *BillDocument) ([]byte, error) {
	table, err := BuildBillTable(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := BillPage(table, doc).Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

const billPageCSS = `
@page { size: A4 landscape; margin: 10mm; }
body { font-family: Arial, Helvetica, sans-serif; font-size: 11px; color: #212529; }
h1 { text-align: center; font-size: 18px; margin: 0 0 8px; }
table.preamble td { padding: 2px 8px 2px 0; }
table.preamble td.key { font-weight: bold; }
table.bill { width: 100%; border-collapse: collapse; margin-top: 10px; }
table.bill th, table.bill td { border: 1px solid #000; padding: 3px 4px; vertical-align: top; }
table.bill th { background: #f0f0f0; font-size: 10px; }
table.bill td.num { text-align: right; white-space: nowrap; }
table.bill tr.total td { font-weight: bold; background: #e8f5e9; }
table.schedule { margin-top: 16px; border-collapse: collapse; }
table.schedule td { padding: 3px 10px; border-bottom: 1px solid #ddd; }
table.schedule td.num { text-align: right; }
table.schedule tr.emphasis td { font-weight: bold; }
p.words { font-style: italic; margin-top: 8px; }
p.generated { color: #8c8c8c; font-size: 9px; margin-top: 16px; }
`

// htmlCell is one rendered table cell. Indent counts the leading spaces of a
// nested item description, written out as non-breaking spaces.
type htmlCell struct {
	Num    bool
	Indent int
	Text   string
}

func htmlCells(table *BillTable, r Row) []htmlCell {
	cells := make([]htmlCell, len(r))
	for i, c := range r {
		value := table.FormatCell(i, c)
		if table.Columns[i].Kind == CellNumber {
			cells[i] = htmlCell{Num: true, Text: value}
			continue
		}
		if table.Columns[i].Key == ColItemOfWork && c.Kind == CellText {
			trimmed := strings.TrimLeft(value, " ")
			cells[i] = htmlCell{Indent: len(value) - len(trimmed), Text: trimmed}
			continue
		}
		cells[i] = htmlCell{Text: value}
	}
	return cells
}

func pageTitle(table *BillTable, doc *BillDocument) string {
	return fmt.Sprintf("%s - %s", table.Title, doc.Header.ProjectName)
}

// chequeWords is the cheque amount in words, the last schedule line.
func chequeWords(table *BillTable) string {
	if n := len(table.Schedule); n > 0 {
		return AmountToWords(table.Schedule[n-1].Amount)
	}
	return ""
}
