package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"
)

// DocxSerializer writes the bill as a Word document.
type DocxSerializer struct{}

func (DocxSerializer) Format() Format    { return FormatDOCX }
func (DocxSerializer) Extension() string { return "docx" }
func (DocxSerializer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

const (
	docxHeaderFill = "F0F0F0"
	docxFooterFill = "E8F5E9"
)

func (DocxSerializer) Serialize(_ context.Context, doc *BillDocument) ([]byte, error) {
	table, err := BuildBillTable(doc)
	if err != nil {
		return nil, err
	}

	d, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("new docx: %w", err)
	}
	setLandscapeA4(d)

	title := d.AddEmptyParagraph()
	title.Justification(stypes.JustificationCenter)
	title.AddText(table.Title).Bold(true).Size(16)

	for _, kv := range table.Preamble {
		p := d.AddEmptyParagraph()
		p.AddText(kv.Key + " ").Bold(true).Size(10)
		p.AddText(kv.Value).Size(10)
	}

	t := d.AddTable()
	t.Style("TableGrid")

	hdr := t.AddRow()
	for _, h := range table.HeaderRow() {
		p := hdr.AddCell().AddEmptyPara()
		p.Justification(stypes.JustificationCenter)
		p.AddText(h).Bold(true).Size(8).Shading(stypes.ShdClear, "auto", docxHeaderFill)
	}
	for _, r := range table.Body {
		docxRow(t, table, r, false)
	}
	for _, r := range table.Footer {
		docxRow(t, table, r, true)
	}

	d.AddEmptyParagraph()
	d.AddEmptyParagraph().AddText("DEDUCTION SCHEDULE").Bold(true).Size(11)

	sched := d.AddTable()
	sched.Style("TableGrid")
	for _, line := range table.Schedule {
		row := sched.AddRow()
		row.AddCell().AddEmptyPara().AddText(line.Label).Bold(line.Emphasis).Size(10)
		amount := row.AddCell().AddEmptyPara()
		amount.Justification(stypes.JustificationRight)
		amount.AddText(FormatINR(line.Amount)).Bold(line.Emphasis).Size(10)
	}

	d.AddEmptyParagraph().AddText(AmountToWords(doc.Totals.ChequeAmount)).Italic(true).Size(10)
	d.AddEmptyParagraph().AddText("Generated on " + doc.GeneratedAt.Format("02 Jan 2006 15:04")).Size(8)

	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

func docxRow(t *docx.Table, table *BillTable, r Row, footer bool) {
	row := t.AddRow()
	for i, c := range r {
		p := row.AddCell().AddEmptyPara()
		if table.Columns[i].Kind == CellNumber {
			p.Justification(stypes.JustificationRight)
		}
		run := p.AddText(table.FormatCell(i, c)).Size(8)
		if footer {
			run.Bold(true).Shading(stypes.ShdClear, "auto", docxFooterFill)
		}
	}
}

// setLandscapeA4 replaces the template's Letter portrait section with A4
// landscape and 10mm margins (sizes in twips).
func setLandscapeA4(d *docx.RootDoc) {
	body := d.Document.Body
	if body.SectPr == nil {
		body.SectPr = ctypes.NewSectionProper()
	}
	width, height := uint64(16838), uint64(11906)
	margin, zero := 567, 0
	body.SectPr.PageSize = &ctypes.PageSize{Width: &width, Height: &height, Orient: stypes.PageOrientLandscape}
	body.SectPr.PageMargin = &ctypes.PageMargin{
		Top: &margin, Right: &margin, Bottom: &margin, Left: &margin,
		Header: &zero, Footer: &zero, Gutter: &zero,
	}
}
