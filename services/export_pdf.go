package services

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// NativePDFSerializer draws the bill directly with maroto, with no browser or
// remote renderer involved.
type NativePDFSerializer struct{}

func (NativePDFSerializer) Format() Format      { return FormatPDF }
func (NativePDFSerializer) Extension() string   { return "pdf" }
func (NativePDFSerializer) ContentType() string { return "application/pdf" }

func (NativePDFSerializer) Serialize(_ context.Context, doc *BillDocument) ([]byte, error) {
	return GeneratePDF(doc)
}

// pdfGridSpans maps the nine bill columns onto maroto's 12-unit grid.
var pdfGridSpans = []int{1, 1, 1, 1, 3, 1, 2, 1, 1}

// GeneratePDF creates a landscape A4 bill from the document using maroto/v2.
// It returns the raw PDF bytes or an error.
func GeneratePDF(doc *BillDocument) ([]byte, error) {
	table, err := BuildBillTable(doc)
	if err != nil {
		return nil, err
	}
	if len(table.Columns) != len(pdfGridSpans) {
		return nil, fmt.Errorf("pdf layout has %d spans for %d columns", len(pdfGridSpans), len(table.Columns))
	}

	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, table)
	addTableHeader(m, table)
	for i, r := range table.Body {
		addTableRow(m, table, r, doc.Totals.ValidItems[i].IndentLevel)
	}
	addTotals(m, table)
	addDeductionSchedule(m, table)
	addFooter(m, doc)

	pdf, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return pdf.GetBytes(), nil
}

// addHeader adds the title and the project preamble.
func addHeader(m core.Maroto, table *BillTable) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(table.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	label := props.Text{Size: 9, Style: fontstyle.Bold}
	value := props.Text{Size: 9, Color: &props.Color{Red: 60, Green: 60, Blue: 60}}
	for _, kv := range table.Preamble {
		m.AddRows(
			row.New(6).Add(
				col.New(2).Add(text.New(kv.Key, label)),
				col.New(10).Add(text.New(kv.Value, value)),
			),
		)
	}

	m.AddRows(row.New(4))
}

// addTableHeader adds the statutory column header row.
func addTableHeader(m core.Maroto, table *BillTable) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerCell := props.Cell{BackgroundColor: headerBg}

	cols := make([]core.Col, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = col.New(pdfGridSpans[i]).Add(text.New(c.Header, headerText)).WithStyle(&headerCell)
	}
	m.AddRows(row.New(12).Add(cols...))
}

// addTableRow adds one item row, shading nested items by indent level.
func addTableRow(m core.Maroto, table *BillTable, r Row, level int) {
	var cellStyle *props.Cell
	var textSize float64 = 7
	textStyle := fontstyle.Normal

	switch {
	case level == 0:
		textStyle = fontstyle.Bold
	case level == 1:
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
	default:
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 235, Green: 235, Blue: 235}}
	}

	base := props.Text{Size: textSize, Style: textStyle, Align: align.Center}

	cols := make([]core.Col, len(r))
	for i, c := range r {
		style := base
		value := table.FormatCell(i, c)
		switch {
		case table.Columns[i].Key == ColItemOfWork:
			style.Align = align.Left
		case c.Kind == CellNumber && table.Columns[i].Precision == 2:
			style.Align = align.Right
			value = FormatINR(c.Number)
		case c.Kind == CellNumber:
			style.Align = align.Right
			value = formatQty(c.Number)
		}
		cc := col.New(pdfGridSpans[i]).Add(text.New(value, style))
		if cellStyle != nil {
			cc = cc.WithStyle(cellStyle)
		}
		cols[i] = cc
	}
	m.AddRows(row.New(7).Add(cols...))
}

// addTotals adds the Grand Total, Tender Premium and Net Payable rows.
func addTotals(m core.Maroto, table *BillTable) {
	m.AddRows(row.New(4))

	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	labelStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}

	amountCol := table.ColumnIndex(ColAmountUptoDate)
	labelCol := table.ColumnIndex(ColItemOfWork)
	for _, r := range table.Footer {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(text.New(r[labelCol].Text, labelStyle)).WithStyle(summaryCell),
				col.New(4).Add(text.New(FormatINR(r[amountCol].Number), labelStyle)).WithStyle(summaryCell),
			),
		)
	}
}

// addDeductionSchedule adds the statutory deductions and the cheque amount.
func addDeductionSchedule(m core.Maroto, table *BillTable) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(text.New("DEDUCTION SCHEDULE", props.Text{
				Size:  10,
				Style: fontstyle.Bold,
			})),
		),
	)

	for _, line := range table.Schedule {
		style := props.Text{Size: 8, Align: align.Right}
		if line.Emphasis {
			style.Style = fontstyle.Bold
		}
		m.AddRows(
			row.New(6).Add(
				col.New(8).Add(text.New(line.Label, style)),
				col.New(4).Add(text.New(FormatINR(line.Amount), style)),
			),
		)
	}

	if n := len(table.Schedule); n > 0 {
		m.AddRows(
			row.New(8).Add(
				col.New(12).Add(text.New(AmountToWords(table.Schedule[n-1].Amount), props.Text{
					Size:  8,
					Style: fontstyle.Italic,
					Top:   2,
				})),
			),
		)
	}
}

// addFooter adds the generated-date line at the bottom.
func addFooter(m core.Maroto, doc *BillDocument) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Generated on %s", doc.GeneratedAt.Format("02 Jan 2006 15:04")),
					props.Text{
						Size:  7,
						Align: align.Left,
						Color: &props.Color{Red: 140, Green: 140, Blue: 140},
					},
				),
			),
		),
	)
}
