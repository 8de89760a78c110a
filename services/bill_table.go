package services

import (
	"fmt"
	"strconv"
)

// CellKind is the value type a column holds.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Column is one named, typed column of the bill table.
type Column struct {
	Key       string
	Header    string
	Width     float64 // spreadsheet character width
	Kind      CellKind
	Precision int // decimals for number cells, -1 for shortest
}

// Cell is a single typed value.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// TextCell, NumberCell and EmptyCell build typed cells.
func TextCell(s string) Cell    { return Cell{Kind: CellText, Text: s} }
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Number: f} }
func EmptyCell() Cell           { return Cell{Kind: CellEmpty} }

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

// Row is an ordered list of cells, one per column.
type Row []Cell

// KeyValue is a label/value line printed above the table.
type KeyValue struct {
	Key   string
	Value string
}

// BillTable is the explicit row schema shared by the spreadsheet and CSV
// writers: a title block, column headers, one body row per valid item and the
// totals footer, followed by the deduction schedule.
type BillTable struct {
	Title    string
	Preamble []KeyValue
	Columns  []Column
	Body     []Row
	Footer   []Row
	Schedule []ScheduleLine
}

// Column keys of the statutory bill layout.
const (
	ColUnit            = "unit"
	ColQtySinceLast    = "qty_since_last"
	ColQtyUptoDate     = "qty_upto_date"
	ColSerialNo        = "serial_no"
	ColItemOfWork      = "item_of_work"
	ColRate            = "rate"
	ColAmountUptoDate  = "amount_upto_date"
	ColAmountSincePrev = "amount_since_prev"
	ColRemarks         = "remarks"
)

// BillColumns returns the statutory column layout in print order.
func BillColumns() []Column {
	return []Column{
		{Key: ColUnit, Header: "Unit", Width: 6, Kind: CellText},
		{Key: ColQtySinceLast, Header: "Qty executed since last cert", Width: 9, Kind: CellNumber, Precision: -1},
		{Key: ColQtyUptoDate, Header: "Qty executed upto date", Width: 9, Kind: CellNumber, Precision: -1},
		{Key: ColSerialNo, Header: "S. No.", Width: 6, Kind: CellText},
		{Key: ColItemOfWork, Header: "Item of Work", Width: 38, Kind: CellText},
		{Key: ColRate, Header: "Rate", Width: 8, Kind: CellNumber, Precision: 2},
		{Key: ColAmountUptoDate, Header: "Upto date Amount", Width: 12, Kind: CellNumber, Precision: 2},
		{Key: ColAmountSincePrev, Header: "Amount Since prev bill", Width: 9, Kind: CellNumber, Precision: 2},
		{Key: ColRemarks, Header: "Remarks", Width: 7, Kind: CellText},
	}
}

// BuildBillTable lays the document out in the statutory column schema and
// validates the result once.
func BuildBillTable(doc *BillDocument) (*BillTable, error) {
	h := doc.Header
	t := doc.Totals

	table := &BillTable{
		Title: "CONTRACTOR BILL",
		Preamble: []KeyValue{
			{Key: "Project:", Value: h.ProjectName},
			{Key: "Contractor:", Value: h.ContractorName},
			{Key: "Date:", Value: formatBillDate(h.BillDate)},
			{Key: "Tender Premium:", Value: FormatPercent(h.TenderPremium) + "%"},
		},
		Columns:  BillColumns(),
		Schedule: doc.DeductionSchedule(),
	}

	for _, item := range t.ValidItems {
		table.Body = append(table.Body, Row{
			TextCell(item.Unit),
			NumberCell(item.PreviousQuantity),
			NumberCell(item.Quantity),
			TextCell(item.ItemNo),
			TextCell(indentDescription(item)),
			NumberCell(item.Rate),
			NumberCell(item.Amount()),
			NumberCell(0),
			EmptyCell(),
		})
	}

	table.Footer = []Row{
		footerRow("Grand Total Rs.", t.GrossAmount),
		footerRow(fmt.Sprintf("Tender Premium @ %s%%", FormatPercent(h.TenderPremium)), t.PremiumAmount),
		footerRow("NET PAYABLE AMOUNT Rs.", t.NetPayable),
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func footerRow(label string, amount float64) Row {
	return Row{
		EmptyCell(), EmptyCell(), EmptyCell(), EmptyCell(),
		TextCell(label),
		EmptyCell(),
		NumberCell(amount),
		NumberCell(amount),
		EmptyCell(),
	}
}

// Validate checks that every row has one cell per column and that each
// non-empty cell matches its column's kind.
func (t *BillTable) Validate() error {
	check := func(section string, rows []Row) error {
		for i, r := range rows {
			if len(r) != len(t.Columns) {
				return fmt.Errorf("%s row %d: %d cells, want %d", section, i+1, len(r), len(t.Columns))
			}
			for j, c := range r {
				if c.IsEmpty() {
					continue
				}
				col := t.Columns[j]
				if c.Kind != col.Kind {
					return fmt.Errorf("%s row %d column %q: kind %d, want %d", section, i+1, col.Key, c.Kind, col.Kind)
				}
			}
		}
		return nil
	}
	if err := check("body", t.Body); err != nil {
		return err
	}
	return check("footer", t.Footer)
}

// HeaderRow returns the column headers as text cells.
func (t *BillTable) HeaderRow() []string {
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Header
	}
	return headers
}

// FormatCell renders a cell as text using its column's precision.
func (t *BillTable) FormatCell(col int, c Cell) string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', t.Columns[col].Precision, 64)
	default:
		return ""
	}
}

// StringRow renders a whole row with FormatCell.
func (t *BillTable) StringRow(r Row) []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = t.FormatCell(i, c)
	}
	return out
}

// ColumnIndex returns the position of the column with the given key, or -1.
func (t *BillTable) ColumnIndex(key string) int {
	for i, c := range t.Columns {
		if c.Key == key {
			return i
		}
	}
	return -1
}
