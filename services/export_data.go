package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// BillDocument is the (header, items, totals) snapshot every serializer
// consumes. Each serializer gets its own copy.
type BillDocument struct {
	Header      ProjectHeader
	Items       []LineItem
	Totals      ComputedTotals
	Rates       DeductionRates
	GeneratedAt time.Time
}

// NewBillDocument computes the totals for b once and wraps them with the
// inputs they were derived from.
func NewBillDocument(b Bill, rates DeductionRates, at time.Time) *BillDocument {
	b = b.Clone()
	return &BillDocument{
		Header:      b.Header,
		Items:       b.Items,
		Totals:      ComputeTotals(b.Header, b.Items, rates),
		Rates:       rates,
		GeneratedAt: at,
	}
}

// Clone returns a deep copy of the document.
func (d *BillDocument) Clone() *BillDocument {
	c := *d
	c.Items = append([]LineItem(nil), d.Items...)
	c.Totals.ValidItems = append([]LineItem(nil), d.Totals.ValidItems...)
	return &c
}

// ScheduleLine is one labelled amount of the deduction schedule.
type ScheduleLine struct {
	Label    string
	Amount   float64
	Emphasis bool
}

// DeductionSchedule lists the statutory deductions, their total and the
// resulting cheque amount in print order.
func (d *BillDocument) DeductionSchedule() []ScheduleLine {
	t := d.Totals
	return []ScheduleLine{
		{Label: "Net Payable Amount", Amount: t.NetPayable, Emphasis: true},
		{Label: fmt.Sprintf("Security Deposit @ %s%%", ratePercent(d.Rates.SecurityDeposit)), Amount: t.Deductions.SecurityDeposit},
		{Label: fmt.Sprintf("Income Tax @ %s%%", ratePercent(d.Rates.IncomeTax)), Amount: t.Deductions.IncomeTax},
		{Label: fmt.Sprintf("GST @ %s%%", ratePercent(d.Rates.GST)), Amount: t.Deductions.GST},
		{Label: fmt.Sprintf("Labour Cess @ %s%%", ratePercent(d.Rates.LabourCess)), Amount: t.Deductions.LabourCess},
		{Label: "Total Deductions", Amount: t.TotalDeductions, Emphasis: true},
		{Label: "Cheque Amount", Amount: t.ChequeAmount, Emphasis: true},
	}
}

// ratePercent prints a fraction as a percentage, hiding float noise such as
// 0.07*100 = 7.000000000000001.
func ratePercent(rate float64) string {
	return strconv.FormatFloat(math.Round(rate*10000)/100, 'f', -1, 64)
}

// indentDescription prefixes the description with two spaces per indent level.
func indentDescription(item LineItem) string {
	if item.IndentLevel <= 0 {
		return item.Description
	}
	return strings.Repeat("  ", item.IndentLevel) + item.Description
}
