package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// TextSerializer writes a plain-text bill summary. It is only shipped inside
// the ZIP bundle.
type TextSerializer struct{}

func (TextSerializer) Format() Format      { return FormatTXT }
func (TextSerializer) Extension() string   { return "txt" }
func (TextSerializer) ContentType() string { return "text/plain; charset=utf-8" }

func (TextSerializer) Serialize(_ context.Context, doc *BillDocument) ([]byte, error) {
	var b bytes.Buffer
	h := doc.Header
	t := doc.Totals

	rule := strings.Repeat("=", 60)
	fmt.Fprintln(&b, "CONTRACTOR BILL SUMMARY")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Project:        %s\n", h.ProjectName)
	fmt.Fprintf(&b, "Contractor:     %s\n", h.ContractorName)
	fmt.Fprintf(&b, "Date:           %s\n", formatBillDate(h.BillDate))
	fmt.Fprintf(&b, "Tender Premium: %s%%\n", FormatPercent(h.TenderPremium))
	fmt.Fprintf(&b, "Items:          %d\n", len(t.ValidItems))
	fmt.Fprintln(&b, rule)

	for _, item := range t.ValidItems {
		fmt.Fprintf(&b, "%-6s %-40s %10s %-6s x %12s = %14s\n",
			item.ItemNo, truncate(indentDescription(item), 40),
			formatQty(item.Quantity), item.Unit,
			FormatAmount(item.Rate), FormatAmount(item.Amount()))
	}
	fmt.Fprintln(&b, rule)

	fmt.Fprintf(&b, "%-40s %18s\n", "Grand Total Rs.", FormatAmount(t.GrossAmount))
	fmt.Fprintf(&b, "%-40s %18s\n", fmt.Sprintf("Tender Premium @ %s%%", FormatPercent(h.TenderPremium)), FormatAmount(t.PremiumAmount))
	fmt.Fprintf(&b, "%-40s %18s\n", "NET PAYABLE AMOUNT Rs.", FormatAmount(t.NetPayable))
	fmt.Fprintln(&b)

	for _, line := range doc.DeductionSchedule()[1:] {
		fmt.Fprintf(&b, "%-40s %18s\n", line.Label, FormatAmount(line.Amount))
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, AmountToWords(t.ChequeAmount))
	fmt.Fprintf(&b, "Generated on %s\n", doc.GeneratedAt.Format("02 Jan 2006 15:04"))

	return b.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
