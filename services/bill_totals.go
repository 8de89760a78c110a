package services

import "math"

// ValidItems returns the items with a quantity strictly greater than zero,
// preserving order.
func ValidItems(items []LineItem) []LineItem {
	valid := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.Quantity > 0 {
			valid = append(valid, item)
		}
	}
	return valid
}

// CalcGrossAmount sums quantity × rate over the given items.
func CalcGrossAmount(items []LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Amount()
	}
	return sum
}

// CalcPremiumAmount applies the tender premium percentage to the gross amount.
func CalcPremiumAmount(gross, tenderPremium float64) float64 {
	return gross * (tenderPremium / 100)
}

// CalcDeductions rounds each statutory deduction to the nearest rupee. The
// net payable itself is never rounded here.
func CalcDeductions(netPayable float64, rates DeductionRates) Deductions {
	return Deductions{
		SecurityDeposit: math.Round(netPayable * rates.SecurityDeposit),
		IncomeTax:       math.Round(netPayable * rates.IncomeTax),
		GST:             math.Round(netPayable * rates.GST),
		LabourCess:      math.Round(netPayable * rates.LabourCess),
	}
}

// ComputeTotals derives every bill total from the header and line items. It
// has no side effects and is safe to call concurrently. Inputs are expected
// to have passed ValidateBill.
func ComputeTotals(header ProjectHeader, items []LineItem, rates DeductionRates) ComputedTotals {
	valid := ValidItems(items)
	gross := CalcGrossAmount(valid)
	premium := CalcPremiumAmount(gross, header.TenderPremium)
	net := gross + premium
	deductions := CalcDeductions(net, rates)
	totalDeductions := deductions.Total()

	return ComputedTotals{
		ValidItems:      valid,
		GrossAmount:     gross,
		PremiumAmount:   premium,
		NetPayable:      net,
		Deductions:      deductions,
		TotalDeductions: totalDeductions,
		ChequeAmount:    net - totalDeductions,
	}
}
