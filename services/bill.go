// Package services provides bill computation, validation and the document
// serializers used to export contractor bills.
package services

import "time"

// ProjectHeader identifies the work and the contractor a bill is raised for.
type ProjectHeader struct {
	ProjectName    string    `json:"projectName" yaml:"projectName"`
	ContractorName string    `json:"contractorName" yaml:"contractorName"`
	BillDate       time.Time `json:"billDate" yaml:"billDate"`
	TenderPremium  float64   `json:"tenderPremium" yaml:"tenderPremium"` // percent, 0-100
}

// LineItem is a single measured item of work on the bill.
type LineItem struct {
	ItemNo           string  `json:"itemNo" yaml:"itemNo"`
	Description      string  `json:"description" yaml:"description"`
	Quantity         float64 `json:"quantity" yaml:"quantity"`
	Rate             float64 `json:"rate" yaml:"rate"`
	Unit             string  `json:"unit" yaml:"unit"`
	PreviousQuantity float64 `json:"previousQuantity" yaml:"previousQuantity"`
	IndentLevel      int     `json:"indentLevel" yaml:"indentLevel"`
}

// Amount returns quantity × rate.
func (li LineItem) Amount() float64 {
	return li.Quantity * li.Rate
}

// Bill is a project header together with its ordered line items.
type Bill struct {
	Header ProjectHeader `json:"header" yaml:"header"`
	Items  []LineItem    `json:"items" yaml:"items"`
}

// DeductionRates are the statutory deduction fractions applied to the net
// payable amount.
type DeductionRates struct {
	SecurityDeposit float64 `json:"securityDeposit" mapstructure:"security_deposit"`
	IncomeTax       float64 `json:"incomeTax" mapstructure:"income_tax"`
	GST             float64 `json:"gst" mapstructure:"gst"`
	LabourCess      float64 `json:"labourCess" mapstructure:"labour_cess"`
}

// DefaultDeductionRates returns the PWD schedule: 5% security deposit, 2%
// income tax, 18% GST and 1% labour cess.
func DefaultDeductionRates() DeductionRates {
	return DeductionRates{
		SecurityDeposit: 0.05,
		IncomeTax:       0.02,
		GST:             0.18,
		LabourCess:      0.01,
	}
}

// Deductions holds the rounded deduction amounts.
type Deductions struct {
	SecurityDeposit float64 `json:"securityDeposit"`
	IncomeTax       float64 `json:"incomeTax"`
	GST             float64 `json:"gst"`
	LabourCess      float64 `json:"labourCess"`
}

// Total returns the sum of all four deductions.
func (d Deductions) Total() float64 {
	return d.SecurityDeposit + d.IncomeTax + d.GST + d.LabourCess
}

// ComputedTotals is derived from a bill on every export and never stored.
type ComputedTotals struct {
	ValidItems      []LineItem `json:"validItems"`
	GrossAmount     float64    `json:"grossAmount"`
	PremiumAmount   float64    `json:"premiumAmount"`
	NetPayable      float64    `json:"netPayable"`
	Deductions      Deductions `json:"deductions"`
	TotalDeductions float64    `json:"totalDeductions"`
	ChequeAmount    float64    `json:"chequeAmount"`
}

// Totals computes the bill totals with the given deduction rates.
func (b Bill) Totals(rates DeductionRates) ComputedTotals {
	return ComputeTotals(b.Header, b.Items, rates)
}

// Clone returns a deep copy of the bill so concurrent serializers never share
// the item slice.
func (b Bill) Clone() Bill {
	items := make([]LineItem, len(b.Items))
	copy(items, b.Items)
	return Bill{Header: b.Header, Items: items}
}
