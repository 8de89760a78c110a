package services

import (
	"fmt"
	"strings"
)

// ValidateBill checks a bill before computation. It collects every problem
// rather than stopping at the first, and returns nil when the bill can be
// exported.
func ValidateBill(b Bill) error {
	var problems []Problem

	if strings.TrimSpace(b.Header.ProjectName) == "" {
		problems = append(problems, Problem{Field: "projectName", Message: "Project name is required"})
	}
	if strings.TrimSpace(b.Header.ContractorName) == "" {
		problems = append(problems, Problem{Field: "contractorName", Message: "Contractor name is required"})
	}
	if b.Header.TenderPremium < 0 {
		problems = append(problems, Problem{Field: "tenderPremium", Message: "Tender premium cannot be negative"})
	} else if b.Header.TenderPremium > 100 {
		problems = append(problems, Problem{Field: "tenderPremium", Message: "Tender premium cannot exceed 100%"})
	}

	hasValid := false
	for i, item := range b.Items {
		n := i + 1
		if item.Quantity < 0 {
			problems = append(problems, Problem{Item: n, Field: "quantity", Message: "Quantity cannot be negative"})
		}
		if item.Rate < 0 {
			problems = append(problems, Problem{Item: n, Field: "rate", Message: "Rate cannot be negative"})
		}
		if item.PreviousQuantity < 0 {
			problems = append(problems, Problem{Item: n, Field: "previousQuantity", Message: "Previous quantity cannot be negative"})
		}
		if item.IndentLevel < 0 {
			problems = append(problems, Problem{Item: n, Field: "indentLevel", Message: fmt.Sprintf("Indent level %d is invalid", item.IndentLevel)})
		}
		if item.Quantity > 0 {
			hasValid = true
		}
	}
	if !hasValid {
		problems = append(problems, Problem{Field: "items", Message: "At least one item must have quantity > 0"})
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
