package services

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	titleSheetName        = "Title"
	billQuantitySheetName = "Bill Quantity"
)

var plainNumber = regexp.MustCompile(`^\d+$`)

// ParseBillWorkbook reads a bill workbook: project details as key/value rows
// on a "Title" sheet and the items on a "Bill Quantity" sheet with a header
// row. Items without a description, or with neither quantity nor rate, are
// dropped.
func ParseBillWorkbook(r io.Reader) (*Bill, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	bill := &Bill{}

	if idx, _ := f.GetSheetIndex(titleSheetName); idx >= 0 {
		rows, err := f.GetRows(titleSheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read %s sheet: %w", titleSheetName, err)
		}
		header, err := parseTitleRows(rows)
		if err != nil {
			return nil, err
		}
		bill.Header = header
	}

	idx, _ := f.GetSheetIndex(billQuantitySheetName)
	if idx < 0 {
		return nil, ErrNoBillSheet
	}
	rows, err := f.GetRows(billQuantitySheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %s sheet: %w", billQuantitySheetName, err)
	}
	items, problems := parseItemRows(rows)
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	bill.Items = items

	return bill, nil
}

func parseTitleRows(rows [][]string) (ProjectHeader, error) {
	values := make(map[string]string)
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		key := strings.TrimSpace(row[0])
		val := strings.TrimSpace(row[1])
		if key != "" && val != "" {
			values[key] = val
		}
	}

	first := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := values[k]; ok {
				return v
			}
		}
		return ""
	}

	h := ProjectHeader{
		ProjectName:    first("Name of Work", "Project Name"),
		ContractorName: first("Agency", "Contractor"),
	}

	if raw := first("Date of Bill", "Date"); raw != "" {
		d, err := parseBillDate(raw)
		if err != nil {
			return h, err
		}
		h.BillDate = d
	}

	if raw := first("Tender Premium"); raw != "" {
		p, err := parseNumber(raw)
		if err != nil {
			return h, fmt.Errorf("tender premium: %w", err)
		}
		h.TenderPremium = p
	}
	return h, nil
}

// parseBillDate accepts an Excel serial day number or a handful of common
// date layouts.
func parseBillDate(raw string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("bill date %q: %w", raw, err)
		}
		return t, nil
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "02-01-2006", "2 Jan 2006", "January 2, 2006", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bill date %q: unrecognised format", raw)
}

// parseItemRows maps the item sheet to line items. A numeric cell of a
// described row that does not parse is reported as a problem naming its sheet
// row rather than read as zero.
func parseItemRows(rows [][]string) ([]LineItem, []Problem) {
	if len(rows) == 0 {
		return nil, nil
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.TrimSpace(h)] = i
	}
	cell := func(row []string, names ...string) string {
		for _, n := range names {
			if i, ok := cols[n]; ok && i < len(row) {
				if v := strings.TrimSpace(row[i]); v != "" {
					return v
				}
			}
		}
		return ""
	}

	var (
		items    []LineItem
		problems []Problem
	)
	for r, row := range rows[1:] {
		sheetRow := r + 2
		var rowProblems []Problem
		num := func(field, label string, names ...string) float64 {
			raw := cell(row, names...)
			v, err := parseNumber(raw)
			if err != nil {
				rowProblems = append(rowProblems, Problem{
					Field:   field,
					Message: fmt.Sprintf("row %d: %s %q is not a number", sheetRow, label, raw),
				})
				return 0
			}
			return v
		}

		itemNo := cell(row, "Item No", "S.No", "Item")
		item := LineItem{
			ItemNo:           itemNo,
			Description:      cell(row, "Description", "Particulars"),
			Quantity:         num("quantity", "Qty", "Qty", "Quantity"),
			Rate:             num("rate", "Rate", "Rate"),
			Unit:             cell(row, "Unit"),
			PreviousQuantity: num("previousQuantity", "Prev Qty", "Prev Qty"),
			IndentLevel:      detectIndentLevel(itemNo),
		}
		if item.Description == "" {
			continue
		}
		problems = append(problems, rowProblems...)
		if item.Quantity <= 0 && item.Rate <= 0 {
			continue
		}
		items = append(items, item)
	}
	return items, problems
}

// detectIndentLevel infers nesting from item numbering: "N.0" is a main item,
// a plain integer is a sub-item, and any other dotted number is a
// sub-sub-item.
func detectIndentLevel(itemNo string) int {
	cur := strings.TrimSpace(itemNo)
	switch {
	case cur == "", strings.HasSuffix(cur, ".0"):
		return 0
	case strings.Contains(cur, "."):
		return 2
	case plainNumber.MatchString(cur):
		return 1
	}
	return 0
}

// parseNumber reads a spreadsheet number, tolerating thousands separators
// and a trailing percent sign. Empty input is zero.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
