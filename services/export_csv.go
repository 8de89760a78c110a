package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
)

// CSVSerializer writes the bill table as comma separated values: the
// preamble, a blank line, the header row, the items, a blank line, the
// totals footer and then the deduction schedule.
type CSVSerializer struct{}

func (CSVSerializer) Format() Format      { return FormatCSV }
func (CSVSerializer) Extension() string   { return "csv" }
func (CSVSerializer) ContentType() string { return "text/csv; charset=utf-8" }

func (CSVSerializer) Serialize(_ context.Context, doc *BillDocument) ([]byte, error) {
	table, err := BuildBillTable(doc)
	if err != nil {
		return nil, err
	}
	return GenerateCSV(table)
}

// GenerateCSV renders a bill table as CSV bytes.
func GenerateCSV(table *BillTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{{table.Title}}
	for _, kv := range table.Preamble {
		records = append(records, []string{kv.Key, kv.Value})
	}
	records = append(records, nil, table.HeaderRow())
	for _, r := range table.Body {
		records = append(records, table.StringRow(r))
	}
	records = append(records, nil)
	for _, r := range table.Footer {
		records = append(records, table.StringRow(r))
	}
	records = append(records, nil)
	for _, line := range table.Schedule {
		records = append(records, []string{line.Label, FormatAmount(line.Amount)})
	}

	for _, rec := range records {
		if rec == nil {
			rec = []string{""}
		}
		for i := range rec {
			rec[i] = sanitizeExcelCell(rec[i])
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
