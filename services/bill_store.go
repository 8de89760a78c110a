package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

// SaveBill stores the header and items of b as a new bill and returns its id.
func SaveBill(app core.App, b Bill) (string, error) {
	billsCol, err := app.FindCollectionByNameOrId("bills")
	if err != nil {
		return "", fmt.Errorf("bills collection not found: %w", err)
	}
	itemsCol, err := app.FindCollectionByNameOrId("bill_items")
	if err != nil {
		return "", fmt.Errorf("bill_items collection not found: %w", err)
	}

	var id string
	err = app.RunInTransaction(func(txApp core.App) error {
		rec := core.NewRecord(billsCol)
		setHeaderFields(rec, b.Header)
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("save bill: %w", err)
		}
		for i, item := range b.Items {
			r := core.NewRecord(itemsCol)
			r.Set("bill", rec.Id)
			r.Set("sort_order", i+1)
			setItemFields(r, item)
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("save item %d: %w", i+1, err)
			}
		}
		id = rec.Id
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// findBillRecord returns ErrBillNotFound only for a missing row; any other
// lookup failure is passed through.
func findBillRecord(app core.App, id string) (*core.Record, error) {
	rec, err := app.FindRecordById("bills", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBillNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find bill %s: %w", id, err)
	}
	return rec, nil
}

// LoadBill reads a stored bill with its items in sort order.
func LoadBill(app core.App, id string) (Bill, error) {
	rec, err := findBillRecord(app, id)
	if err != nil {
		return Bill{}, err
	}

	itemRecords, err := app.FindRecordsByFilter(
		"bill_items",
		"bill = {:billId}",
		"sort_order",
		0,
		0,
		map[string]any{"billId": id},
	)
	if err != nil {
		return Bill{}, fmt.Errorf("load items for bill %s: %w", id, err)
	}

	b := Bill{
		Header: ProjectHeader{
			ProjectName:    rec.GetString("project_name"),
			ContractorName: rec.GetString("contractor_name"),
			BillDate:       rec.GetDateTime("bill_date").Time(),
			TenderPremium:  rec.GetFloat("tender_premium"),
		},
		Items: make([]LineItem, 0, len(itemRecords)),
	}
	for _, r := range itemRecords {
		b.Items = append(b.Items, LineItem{
			ItemNo:           r.GetString("item_no"),
			Description:      r.GetString("description"),
			Quantity:         r.GetFloat("quantity"),
			Rate:             r.GetFloat("rate"),
			Unit:             r.GetString("unit"),
			PreviousQuantity: r.GetFloat("previous_quantity"),
			IndentLevel:      r.GetInt("indent_level"),
		})
	}
	return b, nil
}

func setHeaderFields(rec *core.Record, h ProjectHeader) {
	rec.Set("project_name", h.ProjectName)
	rec.Set("contractor_name", h.ContractorName)
	if !h.BillDate.IsZero() {
		rec.Set("bill_date", h.BillDate)
	}
	rec.Set("tender_premium", h.TenderPremium)
}

func setItemFields(rec *core.Record, item LineItem) {
	rec.Set("item_no", item.ItemNo)
	rec.Set("description", item.Description)
	rec.Set("quantity", item.Quantity)
	rec.Set("rate", item.Rate)
	rec.Set("unit", item.Unit)
	rec.Set("previous_quantity", item.PreviousQuantity)
	rec.Set("indent_level", item.IndentLevel)
}
