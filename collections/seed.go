package collections

import (
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

type billItemDef struct {
	itemNo      string
	description string
	unit        string
	quantity    float64
	rate        float64
	prevQty     float64
	indentLevel int
}

// SampleBillProject is the project name of the seeded bill.
const SampleBillProject = "Construction of Community Hall — Ward 7"

var sampleBillItems = []billItemDef{
	{itemNo: "1.0", description: "Earth work in excavation for foundation", unit: "cum", quantity: 120, rate: 245.5, indentLevel: 0},
	{itemNo: "1", description: "Ordinary soil up to 1.5 m depth", unit: "cum", quantity: 80, rate: 245.5, prevQty: 40, indentLevel: 1},
	{itemNo: "2.0", description: "Cement concrete 1:4:8 in foundation", unit: "cum", quantity: 32.5, rate: 5620, indentLevel: 0},
	{itemNo: "3.0", description: "Brick work in cement mortar 1:6", unit: "cum", quantity: 58, rate: 6150.75, indentLevel: 0},
	{itemNo: "3.1", description: "Extra for work above plinth level", unit: "cum", quantity: 22, rate: 410, indentLevel: 2},
	{itemNo: "4.0", description: "12 mm cement plaster 1:4", unit: "sqm", quantity: 410, rate: 268, indentLevel: 0},
}

// Seed populates the bill collections with one sample bill. It is safe to
// call on every startup because it returns early if any bill already exists.
func Seed(app *pocketbase.PocketBase) error {
	billsCol, err := app.FindCollectionByNameOrId("bills")
	if err != nil {
		return fmt.Errorf("seed: could not find bills collection: %w", err)
	}
	existing, err := app.FindAllRecords(billsCol)
	if err != nil {
		return fmt.Errorf("seed: could not query bills: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: bills collection is empty – inserting sample bill …")

	itemsCol, err := app.FindCollectionByNameOrId("bill_items")
	if err != nil {
		return fmt.Errorf("seed: could not find bill_items collection: %w", err)
	}

	return app.RunInTransaction(func(txApp core.App) error {
		bill := core.NewRecord(billsCol)
		bill.Set("project_name", SampleBillProject)
		bill.Set("contractor_name", "M/s Shree Ganesh Constructions")
		bill.Set("bill_date", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
		bill.Set("tender_premium", 4.5)
		if err := txApp.Save(bill); err != nil {
			return fmt.Errorf("seed: save bill: %w", err)
		}

		for i, d := range sampleBillItems {
			r := core.NewRecord(itemsCol)
			r.Set("bill", bill.Id)
			r.Set("sort_order", i+1)
			r.Set("item_no", d.itemNo)
			r.Set("description", d.description)
			r.Set("unit", d.unit)
			r.Set("quantity", d.quantity)
			r.Set("rate", d.rate)
			r.Set("previous_quantity", d.prevQty)
			r.Set("indent_level", d.indentLevel)
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("seed: save item %s: %w", d.itemNo, err)
			}
		}

		log.Printf("seed: created bill %s with %d items", bill.Id, len(sampleBillItems))
		return nil
	})
}
