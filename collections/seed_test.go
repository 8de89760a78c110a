package collections_test

import (
	"testing"

	"contractorbill/collections"
	"contractorbill/testhelpers"
)

func TestSeed_CreatesData(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	billsCol, _ := app.FindCollectionByNameOrId("bills")
	bills, err := app.FindAllRecords(billsCol)
	if err != nil {
		t.Fatalf("query bills error: %v", err)
	}
	if len(bills) != 1 {
		t.Fatalf("expected 1 bill, got %d", len(bills))
	}
	if bills[0].GetString("project_name") != collections.SampleBillProject {
		t.Errorf("project name = %q, want %q", bills[0].GetString("project_name"), collections.SampleBillProject)
	}
	if got := bills[0].GetFloat("tender_premium"); got != 4.5 {
		t.Errorf("tender premium = %v, want 4.5", got)
	}

	items, err := app.FindRecordsByFilter("bill_items", "bill = {:id}", "sort_order", 0, 0, map[string]any{"id": bills[0].Id})
	if err != nil {
		t.Fatalf("query items error: %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(items))
	}
	if items[0].GetString("item_no") != "1.0" {
		t.Errorf("first item_no = %q, want 1.0", items[0].GetString("item_no"))
	}
	if items[4].GetInt("indent_level") != 2 {
		t.Errorf("item 3.1 indent_level = %d, want 2", items[4].GetInt("indent_level"))
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	if err := collections.Seed(app); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	billsCol, _ := app.FindCollectionByNameOrId("bills")
	bills, _ := app.FindAllRecords(billsCol)
	if len(bills) != 1 {
		t.Errorf("expected 1 bill after idempotent seed, got %d", len(bills))
	}

	itemsCol, _ := app.FindCollectionByNameOrId("bill_items")
	items, _ := app.FindAllRecords(itemsCol)
	if len(items) != 6 {
		t.Errorf("expected 6 items after idempotent seed, got %d", len(items))
	}
}

func TestSeed_SkipsWhenBillsExist(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestBill(t, app, "Existing")

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	billsCol, _ := app.FindCollectionByNameOrId("bills")
	bills, _ := app.FindAllRecords(billsCol)
	if len(bills) != 1 {
		t.Errorf("expected seed to leave the existing bill alone, got %d bills", len(bills))
	}
}
