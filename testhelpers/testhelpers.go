// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"contractorbill/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestBill creates a bill record with the given project name, a fixed
// contractor, date and a 5% tender premium, and returns it.
func CreateTestBill(t *testing.T, app *pocketbase.PocketBase, projectName string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("bills")
	if err != nil {
		t.Fatalf("failed to find bills collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("project_name", projectName)
	record.Set("contractor_name", "Test Contractor")
	record.Set("bill_date", time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	record.Set("tender_premium", 5)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test bill: %v", err)
	}

	return record
}

// CreateTestBillItem creates a line item on billID and returns it.
func CreateTestBillItem(t *testing.T, app *pocketbase.PocketBase, billID string, sortOrder int, description string, qty, rate float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("bill_items")
	if err != nil {
		t.Fatalf("failed to find bill_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("bill", billID)
	record.Set("sort_order", sortOrder)
	record.Set("item_no", strconv.Itoa(sortOrder))
	record.Set("description", description)
	record.Set("quantity", qty)
	record.Set("rate", rate)
	record.Set("unit", "cum")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test bill item: %v", err)
	}

	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
