package collections

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Setup programmatically creates/ensures the bills, bill_items and
// bill_drafts collections exist.
func Setup(app *pocketbase.PocketBase) {
	bills := ensureCollection(app, "bills", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "project_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "contractor_name", Required: true})
		c.Fields.Add(&core.DateField{Name: "bill_date"})
		c.Fields.Add(&core.NumberField{Name: "tender_premium"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "bill_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "bill",
			Required:      true,
			CollectionId:  bills.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
		c.Fields.Add(&core.TextField{Name: "item_no"})
		c.Fields.Add(&core.TextField{Name: "description"})
		c.Fields.Add(&core.NumberField{Name: "quantity"})
		c.Fields.Add(&core.NumberField{Name: "rate"})
		c.Fields.Add(&core.TextField{Name: "unit"})
		c.Fields.Add(&core.NumberField{Name: "previous_quantity"})
		c.Fields.Add(&core.NumberField{Name: "indent_level", OnlyInt: true})
	})

	ensureCollection(app, "bill_drafts", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "bill",
			Required:      true,
			CollectionId:  bills.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "label"})
		c.Fields.Add(&core.JSONField{Name: "snapshot", Required: true, MaxSize: 2 << 20})
		c.Fields.Add(&core.NumberField{Name: "seq", OnlyInt: true})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	log.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
