package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"go.uber.org/zap"
)

const draftsCollection = "bill_drafts"

// Draft is a saved snapshot of a bill being edited.
type Draft struct {
	ID       string    `json:"id"`
	BillID   string    `json:"billId"`
	Label    string    `json:"label,omitempty"`
	Seq      int       `json:"seq"`
	Snapshot Bill      `json:"snapshot"`
	Created  time.Time `json:"created"`
}

// DraftStore keeps the most recent snapshots of each bill in the bill_drafts
// collection. It is created once at startup and shared by the handlers.
type DraftStore struct {
	app        core.App
	maxPerBill int
	logger     *zap.Logger
}

// NewDraftStore returns a store that retains at most maxPerBill drafts per
// bill (10 when maxPerBill <= 0).
func NewDraftStore(app core.App, maxPerBill int, logger *zap.Logger) *DraftStore {
	if maxPerBill <= 0 {
		maxPerBill = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftStore{app: app, maxPerBill: maxPerBill, logger: logger}
}

// MaxPerBill returns the retention limit.
func (s *DraftStore) MaxPerBill() int { return s.maxPerBill }

// Save stores snapshot as the newest draft of billID and prunes drafts beyond
// the retention limit.
func (s *DraftStore) Save(ctx context.Context, billID string, snapshot Bill, label string) (Draft, error) {
	if err := ctx.Err(); err != nil {
		return Draft{}, err
	}
	if _, err := findBillRecord(s.app, billID); err != nil {
		return Draft{}, err
	}
	col, err := s.app.FindCollectionByNameOrId(draftsCollection)
	if err != nil {
		return Draft{}, fmt.Errorf("%s collection not found: %w", draftsCollection, err)
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return Draft{}, fmt.Errorf("encode draft: %w", err)
	}

	var draft Draft
	err = s.app.RunInTransaction(func(txApp core.App) error {
		existing, err := s.records(txApp, billID)
		if err != nil {
			return err
		}
		seq := 1
		if len(existing) > 0 {
			seq = existing[0].GetInt("seq") + 1
		}

		rec := core.NewRecord(col)
		rec.Set("bill", billID)
		rec.Set("label", label)
		rec.Set("seq", seq)
		rec.Set("snapshot", types.JSONRaw(payload))
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("save draft: %w", err)
		}

		// existing is newest first; the new record takes one of the slots.
		for i := s.maxPerBill - 1; i < len(existing); i++ {
			if err := txApp.Delete(existing[i]); err != nil {
				return fmt.Errorf("prune draft %s: %w", existing[i].Id, err)
			}
		}

		draft, err = toDraft(rec)
		return err
	})
	if err != nil {
		return Draft{}, err
	}
	s.logger.Debug("draft saved", zap.String("bill_id", billID), zap.Int("seq", draft.Seq))
	return draft, nil
}

// List returns the drafts of billID, newest first.
func (s *DraftStore) List(billID string) ([]Draft, error) {
	records, err := s.records(s.app, billID)
	if err != nil {
		return nil, err
	}
	drafts := make([]Draft, 0, len(records))
	for _, r := range records {
		d, err := toDraft(r)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// Latest returns the newest draft of billID. ok is false when there is none.
func (s *DraftStore) Latest(billID string) (Draft, bool, error) {
	records, err := s.records(s.app, billID)
	if err != nil || len(records) == 0 {
		return Draft{}, false, err
	}
	d, err := toDraft(records[0])
	if err != nil {
		return Draft{}, false, err
	}
	return d, true, nil
}

// Clear deletes every draft of billID and returns how many were removed.
func (s *DraftStore) Clear(billID string) (int, error) {
	var n int
	err := s.app.RunInTransaction(func(txApp core.App) error {
		records, err := s.records(txApp, billID)
		if err != nil {
			return err
		}
		for _, r := range records {
			if err := txApp.Delete(r); err != nil {
				return fmt.Errorf("delete draft %s: %w", r.Id, err)
			}
		}
		n = len(records)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debug("drafts cleared", zap.String("bill_id", billID), zap.Int("count", n))
	return n, nil
}

func (s *DraftStore) records(app core.App, billID string) ([]*core.Record, error) {
	records, err := app.FindRecordsByFilter(
		draftsCollection,
		"bill = {:billId}",
		"-seq",
		0,
		0,
		map[string]any{"billId": billID},
	)
	if err != nil {
		return nil, fmt.Errorf("query drafts for bill %s: %w", billID, err)
	}
	return records, nil
}

func toDraft(r *core.Record) (Draft, error) {
	d := Draft{
		ID:      r.Id,
		BillID:  r.GetString("bill"),
		Label:   r.GetString("label"),
		Seq:     r.GetInt("seq"),
		Created: r.GetDateTime("created").Time(),
	}
	if err := r.UnmarshalJSONField("snapshot", &d.Snapshot); err != nil {
		return Draft{}, fmt.Errorf("decode draft %s: %w", r.Id, err)
	}
	return d, nil
}
