package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"contractorbill/services"
)

type draftRequest struct {
	Label    string        `json:"label"`
	Snapshot services.Bill `json:"snapshot"`
}

// HandleDraftSave stores a snapshot of the bill being edited. Drafts are not
// validated; they hold work in progress.
func HandleDraftSave(store *services.DraftStore, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req draftRequest
		if err := e.BindBody(&req); err != nil {
			return ErrorToastJSON(e, http.StatusBadRequest, "Invalid draft JSON", errorBody{Error: "invalid JSON", Message: err.Error()})
		}
		draft, err := store.Save(e.Request.Context(), e.Request.PathValue("id"), req.Snapshot, req.Label)
		if err != nil {
			return respondBillError(e, logger, err)
		}
		SetToast(e, "success", "Draft saved")
		return e.JSON(http.StatusCreated, draft)
	}
}

// HandleDraftList returns the drafts of a bill, newest first. With
// ?latest=1 only the newest draft is returned (404 when there is none).
func HandleDraftList(store *services.DraftStore, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		billID := e.Request.PathValue("id")
		if e.Request.URL.Query().Get("latest") != "" {
			draft, ok, err := store.Latest(billID)
			if err != nil {
				return respondBillError(e, logger, err)
			}
			if !ok {
				return e.JSON(http.StatusNotFound, errorBody{Error: "no drafts"})
			}
			return e.JSON(http.StatusOK, draft)
		}

		drafts, err := store.List(billID)
		if err != nil {
			return respondBillError(e, logger, err)
		}
		return e.JSON(http.StatusOK, map[string]any{"drafts": drafts, "max": store.MaxPerBill()})
	}
}

// HandleDraftClear deletes every draft of a bill.
func HandleDraftClear(store *services.DraftStore, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		n, err := store.Clear(e.Request.PathValue("id"))
		if err != nil {
			return respondBillError(e, logger, err)
		}
		SetToast(e, "info", "Drafts cleared")
		return e.JSON(http.StatusOK, map[string]int{"deleted": n})
	}
}
