package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"contractorbill/services"
)

// BillResponse is the JSON shape of a bill together with its computed totals.
type BillResponse struct {
	ID     string                  `json:"id,omitempty"`
	Bill   services.Bill           `json:"bill"`
	Totals services.ComputedTotals `json:"totals"`
}

type errorBody struct {
	Error    string             `json:"error"`
	Message  string             `json:"message,omitempty"`
	Problems []services.Problem `json:"problems,omitempty"`
}

// respondBillError maps service errors to HTTP responses: 422 for validation
// problems, 404 for missing bills, 400 for unknown formats and 500 otherwise.
func respondBillError(e *core.RequestEvent, logger *zap.Logger, err error) error {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		msg := "Bill is invalid"
		if len(ve.Problems) > 0 {
			msg = ve.Problems[0].String()
		}
		return ErrorToastJSON(e, http.StatusUnprocessableEntity, msg, errorBody{
			Error:    "validation failed",
			Problems: ve.Problems,
		})
	case errors.Is(err, services.ErrBillNotFound):
		return ErrorToastJSON(e, http.StatusNotFound, "Bill not found", errorBody{Error: "bill not found"})
	case errors.Is(err, services.ErrUnknownFormat):
		return ErrorToastJSON(e, http.StatusBadRequest, err.Error(), errorBody{Error: err.Error()})
	}
	logger.Error("bill request failed", zap.String("path", e.Request.URL.Path), zap.Error(err))
	return ErrorToastJSON(e, http.StatusInternalServerError, "Something went wrong", errorBody{
		Error:   "internal error",
		Message: err.Error(),
	})
}

// HandleBillCreate validates a bill posted as JSON and stores it.
func HandleBillCreate(app *pocketbase.PocketBase, exp *services.Exporter, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var bill services.Bill
		if err := e.BindBody(&bill); err != nil {
			return ErrorToastJSON(e, http.StatusBadRequest, "Invalid bill JSON", errorBody{Error: "invalid JSON", Message: err.Error()})
		}
		if err := services.ValidateBill(bill); err != nil {
			return respondBillError(e, logger, err)
		}

		id, err := services.SaveBill(app, bill)
		if err != nil {
			return respondBillError(e, logger, err)
		}
		logger.Info("bill created", zap.String("bill_id", id), zap.Int("items", len(bill.Items)))

		SetToast(e, "success", "Bill saved")
		return e.JSON(http.StatusCreated, BillResponse{ID: id, Bill: bill, Totals: bill.Totals(exp.Rates())})
	}
}

// HandleBillGet returns a stored bill and its totals.
func HandleBillGet(app *pocketbase.PocketBase, exp *services.Exporter, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		bill, err := services.LoadBill(app, id)
		if err != nil {
			return respondBillError(e, logger, err)
		}
		return e.JSON(http.StatusOK, BillResponse{ID: id, Bill: bill, Totals: bill.Totals(exp.Rates())})
	}
}

// HandleBillCompute validates and computes a bill without storing it.
func HandleBillCompute(exp *services.Exporter, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var bill services.Bill
		if err := e.BindBody(&bill); err != nil {
			return ErrorToastJSON(e, http.StatusBadRequest, "Invalid bill JSON", errorBody{Error: "invalid JSON", Message: err.Error()})
		}
		if err := services.ValidateBill(bill); err != nil {
			return respondBillError(e, logger, err)
		}
		return e.JSON(http.StatusOK, BillResponse{Bill: bill, Totals: bill.Totals(exp.Rates())})
	}
}
