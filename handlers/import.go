package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"contractorbill/services"
)

const maxImportSize = 10 << 20

// HandleBillImport accepts a multipart "file" workbook, parses it into a
// bill, validates it and stores it.
func HandleBillImport(app *pocketbase.PocketBase, exp *services.Exporter, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(maxImportSize); err != nil {
			return ErrorToastJSON(e, http.StatusBadRequest, "Upload a workbook in the \"file\" field", errorBody{Error: "invalid upload", Message: err.Error()})
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToastJSON(e, http.StatusBadRequest, "Upload a workbook in the \"file\" field", errorBody{Error: "missing file"})
		}
		defer file.Close()

		if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".xlsx" && ext != ".xlsm" {
			return ErrorToastJSON(e, http.StatusBadRequest, "Only .xlsx workbooks can be imported", errorBody{Error: "unsupported file type"})
		}

		bill, err := services.ParseBillWorkbook(file)
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			logger.Warn("bill import: unreadable cells", zap.String("file", header.Filename), zap.Error(err))
			return respondBillError(e, logger, err)
		}
		if err != nil {
			logger.Warn("bill import: parse failed", zap.String("file", header.Filename), zap.Error(err))
			msg := "Could not read workbook"
			if errors.Is(err, services.ErrNoBillSheet) {
				msg = err.Error()
			}
			return ErrorToastJSON(e, http.StatusBadRequest, msg, errorBody{Error: "invalid workbook", Message: err.Error()})
		}
		if err := services.ValidateBill(*bill); err != nil {
			return respondBillError(e, logger, err)
		}

		id, err := services.SaveBill(app, *bill)
		if err != nil {
			return respondBillError(e, logger, err)
		}
		logger.Info("bill imported",
			zap.String("bill_id", id),
			zap.String("file", header.Filename),
			zap.Int("items", len(bill.Items)))

		SetToast(e, "success", "Bill imported")
		return e.JSON(http.StatusCreated, BillResponse{ID: id, Bill: *bill, Totals: bill.Totals(exp.Rates())})
	}
}
