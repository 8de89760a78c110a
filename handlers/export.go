package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"contractorbill/services"
)

// ExportReport is written into the export-all bundle as export_report.json.
type ExportReport struct {
	BillID      string                  `json:"billId"`
	Project     string                  `json:"project"`
	GeneratedAt time.Time               `json:"generatedAt"`
	Failed      int                     `json:"failed"`
	Results     []services.ExportResult `json:"results"`
}

// writeAttachment sends data as a download. A failed write is reported as a
// *services.DownloadError and only logged, since headers are already sent.
func writeAttachment(e *core.RequestEvent, logger *zap.Logger, contentType, filename string, data []byte) error {
	e.Response.Header().Set("Content-Type", contentType)
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	e.Response.Header().Set("Content-Length", fmt.Sprint(len(data)))
	e.Response.WriteHeader(http.StatusOK)
	if _, err := e.Response.Write(data); err != nil {
		derr := &services.DownloadError{FileName: filename, Err: err}
		logger.Warn("download interrupted", zap.Error(derr))
	}
	return nil
}

// HandleBillExport returns a handler that generates and downloads one format
// of a stored bill.
func HandleBillExport(app *pocketbase.PocketBase, exp *services.Exporter, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		billID := e.Request.PathValue("id")
		if billID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing bill ID")
		}
		format, err := services.ParseFormat(e.Request.PathValue("format"))
		if err != nil {
			return respondBillError(e, logger, err)
		}

		bill, err := services.LoadBill(app, billID)
		if err != nil {
			return respondBillError(e, logger, err)
		}

		art, err := exp.Export(e.Request.Context(), format, bill)
		if err != nil {
			return respondBillError(e, logger, err)
		}

		logger.Info("bill exported",
			zap.String("bill_id", billID),
			zap.String("format", string(format)),
			zap.Int("bytes", len(art.Data)))
		return writeAttachment(e, logger, art.ContentType, art.FileName, art.Data)
	}
}

// HandleBillExportAll returns a handler that runs every requested format
// (all by default, or ?formats=xlsx,pdf) and downloads the successful files
// in one ZIP together with export_report.json. Individual format failures
// are listed in the report; the request fails only when none succeeded.
func HandleBillExportAll(app *pocketbase.PocketBase, exp *services.Exporter, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		billID := e.Request.PathValue("id")
		if billID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing bill ID")
		}
		formats, err := services.ParseFormats(e.Request.URL.Query().Get("formats"))
		if err != nil {
			return respondBillError(e, logger, err)
		}

		bill, err := services.LoadBill(app, billID)
		if err != nil {
			return respondBillError(e, logger, err)
		}

		results, err := exp.ExportAll(e.Request.Context(), bill, formats...)
		if err != nil {
			return respondBillError(e, logger, err)
		}

		report := ExportReport{
			BillID:      billID,
			Project:     bill.Header.ProjectName,
			GeneratedAt: results[0].GeneratedAt,
			Failed:      services.CountFailures(results),
			Results:     results,
		}
		if report.Failed == len(results) {
			return ErrorToastJSON(e, http.StatusInternalServerError, "All export formats failed", report)
		}

		var entries []services.ZipEntry
		for _, r := range results {
			if r.Success {
				entries = append(entries, services.ZipEntry{Name: r.FileName, Data: r.Artifact.Data, Modified: report.GeneratedAt})
			}
		}
		reportJSON, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return respondBillError(e, logger, err)
		}
		entries = append(entries, services.ZipEntry{Name: "export_report.json", Data: reportJSON, Modified: report.GeneratedAt})

		bundle, err := services.WriteZip(entries)
		if err != nil {
			return respondBillError(e, logger, err)
		}

		if report.Failed > 0 {
			SetToast(e, "warning", fmt.Sprintf("%d of %d formats failed, see export_report.json", report.Failed, len(results)))
		} else {
			SetToast(e, "success", "All formats exported")
		}

		name := services.GenerateFileName(bill.Header.ProjectName, "zip", report.GeneratedAt)
		return writeAttachment(e, logger, "application/zip", name, bundle)
	}
}

// HandleBillPreview renders the HTML bill inline.
func HandleBillPreview(app *pocketbase.PocketBase, exp *services.Exporter, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		bill, err := services.LoadBill(app, e.Request.PathValue("id"))
		if err != nil {
			return respondBillError(e, logger, err)
		}
		doc, err := exp.Document(bill)
		if err != nil {
			return respondBillError(e, logger, err)
		}
		table, err := services.BuildBillTable(doc)
		if err != nil {
			return respondBillError(e, logger, err)
		}

		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		return services.BillPage(table, doc).Render(e.Request.Context(), e.Response)
	}
}
