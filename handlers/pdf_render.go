package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"contractorbill/services"
)

// HandlePDFRender prints posted HTML to PDF:
// {"htmlContent": "...", "options": {"format", "landscape", "filename", "marginTop", ...}}.
func HandlePDFRender(renderer services.PDFRenderer, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req services.PDFRequest
		if err := e.BindBody(&req); err != nil {
			return e.JSON(http.StatusBadRequest, errorBody{Error: "Invalid request body", Message: err.Error()})
		}
		if req.HTMLContent == "" {
			return e.JSON(http.StatusBadRequest, errorBody{Error: "HTML content is required"})
		}

		opts := req.Options.WithDefaults()
		pdf, err := renderer.RenderPDF(e.Request.Context(), req.HTMLContent, opts)
		if err != nil {
			logger.Error("pdf render failed", zap.Error(err))
			return e.JSON(http.StatusInternalServerError, errorBody{
				Error:   "Failed to generate PDF",
				Message: err.Error(),
			})
		}
		return writeAttachment(e, logger, "application/pdf", opts.Filename, pdf)
	}
}
