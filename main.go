package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"contractorbill/collections"
	"contractorbill/commands"
	"contractorbill/config"
	"contractorbill/handlers"
	"contractorbill/services"
)

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	cfg, err := config.Load(os.Getenv("BILL_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	app := pocketbase.New()
	exporter := cfg.NewExporter(logger)
	drafts := services.NewDraftStore(app, cfg.Drafts.MaxPerBill, logger.Named("drafts"))

	app.RootCmd.AddCommand(commands.NewExportCommand(exporter, cfg.Export.OutputDir, logger.Named("cli")))

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			logger.Warn("seed data failed", zap.Error(err))
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		httpLog := logger.Named("http")
		se.Router.BindFunc(handlers.RequestLogger(httpLog))

		// ── Bill API ─────────────────────────────────────────────
		se.Router.POST("/api/bills/compute", handlers.HandleBillCompute(exporter, httpLog))
		se.Router.POST("/api/bills/import", handlers.HandleBillImport(app, exporter, httpLog))
		se.Router.POST("/api/bills", handlers.HandleBillCreate(app, exporter, httpLog))
		se.Router.GET("/api/bills/{id}", handlers.HandleBillGet(app, exporter, httpLog))

		// ── Drafts ───────────────────────────────────────────────
		se.Router.POST("/api/bills/{id}/drafts", handlers.HandleDraftSave(drafts, httpLog))
		se.Router.GET("/api/bills/{id}/drafts", handlers.HandleDraftList(drafts, httpLog))
		se.Router.DELETE("/api/bills/{id}/drafts", handlers.HandleDraftClear(drafts, httpLog))

		// ── Export ───────────────────────────────────────────────
		se.Router.GET("/bills/{id}/export/{format}", handlers.HandleBillExport(app, exporter, httpLog))
		se.Router.GET("/bills/{id}/export", handlers.HandleBillExportAll(app, exporter, httpLog))
		se.Router.GET("/bills/{id}/preview", handlers.HandleBillPreview(app, exporter, httpLog))

		// ── HTML → PDF ───────────────────────────────────────────
		se.Router.POST("/api/pdf/render", handlers.HandlePDFRender(
			&services.ChromePDFRenderer{Bin: cfg.PDF.ChromeBin, Logger: logger.Named("chrome")}, httpLog))

		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.JSON(http.StatusOK, map[string]any{
				"service": "contractorbill",
				"formats": services.AllFormats(),
			})
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		logger.Fatal("app stopped", zap.Error(err))
	}
}
