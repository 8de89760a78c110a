package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"contractorbill/services"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, 4, cfg.Export.Concurrency)
	assert.Equal(t, "exports", cfg.Export.OutputDir)
	assert.Equal(t, PDFModeNative, cfg.PDF.Mode)
	assert.Equal(t, 30*time.Second, cfg.PDF.Timeout)
	assert.Equal(t, 1, cfg.PDF.Retries)
	assert.Equal(t, services.DefaultDeductionRates(), cfg.Bill.Deductions)
	assert.Equal(t, 10, cfg.Drafts.MaxPerBill)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BILL_EXPORT_CONCURRENCY", "2")
	t.Setenv("BILL_PDF_MODE", "remote")
	t.Setenv("BILL_PDF_RENDERER_URL", "http://localhost:3001/api/generate-pdf")
	t.Setenv("BILL_PDF_TIMEOUT", "5s")
	t.Setenv("BILL_BILL_DEDUCTIONS_GST", "0.12")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Export.Concurrency)
	assert.Equal(t, PDFModeRemote, cfg.PDF.Mode)
	assert.Equal(t, "http://localhost:3001/api/generate-pdf", cfg.PDF.RendererURL)
	assert.Equal(t, 5*time.Second, cfg.PDF.Timeout)
	assert.Equal(t, 0.12, cfg.Bill.Deductions.GST)
	assert.Equal(t, 0.05, cfg.Bill.Deductions.SecurityDeposit)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bill.yaml")
	content := `
logger:
  level: debug
  format: json
export:
  concurrency: 8
  output_dir: /tmp/bills
pdf:
  mode: chrome
  chrome_bin: /usr/bin/chromium
bill:
  deductions:
    security_deposit: 0.1
    income_tax: 0.01
drafts:
  max_per_bill: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 8, cfg.Export.Concurrency)
	assert.Equal(t, "/tmp/bills", cfg.Export.OutputDir)
	assert.Equal(t, PDFModeChrome, cfg.PDF.Mode)
	assert.Equal(t, "/usr/bin/chromium", cfg.PDF.ChromeBin)
	assert.Equal(t, 0.1, cfg.Bill.Deductions.SecurityDeposit)
	assert.Equal(t, 0.01, cfg.Bill.Deductions.IncomeTax)
	assert.Equal(t, 0.18, cfg.Bill.Deductions.GST, "unset keys keep their defaults")
	assert.Equal(t, 3, cfg.Drafts.MaxPerBill)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Export: ExportConfig{Concurrency: 1},
			PDF:    PDFConfig{Mode: PDFModeNative, Timeout: time.Second},
			Bill:   BillConfig{Deductions: services.DefaultDeductionRates()},
			Drafts: DraftsConfig{MaxPerBill: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero concurrency", func(c *Config) { c.Export.Concurrency = 0 }, "export.concurrency"},
		{"unknown mode", func(c *Config) { c.PDF.Mode = "wkhtml" }, "pdf.mode must be one of"},
		{"remote without url", func(c *Config) { c.PDF.Mode = PDFModeRemote }, "pdf.renderer_url is required"},
		{"zero timeout", func(c *Config) { c.PDF.Timeout = 0 }, "pdf.timeout"},
		{"negative retries", func(c *Config) { c.PDF.Retries = -1 }, "pdf.retries"},
		{"rate above one", func(c *Config) { c.Bill.Deductions.GST = 18 }, "bill.deductions.gst"},
		{"negative rate", func(c *Config) { c.Bill.Deductions.LabourCess = -0.01 }, "bill.deductions.labour_cess"},
		{"no drafts", func(c *Config) { c.Drafts.MaxPerBill = 0 }, "drafts.max_per_bill"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPDFRenderer(t *testing.T) {
	logger := zap.NewNop()

	native := &Config{PDF: PDFConfig{Mode: PDFModeNative}}
	assert.Nil(t, native.PDFRenderer(logger))

	remote := &Config{PDF: PDFConfig{Mode: PDFModeRemote, RendererURL: "http://r", Timeout: 7 * time.Second, Retries: 3}}
	r, ok := remote.PDFRenderer(logger).(*services.RemotePDFRenderer)
	require.True(t, ok)
	assert.Equal(t, "http://r", r.URL)
	assert.Equal(t, 7*time.Second, r.Timeout)
	assert.Equal(t, 3, r.Retries)

	chrome := &Config{PDF: PDFConfig{Mode: PDFModeChrome, ChromeBin: "/bin/chrome"}}
	c, ok := chrome.PDFRenderer(logger).(*services.ChromePDFRenderer)
	require.True(t, ok)
	assert.Equal(t, "/bin/chrome", c.Bin)
}

func TestNewExporter_UsesConfiguredRenderer(t *testing.T) {
	cfg := &Config{
		Export: ExportConfig{Concurrency: 2},
		PDF:    PDFConfig{Mode: PDFModeRemote, RendererURL: "http://r", Timeout: time.Second},
		Bill:   BillConfig{Deductions: services.DeductionRates{GST: 0.1}},
	}

	exp := cfg.NewExporter(zap.NewNop())

	assert.Equal(t, services.DeductionRates{GST: 0.1}, exp.Rates())
	s, ok := exp.Serializer(services.FormatPDF)
	require.True(t, ok)
	assert.IsType(t, services.HTMLPDFSerializer{}, s)

	native := (&Config{PDF: PDFConfig{Mode: PDFModeNative}}).NewExporter(zap.NewNop())
	s, _ = native.Serializer(services.FormatPDF)
	assert.IsType(t, services.NativePDFSerializer{}, s)
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := NewLogger(LoggerConfig{Level: "debug", Format: "json", OutputPath: path})
	require.NoError(t, err)
	logger.Info("hello", zap.String("k", "v"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
	assert.Contains(t, string(data), `"timestamp"`)
}

func TestNewLogger_BadLevelFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "loud", OutputPath: "stderr"})
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}
