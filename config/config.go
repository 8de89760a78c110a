// Package config loads application settings from an optional YAML file and
// BILL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"contractorbill/services"
)

// PDF rendering modes.
const (
	PDFModeNative = "native"
	PDFModeRemote = "remote"
	PDFModeChrome = "chrome"
)

// Config holds all application configuration
type Config struct {
	Logger LoggerConfig `mapstructure:"logger"`
	Export ExportConfig `mapstructure:"export"`
	PDF    PDFConfig    `mapstructure:"pdf"`
	Bill   BillConfig   `mapstructure:"bill"`
	Drafts DraftsConfig `mapstructure:"drafts"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// ExportConfig controls the export fan-out and the CLI output directory.
type ExportConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	OutputDir   string `mapstructure:"output_dir"`
}

// PDFConfig selects how PDFs are produced.
type PDFConfig struct {
	Mode        string        `mapstructure:"mode"`
	RendererURL string        `mapstructure:"renderer_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
	ChromeBin   string        `mapstructure:"chrome_bin"`
}

// BillConfig holds bill computation settings.
type BillConfig struct {
	Deductions services.DeductionRates `mapstructure:"deductions"`
}

// DraftsConfig holds draft retention settings.
type DraftsConfig struct {
	MaxPerBill int `mapstructure:"max_per_bill"`
}

// Load reads configuration from configPath (skipped when empty) and BILL_*
// environment variables, e.g. BILL_PDF_MODE or BILL_EXPORT_CONCURRENCY.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "console")

	// Export defaults
	v.SetDefault("export.concurrency", 4)
	v.SetDefault("export.output_dir", "exports")

	// PDF defaults
	v.SetDefault("pdf.mode", PDFModeNative)
	v.SetDefault("pdf.renderer_url", "")
	v.SetDefault("pdf.timeout", 30*time.Second)
	v.SetDefault("pdf.retries", 1)
	v.SetDefault("pdf.chrome_bin", "")

	// Deduction defaults
	rates := services.DefaultDeductionRates()
	v.SetDefault("bill.deductions.security_deposit", rates.SecurityDeposit)
	v.SetDefault("bill.deductions.income_tax", rates.IncomeTax)
	v.SetDefault("bill.deductions.gst", rates.GST)
	v.SetDefault("bill.deductions.labour_cess", rates.LabourCess)

	// Draft defaults
	v.SetDefault("drafts.max_per_bill", 10)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Export.Concurrency < 1 {
		return fmt.Errorf("export.concurrency must be at least 1, got %d", c.Export.Concurrency)
	}

	switch c.PDF.Mode {
	case PDFModeNative, PDFModeChrome:
	case PDFModeRemote:
		if c.PDF.RendererURL == "" {
			return errors.New("pdf.renderer_url is required when pdf.mode is remote")
		}
	default:
		return fmt.Errorf("pdf.mode must be one of native, remote, chrome; got %q", c.PDF.Mode)
	}
	if c.PDF.Timeout <= 0 {
		return errors.New("pdf.timeout must be positive")
	}
	if c.PDF.Retries < 0 {
		return errors.New("pdf.retries cannot be negative")
	}

	d := c.Bill.Deductions
	for name, rate := range map[string]float64{
		"security_deposit": d.SecurityDeposit,
		"income_tax":       d.IncomeTax,
		"gst":              d.GST,
		"labour_cess":      d.LabourCess,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("bill.deductions.%s must be a fraction between 0 and 1, got %v", name, rate)
		}
	}

	if c.Drafts.MaxPerBill < 1 {
		return fmt.Errorf("drafts.max_per_bill must be at least 1, got %d", c.Drafts.MaxPerBill)
	}
	return nil
}

// PDFRenderer returns the HTML→PDF renderer for the configured mode, or nil
// in native mode.
func (c *Config) PDFRenderer(logger *zap.Logger) services.PDFRenderer {
	switch c.PDF.Mode {
	case PDFModeRemote:
		r := services.NewRemotePDFRenderer(c.PDF.RendererURL, logger)
		r.Timeout = c.PDF.Timeout
		r.Retries = c.PDF.Retries
		return r
	case PDFModeChrome:
		return &services.ChromePDFRenderer{Bin: c.PDF.ChromeBin, Logger: logger}
	}
	return nil
}

// NewExporter builds the exporter described by the configuration.
func (c *Config) NewExporter(logger *zap.Logger) *services.Exporter {
	opts := []services.ExporterOption{
		services.WithRates(c.Bill.Deductions),
		services.WithConcurrency(c.Export.Concurrency),
		services.WithLogger(logger),
	}
	if r := c.PDFRenderer(logger); r != nil {
		opts = append(opts, services.WithSerializer(services.HTMLPDFSerializer{Renderer: r}))
	}
	return services.NewExporter(opts...)
}
