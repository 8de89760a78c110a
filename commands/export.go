// Package commands holds the CLI subcommands attached to the PocketBase root
// command.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"contractorbill/services"
)

// NewExportCommand returns `export --input bill.yaml --out dir --formats xlsx,pdf`.
func NewExportCommand(exp *services.Exporter, defaultOutDir string, logger *zap.Logger) *cobra.Command {
	var (
		input   string
		outDir  string
		formats string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a bill file (YAML or JSON) to one or more document formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := services.ParseFormats(formats)
			if err != nil {
				return err
			}
			bill, err := ReadBillFile(input)
			if err != nil {
				return err
			}
			return RunExport(cmd, exp, bill, outDir, fs, logger)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "bill file (.yaml, .yml or .json)")
	cmd.Flags().StringVarP(&outDir, "out", "o", defaultOutDir, "output directory")
	cmd.Flags().StringVarP(&formats, "formats", "f", "", "comma separated formats (default: all)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// ReadBillFile decodes a bill from YAML or JSON, chosen by file extension.
func ReadBillFile(path string) (services.Bill, error) {
	var bill services.Bill
	data, err := os.ReadFile(path)
	if err != nil {
		return bill, fmt.Errorf("read bill file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &bill)
	default:
		err = yaml.Unmarshal(data, &bill)
	}
	if err != nil {
		return bill, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return bill, nil
}

// RunExport writes every successful format of bill to outDir and prints one
// line per format. It returns an error when validation fails, when any format
// fails, or when any file could not be written; the remaining files are still
// written.
func RunExport(cmd *cobra.Command, exp *services.Exporter, bill services.Bill, outDir string, formats []services.Format, logger *zap.Logger) error {
	out := cmd.OutOrStdout()

	results, err := exp.ExportAll(cmd.Context(), bill, formats...)
	if err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			for _, p := range ve.Problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %s\n", p)
			}
		}
		return err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var failed, writeFailed int
	for _, r := range results {
		if !r.Success {
			failed++
			fmt.Fprintf(out, "FAIL  %-5s %s\n", r.Format, r.Error)
			continue
		}
		path := filepath.Join(outDir, r.FileName)
		if err := writeFile(path, r.Artifact.Data); err != nil {
			writeFailed++
			logger.Error("write export", zap.Error(err))
			fmt.Fprintf(out, "FAIL  %-5s %v\n", r.Format, err)
			continue
		}
		fmt.Fprintf(out, "OK    %-5s %s\n", r.Format, path)
	}

	if failed+writeFailed > 0 {
		return fmt.Errorf("%d of %d formats failed", failed+writeFailed, len(results))
	}
	return nil
}

func writeFile(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return &services.DownloadError{FileName: filepath.Base(path), Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return &services.DownloadError{FileName: filepath.Base(path), Err: err}
	}
	if err := f.Close(); err != nil {
		return &services.DownloadError{FileName: filepath.Base(path), Err: err}
	}
	return nil
}
