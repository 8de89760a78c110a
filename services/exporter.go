package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Format names an output document type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatZIP  Format = "zip"
	FormatTXT  Format = "txt"
)

// AllFormats returns the formats produced by "export all formats".
func AllFormats() []Format {
	return []Format{FormatXLSX, FormatHTML, FormatCSV, FormatPDF, FormatDOCX, FormatZIP}
}

// ParseFormat maps a user supplied name (case-insensitive, with a few
// aliases) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "html", "htm":
		return FormatHTML, nil
	case "csv":
		return FormatCSV, nil
	case "pdf":
		return FormatPDF, nil
	case "docx", "word":
		return FormatDOCX, nil
	case "zip":
		return FormatZIP, nil
	case "txt", "text":
		return FormatTXT, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ParseFormats parses a comma separated list. An empty list yields AllFormats.
func ParseFormats(list string) ([]Format, error) {
	if strings.TrimSpace(list) == "" {
		return AllFormats(), nil
	}
	var formats []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(list, ",") {
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// Serializer turns a bill document into the bytes of one format.
type Serializer interface {
	Format() Format
	Extension() string
	ContentType() string
	Serialize(ctx context.Context, doc *BillDocument) ([]byte, error)
}

// Artifact is a produced file ready for download.
type Artifact struct {
	Format      Format
	FileName    string
	ContentType string
	Data        []byte
}

// ExportResult is the per-format outcome of ExportAll.
type ExportResult struct {
	Format   Format    `json:"format"`
	Success  bool      `json:"success"`
	FileName string    `json:"fileName,omitempty"`
	Error    string    `json:"error,omitempty"`
	Artifact *Artifact `json:"-"`
	Err      error     `json:"-"`

	// GeneratedAt is the shared document timestamp every file name of the
	// run is derived from.
	GeneratedAt time.Time `json:"-"`
}

// CountFailures returns how many results did not succeed.
func CountFailures(results []ExportResult) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}

// Exporter validates a bill, computes its totals once and dispatches the
// document to the registered serializers.
type Exporter struct {
	serializers map[Format]Serializer
	rates       DeductionRates
	concurrency int
	now         func() time.Time
	logger      *zap.Logger
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithRates sets the deduction rates.
func WithRates(r DeductionRates) ExporterOption {
	return func(e *Exporter) { e.rates = r }
}

// WithConcurrency bounds how many serializers ExportAll runs at once.
func WithConcurrency(n int) ExporterOption {
	return func(e *Exporter) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithClock overrides the time source used for filenames and print dates.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ExporterOption {
	return func(e *Exporter) { e.logger = l }
}

// WithSerializer registers s, replacing any serializer for the same format.
func WithSerializer(s Serializer) ExporterOption {
	return func(e *Exporter) { e.serializers[s.Format()] = s }
}

// NewExporter builds an exporter with the built-in serializers. Unless a ZIP
// serializer is supplied, the bundle is assembled from the final xlsx, html
// and csv serializers plus the plain-text summary.
func NewExporter(opts ...ExporterOption) *Exporter {
	e := &Exporter{
		serializers: map[Format]Serializer{
			FormatXLSX: ExcelSerializer{},
			FormatHTML: HTMLSerializer{},
			FormatCSV:  CSVSerializer{},
			FormatPDF:  NativePDFSerializer{},
			FormatDOCX: DocxSerializer{},
			FormatTXT:  TextSerializer{},
		},
		rates:       DefaultDeductionRates(),
		concurrency: 4,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, ok := e.serializers[FormatZIP]; !ok {
		e.serializers[FormatZIP] = NewZipSerializer(
			e.serializers[FormatXLSX],
			e.serializers[FormatHTML],
			e.serializers[FormatCSV],
			e.serializers[FormatTXT],
		)
	}
	return e
}

// Rates returns the deduction rates the exporter applies.
func (e *Exporter) Rates() DeductionRates { return e.rates }

// Serializer returns the serializer registered for f.
func (e *Exporter) Serializer(f Format) (Serializer, bool) {
	s, ok := e.serializers[f]
	return s, ok
}

// Document validates the bill and computes its document snapshot.
func (e *Exporter) Document(b Bill) (*BillDocument, error) {
	if err := ValidateBill(b); err != nil {
		return nil, err
	}
	return NewBillDocument(b, e.rates, e.now()), nil
}

// Export produces a single format. Validation failures are returned before
// any serializer runs.
func (e *Exporter) Export(ctx context.Context, f Format, b Bill) (*Artifact, error) {
	s, ok := e.serializers[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	doc, err := e.Document(b)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, s, doc)
}

// ExportAll produces every requested format concurrently (AllFormats when
// none are given). A failing format is reported in its result record and
// never aborts its siblings; only validation failure returns an error.
func (e *Exporter) ExportAll(ctx context.Context, b Bill, formats ...Format) ([]ExportResult, error) {
	if len(formats) == 0 {
		formats = AllFormats()
	}
	doc, err := e.Document(b)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := e.logger.With(zap.String("run_id", runID), zap.String("project", doc.Header.ProjectName))
	log.Info("export all started", zap.Int("formats", len(formats)))
	start := time.Now()

	results := make([]ExportResult, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, f := range formats {
		g.Go(func() error {
			results[i] = e.exportOne(gctx, f, doc)
			results[i].GeneratedAt = doc.GeneratedAt
			if !results[i].Success {
				log.Warn("format failed", zap.String("format", string(f)), zap.Error(results[i].Err))
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info("export all finished",
		zap.Int("failed", CountFailures(results)),
		zap.Duration("elapsed", time.Since(start)))
	return results, nil
}

func (e *Exporter) exportOne(ctx context.Context, f Format, doc *BillDocument) ExportResult {
	res := ExportResult{Format: f}
	s, ok := e.serializers[f]
	if !ok {
		res.Err = fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		res.Error = res.Err.Error()
		return res
	}
	art, err := e.run(ctx, s, doc)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		return res
	}
	res.Success = true
	res.FileName = art.FileName
	res.Artifact = art
	return res
}

// run executes one serializer on its own copy of the document. Errors and
// panics both come back as *SerializationError.
func (e *Exporter) run(ctx context.Context, s Serializer, doc *BillDocument) (art *Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("serializer panicked",
				zap.String("format", string(s.Format())),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			art = nil
			err = &SerializationError{Format: s.Format(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, &SerializationError{Format: s.Format(), Err: err}
	}

	data, err := s.Serialize(ctx, doc.Clone())
	if err != nil {
		return nil, &SerializationError{Format: s.Format(), Err: err}
	}
	return &Artifact{
		Format:      s.Format(),
		FileName:    GenerateFileName(doc.Header.ProjectName, s.Extension(), doc.GeneratedAt),
		ContentType: s.ContentType(),
		Data:        data,
	}, nil
}
