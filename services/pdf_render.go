package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PDFOptions are the page settings sent with an HTML document to be printed.
type PDFOptions struct {
	Format       string `json:"format,omitempty"`
	Landscape    *bool  `json:"landscape,omitempty"`
	Filename     string `json:"filename,omitempty"`
	MarginTop    string `json:"marginTop,omitempty"`
	MarginRight  string `json:"marginRight,omitempty"`
	MarginBottom string `json:"marginBottom,omitempty"`
	MarginLeft   string `json:"marginLeft,omitempty"`
}

// PDFRequest is the JSON body accepted by the render endpoint.
type PDFRequest struct {
	HTMLContent string     `json:"htmlContent"`
	Options     PDFOptions `json:"options"`
}

// WithDefaults fills unset options: A4, landscape, 10mm margins, bill.pdf.
func (o PDFOptions) WithDefaults() PDFOptions {
	if o.Format == "" {
		o.Format = "A4"
	}
	if o.Landscape == nil {
		landscape := true
		o.Landscape = &landscape
	}
	if o.Filename == "" {
		o.Filename = "bill.pdf"
	}
	for _, m := range []*string{&o.MarginTop, &o.MarginRight, &o.MarginBottom, &o.MarginLeft} {
		if *m == "" {
			*m = "10mm"
		}
	}
	return o
}

// IsLandscape reports the orientation, defaulting to landscape.
func (o PDFOptions) IsLandscape() bool {
	return o.Landscape == nil || *o.Landscape
}

// PDFRenderer prints an HTML document to PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string, opts PDFOptions) ([]byte, error)
}

// HTMLPDFSerializer produces the PDF format by rendering the HTML bill and
// handing it to a PDFRenderer.
type HTMLPDFSerializer struct {
	Renderer PDFRenderer
}

func (HTMLPDFSerializer) Format() Format      { return FormatPDF }
func (HTMLPDFSerializer) Extension() string   { return "pdf" }
func (HTMLPDFSerializer) ContentType() string { return "application/pdf" }

func (s HTMLPDFSerializer) Serialize(ctx context.Context, doc *BillDocument) ([]byte, error) {
	if s.Renderer == nil {
		return nil, errors.New("no pdf renderer configured")
	}
	html, err := GenerateHTML(ctx, doc)
	if err != nil {
		return nil, err
	}
	opts := PDFOptions{
		Filename: GenerateFileName(doc.Header.ProjectName, "pdf", doc.GeneratedAt),
	}.WithDefaults()
	return s.Renderer.RenderPDF(ctx, string(html), opts)
}

// RemotePDFRenderer posts HTML to an HTTP rendering service.
type RemotePDFRenderer struct {
	URL     string
	Timeout time.Duration // per attempt
	Retries int           // extra attempts after the first
	Client  *http.Client
	Logger  *zap.Logger
}

// NewRemotePDFRenderer returns a renderer with a 30s per-attempt timeout and a
// single retry.
func NewRemotePDFRenderer(url string, logger *zap.Logger) *RemotePDFRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemotePDFRenderer{
		URL:     url,
		Timeout: 30 * time.Second,
		Retries: 1,
		Client:  &http.Client{},
		Logger:  logger,
	}
}

// RenderPDF sends the document. Network errors and 5xx responses are retried
// up to r.Retries times; 4xx responses fail immediately.
func (r *RemotePDFRenderer) RenderPDF(ctx context.Context, html string, opts PDFOptions) ([]byte, error) {
	body, err := json.Marshal(PDFRequest{HTMLContent: html, Options: opts.WithDefaults()})
	if err != nil {
		return nil, fmt.Errorf("encode pdf request: %w", err)
	}

	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	attempts := r.Retries + 1
	var lastErr *TransportError
	for attempt := 1; attempt <= attempts; attempt++ {
		data, status, err := r.post(ctx, body)
		if err == nil {
			return data, nil
		}
		lastErr = &TransportError{StatusCode: status, Attempts: attempt, Err: err}
		if ctx.Err() != nil || !retryable(status) {
			break
		}
		if attempt < attempts {
			log.Warn("pdf renderer attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("status", status),
				zap.Error(err))
		}
	}
	return nil, lastErr
}

// retryable reports whether a failed attempt may be repeated: network errors
// (no status) and server errors.
func retryable(status int) bool {
	return status == 0 || status >= 500
}

func (r *RemotePDFRenderer) post(ctx context.Context, body []byte) ([]byte, int, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, 0, fmt.Errorf("timed out after %s: %w", r.Timeout, err)
		}
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %s: %s", resp.Status, errorMessage(data))
	}
	return data, resp.StatusCode, nil
}

// errorMessage extracts the message of a {"error","message"} body, falling
// back to the raw text.
func errorMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && (e.Error != "" || e.Message != "") {
		if e.Message != "" {
			return e.Error + ": " + e.Message
		}
		return e.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// marginInches converts a CSS length ("10mm", "1cm", "0.5in", "96px") to
// inches. Bare numbers are taken as millimetres.
func marginInches(s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	units := []struct {
		suffix string
		perIn  float64
	}{
		{"mm", 25.4},
		{"cm", 2.54},
		{"in", 1},
		{"px", 96},
		{"pt", 72},
	}
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid margin %q: %w", s, err)
			}
			return v / u.perIn, nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid margin %q: %w", s, err)
	}
	return v / 25.4, nil
}

// paperSize returns width and height in inches for a named paper format.
func paperSize(format string) (float64, float64) {
	switch strings.ToLower(format) {
	case "letter":
		return 8.5, 11
	case "legal":
		return 8.5, 14
	case "a3":
		return 11.69, 16.54
	default:
		return 8.27, 11.69
	}
}
