package services

import (
	"context"
	"fmt"
	"io"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// ChromePDFRenderer prints HTML with a headless Chrome launched per call.
type ChromePDFRenderer struct {
	// Bin is the browser binary. Empty lets the launcher find or download one.
	Bin    string
	Logger *zap.Logger
}

// RenderPDF loads html into a fresh page and prints it with the requested
// paper size, orientation and margins.
func (r *ChromePDFRenderer) RenderPDF(ctx context.Context, html string, opts PDFOptions) ([]byte, error) {
	opts = opts.WithDefaults()
	req, err := printRequest(opts)
	if err != nil {
		return nil, err
	}

	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	l := launcher.New().Headless(true).NoSandbox(true).Set("disable-dev-shm-usage")
	if r.Bin != "" {
		l = l.Bin(r.Bin)
	}
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			log.Warn("close chrome", zap.Error(err))
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	stream, err := page.PDF(req)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read pdf stream: %w", err)
	}
	log.Debug("chrome pdf rendered", zap.Int("bytes", len(data)))
	return data, nil
}

func printRequest(opts PDFOptions) (*proto.PagePrintToPDF, error) {
	margins := make([]float64, 4)
	for i, m := range []string{opts.MarginTop, opts.MarginRight, opts.MarginBottom, opts.MarginLeft} {
		v, err := marginInches(m)
		if err != nil {
			return nil, err
		}
		margins[i] = v
	}
	w, h := paperSize(opts.Format)
	return &proto.PagePrintToPDF{
		Landscape:         opts.IsLandscape(),
		PrintBackground:   true,
		PreferCSSPageSize: true,
		PaperWidth:        &w,
		PaperHeight:       &h,
		MarginTop:         &margins[0],
		MarginRight:       &margins[1],
		MarginBottom:      &margins[2],
		MarginLeft:        &margins[3],
	}, nil
}
