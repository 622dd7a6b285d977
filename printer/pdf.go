package printer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"billingDesk/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

var ErrNoBrowser = errors.New("no chrome or chromium executable found")

var chromePaths = []string{
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/snap/bin/chromium",
}

// DetectChromePath returns the configured executable when it exists, else
// the first common install location found. Empty means none was found.
func DetectChromePath(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}
	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// InvoicePrinter turns the invoice print view into PDF files using a
// headless browser.
type InvoicePrinter struct {
	chromePath string
	dir        string
	timeout    time.Duration
	logger     *zap.Logger
}

func NewInvoicePrinter(chromePath, dir string, logger *zap.Logger) *InvoicePrinter {
	return &InvoicePrinter{
		chromePath: DetectChromePath(chromePath),
		dir:        dir,
		timeout:    30 * time.Second,
		logger:     logger,
	}
}

func (p *InvoicePrinter) Available() bool {
	return p.chromePath != ""
}

// FileName is the PDF file an invoice is saved under.
func (p *InvoicePrinter) FileName(saleId models.SaleID) string {
	return filepath.Join(p.dir, fmt.Sprintf("invoice-%s.pdf", saleId))
}

// PrintPDF loads url and prints it to an A4 PDF.
func (p *InvoicePrinter) PrintPDF(ctx context.Context, url string) ([]byte, error) {
	if !p.Available() {
		return nil, ErrNoBrowser
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(p.chromePath),
		chromedp.NoSandbox,
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	chromedpCtx, chromedpCancel := chromedp.NewContext(allocCtx)
	defer chromedpCancel()

	var pdfBuf []byte
	err := chromedp.Run(chromedpCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return pdfBuf, nil
}

// SaveInvoice prints the invoice view at url into the invoice directory and
// returns the written path.
func (p *InvoicePrinter) SaveInvoice(ctx context.Context, saleId models.SaleID, url string) (string, error) {
	pdf, err := p.PrintPDF(ctx, url)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("create invoice dir: %w", err)
	}
	path := p.FileName(saleId)
	if err = os.WriteFile(path, pdf, 0o644); err != nil {
		return "", fmt.Errorf("write invoice: %w", err)
	}
	p.logger.Info("invoice saved", zap.String("sale_id", string(saleId)), zap.String("path", path), zap.Int("bytes", len(pdf)))
	return path, nil
}
