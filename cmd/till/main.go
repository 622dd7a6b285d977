// Command till is a terminal front end for the billing screen.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"billingDesk/client"
	"billingDesk/config"
	"billingDesk/printer"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	baseURL := flag.String("url", cfg.BillingURL, "billing server base URL")
	billingPage := flag.String("page", cfg.BillingPage, "billing page path")
	pdf := flag.Bool("pdf", true, "save invoices as PDF when a browser is available")
	flag.Parse()

	logger, err := cfg.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := client.NewClient(*baseURL, cfg.HTTPTimeout, logger)
	if err != nil {
		logger.Fatal("client", zap.Error(err))
	}
	if err = c.OpenPage(ctx, *billingPage); err != nil {
		logger.Fatal("open billing page", zap.String("url", c.Resolve(*billingPage)), zap.Error(err))
	}

	var p *printer.InvoicePrinter
	if *pdf {
		p = printer.NewInvoicePrinter(cfg.ChromePath, cfg.InvoiceDir, logger)
		if !p.Available() {
			logger.Info("no browser found, invoices will not be saved as PDF")
		}
	}

	t := newTill(os.Stdout, c, c.Resolve(*billingPage), p, logger)
	if err = t.run(ctx, os.Stdin); err != nil {
		logger.Error("till stopped", zap.Error(err))
	}
}
