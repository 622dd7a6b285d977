package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"billingDesk/client"
	"billingDesk/controllers"
	"billingDesk/models"
	"billingDesk/page"
	"billingDesk/printer"
	"billingDesk/views"

	"go.uber.org/zap"
)

const helpText = `commands:
  search <text>          look up products by name or SKU
  pick <n>               add search result n to the cart
  qty <product-id> <n>   quantity used the next time that product is added
  set <line> <n>         change the quantity of a cart line
  rm <line>              remove a cart line
  customer <field> <v>   field is name, phone, email or address
  pay <method>           cash, card or upi
  invoice                submit the cart
  show                   print the cart
  menu                   open the side panel
  new                    start a new sale
  quit`

var customerFields = map[string]string{
	"name":    page.CustomerName,
	"phone":   page.CustomerPhone,
	"email":   page.CustomerEmail,
	"address": page.CustomerAddress,
}

// till drives the billing controllers from a line-oriented terminal.
type till struct {
	out     io.Writer
	doc     *page.Document
	client  *client.Client
	cart    *controllers.CartController
	search  *controllers.SearchHelper
	menu    *controllers.MenuToggle
	printer *printer.InvoicePrinter
	logger  *zap.Logger

	printed []string
}

func newTill(out io.Writer, c *client.Client, pageURL string, p *printer.InvoicePrinter, logger *zap.Logger) *till {
	doc := page.NewBillingDocument(pageURL)
	doc.SetValue(page.PaymentMethod, "cash")
	t := &till{
		out:     out,
		doc:     doc,
		client:  c,
		printer: p,
		logger:  logger,
	}
	t.cart = controllers.NewCartController(doc, c, logger)
	t.search = controllers.NewSearchHelper(doc, c, t.cart, logger)
	t.menu = controllers.NewMenuToggle(doc)
	doc.OnAlert = func(message string) {
		fmt.Fprintf(out, "! %s\n", message)
	}
	return t
}

func (t *till) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(t.out, "billing till ready, type help for commands")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(t.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(t.out)
			return scanner.Err()
		}
		quit, err := t.exec(ctx, scanner.Text())
		if err != nil {
			t.logger.Debug("command failed", zap.Error(err))
		}
		if quit {
			return nil
		}
	}
}

func (t *till) exec(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	cmd, args := fields[0], fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), cmd))

	switch cmd {
	case "help", "?":
		fmt.Fprintln(t.out, helpText)
	case "quit", "exit":
		return true, nil
	case "search":
		err = t.search.OnInput(ctx, rest)
		if err != nil {
			fmt.Fprintln(t.out, "Search failed")
			return
		}
		if len([]rune(strings.TrimSpace(rest))) >= 2 {
			err = views.WriteSearchResults(t.out, t.search.Results())
		}
	case "pick":
		var i int
		if i, err = intArg(args, 0); err != nil {
			break
		}
		if err = t.search.Select(i); err != nil {
			break
		}
		err = t.show()
	case "qty":
		var id int64
		if len(args) != 2 {
			err = errUsage
			break
		}
		if id, err = strconv.ParseInt(args[0], 10, 64); err != nil {
			break
		}
		t.doc.Add(page.QuantityInput(id), args[1])
	case "set":
		var i int
		if len(args) != 2 {
			err = errUsage
			break
		}
		if i, err = intArg(args, 0); err != nil {
			break
		}
		if err = t.cart.UpdateCartItem(i, args[1]); err != nil {
			break
		}
		err = t.show()
	case "rm":
		var i int
		if i, err = intArg(args, 0); err != nil {
			break
		}
		if err = t.cart.RemoveFromCart(i); err != nil {
			break
		}
		err = t.show()
	case "customer":
		if len(args) == 0 {
			err = errUsage
			break
		}
		id, ok := customerFields[args[0]]
		if !ok {
			err = errUsage
			break
		}
		t.doc.SetValue(id, strings.TrimSpace(strings.TrimPrefix(rest, args[0])))
	case "pay":
		if len(args) != 1 {
			err = errUsage
			break
		}
		t.doc.SetValue(page.PaymentMethod, strings.ToLower(args[0]))
	case "invoice":
		err = t.invoice(ctx)
	case "show":
		err = t.show()
	case "menu":
		if t.menu.Toggle() {
			fmt.Fprintln(t.out, "side panel open")
		}
	case "new":
		t.cart.Reset()
		for _, id := range customerFields {
			t.doc.SetValue(id, "")
		}
		t.doc.SetValue(page.PaymentMethod, "cash")
		fmt.Fprintln(t.out, "new sale")
	default:
		err = errUsage
	}

	if errors.Is(err, errUsage) {
		fmt.Fprintln(t.out, "unknown command, type help")
	}
	return
}

var errUsage = errors.New("usage")

func intArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, errUsage
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, errUsage
	}
	return n, nil
}

func (t *till) show() error {
	return views.WriteCartTable(t.out, t.cart.Cart())
}

// invoice submits the cart and, when a browser is available, stores the
// printed invoice as PDF.
func (t *till) invoice(ctx context.Context) error {
	before := len(t.doc.Navigations())
	if err := t.cart.GenerateInvoice(ctx); err != nil {
		return err
	}
	navs := t.doc.Navigations()
	if len(navs) == before {
		return nil
	}
	printPath := navs[len(navs)-1]
	url := t.client.Resolve(printPath)
	fmt.Fprintf(t.out, "invoice: %s\n", url)

	if t.printer == nil || !t.printer.Available() {
		return nil
	}
	saleId := saleIdFromPrintPath(printPath)
	path, err := t.printer.SaveInvoice(ctx, saleId, url)
	if err != nil {
		fmt.Fprintf(t.out, "could not save PDF: %v\n", err)
		return err
	}
	t.printed = append(t.printed, path)
	fmt.Fprintf(t.out, "saved %s\n", path)
	return nil
}

func saleIdFromPrintPath(path string) models.SaleID {
	id := strings.TrimPrefix(path, "/invoice/")
	id = strings.TrimSuffix(id, "/print/")
	return models.SaleID(id)
}
