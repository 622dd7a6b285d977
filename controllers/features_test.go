package controllers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"billingDesk/models"
	"billingDesk/page"

	"github.com/cucumber/godog"
	"go.uber.org/zap"
)

type cartTestContext struct {
	page       *page.Document
	submitter  *fakeSubmitter
	controller *CartController
	lastErr    error
}

func (c *cartTestContext) reset() {
	c.page = page.NewBillingDocument("/billing/")
	c.submitter = &fakeSubmitter{}
	c.controller = NewCartController(c.page, c.submitter, zap.NewNop())
	c.lastErr = nil
}

func (c *cartTestContext) anEmptyBillingPage() error {
	c.reset()
	return nil
}

func (c *cartTestContext) iAddProductPricedWithQuantity(id int64, name, price string, qty int) error {
	p, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return err
	}
	c.page.Add(page.QuantityInput(id), strconv.Itoa(qty))
	c.lastErr = c.controller.AddToCart(id, name, p)
	return nil
}

func (c *cartTestContext) iAddProductPricedWithTypedQuantity(id int64, name, price, typed string) error {
	p, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return err
	}
	c.page.Add(page.QuantityInput(id), typed)
	c.lastErr = c.controller.AddToCart(id, name, p)
	return nil
}

func (c *cartTestContext) iUpdateLineToQuantity(index int, qty string) error {
	c.lastErr = c.controller.UpdateCartItem(index, qty)
	return nil
}

func (c *cartTestContext) iRemoveLine(index int) error {
	c.lastErr = c.controller.RemoveFromCart(index)
	return nil
}

func (c *cartTestContext) iGenerateTheInvoice() error {
	c.lastErr = c.controller.GenerateInvoice(context.Background())
	return nil
}

func (c *cartTestContext) theCustomerNameIsAndPhoneIs(name, phone string) error {
	c.page.SetValue(page.CustomerName, name)
	c.page.SetValue(page.CustomerPhone, phone)
	return nil
}

func (c *cartTestContext) theBackendAcceptsInvoicesAsSale(saleId string) error {
	c.submitter.resp = models.InvoiceResponse{Success: true, SaleId: models.SaleID(saleId)}
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if got := len(c.controller.Items()); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) lineIsProductWithQuantity(index int, id int64, qty int) error {
	items := c.controller.Items()
	if index >= len(items) {
		return fmt.Errorf("no line %d in a cart of %d", index, len(items))
	}
	item := items[index]
	if item.ProductId != id || item.Quantity != qty {
		return fmt.Errorf("expected product %d x%d at line %d, got product %d x%d", id, qty, index, item.ProductId, item.Quantity)
	}
	return nil
}

func (c *cartTestContext) theLastChangeWasRejectedAsAnInvalidQuantity() error {
	if !errors.Is(c.lastErr, models.ErrInvalidQuantity) {
		return fmt.Errorf("expected an invalid quantity error, got %v", c.lastErr)
	}
	return nil
}

func (c *cartTestContext) theGrandTotalReads(want string) error {
	got, ok := c.page.Text(page.GrandTotal)
	if !ok {
		return fmt.Errorf("page has no %s", page.GrandTotal)
	}
	if got != want {
		return fmt.Errorf("expected grand total %q, got %q", want, got)
	}
	return nil
}

func (c *cartTestContext) theAlertWasShown(message string) error {
	for _, alert := range c.page.Alerts() {
		if alert == message {
			return nil
		}
	}
	return fmt.Errorf("alert %q not shown, got %q", message, c.page.Alerts())
}

func (c *cartTestContext) theQuantityInputForProductReads(id int64, want string) error {
	got, _ := c.page.Value(page.QuantityInput(id))
	if got != want {
		return fmt.Errorf("expected qty input %q, got %q", want, got)
	}
	return nil
}

func (c *cartTestContext) invoiceRequestsWereSent(n int) error {
	if got := c.submitter.callCount(); got != n {
		return fmt.Errorf("expected %d invoice requests, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) thePageNavigatedTo(url string) error {
	for _, nav := range c.page.Navigations() {
		if nav == url {
			return nil
		}
	}
	return fmt.Errorf("no navigation to %q, got %q", url, c.page.Navigations())
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given / When steps
	ctx.Step(`^an empty billing page$`, tc.anEmptyBillingPage)
	ctx.Step(`^I add product (\d+) "([^"]*)" priced ([\d.]+) with quantity (-?\d+)$`, tc.iAddProductPricedWithQuantity)
	ctx.Step(`^I add product (\d+) "([^"]*)" priced ([\d.]+) with typed quantity "([^"]*)"$`, tc.iAddProductPricedWithTypedQuantity)
	ctx.Step(`^I update line (\d+) to quantity "([^"]*)"$`, tc.iUpdateLineToQuantity)
	ctx.Step(`^I remove line (\d+)$`, tc.iRemoveLine)
	ctx.Step(`^I generate the invoice$`, tc.iGenerateTheInvoice)
	ctx.Step(`^the customer name is "([^"]*)" and phone is "([^"]*)"$`, tc.theCustomerNameIsAndPhoneIs)
	ctx.Step(`^the backend accepts invoices as sale "([^"]*)"$`, tc.theBackendAcceptsInvoicesAsSale)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines$`, tc.theCartHasLines)
	ctx.Step(`^line (\d+) is product (\d+) with quantity (\d+)$`, tc.lineIsProductWithQuantity)
	ctx.Step(`^the last change was rejected as an invalid quantity$`, tc.theLastChangeWasRejectedAsAnInvalidQuantity)
	ctx.Step(`^the grand total reads "([^"]*)"$`, tc.theGrandTotalReads)
	ctx.Step(`^the alert "([^"]*)" was shown$`, tc.theAlertWasShown)
	ctx.Step(`^the quantity input for product (\d+) reads "([^"]*)"$`, tc.theQuantityInputForProductReads)
	ctx.Step(`^(\d+) invoice requests were sent$`, tc.invoiceRequestsWereSent)
	ctx.Step(`^the page navigated to "([^"]*)"$`, tc.thePageNavigatedTo)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
