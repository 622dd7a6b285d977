package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"billingDesk/cart"
	"billingDesk/entities"
	"billingDesk/models"
	"billingDesk/page"
	"billingDesk/views"

	"go.uber.org/zap"
)

const (
	alertInvalidQuantity  = "Quantity must be at least 1"
	alertQuantityTooLarge = "Quantity is too large"
	alertEmptyCart        = "Please add at least one product to cart!"
	alertPhoneRequired    = "Phone number is required if providing customer details."
	alertInvoiceCreated   = "Invoice generated successfully!"
	alertInvoiceFailed    = "Error generating invoice: "
	alertUnknownError     = "Unknown error"
	alertNetworkError     = "Network error. Please try again."
)

type InvoiceSubmitter interface {
	SubmitInvoice(ctx context.Context, pageURL string, invoice models.InvoiceRequest) (models.InvoiceResponse, error)
}

type State int

const (
	StateEmpty State = iota
	StatePopulated
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// CartController owns one cart for the lifetime of a page.
type CartController struct {
	mu        sync.Mutex
	cart      cart.Cart
	submitted bool

	// set while an invoice request is on the wire
	submitting atomic.Bool

	page      page.Page
	view      *views.CartView
	submitter InvoiceSubmitter
	logger    *zap.Logger
}

func NewCartController(p page.Page, submitter InvoiceSubmitter, logger *zap.Logger) *CartController {
	return &CartController{
		cart:      cart.New(),
		page:      p,
		view:      views.NewCartView(logger),
		submitter: submitter,
		logger:    logger,
	}
}

// AddToCart adds the product with the quantity typed into its qty-<id> input,
// or 1 when there is no such input.
func (cc *CartController) AddToCart(productId int64, productName string, price float64) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.submitted {
		return models.ErrCartSubmitted
	}

	inputID := page.QuantityInput(productId)
	qty := 1
	if raw, ok := cc.page.Value(inputID); ok {
		if v, ok := cart.ParseIntPrefix(raw); ok {
			qty = v
		}
	}
	if qty <= 0 {
		cc.page.Alert(alertInvalidQuantity)
		cc.page.SetValue(inputID, "1")
		return fmt.Errorf("add product %d with quantity %d: %w", productId, qty, models.ErrInvalidQuantity)
	}

	next, err := cart.Add(cc.cart, productId, productName, price, qty)
	if err != nil {
		cc.logger.Warn("add to cart rejected", zap.Int64("product_id", productId), zap.Error(err))
		if errors.Is(err, models.ErrInvalidQuantity) {
			cc.page.Alert(alertQuantityTooLarge)
			cc.page.SetValue(inputID, "1")
		}
		return err
	}
	cc.cart = next
	cc.page.SetValue(inputID, "1")
	cc.logger.Debug("added to cart",
		zap.Int64("product_id", productId),
		zap.Int("quantity", qty),
		zap.Int("lines", cc.cart.Len()))
	cc.render()
	return nil
}

// UpdateCartItem sets the quantity of the line at index. Non-numeric or
// non-positive input is ignored without telling the user.
func (cc *CartController) UpdateCartItem(index int, newQuantity string) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.submitted {
		return models.ErrCartSubmitted
	}
	qty, ok := cart.ParseIntPrefix(newQuantity)
	if !ok {
		return fmt.Errorf("update line %d to %q: %w", index, newQuantity, models.ErrInvalidQuantity)
	}
	next, err := cart.Update(cc.cart, index, qty)
	if err != nil {
		return err
	}
	cc.cart = next
	cc.render()
	return nil
}

func (cc *CartController) RemoveFromCart(index int) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.submitted {
		return models.ErrCartSubmitted
	}
	next, err := cart.Remove(cc.cart, index)
	if err != nil {
		return err
	}
	cc.cart = next
	cc.render()
	return nil
}

func (cc *CartController) Render() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.render()
}

func (cc *CartController) render() {
	cc.view.Render(cc.page, cc.cart)
}

// Reset starts a new cart, as a fresh page load would.
func (cc *CartController) Reset() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cart = cart.New()
	cc.submitted = false
	cc.render()
}

func (cc *CartController) State() State {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	switch {
	case cc.submitted:
		return StateSubmitted
	case cc.cart.IsEmpty():
		return StateEmpty
	}
	return StatePopulated
}

func (cc *CartController) Cart() cart.Cart {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.cart
}

func (cc *CartController) Items() []entities.LineItem {
	return cc.Cart().Items()
}

// GenerateInvoice submits the cart once. A call made while another
// submission is in flight returns ErrSubmissionInFlight and sends nothing.
func (cc *CartController) GenerateInvoice(ctx context.Context) error {
	if !cc.submitting.CompareAndSwap(false, true) {
		cc.logger.Info("invoice submission already in flight, ignoring")
		return models.ErrSubmissionInFlight
	}
	defer cc.submitting.Store(false)

	invoice, pageURL, err := cc.prepareInvoice()
	if err != nil {
		return err
	}

	cc.logger.Info("submitting invoice",
		zap.Int("lines", len(invoice.Items)),
		zap.Float64("total_amount", invoice.TotalAmount),
		zap.String("payment_method", invoice.PaymentMethod))

	resp, err := cc.submitter.SubmitInvoice(ctx, pageURL, invoice)
	if err != nil {
		cc.logger.Error("invoice submission failed", zap.Error(err))
		cc.page.Alert(alertNetworkError)
		if errors.Is(err, models.ErrTransport) {
			return err
		}
		return fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = alertUnknownError
		}
		cc.logger.Warn("invoice rejected", zap.String("error", msg))
		cc.page.Alert(alertInvoiceFailed + msg)
		return fmt.Errorf("%w: %s", models.ErrInvoiceRejected, msg)
	}

	cc.mu.Lock()
	cc.submitted = true
	cc.mu.Unlock()

	cc.logger.Info("invoice generated", zap.String("sale_id", string(resp.SaleId)))
	cc.page.Alert(alertInvoiceCreated)
	cc.page.Navigate(InvoicePrintPath(resp.SaleId))
	return nil
}

func (cc *CartController) prepareInvoice() (invoice models.InvoiceRequest, pageURL string, err error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.submitted {
		err = models.ErrCartSubmitted
		return
	}
	if cc.cart.IsEmpty() {
		cc.page.Alert(alertEmptyCart)
		err = models.ErrEmptyCart
		return
	}

	customer := models.InvoiceCustomer{
		Name:    cc.fieldValue(page.CustomerName),
		Phone:   cc.fieldValue(page.CustomerPhone),
		Email:   cc.fieldValue(page.CustomerEmail),
		Address: cc.fieldValue(page.CustomerAddress),
	}
	// only a name makes the phone mandatory
	if strings.TrimSpace(customer.Phone) == "" && strings.TrimSpace(customer.Name) != "" {
		cc.page.Alert(alertPhoneRequired)
		err = models.ErrPhoneRequired
		return
	}

	// the total is read back from the page, not summed again
	totalText, ok := cc.page.Text(page.GrandTotal)
	if !ok {
		cc.logger.Debug("grand total element missing, not submitting")
		err = fmt.Errorf("%s: %w", page.GrandTotal, models.ErrMissingElement)
		return
	}
	total, ok := cart.ParseFloatPrefix(totalText)
	if !ok {
		cc.logger.Debug("grand total unreadable, not submitting", zap.String("text", totalText))
		err = fmt.Errorf("%s %q: %w", page.GrandTotal, totalText, models.ErrMissingElement)
		return
	}

	invoice = models.InvoiceRequest{
		Customer:      customer,
		Items:         cc.cart.InvoiceItems(),
		TotalAmount:   total,
		PaymentMethod: cc.fieldValue(page.PaymentMethod),
	}
	pageURL = cc.page.Location()
	return
}

func (cc *CartController) fieldValue(id string) string {
	v, _ := cc.page.Value(id)
	return v
}

func InvoicePrintPath(saleId models.SaleID) string {
	return "/invoice/" + url.PathEscape(string(saleId)) + "/print/"
}
