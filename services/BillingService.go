package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"billingDesk/entities"
	"billingDesk/models"
	"billingDesk/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const customersOnBillingPage = 10

var paymentMethods = map[string]bool{
	"cash": true,
	"card": true,
	"upi":  true,
}

type BillingService struct {
	pr     repository.ProductRepository
	cr     repository.CustomerRepository
	sr     repository.SaleRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewBillingService(productRepo repository.ProductRepository, customerRepo repository.CustomerRepository, saleRepo repository.SaleRepository, logger *zap.Logger) BillingService {
	return BillingService{
		pr:     productRepo,
		cr:     customerRepo,
		sr:     saleRepo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// BillingPage lists the first customers and every product in stock.
func (bs *BillingService) BillingPage(ctx context.Context) (page models.BillingPageResponse, err error) {
	customers, err := bs.cr.List(ctx, customersOnBillingPage)
	if err != nil {
		return
	}
	prods, err := bs.pr.InStock(ctx)
	if err != nil {
		return
	}
	page.Customers = customerViews(customers)
	page.Products = productViews(prods)
	return
}

// CreateSale persists an invoice submitted from the billing page. The
// customer is recorded only when a name was given.
func (bs *BillingService) CreateSale(ctx context.Context, req models.InvoiceRequest) (saleId int64, err error) {
	if len(req.Items) == 0 {
		err = fmt.Errorf("no items: %w", models.ErrBadRequest)
		return
	}
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = "cash"
	}
	if !paymentMethods[method] {
		err = fmt.Errorf("unknown payment method %q: %w", req.PaymentMethod, models.ErrBadRequest)
		return
	}

	var customer *models.InvoiceCustomer
	if strings.TrimSpace(req.Customer.Name) != "" {
		if strings.TrimSpace(req.Customer.Phone) == "" {
			err = fmt.Errorf("customer phone missing: %w", models.ErrBadRequest)
			return
		}
		c := req.Customer
		customer = &c
	}

	items := make([]models.SaleItem_db, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity < 1 {
			err = fmt.Errorf("product %d: quantity must be at least 1: %w", it.ProductId, models.ErrBadRequest)
			return
		}
		items = append(items, models.SaleItem_db{
			ProductId:    it.ProductId,
			QuantitySold: it.Quantity,
			UnitPrice:    decimal.NewFromFloat(it.UnitPrice).Round(2),
			Subtotal:     decimal.NewFromFloat(it.Subtotal).Round(2),
		})
	}

	sale := models.Sale_db{
		Date:          bs.now(),
		TotalAmount:   decimal.NewFromFloat(req.TotalAmount).Round(2),
		PaymentMethod: method,
	}
	saleId, invoiceNo, err := bs.sr.CreateSale(ctx, customer, sale, items)
	if err != nil {
		return
	}
	bs.logger.Info("sale created",
		zap.Int64("sale_id", saleId),
		zap.String("invoice_no", invoiceNo),
		zap.Int("items", len(items)),
		zap.String("total", sale.TotalAmount.StringFixed(2)))
	return
}

func (bs *BillingService) GetInvoice(ctx context.Context, saleId int64) (invoice entities.Invoice, err error) {
	return bs.sr.GetInvoice(ctx, saleId)
}
